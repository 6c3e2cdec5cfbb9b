package server

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/leapstack-labs/leapquery/internal/naming"
	"github.com/leapstack-labs/leapquery/internal/notifier"
	"github.com/leapstack-labs/leapquery/internal/registry"
	"github.com/leapstack-labs/leapquery/internal/state"
	"github.com/leapstack-labs/leapquery/pkg/core"
	"github.com/starfederation/datastar-go/datastar"
)

const maxBodyBytes = 1 << 20

// UpdateRequest is the body of PATCH /api/data_queries/{id}.
type UpdateRequest struct {
	Name    string       `json:"name"`
	Options core.Options `json:"options"`
}

// PreviewResponse is the dry-run result of POST /api/data_queries/preview.
type PreviewResponse struct {
	Query          core.Query       `json:"query"`
	Source         *core.SourceMeta `json:"source,omitempty"`
	Transformation bool             `json:"transformation"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Handlers provides the HTTP handlers of the query service.
type Handlers struct {
	store    state.QueryStore
	registry *registry.Registry
	notifier *notifier.Notifier
	logger   *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(store state.QueryStore, reg *registry.Registry, notify *notifier.Notifier, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handlers{
		store:    store,
		registry: reg,
		notifier: notify,
		logger:   logger,
	}
}

// Health reports liveness.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListQueries returns the queries of ?app_version_id=, or all of them.
func (h *Handlers) ListQueries(w http.ResponseWriter, r *http.Request) {
	queries, err := h.store.ListQueries(r.Context(), r.URL.Query().Get("app_version_id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	if queries == nil {
		queries = []core.Query{}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"data_queries": queries})
}

// CreateQuery persists a new query.
func (h *Handlers) CreateQuery(w http.ResponseWriter, r *http.Request) {
	var req core.CreateRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeStatus(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Kind == "" {
		h.writeStatus(w, http.StatusBadRequest, "kind is required")
		return
	}
	if req.Name == "" || !naming.MatchesPattern(req.Name) {
		h.writeStatus(w, http.StatusUnprocessableEntity, naming.InvalidNameMessage)
		return
	}

	created, err := h.store.CreateQuery(r.Context(), req.Query())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.logger.Info("query created", slog.String("id", created.ID), slog.String("name", created.Name))
	h.notify(notifier.LevelSuccess, fmt.Sprintf("query %s created", created.Name))
	h.writeJSON(w, http.StatusCreated, created)
}

// GetQuery returns one query.
func (h *Handlers) GetQuery(w http.ResponseWriter, r *http.Request) {
	q, err := h.store.GetQuery(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, q)
}

// UpdateQuery renames a query and replaces its options.
func (h *Handlers) UpdateQuery(w http.ResponseWriter, r *http.Request) {
	var req UpdateRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeStatus(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Name == "" || !naming.MatchesPattern(req.Name) {
		h.writeStatus(w, http.StatusUnprocessableEntity, naming.InvalidNameMessage)
		return
	}

	updated, err := h.store.UpdateQuery(r.Context(), chi.URLParam(r, "id"), req.Name, req.Options)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.logger.Info("query updated", slog.String("id", updated.ID), slog.String("name", updated.Name))
	h.notify(notifier.LevelSuccess, fmt.Sprintf("query %s updated", updated.Name))
	h.writeJSON(w, http.StatusOK, updated)
}

// DeleteQuery removes a query.
func (h *Handlers) DeleteQuery(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.store.DeleteQuery(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	h.notify(notifier.LevelSuccess, fmt.Sprintf("query %s deleted", id))
	w.WriteHeader(http.StatusNoContent)
}

// PreviewQuery resolves a query against the kind registry without
// persisting or executing it.
func (h *Handlers) PreviewQuery(w http.ResponseWriter, r *http.Request) {
	var q core.Query
	if err := decodeBody(r, &q); err != nil {
		h.writeStatus(w, http.StatusBadRequest, err.Error())
		return
	}
	kind, ok := h.registry.Lookup(q.Kind)
	if !ok && q.Manifest == nil {
		h.writeStatus(w, http.StatusUnprocessableEntity, fmt.Sprintf("unknown kind %q", q.Kind))
		return
	}

	resp := PreviewResponse{Query: q, Source: q.Manifest}
	if q.Manifest == nil {
		resp.Source = kind.Meta()
	}
	resp.Transformation = !resp.Source.DisableTransformations && (!ok || kind.SeedsTransform())
	if q.Options == nil {
		resp.Query.Options = core.Options{}
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// Events streams notifications as Datastar signal patches. Each event sets
// the "notification" signal to the published note.
func (h *Handlers) Events(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	ch := h.notifier.Subscribe()
	defer h.notifier.Unsubscribe(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case note, ok := <-ch:
			if !ok {
				return
			}
			if err := sse.MarshalAndPatchSignals(map[string]any{"notification": note}); err != nil {
				h.logger.Debug("event stream closed", slog.String("error", err.Error()))
				return
			}
		}
	}
}

func (h *Handlers) notify(level notifier.Level, msg string) {
	if h.notifier != nil {
		h.notifier.Publish(notifier.Notification{Level: level, Message: msg})
	}
}

func decodeBody(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("failed to read body: %w", err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		h.logger.Error("failed to encode response", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func (h *Handlers) writeStatus(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, ErrorResponse{Error: msg})
}

func (h *Handlers) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrQueryNotFound):
		h.writeStatus(w, http.StatusNotFound, err.Error())
	case errors.Is(err, core.ErrDuplicateName):
		h.writeStatus(w, http.StatusConflict, err.Error())
	default:
		h.logger.Error("request failed", "error", err)
		h.writeStatus(w, http.StatusInternalServerError, err.Error())
	}
}
