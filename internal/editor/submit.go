package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/leapquery/internal/naming"
	"github.com/leapstack-labs/leapquery/pkg/core"
)

// MsgQueryAdded is the notification shown after a successful create.
const MsgQueryAdded = "Query Added"

// Submit persists the session: an update in edit mode, a create otherwise.
//
// Invalid names are rejected with a *core.ValidationError before any remote
// call. Service failures are reported through the Notifier and returned as a
// *core.PersistenceError; the working copy is kept either way.
func (e *Editor) Submit(ctx context.Context) error {
	e.mu.Lock()
	mode := e.mode()
	name := e.st.QueryName
	sel := e.st.SelectedQuery.Clone()
	src := cloneSource(e.st.SelectedDataSource)

	if mode == core.ModeEdit && sel == nil {
		e.mu.Unlock()
		return fmt.Errorf("failed to update query: %w", core.ErrQueryNotFound)
	}
	if mode == core.ModeCreate && src == nil {
		e.mu.Unlock()
		return fmt.Errorf("failed to create query: %w", core.ErrNoSourceSelected)
	}

	if !naming.IsValidName(name, mode, e.props.DataQueries, queryID(sel)) {
		e.mu.Unlock()
		e.logger.Debug("rejected query name", slog.String("name", name))
		e.notifier.Error(naming.InvalidNameMessage)
		return &core.ValidationError{Name: name}
	}

	token := e.token
	e.submitSeq++
	seq := e.submitSeq
	alsoRun := e.st.AlsoRun
	opts := e.st.Options.Clone()
	if mode == core.ModeEdit {
		e.st.IsUpdating = true
		e.lastUpdate = seq
	} else {
		e.st.IsCreating = true
		e.lastCreate = seq
	}
	req := core.CreateRequest{
		AppID:        e.st.AppID,
		VersionID:    e.props.EditingVersionID,
		Name:         name,
		Options:      opts,
		DataSourceID: src.BoundID(),
	}
	if src != nil {
		req.Kind = src.Kind
		req.PluginID = src.PluginID
	}
	e.mu.Unlock()

	if mode == core.ModeEdit {
		e.logger.Info("updating query", slog.String("id", sel.ID), slog.String("name", name))
		saved, err := e.service.Update(ctx, sel.ID, name, opts)
		return e.finishUpdate(ctx, submission{token: token, seq: seq}, sel.ID, alsoRun, saved, err)
	}

	e.logger.Info("creating query", slog.String("name", name), slog.String("kind", req.Kind))
	saved, err := e.service.Create(ctx, req)
	return e.finishCreate(submission{token: token, seq: seq}, alsoRun, saved, err)
}

// submission identifies one Submit call: the session it started in and its
// place among all submissions.
type submission struct {
	token uint64
	seq   uint64
}

func (e *Editor) finishUpdate(ctx context.Context, sub submission, id string, alsoRun bool, saved *core.Query, err error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err != nil {
		return e.fail(sub, "update", err)
	}
	if saved != nil && saved.ID != "" {
		id = saved.ID
	}

	if e.stale(sub.token) {
		e.release(sub.seq, true)
		e.host.DataQueriesChanged()
		return nil
	}

	e.clearDirty()
	if alsoRun {
		e.st.IsUpdating = true
		e.pending = &PendingSubmission{QueryID: id, Update: true}
	} else {
		e.release(sub.seq, true)
	}
	e.host.DataQueriesChanged()
	e.host.SetStateOfUnsavedQueries(false)
	if err := e.prefs.DiscardTransformDraft(ctx); err != nil {
		e.logger.Warn("failed to discard transformation draft", slog.String("error", err.Error()))
	}
	return nil
}

func (e *Editor) finishCreate(sub submission, alsoRun bool, saved *core.Query, err error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err != nil {
		return e.fail(sub, "create", err)
	}

	e.notifier.Success(MsgQueryAdded)
	if e.stale(sub.token) {
		e.release(sub.seq, false)
		e.host.DataQueriesChanged()
		return nil
	}

	e.clearDirty()
	if alsoRun && saved != nil {
		e.st.IsCreating = true
		e.pending = &PendingSubmission{QueryID: saved.ID, Update: false}
	} else {
		e.release(sub.seq, false)
	}
	e.endDraft()
	e.host.DataQueriesChanged()
	e.host.SetStateOfUnsavedQueries(false)
	return nil
}

func (e *Editor) fail(sub submission, op string, err error) error {
	var pe *core.PersistenceError
	if !errors.As(err, &pe) {
		pe = &core.PersistenceError{Op: op, Err: err}
	} else if pe.Op == "" {
		c := *pe
		c.Op = op
		pe = &c
	}

	e.logger.Warn("query submission failed", slog.String("op", op), slog.String("error", err.Error()))
	e.release(sub.seq, op == "update")
	if !e.stale(sub.token) {
		e.clearDirty()
		e.host.SetStateOfUnsavedQueries(false)
	}
	e.notifier.Error(core.UserMessage(pe))
	return pe
}

// release clears the in-flight flag of a finished submission unless a newer
// submission of the same kind has been started since.
func (e *Editor) release(seq uint64, update bool) {
	if update {
		if e.lastUpdate == seq {
			e.st.IsUpdating = false
		}
		return
	}
	if e.lastCreate == seq {
		e.st.IsCreating = false
	}
}

func (e *Editor) stale(token uint64) bool {
	if token == e.token {
		return false
	}
	e.logger.Debug("dropping stale response", slog.Uint64("token", token), slog.Uint64("current", e.token))
	return true
}

func (e *Editor) clearDirty() {
	e.st.IsFieldsChanged = false
	e.st.IsNameChanged = false
	e.st.HeadersChanged = false
}

// Preview runs the working copy through the Previewer and stores the result.
// Failures are logged and returned but not notified.
func (e *Editor) Preview(ctx context.Context) error {
	if e.previewer == nil {
		return fmt.Errorf("failed to preview query: no previewer configured")
	}

	e.mu.Lock()
	src := e.st.SelectedDataSource
	if src == nil {
		e.mu.Unlock()
		return fmt.Errorf("failed to preview query: %w", core.ErrNoSourceSelected)
	}
	id := queryID(e.st.SelectedQuery)
	if id == "" {
		id = core.DraftQueryID
	}
	q := core.Query{
		ID:           id,
		Name:         e.st.QueryName,
		Kind:         src.Kind,
		DataSourceID: src.BoundID(),
		PluginID:     src.PluginID,
		AppID:        e.st.AppID,
		VersionID:    e.st.VersionID,
		Options:      e.st.Options.Clone(),
	}
	token := e.token
	e.st.PreviewLoading = true
	e.mu.Unlock()

	data, err := e.previewer.Preview(ctx, q)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.st.PreviewLoading = false
	if err != nil {
		e.logger.Warn("query preview failed", slog.String("name", q.Name), slog.String("error", err.Error()))
		return fmt.Errorf("failed to preview query: %w", err)
	}
	if e.stale(token) {
		return nil
	}
	e.st.PreviewData = data
	return nil
}
