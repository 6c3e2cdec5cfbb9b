package commands

import (
	"log/slog"
	"sync"

	"github.com/leapstack-labs/leapquery/internal/cli/output"
	"github.com/leapstack-labs/leapquery/internal/editor"
	"github.com/leapstack-labs/leapquery/pkg/core"
)

// runRequest is a query execution the editor asked for.
type runRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// terminalHost is the editor host of a single CLI invocation. It has no
// document to update, so it records the editor's requests and reports them.
type terminalHost struct {
	mu       sync.Mutex
	renderer *output.Renderer
	logger   *slog.Logger

	draft   *core.Query
	unsaved bool
	changed int
	runs    []runRequest
}

var _ editor.Host = (*terminalHost)(nil)

func newTerminalHost(r *output.Renderer, logger *slog.Logger) *terminalHost {
	return &terminalHost{renderer: r, logger: logger}
}

func (h *terminalHost) CreateDraftQuery(stub *core.Query, source *core.DataSource) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.draft = stub.Clone()
	h.logger.Debug("draft created", slog.String("name", stub.Name), slog.String("source", source.ID))
}

func (h *terminalHost) ClearDraftQuery() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.draft = nil
}

func (h *terminalHost) SetStateOfUnsavedQueries(unsaved bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.unsaved = unsaved
}

// SetSaveConfirmation is never raised: the CLI does not navigate away from
// an edit session.
func (h *terminalHost) SetSaveConfirmation(bool) {}

func (h *terminalHost) SetCancelData(editor.CancelData) {}

func (h *terminalHost) DataQueriesChanged() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.changed++
}

// RunQuery records the request. Execution belongs to the runtime hosting
// the query, not to the editor.
func (h *terminalHost) RunQuery(id, name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.runs = append(h.runs, runRequest{ID: id, Name: name})
	h.renderer.Success("Run requested for " + name)
}

func (h *terminalHost) Draft() *core.Query {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.draft.Clone()
}

func (h *terminalHost) Runs() []runRequest {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]runRequest(nil), h.runs...)
}
