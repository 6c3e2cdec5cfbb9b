// Package editor implements the query editor's state machine.
//
// An Editor owns the local edit session of one query: the working copy of its
// options and name, the dirty flags, the in-flight submission flags and the
// presentation state derived from them. Hosts feed it external state through
// Apply, forward user edits through the Set* methods and persist the session
// with Submit. The Editor calls back into the Host for every side effect on
// the surrounding document.
//
// All methods are safe for concurrent use. Submit and Preview release the
// lock while the remote call is outstanding; responses that arrive after the
// session moved on are fenced by a session token. Host, Notifier and
// Previewer implementations must not call back into the Editor.
package editor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/leapstack-labs/leapquery/internal/registry"
	"github.com/leapstack-labs/leapquery/pkg/core"
)

// Host is the document that owns the query list and the global editor chrome.
type Host interface {
	// CreateDraftQuery registers the unsaved draft so it becomes addressable.
	CreateDraftQuery(stub *core.Query, source *core.DataSource)
	// ClearDraftQuery removes the draft registered by CreateDraftQuery.
	ClearDraftQuery()
	// SetStateOfUnsavedQueries toggles the global unsaved indicator.
	SetStateOfUnsavedQueries(unsaved bool)
	// SetSaveConfirmation asks the user to confirm discarding edits.
	SetSaveConfirmation(show bool)
	// SetCancelData is the state to apply when the user confirms the discard.
	SetCancelData(data CancelData)
	// DataQueriesChanged invalidates the sibling query list.
	DataQueriesChanged()
	// RunQuery executes a persisted query.
	RunQuery(id, name string)
}

// CancelData is handed to the host before a discard confirmation.
type CancelData struct {
	IsSourceSelected   bool
	SelectedDataSource *core.DataSource
	SelectedQuery      *core.Query
	DraftQuery         *core.Query
}

// QueryService persists queries. Errors should be *core.PersistenceError
// carrying the service's message; other errors are wrapped into one.
type QueryService interface {
	Create(ctx context.Context, req core.CreateRequest) (*core.Query, error)
	Update(ctx context.Context, id, name string, options core.Options) (*core.Query, error)
}

// Notifier shows transient user notifications.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// Previewer executes a query without persisting it.
type Previewer interface {
	Preview(ctx context.Context, q core.Query) (any, error)
}

// Preferences is the primary-button preference store.
type Preferences interface {
	Resolve(mode core.Mode) core.ButtonPreference
	Save(ctx context.Context, mode core.Mode, label string, alsoRun bool) error
	DiscardTransformDraft(ctx context.Context) error
}

// Props is the external state pushed by the host.
type Props struct {
	LoadingDataSources    bool
	ShowQueryConfirmation bool
	// ToggleQueryEditor changes whenever the host toggles the editor pane.
	ToggleQueryEditor int

	AppID            string
	EditingVersionID string
	Mode             core.Mode

	DataSources        []core.DataSource
	DataQueries        []core.Query
	SelectedQuery      *core.Query
	SelectedDataSource *core.DataSource
	IsSourceSelected   bool

	QueryPaneHeight           float64
	IsQueryPaneDragging       bool
	IsUnsavedQueriesAvailable bool
	DarkMode                  bool

	// Running reports, by query name, whether a query is executing.
	Running          map[string]bool
	QueryPreviewData any

	AddingQuery  bool
	EditingQuery bool
}

// PendingSubmission correlates a save that should be followed by a run with
// the host's confirmation that the run finished.
type PendingSubmission struct {
	QueryID string
	// Update is false for submissions that created the query.
	Update bool
	// RunTriggered is set once RunQuery has been issued.
	RunTriggered bool
}

// State is a snapshot of the edit session.
type State struct {
	Mode      core.Mode
	AppID     string
	VersionID string

	DataSources   []core.DataSource
	DataQueries   []core.Query
	SelectedQuery *core.Query
	// SelectedSource is the catalog entry of the selected query, if any.
	SelectedSource *core.DataSource
	// SelectedDataSource is the source new drafts and submissions use.
	SelectedDataSource *core.DataSource
	// SourceGeneration changes whenever SelectedDataSource is re-resolved.
	// Caches derived from the source must be rebuilt when it changes.
	SourceGeneration uint64
	IsSourceSelected bool
	SourceMeta       *core.SourceMeta

	Options         core.Options
	QueryName       string
	IsFieldsChanged bool
	IsNameChanged   bool
	HeadersChanged  bool

	QueryPaneHeight     float64
	IsQueryPaneDragging bool
	PaneHeightChanged   bool

	PreviewData    any
	PreviewLoading bool

	IsUpdating bool
	IsCreating bool
	Pending    *PendingSubmission

	ButtonLabel string
	AlsoRun     bool
	CurrentTab  core.Tab

	AddingQuery  bool
	EditingQuery bool
	DarkMode     bool
}

// Config holds editor dependencies.
type Config struct {
	// Registry resolves kinds. Defaults to registry.Default().
	Registry    *registry.Registry
	Preferences Preferences
	Host        Host
	Service     QueryService
	Notifier    Notifier
	// Previewer is optional; Preview fails without one.
	Previewer Previewer
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// Editor is the query editor state machine.
type Editor struct {
	mu sync.Mutex

	reg       *registry.Registry
	prefs     Preferences
	host      Host
	service   QueryService
	notifier  Notifier
	previewer Previewer
	logger    *slog.Logger

	props    Props
	hasProps bool
	merged   bool

	st       State
	baseline core.Options
	// running is the execution snapshot taken at the last full merge.
	running map[string]bool
	pending *PendingSubmission
	token   uint64

	// submitSeq numbers submissions. lastUpdate and lastCreate hold the
	// number of the newest submission of each kind so that an older response
	// never clears the in-flight flag of a newer one.
	submitSeq  uint64
	lastUpdate uint64
	lastCreate uint64
}

// New creates an editor.
func New(cfg Config) (*Editor, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	switch {
	case cfg.Preferences == nil:
		return nil, errMissing("preferences")
	case cfg.Host == nil:
		return nil, errMissing("host")
	case cfg.Service == nil:
		return nil, errMissing("query service")
	case cfg.Notifier == nil:
		return nil, errMissing("notifier")
	}

	reg := cfg.Registry
	if reg == nil {
		var err error
		if reg, err = registry.Default(); err != nil {
			return nil, err
		}
	}

	e := &Editor{
		reg:       reg,
		prefs:     cfg.Preferences,
		host:      cfg.Host,
		service:   cfg.Service,
		notifier:  cfg.Notifier,
		previewer: cfg.Previewer,
		logger:    logger,
		baseline:  core.Options{},
		running:   map[string]bool{},
	}
	e.st.Options = core.Options{}
	e.st.CurrentTab = core.TabGeneral
	return e, nil
}

// State returns a deep copy of the session.
func (e *Editor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshot()
}

// ShowTransformation reports whether the transform stage is available for
// the selected source.
func (e *Editor) ShowTransformation() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	src := e.st.SelectedDataSource
	if src == nil {
		return false
	}
	if e.st.SourceMeta != nil && e.st.SourceMeta.DisableTransformations {
		return false
	}
	if k, ok := e.reg.Lookup(src.Kind); ok {
		return k.SeedsTransform()
	}
	return true
}

// SubmitDisabled reports whether a create or update is in flight.
func (e *Editor) SubmitDisabled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.st.IsUpdating || e.st.IsCreating
}

func (e *Editor) snapshot() State {
	s := e.st
	s.DataSources = append([]core.DataSource(nil), e.st.DataSources...)
	s.DataQueries = append([]core.Query(nil), e.st.DataQueries...)
	s.SelectedQuery = e.st.SelectedQuery.Clone()
	s.SelectedSource = cloneSource(e.st.SelectedSource)
	s.SelectedDataSource = cloneSource(e.st.SelectedDataSource)
	s.Options = e.st.Options.Clone()
	if e.st.SourceMeta != nil {
		m := *e.st.SourceMeta
		s.SourceMeta = &m
	}
	if e.pending != nil {
		p := *e.pending
		s.Pending = &p
	}
	return s
}

func cloneSource(s *core.DataSource) *core.DataSource {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

func queryID(q *core.Query) string {
	if q == nil {
		return ""
	}
	return q.ID
}

// sameQuery compares selections by identity.
func sameQuery(a, b *core.Query) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.ID == b.ID
}

func errMissing(what string) error {
	return fmt.Errorf("editor: %s is required", what)
}
