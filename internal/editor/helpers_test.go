package editor

import (
	"context"
	"errors"
	"testing"

	"github.com/leapstack-labs/leapquery/internal/prefs"
	"github.com/leapstack-labs/leapquery/internal/registry"
	"github.com/leapstack-labs/leapquery/internal/testutil"
	"github.com/leapstack-labs/leapquery/pkg/core"
	"github.com/stretchr/testify/require"
)

type runCall struct{ id, name string }

type fakeHost struct {
	drafts         []*core.Query
	draftSources   []*core.DataSource
	clears         int
	unsaved        []bool
	confirmations  []bool
	cancelData     []CancelData
	queriesChanged int
	runs           []runCall
}

func (h *fakeHost) CreateDraftQuery(stub *core.Query, source *core.DataSource) {
	h.drafts = append(h.drafts, stub)
	h.draftSources = append(h.draftSources, source)
}
func (h *fakeHost) ClearDraftQuery() { h.clears++ }
func (h *fakeHost) SetStateOfUnsavedQueries(v bool) { h.unsaved = append(h.unsaved, v) }
func (h *fakeHost) SetSaveConfirmation(v bool) { h.confirmations = append(h.confirmations, v) }
func (h *fakeHost) SetCancelData(d CancelData) { h.cancelData = append(h.cancelData, d) }
func (h *fakeHost) DataQueriesChanged() { h.queriesChanged++ }
func (h *fakeHost) RunQuery(id, name string) { h.runs = append(h.runs, runCall{id, name}) }
func (h *fakeHost) lastUnsaved() (bool, bool) {
	if len(h.unsaved) == 0 {
		return false, false
	}
	return h.unsaved[len(h.unsaved)-1], true
}

type fakeService struct {
	creates []core.CreateRequest
	updates []core.Query
	create  func(req core.CreateRequest) (*core.Query, error)
	update  func(id, name string, opts core.Options) (*core.Query, error)
}

func (s *fakeService) Create(_ context.Context, req core.CreateRequest) (*core.Query, error) {
	s.creates = append(s.creates, req)
	if s.create != nil {
		return s.create(req)
	}
	return &core.Query{ID: "new-id", Name: req.Name, Kind: req.Kind, Options: req.Options}, nil
}

func (s *fakeService) Update(_ context.Context, id, name string, opts core.Options) (*core.Query, error) {
	s.updates = append(s.updates, core.Query{ID: id, Name: name, Options: opts})
	if s.update != nil {
		return s.update(id, name, opts)
	}
	return &core.Query{ID: id, Name: name, Options: opts}, nil
}

type fakeNotifier struct {
	successes []string
	errors    []string
}

func (n *fakeNotifier) Success(msg string) { n.successes = append(n.successes, msg) }
func (n *fakeNotifier) Error(msg string) { n.errors = append(n.errors, msg) }

type fakePreviewer struct {
	got  []core.Query
	data any
	err  error
}

func (p *fakePreviewer) Preview(_ context.Context, q core.Query) (any, error) {
	p.got = append(p.got, q)
	return p.data, p.err
}

type memStorage map[string]string

func (m memStorage) GetItem(_ context.Context, key string) (string, bool, error) {
	v, ok := m[key]
	return v, ok, nil
}
func (m memStorage) SetItem(_ context.Context, key, value string) error { m[key] = value; return nil }
func (m memStorage) RemoveItem(_ context.Context, key string) error { delete(m, key); return nil }

type failingPrefs struct{ *prefs.Store }

func (failingPrefs) Save(context.Context, core.Mode, string, bool) error {
	return errors.New("quota exceeded")
}

type fixture struct {
	editor    *Editor
	host      *fakeHost
	service   *fakeService
	notifier  *fakeNotifier
	previewer *fakePreviewer
	storage   memStorage
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	storage := memStorage{}
	store, err := prefs.New(ctx, storage, nil)
	require.NoError(t, err)
	reg, err := registry.Default()
	require.NoError(t, err)

	f := &fixture{
		host:      &fakeHost{},
		service:   &fakeService{},
		notifier:  &fakeNotifier{},
		previewer: &fakePreviewer{},
		storage:   storage,
	}
	f.editor, err = New(Config{
		Registry:    reg,
		Preferences: store,
		Host:        f.host,
		Service:     f.service,
		Notifier:    f.notifier,
		Previewer:   f.previewer,
		Logger:      testutil.NewTestLogger(t),
	})
	require.NoError(t, err)
	return f
}

var (
	pgSource = core.DataSource{ID: "ds-pg", Kind: "postgresql", Name: "warehouse"}

	restQuery = core.Query{
		ID:   "q1",
		Name: "foo",
		Kind: core.KindRestAPI,
		Options: core.Options{
			"method":  "get",
			"url":     "https://example.com",
			"headers": []any{[]any{"Accept", "json"}, []any{"", ""}},
		},
	}
	pgQuery = core.Query{
		ID:           "q2",
		Name:         "orders",
		Kind:         "postgresql",
		DataSourceID: "ds-pg",
		Options:      core.Options{"mode": "sql", "query": "select 1"},
	}
)

// editProps selects q in edit mode.
func editProps(q core.Query) Props {
	return Props{
		AppID:            "app",
		EditingVersionID: "v1",
		Mode:             core.ModeEdit,
		DataSources:      []core.DataSource{pgSource},
		DataQueries:      []core.Query{restQuery, pgQuery},
		SelectedQuery:    &q,
		IsSourceSelected: true,
		QueryPaneHeight:  300,
		EditingQuery:     true,
		Running:          map[string]bool{},
	}
}

func createProps() Props {
	return Props{
		AppID:            "app",
		EditingVersionID: "v1",
		Mode:             core.ModeCreate,
		DataSources:      []core.DataSource{pgSource},
		DataQueries:      []core.Query{restQuery, pgQuery},
		QueryPaneHeight:  300,
		AddingQuery:      true,
		Running:          map[string]bool{},
	}
}
