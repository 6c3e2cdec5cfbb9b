package prefs

import (
	"context"
	"errors"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/leapstack-labs/leapquery/internal/testutil"
	"github.com/leapstack-labs/leapquery/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStorage struct {
	items  map[string]string
	writes int
	getErr error
}

func newMemStorage(items map[string]string) *memStorage {
	if items == nil {
		items = map[string]string{}
	}
	return &memStorage{items: items}
}

func (m *memStorage) GetItem(_ context.Context, key string) (string, bool, error) {
	if m.getErr != nil {
		return "", false, m.getErr
	}
	v, ok := m.items[key]
	return v, ok, nil
}

func (m *memStorage) SetItem(_ context.Context, key, value string) error {
	m.writes++
	m.items[key] = value
	return nil
}

func (m *memStorage) RemoveItem(_ context.Context, key string) error {
	delete(m.items, key)
	return nil
}

func decode(t *testing.T, raw string) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &out))
	return out
}

func TestResolve_Defaults(t *testing.T) {
	s, err := New(context.Background(), newMemStorage(nil), testutil.NewTestLogger(t))
	require.NoError(t, err)

	assert.Equal(t, core.ButtonPreference{Label: "Create & Run", AlsoRun: true}, s.Resolve(core.ModeCreate))
	assert.Equal(t, core.ButtonPreference{Label: "Save & Run", AlsoRun: true}, s.Resolve(core.ModeEdit))
}

func TestSave_OnlyTouchesMode(t *testing.T) {
	ctx := context.Background()
	storage := newMemStorage(map[string]string{
		PreferencesKey: `{"theme":"dark","buttonConfig":{"createMode":{"text":"Create","shouldRunQuery":false}}}`,
	})
	s, err := New(ctx, storage, nil)
	require.NoError(t, err)

	require.NoError(t, s.Save(ctx, core.ModeEdit, "Save", false))

	assert.Equal(t, core.ButtonPreference{Label: "Create", AlsoRun: false}, s.Resolve(core.ModeCreate))
	assert.Equal(t, core.ButtonPreference{Label: "Save", AlsoRun: false}, s.Resolve(core.ModeEdit))

	record := decode(t, storage.items[PreferencesKey])
	assert.Equal(t, "dark", record["theme"], "unrelated keys survive")
	assert.Equal(t, map[string]any{
		"createMode": map[string]any{"text": "Create", "shouldRunQuery": false},
		"editMode":   map[string]any{"text": "Save", "shouldRunQuery": false},
	}, record["buttonConfig"])

	// A fresh store sees the written value.
	reloaded, err := New(ctx, storage, nil)
	require.NoError(t, err)
	assert.Equal(t, s.Resolve(core.ModeEdit), reloaded.Resolve(core.ModeEdit))
}

func TestResolve_PartialEntry(t *testing.T) {
	storage := newMemStorage(map[string]string{
		PreferencesKey: `{"buttonConfig":{"editMode":{"text":"Save"}}}`,
	})
	s, err := New(context.Background(), storage, nil)
	require.NoError(t, err)

	assert.Equal(t, core.ButtonPreference{Label: "Save", AlsoRun: true}, s.Resolve(core.ModeEdit))
}

func TestLoad_MigratesLegacyKey(t *testing.T) {
	ctx := context.Background()
	storage := newMemStorage(map[string]string{
		PreferencesKey:        `{"panelHeight":300}`,
		LegacyButtonConfigKey: `{"createMode":{"text":"Create","shouldRunQuery":false}}`,
	})

	s, err := New(ctx, storage, nil)
	require.NoError(t, err)

	_, stillThere := storage.items[LegacyButtonConfigKey]
	assert.False(t, stillThere, "legacy key is erased")
	assert.Equal(t, core.ButtonPreference{Label: "Create", AlsoRun: false}, s.Resolve(core.ModeCreate))

	first := storage.items[PreferencesKey]
	record := decode(t, first)
	assert.EqualValues(t, 300, record["panelHeight"])

	// Migration is idempotent.
	require.NoError(t, s.Load(ctx))
	assert.Equal(t, first, storage.items[PreferencesKey])
	_, stillThere = storage.items[LegacyButtonConfigKey]
	assert.False(t, stillThere)
}

func TestLoad_MigrationWithoutRecord(t *testing.T) {
	storage := newMemStorage(map[string]string{
		LegacyButtonConfigKey: `{"editMode":{"text":"Save","shouldRunQuery":false}}`,
	})
	s, err := New(context.Background(), storage, nil)
	require.NoError(t, err)

	assert.Equal(t, core.ButtonPreference{Label: "Save", AlsoRun: false}, s.Resolve(core.ModeEdit))
	assert.Equal(t, 1, storage.writes)
}

func TestLoad_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := New(ctx, newMemStorage(map[string]string{PreferencesKey: "{not json"}), nil)
	assert.Error(t, err)

	_, err = New(ctx, newMemStorage(map[string]string{LegacyButtonConfigKey: "{not json"}), nil)
	assert.Error(t, err)

	storage := newMemStorage(nil)
	storage.getErr = errors.New("disk gone")
	_, err = New(ctx, storage, nil)
	assert.ErrorIs(t, err, storage.getErr)
}

func TestDiscardTransformDraft(t *testing.T) {
	ctx := context.Background()
	storage := newMemStorage(map[string]string{TransformDraftKey: "return data"})
	s, err := New(ctx, storage, nil)
	require.NoError(t, err)

	require.NoError(t, s.DiscardTransformDraft(ctx))
	assert.NotContains(t, storage.items, TransformDraftKey)
}
