package optdiff

import (
	"testing"

	"github.com/leapstack-labs/leapquery/pkg/core"
	"github.com/stretchr/testify/assert"
)

func restOptions() core.Options {
	return core.Options{
		"method":  "get",
		"url":     "https://api.example.com",
		"headers": []any{[]any{"", ""}, []any{"Accept", "json"}},
		"body":    []any{[]any{"", ""}},
	}
}

func TestIsDirty_Reflexive(t *testing.T) {
	cases := map[string]core.Options{
		"empty":   {},
		"nil":     nil,
		"rest":    restOptions(),
		"nested":  {"a": map[string]any{"b": []any{1, 2.5, "x"}}},
		"numbers": {"limit": 10},
	}
	for name, opts := range cases {
		t.Run(name, func(t *testing.T) {
			for _, kind := range []string{core.KindRestAPI, core.KindRunJS, "postgresql"} {
				assert.False(t, IsDirty(opts, opts.Clone(), kind, false))
			}
		})
	}
}

func TestIsDirty_TransientMarkerIgnored(t *testing.T) {
	baseline := restOptions()
	current := restOptions()
	current[core.OptionArrayValuesChanged] = true

	assert.False(t, IsDirty(current, baseline, "postgresql", false))
	assert.False(t, IsDirty(current, baseline, core.KindRestAPI, false))
	assert.False(t, IsDirty(current, baseline, "postgresql", true), "headers flag only matters for restapi")
	assert.True(t, IsDirty(current, baseline, core.KindRestAPI, true))

	// Stripping never mutates the caller's map.
	assert.Contains(t, current, core.OptionArrayValuesChanged)
}

func TestIsDirty_DetectsEdits(t *testing.T) {
	baseline := restOptions()

	changed := restOptions()
	changed["url"] = "https://api.example.com/v2"
	assert.True(t, IsDirty(changed, baseline, core.KindRestAPI, false))

	reverted := changed.Clone()
	reverted["url"] = "https://api.example.com"
	assert.False(t, IsDirty(reverted, baseline, core.KindRestAPI, false), "reverting to the baseline is clean")

	added := restOptions()
	added["json_body"] = nil
	assert.True(t, IsDirty(added, baseline, core.KindRestAPI, false), "a new key counts even when null")
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(core.Options{"n": 1}, core.Options{"n": 1.0}))
	assert.True(t, Equal(core.Options(nil), core.Options{}))
	assert.True(t, Equal(map[string]any{"a": 1, "b": 2}, map[string]any{"b": 2, "a": 1}))
	assert.False(t, Equal([]any{"a", "b"}, []any{"b", "a"}), "list order is significant")
	assert.False(t, Equal(core.Options{"flag": false}, core.Options{}))
}

func TestStrip(t *testing.T) {
	opts := core.Options{"a": 1, core.OptionArrayValuesChanged: true}
	stripped := Strip(opts)
	assert.Equal(t, core.Options{"a": 1}, stripped)
	assert.True(t, HeadersChanged(opts))
	assert.False(t, HeadersChanged(stripped))
}
