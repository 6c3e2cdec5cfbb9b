package registry

import (
	"testing"

	"github.com/leapstack-labs/leapquery/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	r, err := Default()
	require.NoError(t, err)

	again, err := Default()
	require.NoError(t, err)
	assert.Same(t, r, again, "built-in registry is resolved once")

	rest, ok := r.Lookup(core.KindRestAPI)
	require.True(t, ok)
	assert.True(t, rest.Schemaless)
	assert.True(t, rest.SeedsTransform())
	assert.Equal(t, "get", rest.Defaults["method"])
	assert.Contains(t, rest.Defaults, "url")
	assert.Nil(t, rest.Defaults["url"])

	js, ok := r.Lookup(core.KindRunJS)
	require.True(t, ok)
	assert.True(t, js.Schemaless)
	assert.False(t, js.SeedsTransform())

	stripe, ok := r.Lookup("stripe")
	require.True(t, ok)
	assert.True(t, stripe.Schemaless)
	assert.Empty(t, stripe.Defaults)
	assert.Equal(t, "Stripe", stripe.Name, "display name is derived from the tag")

	pg, ok := r.Lookup("postgresql")
	require.True(t, ok)
	assert.False(t, pg.Schemaless)
}

func TestStaticSources(t *testing.T) {
	r, err := Default()
	require.NoError(t, err)

	assert.Equal(t, []core.DataSource{
		{ID: core.RestAPISourceID, Kind: core.KindRestAPI, Name: "REST API"},
		{ID: core.RunJSSourceID, Kind: core.KindRunJS, Name: "Run JavaScript code"},
	}, r.StaticSources())
}

func TestMeta(t *testing.T) {
	r, err := Default()
	require.NoError(t, err)

	meta := r.Meta("redis")
	require.NotNil(t, meta)
	assert.True(t, meta.DisableTransformations)
	assert.Nil(t, r.Meta("does-not-exist"))
}

func TestLoad(t *testing.T) {
	r, err := Load([]byte(`
kinds:
  - kind: custom
    defaults:
      a: 1
  - kind: custom
    name: Replaced
`))
	require.NoError(t, err)
	assert.Equal(t, 1, r.Count())

	k, ok := r.Lookup("custom")
	require.True(t, ok)
	assert.Equal(t, "Replaced", k.Name)
	assert.NotNil(t, k.Defaults)

	_, err = Load([]byte("kinds:\n  - name: missing tag\n"))
	assert.Error(t, err)

	_, err = Load([]byte("kinds: [unterminated"))
	assert.Error(t, err)
}

func TestAll_Sorted(t *testing.T) {
	r := New()
	r.Register(Kind{Kind: "b"})
	r.Register(Kind{Kind: "a"})

	all := r.All()
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].Kind)
	assert.Equal(t, "B", all[1].Name)
}
