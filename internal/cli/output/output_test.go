package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEffectiveMode(t *testing.T) {
	tests := []struct {
		mode Mode
		want Mode
	}{
		{ModeAuto, ModeMarkdown},
		{"", ModeMarkdown},
		{ModeText, ModeText},
		{ModeJSON, ModeJSON},
		{ModeMarkdown, ModeMarkdown},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			r := NewRenderer(&bytes.Buffer{}, &bytes.Buffer{}, tt.mode)
			assert.Equal(t, tt.want, r.EffectiveMode())
		})
	}
}

func TestTable(t *testing.T) {
	t.Run("text", func(t *testing.T) {
		var out bytes.Buffer
		r := NewRenderer(&out, &bytes.Buffer{}, ModeText)
		r.Table([]string{"Name", "Kind"}, [][]any{{"postgresql1", "postgresql"}})
		assert.Contains(t, out.String(), "postgresql1")
		assert.Contains(t, out.String(), "┌")
	})

	t.Run("markdown", func(t *testing.T) {
		var out bytes.Buffer
		r := NewRenderer(&out, &bytes.Buffer{}, ModeAuto)
		r.Table([]string{"Name", "Kind"}, [][]any{{"restapi1", "restapi"}})
		assert.Contains(t, out.String(), "| restapi1 | restapi |")
	})
}

func TestNotificationsArePlainWhenPiped(t *testing.T) {
	var errOut bytes.Buffer
	r := NewRenderer(&bytes.Buffer{}, &errOut, ModeText)

	r.Success("Query Added")
	r.Error("Query name already exists")
	r.Warning("careful")

	assert.Equal(t, "✓ Query Added\n✗ Query name already exists\n! careful\n", errOut.String())
}

func TestJSON(t *testing.T) {
	var out bytes.Buffer
	r := NewRenderer(&out, &bytes.Buffer{}, ModeJSON)
	require.NoError(t, r.JSON(map[string]any{"name": "q1"}))
	assert.JSONEq(t, `{"name":"q1"}`, out.String())
}

func TestHeader(t *testing.T) {
	var out bytes.Buffer
	NewRenderer(&out, &bytes.Buffer{}, ModeMarkdown).Header("Kinds")
	assert.Equal(t, "## Kinds\n\n", out.String())
}
