// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/leapstack-labs/leapquery/internal/cli/config"
	"github.com/leapstack-labs/leapquery/internal/server"
	"github.com/leapstack-labs/leapquery/internal/state"
	"github.com/leapstack-labs/leapquery/internal/testutil"
	"github.com/stretchr/testify/require"
)

// Project is a temporary CLI project talking to an in-process query service.
type Project struct {
	Dir        string
	ConfigPath string
	StatePath  string
	ServiceURL string
	Store      *state.SQLiteStore
}

// SetupProject starts a query service on an in-memory store and writes a
// leapquery.yaml pointing at it. extraConfig is appended to the file.
func SetupProject(t *testing.T, extraConfig string) *Project {
	t.Helper()
	config.ResetConfig()
	t.Cleanup(config.ResetConfig)

	logger := testutil.NewTestLogger(t)
	store := state.NewSQLiteStore(logger)
	require.NoError(t, store.Open(":memory:"))
	require.NoError(t, store.Migrate())
	t.Cleanup(func() { _ = store.Close() })

	srv := server.NewServer(server.Config{Store: store, Logger: logger})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	dir := t.TempDir()
	p := &Project{
		Dir:        dir,
		ConfigPath: filepath.Join(dir, "leapquery.yaml"),
		StatePath:  filepath.Join(dir, "state.db"),
		ServiceURL: ts.URL,
		Store:      store,
	}

	content := "app_id: app-1\n" +
		"version_id: v1\n" +
		"state_path: state.db\n" +
		"remote:\n  base_url: " + ts.URL + "\n" +
		extraConfig
	require.NoError(t, os.WriteFile(p.ConfigPath, []byte(content), 0600))
	return p
}

// ansiPattern matches ANSI escape codes.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}
