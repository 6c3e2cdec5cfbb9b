package cli

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/leapquery/internal/cli/config"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	config.ResetConfig()
	t.Cleanup(config.ResetConfig)

	cmd := NewRootCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func TestRootCmd_Subcommands(t *testing.T) {
	cmd := NewRootCmd()
	for _, name := range []string{"version", "serve", "create", "edit", "queries", "kinds", "name", "prefs", "completion"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, sub.Name())
	}
	for _, flag := range []string{"config", "project-dir", "state", "app-id", "version-id", "remote", "verbose", "output"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), "flag %q should exist", flag)
	}
}

func TestRootCmd_StoresConfigAndLogger(t *testing.T) {
	statePath := filepath.Join(t.TempDir(), "state.db")

	var (
		cfg    *config.Config
		logger *slog.Logger
	)
	probe := &cobra.Command{
		Use: "probe",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg = GetConfig(cmd.Context())
			logger = config.GetLogger(cmd.Context())
			return nil
		},
	}

	config.ResetConfig()
	t.Cleanup(config.ResetConfig)
	root := NewRootCmd()
	root.AddCommand(probe)
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"probe", "--state", statePath, "--app-id", "app-9", "-v"})
	require.NoError(t, root.ExecuteContext(context.Background()))

	require.NotNil(t, cfg)
	assert.Equal(t, statePath, cfg.StatePath)
	assert.Equal(t, "app-9", cfg.AppID)
	assert.True(t, cfg.Verbose)
	require.NotNil(t, logger)
	assert.True(t, logger.Enabled(context.Background(), slog.LevelDebug))
}

func TestRootCmd_InvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leapquery.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output: html\n"), 0600))

	_, err := execute(t, "--config", path, "kinds")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid output format")
}

func TestGetConfig_Default(t *testing.T) {
	cfg := GetConfig(context.Background())
	assert.Equal(t, config.DefaultStateFile, cfg.StatePath)
	assert.Equal(t, config.DefaultServerPort, cfg.Server.Port)
}

func TestCompletionCommand(t *testing.T) {
	tests := []struct {
		shell string
		want  string
	}{
		{"bash", "bash completion"},
		{"zsh", "#compdef leapquery"},
		{"fish", "complete -c leapquery"},
		{"powershell", "Register-ArgumentCompleter"},
	}
	for _, tt := range tests {
		t.Run(tt.shell, func(t *testing.T) {
			out, err := execute(t, "completion", tt.shell)
			require.NoError(t, err)
			assert.Contains(t, out, tt.want)
		})
	}

	_, err := execute(t, "completion", "tcsh")
	assert.Error(t, err)
}
