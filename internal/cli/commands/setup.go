package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/leapquery/internal/cli/config"
	"github.com/leapstack-labs/leapquery/internal/cli/output"
	"github.com/leapstack-labs/leapquery/internal/prefs"
	"github.com/leapstack-labs/leapquery/internal/remote"
	"github.com/leapstack-labs/leapquery/internal/state"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext from the loaded configuration.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(cmd.Context()),
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat)),
	}
}

// getConfig returns the current configuration, or the defaults when the
// command runs outside the root command.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	return config.Defaults()
}

// OpenState opens and migrates the local state database.
// The returned cleanup function closes it.
func (c *CommandContext) OpenState() (*state.SQLiteStore, func(), error) {
	if c.Cfg.StatePath != ":memory:" {
		if dir := filepath.Dir(c.Cfg.StatePath); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return nil, nil, fmt.Errorf("failed to create state directory: %w", err)
			}
		}
	}

	store := state.NewSQLiteStore(c.Logger)
	if err := store.Open(c.Cfg.StatePath); err != nil {
		return nil, nil, err
	}
	if err := store.Migrate(); err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	return store, func() { _ = store.Close() }, nil
}

// Preferences opens the local state and loads the preference store from it.
func (c *CommandContext) Preferences(ctx context.Context) (*prefs.Store, func(), error) {
	store, cleanup, err := c.OpenState()
	if err != nil {
		return nil, nil, err
	}
	p, err := prefs.New(ctx, store, c.Logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return p, cleanup, nil
}

// Client returns a client of the configured query service.
func (c *CommandContext) Client() *remote.Client {
	return remote.New(remote.Config{
		BaseURL: c.Cfg.Remote.BaseURL,
		Timeout: c.Cfg.Remote.Timeout,
		Logger:  c.Logger,
	})
}

// JSONOutput reports whether results should be machine readable.
func (c *CommandContext) JSONOutput() bool {
	return c.Renderer.EffectiveMode() == output.ModeJSON
}
