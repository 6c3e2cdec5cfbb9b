package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/leapstack-labs/leapquery/internal/cli/config"
	"github.com/leapstack-labs/leapquery/internal/server"
	"github.com/spf13/cobra"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the local query service",
		Long: `Run a development query service backed by the local state database.

The service stores data queries in SQLite and exposes them over HTTP
for the create and edit commands.`,
		Example: `  # Serve on the default port
  leapquery serve

  # Serve on a custom port with a dedicated database
  leapquery serve --port 9000 --state /tmp/queries.db`,
		RunE: runServe,
	}
	cmd.Flags().Int("port", 0, fmt.Sprintf("Port to listen on (default %d)", config.DefaultServerPort))
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	c := NewCommandContext(cmd)

	store, cleanup, err := c.OpenState()
	if err != nil {
		return err
	}
	defer cleanup()

	srv := server.NewServer(server.Config{
		Store:  store,
		Port:   c.Cfg.Server.Port,
		Logger: c.Logger,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c.Renderer.Success(fmt.Sprintf("Query service listening on http://localhost:%d", c.Cfg.Server.Port))
	return srv.Serve(ctx)
}
