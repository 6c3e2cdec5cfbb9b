package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// NewQueriesCommand creates the queries command group.
func NewQueriesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queries",
		Short: "Inspect saved queries",
	}
	cmd.AddCommand(newQueriesListCommand())
	cmd.AddCommand(newQueriesShowCommand())
	cmd.AddCommand(newQueriesDeleteCommand())
	return cmd
}

func newQueriesListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the queries of the configured version",
		Example: `  leapquery queries list --version-id v1
  leapquery queries list -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := NewCommandContext(cmd)
			queries, err := c.Client().List(cmd.Context(), c.Cfg.VersionID)
			if err != nil {
				return err
			}

			if c.JSONOutput() {
				return c.Renderer.JSON(queries)
			}
			if len(queries) == 0 {
				c.Renderer.Println(c.Renderer.Muted("No queries"))
				return nil
			}

			rows := make([][]any, 0, len(queries))
			for _, q := range queries {
				source := q.DataSourceID
				if source == "" {
					source = "-"
				}
				rows = append(rows, []any{q.Name, q.Kind, source, q.ID})
			}
			c.Renderer.Table([]string{"Name", "Kind", "Data source", "ID"}, rows)
			return nil
		},
	}
}

func newQueriesShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <query-id>",
		Short: "Show a saved query and its options",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := NewCommandContext(cmd)
			q, err := c.Client().Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if c.JSONOutput() {
				return c.Renderer.JSON(q)
			}
			c.Renderer.Println(formatQuery(q))
			if len(q.Options) > 0 {
				c.Renderer.Println()
				c.Renderer.Header("Options")
				return c.Renderer.JSON(q.Options)
			}
			return nil
		},
	}
}

func newQueriesDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <query-id>...",
		Short: "Delete saved queries",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := NewCommandContext(cmd)
			client := c.Client()
			for _, id := range args {
				if err := client.Delete(cmd.Context(), id); err != nil {
					return fmt.Errorf("failed to delete %s: %w", id, err)
				}
			}
			c.Renderer.Success(fmt.Sprintf("Deleted %s", strings.Join(args, ", ")))
			return nil
		},
	}
}
