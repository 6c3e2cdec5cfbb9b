package commands

import (
	"fmt"

	"github.com/leapstack-labs/leapquery/internal/editor"
	"github.com/leapstack-labs/leapquery/pkg/core"
	"github.com/spf13/cobra"
)

// NewCreateCommand creates the create command.
func NewCreateCommand() *cobra.Command {
	var f editFlags

	cmd := &cobra.Command{
		Use:   "create <source-id>",
		Short: "Draft and save a new query",
		Long: `Draft a new query from a data source and save it to the query service.

The source is either a catalog entry from the sources list of the config
file or one of the built-in sources (null for REST API, runjs for
JavaScript). The draft gets a generated name and the kind's default
options unless --name and --set override them.`,
		Example: `  # Create a REST API query
  leapquery create null --set url=https://api.example.com/users

  # Create a query on a catalog source with an explicit name
  leapquery create pg1 --name orders --set 'query="select * from orders"'

  # Show the draft without saving it
  leapquery create runjs --dry-run`,
		Args: cobra.ExactArgs(1),
		ValidArgsFunction: func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
			return sourceIDs(), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreate(cmd, args[0], &f)
		},
	}
	f.register(cmd)
	return cmd
}

func runCreate(cmd *cobra.Command, sourceID string, f *editFlags) error {
	ctx := cmd.Context()
	c := NewCommandContext(cmd)

	s, err := newSession(ctx, c)
	if err != nil {
		return err
	}
	defer s.close()

	siblings, err := s.client.List(ctx, c.Cfg.VersionID)
	if err != nil {
		return err
	}

	s.editor.Apply(editor.Props{
		AppID:            c.Cfg.AppID,
		EditingVersionID: c.Cfg.VersionID,
		Mode:             core.ModeCreate,
		DataSources:      c.Cfg.Sources,
		DataQueries:      siblings,
		AddingQuery:      true,
	})
	if err := s.editor.BeginDraft(sourceID); err != nil {
		return err
	}
	s.editor.CloseSourceList()

	if err := s.applyEdits(cmd, f); err != nil {
		return err
	}
	if err := s.printPreview(); err != nil {
		return err
	}

	st := s.editor.State()
	if f.dryRun {
		draft := core.Query{
			ID:           core.DraftQueryID,
			Name:         st.QueryName,
			Kind:         st.SelectedDataSource.Kind,
			DataSourceID: st.SelectedDataSource.BoundID(),
			PluginID:     st.SelectedDataSource.PluginID,
			AppID:        st.AppID,
			VersionID:    st.VersionID,
			Options:      st.Options,
		}
		if c.JSONOutput() {
			return c.Renderer.JSON(draft)
		}
		c.Renderer.Println(formatQuery(&draft))
		return nil
	}

	source := st.SelectedDataSource
	if err := s.editor.Submit(ctx); err != nil {
		return err
	}

	list, err := s.client.List(ctx, c.Cfg.VersionID)
	if err != nil {
		return err
	}
	saved := core.FindQueryByName(list, st.QueryName)
	if saved == nil {
		return fmt.Errorf("failed to find created query %q: %w", st.QueryName, core.ErrQueryNotFound)
	}

	if err := s.settle(ctx, saved, source); err != nil {
		return err
	}
	return s.printQuery(saved)
}

// sourceIDs lists the source ids offered for completion.
func sourceIDs() []string {
	cfg := getConfig()
	ids := []string{core.RestAPISourceID, core.RunJSSourceID}
	for _, s := range cfg.Sources {
		ids = append(ids, s.ID)
	}
	return ids
}
