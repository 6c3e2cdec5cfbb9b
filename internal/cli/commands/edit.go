package commands

import (
	"github.com/leapstack-labs/leapquery/internal/editor"
	"github.com/leapstack-labs/leapquery/pkg/core"
	"github.com/spf13/cobra"
)

// NewEditCommand creates the edit command.
func NewEditCommand() *cobra.Command {
	var f editFlags

	cmd := &cobra.Command{
		Use:   "edit <query-id>",
		Short: "Edit a saved query",
		Long: `Load a saved query, apply option and name edits and save it.

Nothing is sent to the query service when the edits leave the query
unchanged, unless --run asks for the query to be saved and run anyway.`,
		Example: `  # Change the URL of a REST API query
  leapquery edit 6f1c... --set url=https://api.example.com/v2

  # Rename a query and run it after saving
  leapquery edit 6f1c... --name active_users --run`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdit(cmd, args[0], &f)
		},
	}
	f.register(cmd)
	return cmd
}

func runEdit(cmd *cobra.Command, id string, f *editFlags) error {
	ctx := cmd.Context()
	c := NewCommandContext(cmd)

	s, err := newSession(ctx, c)
	if err != nil {
		return err
	}
	defer s.close()

	q, err := s.client.Get(ctx, id)
	if err != nil {
		return err
	}
	siblings, err := s.client.List(ctx, q.VersionID)
	if err != nil {
		return err
	}

	source := core.FindSourceByID(c.Cfg.Sources, q.DataSourceID)
	s.editor.Apply(editor.Props{
		AppID:              q.AppID,
		EditingVersionID:   q.VersionID,
		Mode:               core.ModeEdit,
		DataSources:        c.Cfg.Sources,
		DataQueries:        siblings,
		SelectedQuery:      q,
		SelectedDataSource: source,
		IsSourceSelected:   true,
		EditingQuery:       true,
	})

	if err := s.applyEdits(cmd, f); err != nil {
		return err
	}
	if err := s.printPreview(); err != nil {
		return err
	}

	st := s.editor.State()
	if f.dryRun {
		edited := q.Clone()
		edited.Name = st.QueryName
		edited.Options = st.Options
		if c.JSONOutput() {
			return c.Renderer.JSON(edited)
		}
		c.Renderer.Println(formatQuery(edited))
		return nil
	}
	rerun := cmd.Flags().Changed("run") && f.run
	if !st.IsFieldsChanged && !st.IsNameChanged && !rerun {
		c.Renderer.Warning("No changes to save")
		return nil
	}

	if err := s.editor.Submit(ctx); err != nil {
		return err
	}
	c.Renderer.Success("Query saved")

	saved, err := s.client.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.settle(ctx, saved, st.SelectedDataSource); err != nil {
		return err
	}
	return s.printQuery(saved)
}
