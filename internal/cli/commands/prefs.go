package commands

import (
	"fmt"

	"github.com/leapstack-labs/leapquery/internal/prefs"
	"github.com/leapstack-labs/leapquery/pkg/core"
	"github.com/spf13/cobra"
)

// prefInfo is the JSON shape of one mode's button preference.
type prefInfo struct {
	Mode    core.Mode `json:"mode"`
	Label   string    `json:"label"`
	AlsoRun bool      `json:"also_run"`
	Saved   bool      `json:"saved"`
}

// NewPrefsCommand creates the prefs command group.
func NewPrefsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Manage primary-button preferences",
		Long: `Manage the primary-button preference of each editing mode.

The preference decides the label of the primary button and whether the
query runs after it is saved. Preferences live in the local state database.`,
	}
	cmd.AddCommand(newPrefsShowCommand())
	cmd.AddCommand(newPrefsSetCommand())
	cmd.AddCommand(newPrefsMigrateCommand())
	return cmd
}

func newPrefsShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the preference of each mode",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := NewCommandContext(cmd)
			p, cleanup, err := c.Preferences(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			buttons := p.Buttons()
			infos := []prefInfo{
				describePref(p, core.ModeCreate, buttons.CreateMode != nil),
				describePref(p, core.ModeEdit, buttons.EditMode != nil),
			}
			if c.JSONOutput() {
				return c.Renderer.JSON(infos)
			}

			rows := make([][]any, 0, len(infos))
			for _, info := range infos {
				origin := "default"
				if info.Saved {
					origin = "saved"
				}
				rows = append(rows, []any{info.Mode, info.Label, yesNo(info.AlsoRun), origin})
			}
			c.Renderer.Table([]string{"Mode", "Label", "Run after save", "Origin"}, rows)
			return nil
		},
	}
}

func describePref(p *prefs.Store, mode core.Mode, saved bool) prefInfo {
	pref := p.Resolve(mode)
	return prefInfo{Mode: mode, Label: pref.Label, AlsoRun: pref.AlsoRun, Saved: saved}
}

func newPrefsSetCommand() *cobra.Command {
	var alsoRun bool

	cmd := &cobra.Command{
		Use:   "set <create|edit> <label>",
		Short: "Set the preference of a mode",
		Example: `  leapquery prefs set edit Save
  leapquery prefs set create "Create & Run" --run`,
		Args: cobra.ExactArgs(2),
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) == 0 {
				return []string{string(core.ModeCreate), string(core.ModeEdit)}, cobra.ShellCompDirectiveNoFileComp
			}
			return nil, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			mode := core.Mode(args[0])
			if !mode.Valid() {
				return fmt.Errorf("invalid mode %q (expected create or edit)", args[0])
			}

			c := NewCommandContext(cmd)
			p, cleanup, err := c.Preferences(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			if err := p.Save(cmd.Context(), mode, args[1], alsoRun); err != nil {
				return err
			}
			c.Renderer.Success(fmt.Sprintf("Saved %s preference", mode))
			return nil
		},
	}
	cmd.Flags().BoolVar(&alsoRun, "run", false, "Run the query after saving it")
	return cmd
}

func newPrefsMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Fold the legacy button config into the preferences record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			c := NewCommandContext(cmd)
			store, cleanup, err := c.OpenState()
			if err != nil {
				return err
			}
			defer cleanup()

			_, legacy, err := store.GetItem(ctx, prefs.LegacyButtonConfigKey)
			if err != nil {
				return err
			}
			if _, err := prefs.New(ctx, store, c.Logger); err != nil {
				return err
			}

			if legacy {
				c.Renderer.Success("Migrated legacy button preferences")
			} else {
				c.Renderer.Println(c.Renderer.Muted("Nothing to migrate"))
			}
			return nil
		},
	}
}
