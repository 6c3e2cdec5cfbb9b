package commands

import (
	"fmt"

	"github.com/leapstack-labs/leapquery/internal/naming"
	"github.com/leapstack-labs/leapquery/pkg/core"
	"github.com/spf13/cobra"
)

// NewNameCommand creates the name command group.
func NewNameCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "name",
		Short: "Allocate and validate query names",
	}
	cmd.AddCommand(newNameAllocateCommand())
	cmd.AddCommand(newNameValidateCommand())
	return cmd
}

func newNameAllocateCommand() *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "allocate <kind>",
		Short: "Print the next free name for a kind",
		Example: `  # Next name among the saved queries of the configured version
  leapquery name allocate restapi

  # Without consulting the query service
  leapquery name allocate postgresql --offline`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := NewCommandContext(cmd)
			var siblings []core.Query
			if !offline {
				var err error
				if siblings, err = c.Client().List(cmd.Context(), c.Cfg.VersionID); err != nil {
					return err
				}
			}

			name := naming.Allocate(args[0], siblings)
			if c.JSONOutput() {
				return c.Renderer.JSON(map[string]string{"name": name})
			}
			c.Renderer.Println(name)
			return nil
		},
	}
	cmd.Flags().BoolVar(&offline, "offline", false, "Allocate against an empty query list")
	return cmd
}

func newNameValidateCommand() *cobra.Command {
	var (
		mode    string
		queryID string
	)

	cmd := &cobra.Command{
		Use:   "validate <name>",
		Short: "Check a name against the pattern and the saved queries",
		Long: `Check that a name only uses letters, digits, underscores and dashes and
does not collide with another saved query. In edit mode the query given
by --id may keep its own name.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := NewCommandContext(cmd)
			m := core.Mode(mode)
			if !m.Valid() {
				return fmt.Errorf("invalid mode %q (expected create or edit)", mode)
			}

			siblings, err := c.Client().List(cmd.Context(), c.Cfg.VersionID)
			if err != nil {
				return err
			}

			name := args[0]
			valid := naming.IsValidName(name, m, siblings, queryID)
			if c.JSONOutput() {
				if err := c.Renderer.JSON(map[string]any{"name": name, "valid": valid}); err != nil {
					return err
				}
			} else if valid {
				c.Renderer.Success(name + " is available")
			}
			if !valid {
				if !c.JSONOutput() {
					c.Renderer.Error(naming.InvalidNameMessage)
				}
				return &core.ValidationError{Name: name}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&mode, "mode", string(core.ModeCreate), "Editing mode (create|edit)")
	cmd.Flags().StringVar(&queryID, "id", "", "Id of the query being renamed (edit mode)")
	_ = cmd.RegisterFlagCompletionFunc("mode", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{string(core.ModeCreate), string(core.ModeEdit)}, cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}
