package commands

import (
	"github.com/leapstack-labs/leapquery/internal/registry"
	"github.com/spf13/cobra"
)

// kindInfo is the JSON shape of a kind listing.
type kindInfo struct {
	Kind                   string `json:"kind"`
	Name                   string `json:"name"`
	Schemaless             bool   `json:"schemaless"`
	Transform              bool   `json:"transform"`
	DisableTransformations bool   `json:"disable_transformations"`
	SourceID               string `json:"source_id,omitempty"`
}

// NewKindsCommand creates the kinds command.
func NewKindsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "kinds",
		Short: "List the source kinds the editor understands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := NewCommandContext(cmd)
			reg, err := registry.Default()
			if err != nil {
				return err
			}

			kinds := reg.All()
			infos := make([]kindInfo, 0, len(kinds))
			for _, k := range kinds {
				infos = append(infos, kindInfo{
					Kind:                   k.Kind,
					Name:                   k.Name,
					Schemaless:             k.Schemaless,
					Transform:              k.SeedsTransform(),
					DisableTransformations: k.DisableTransformations,
					SourceID:               k.SourceID,
				})
			}

			if c.JSONOutput() {
				return c.Renderer.JSON(infos)
			}

			rows := make([][]any, 0, len(infos))
			for _, k := range infos {
				source := k.SourceID
				if source == "" {
					source = "-"
				}
				rows = append(rows, []any{k.Kind, k.Name, yesNo(k.Schemaless), yesNo(k.Transform), source})
			}
			c.Renderer.Table([]string{"Kind", "Name", "Schemaless", "Transform", "Built-in source"}, rows)
			return nil
		},
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
