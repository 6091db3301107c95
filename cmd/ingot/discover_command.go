package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ingot/internal/delivery"
)

func newDiscoverCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "discover <delivery-root>",
		Short: "Locate asset maps under a delivery root",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			units, err := delivery.Discover(args[0])
			if err != nil {
				return err
			}

			if jsonOutput {
				type jsonUnit struct {
					Root    string `json:"root"`
					MapPath string `json:"map_path"`
				}
				payload := make([]jsonUnit, 0, len(units))
				for _, unit := range units {
					payload = append(payload, jsonUnit{Root: unit.Root, MapPath: unit.MapPath})
				}
				return writeJSON(cmd, map[string]any{"units": payload})
			}

			rows := make([][]string, 0, len(units))
			for _, unit := range units {
				rows = append(rows, []string{unit.Root, unit.MapPath})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Unit", "Asset Map"}, rows, nil))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON instead of a table")
	return cmd
}
