package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"ingot/internal/assetmap"
	"ingot/internal/delivery"
	"ingot/internal/logging"
)

func newInspectCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "inspect <delivery-root>",
		Short: "Parse a delivery's inventory and list its assets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := delivery.Open(args[0], logging.NewNop())
			if err != nil {
				return err
			}

			if jsonOutput {
				return writeJSON(cmd, inspectPayload(d))
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Units: %d  Volumes: %d  Packing lists: %d  Declared size: %s\n\n",
				len(d.Units), d.Volumes.Len(), len(d.Lists), formatBytes(declaredTotal(d)))

			rows := make([][]string, 0, d.PackIndex.Len())
			for _, id := range d.PackIndex.IDs() {
				entry, _ := d.PackIndex.Lookup(id)
				chunks, mapped := d.AssetIndex.Resolve(id)
				state := "ok"
				switch {
				case !mapped:
					state = "not in asset map"
				case entry.Conflicted():
					state = "conflicting declarations"
				}
				rows = append(rows, []string{
					id,
					entry.Type,
					formatBytes(entry.Size),
					strconv.Itoa(len(chunks)),
					volumeList(chunks),
					state,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Asset", "Type", "Size", "Chunks", "Volumes", "State"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft, alignLeft}))

			if unpacked := unpackedAssets(d); len(unpacked) > 0 {
				fmt.Fprintf(out, "\nMapped but not packed (no digest, not ingestable): %s\n",
					strings.Join(unpacked, ", "))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON instead of a table")
	return cmd
}

func inspectPayload(d *delivery.Delivery) map[string]any {
	type jsonAsset struct {
		ID       string  `json:"id"`
		Type     string  `json:"type,omitempty"`
		Size     int64   `json:"size"`
		Chunks   int     `json:"chunks"`
		Volumes  []int64 `json:"volumes,omitempty"`
		Mapped   bool    `json:"mapped"`
		Conflict string  `json:"conflict,omitempty"`
	}
	assets := make([]jsonAsset, 0, d.PackIndex.Len())
	for _, id := range d.PackIndex.IDs() {
		entry, _ := d.PackIndex.Lookup(id)
		chunks, mapped := d.AssetIndex.Resolve(id)
		a := jsonAsset{
			ID:       id,
			Type:     entry.Type,
			Size:     entry.Size,
			Chunks:   len(chunks),
			Mapped:   mapped,
			Conflict: entry.ConflictDetail,
		}
		for _, chunk := range chunks {
			a.Volumes = appendUniqueVolume(a.Volumes, chunk.VolumeIndex)
		}
		assets = append(assets, a)
	}
	return map[string]any{
		"units":         len(d.Units),
		"volumes":       d.Volumes.Len(),
		"packing_lists": d.PackIndex.Lists(),
		"declared_size": declaredTotal(d),
		"assets":        assets,
		"unpacked":      unpackedAssets(d),
	}
}

// declaredTotal sums the Packing List declared sizes across the delivery.
func declaredTotal(d *delivery.Delivery) int64 {
	var total int64
	for _, list := range d.Lists {
		total += list.TotalSize()
	}
	return total
}

// unpackedAssets lists mapped essence assets no packing list declares.
// Packing list documents themselves are excluded; they are inventory, not
// cargo.
func unpackedAssets(d *delivery.Delivery) []string {
	var ids []string
	for _, id := range d.AssetIndex.IDs() {
		entry, _ := d.AssetIndex.Entry(id)
		if entry.IsPackingList {
			continue
		}
		if _, packed := d.PackIndex.Lookup(id); !packed {
			ids = append(ids, id)
		}
	}
	return ids
}

func volumeList(chunks []assetmap.Chunk) string {
	var volumes []int64
	for _, chunk := range chunks {
		volumes = appendUniqueVolume(volumes, chunk.VolumeIndex)
	}
	parts := make([]string, 0, len(volumes))
	for _, v := range volumes {
		parts = append(parts, strconv.FormatInt(v, 10))
	}
	return strings.Join(parts, ",")
}

func appendUniqueVolume(volumes []int64, v int64) []int64 {
	for _, existing := range volumes {
		if existing == v {
			return volumes
		}
	}
	return append(volumes, v)
}
