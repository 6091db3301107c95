package main

import (
	"fmt"
	"time"

	"ingot/internal/imfxml"
)

// timeRounding keeps durations in tables readable.
const timeRounding = time.Millisecond

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// normalizeAssetIDs canonicalizes user-supplied identifiers so bare UUIDs
// and urn:uuid forms both address the same asset.
func normalizeAssetIDs(args []string) ([]string, error) {
	ids := make([]string, 0, len(args))
	for _, arg := range args {
		id, err := imfxml.ParseAssetID(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid asset id %q: %w", arg, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
