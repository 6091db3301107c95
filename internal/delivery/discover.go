package delivery

import (
	"fmt"
	"os"
	"path/filepath"

	"ingot/internal/ingesterr"
)

const (
	// AssetMapFileName is the exact Asset Map document name the Basic Map
	// Profile requires. Near-misses (assetmap.xml, ASSETMAP.XML) are ignored
	// by design.
	AssetMapFileName = "ASSETMAP.xml"

	// VolumeIndexFileName is the per-volume ordinal document of 429-9
	// multi-volume deliveries.
	VolumeIndexFileName = "VOLINDEX.xml"

	// maxUnitNameLength is the Basic Map Profile limit on top-level
	// directory names considered during discovery.
	maxUnitNameLength = 100
)

// Unit is one discovered delivery unit: a directory holding an Asset Map.
type Unit struct {
	// Root is the unit's directory (also its volume root).
	Root string
	// MapPath is the ASSETMAP.xml location inside Root.
	MapPath string
}

// Discover locates delivery units under root per the Basic Map Profile.
// Returns ErrNoAssetMapFound when the root holds no Asset Map directly and
// no qualifying child directory does either.
func Discover(root string) ([]Unit, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, ingesterr.Wrap(ingesterr.ErrNoAssetMapFound, "delivery", "discover", root, err)
	}
	if !info.IsDir() {
		return nil, ingesterr.Wrap(ingesterr.ErrNoAssetMapFound, "delivery", "discover",
			fmt.Sprintf("%s is not a directory", root), nil)
	}

	rootMap := filepath.Join(root, AssetMapFileName)
	if info, err := os.Stat(rootMap); err == nil && !info.IsDir() {
		return []Unit{{Root: root, MapPath: rootMap}}, nil
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, ingesterr.Wrap(ingesterr.ErrNoAssetMapFound, "delivery", "discover", root, err)
	}

	var units []Unit
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if len(entry.Name()) > maxUnitNameLength {
			continue
		}
		unitRoot := filepath.Join(root, entry.Name())
		mapPath := filepath.Join(unitRoot, AssetMapFileName)
		if info, err := os.Stat(mapPath); err == nil && !info.IsDir() {
			units = append(units, Unit{Root: unitRoot, MapPath: mapPath})
		}
	}
	if len(units) == 0 {
		return nil, ingesterr.Wrap(ingesterr.ErrNoAssetMapFound, "delivery", "discover",
			fmt.Sprintf("no %s at %s or in its top-level directories", AssetMapFileName, root), nil)
	}
	return units, nil
}
