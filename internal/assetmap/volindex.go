package assetmap

import (
	"ingot/internal/imfxml"
	"ingot/internal/ingesterr"
)

// VolumeIndex is the VOLINDEX.xml document present on each volume of a
// multi-volume delivery, carrying that volume's ordinal.
type VolumeIndex struct {
	Index int64
}

// ParseVolumeIndex interprets a parsed document node tree as a VolumeIndex.
func ParseVolumeIndex(root *imfxml.Node) (VolumeIndex, error) {
	if root == nil || root.Name != "VolumeIndex" {
		return VolumeIndex{}, ingesterr.Wrap(ingesterr.ErrMalformedDocument, "assetmap", "parse volindex",
			"document element is not VolumeIndex", nil)
	}
	index := imfxml.IntOf(root, "Index", 0)
	if index < 1 {
		return VolumeIndex{}, ingesterr.Wrap(ingesterr.ErrMalformedDocument, "assetmap", "parse volindex",
			"Index must be a positive integer", nil)
	}
	return VolumeIndex{Index: index}, nil
}

// ParseVolumeIndexFile parses the VOLINDEX.xml document at path.
func ParseVolumeIndexFile(path string) (VolumeIndex, error) {
	root, err := imfxml.ParseFile(path)
	if err != nil {
		return VolumeIndex{}, ingesterr.Wrap(ingesterr.ErrMalformedDocument, "assetmap", "read volindex", path, err)
	}
	return ParseVolumeIndex(root)
}
