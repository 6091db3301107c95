// Package assetmap models SMPTE 429-9 Asset Map documents and builds the
// chunk-location index the ingest engine resolves assets through.
package assetmap

import (
	"fmt"
	"time"

	"ingot/internal/imfxml"
	"ingot/internal/ingesterr"
)

// LengthUnspecified marks a chunk whose Length element was absent. Per the
// 429-9 note, such a chunk inherits the asset's Packing List declared size;
// that substitution happens at ingest time because only the Packing List
// knows the size.
const LengthUnspecified int64 = -1

// AssetMap is one parsed Asset Map document.
type AssetMap struct {
	ID          string
	Annotation  imfxml.UserText
	Creator     string
	VolumeCount int64
	IssueDate   time.Time
	Issuer      string
	Assets      []Asset

	// Path is the document location on disk, recorded for diagnostics.
	Path string
}

// Asset is one mapped asset with its ordered chunk list.
type Asset struct {
	ID            string
	IsPackingList bool
	Annotation    imfxml.UserText
	Chunks        []Chunk
}

// Chunk locates one contiguous byte range of an asset on a volume. List
// order defines reconstruction order; Offset is the byte position within the
// reconstructed asset implied by that order.
type Chunk struct {
	Path        string
	VolumeIndex int64
	Offset      int64
	Length      int64
}

// TotalLength sums the asset's declared chunk lengths. Returns
// LengthUnspecified when any chunk omits its length.
func (a Asset) TotalLength() int64 {
	var total int64
	for _, chunk := range a.Chunks {
		if chunk.Length == LengthUnspecified {
			return LengthUnspecified
		}
		total += chunk.Length
	}
	return total
}

// TotalLength sums the declared sizes of every asset in the map, skipping
// assets with unspecified chunk lengths.
func (m *AssetMap) TotalLength() int64 {
	var total int64
	for _, asset := range m.Assets {
		if size := asset.TotalLength(); size != LengthUnspecified {
			total += size
		}
	}
	return total
}

// PackingLists returns the assets flagged as Packing List documents.
func (m *AssetMap) PackingLists() []Asset {
	var lists []Asset
	for _, asset := range m.Assets {
		if asset.IsPackingList {
			lists = append(lists, asset)
		}
	}
	return lists
}

// Asset returns the mapped asset with the given identifier, or false.
func (m *AssetMap) Asset(id string) (Asset, bool) {
	for _, asset := range m.Assets {
		if asset.ID == id {
			return asset, true
		}
	}
	return Asset{}, false
}

// Parse interprets a parsed document node tree as an Asset Map.
func Parse(root *imfxml.Node) (*AssetMap, error) {
	if root == nil || root.Name != "AssetMap" {
		return nil, ingesterr.Wrap(ingesterr.ErrMalformedDocument, "assetmap", "parse",
			fmt.Sprintf("document element is %q, want AssetMap", nodeName(root)), nil)
	}

	id, err := imfxml.AssetIDOf(root)
	if err != nil {
		return nil, ingesterr.Wrap(ingesterr.ErrMalformedDocument, "assetmap", "parse", "map identifier", err)
	}
	creator := imfxml.StringOf(root, "Creator", "")
	issuer := imfxml.StringOf(root, "Issuer", "")
	issueDate, err := imfxml.DateTimeOf(root, "IssueDate")
	if err != nil {
		return nil, ingesterr.Wrap(ingesterr.ErrMalformedDocument, "assetmap", "parse", "issue date", err)
	}
	volumeCount := imfxml.IntOf(root, "VolumeCount", 1)

	assetList := root.Find("AssetList")
	if assetList == nil {
		return nil, ingesterr.Wrap(ingesterr.ErrMalformedDocument, "assetmap", "parse", "missing AssetList", nil)
	}

	result := &AssetMap{
		ID:          id,
		Annotation:  imfxml.UserTextOf(root, "AnnotationText"),
		Creator:     creator,
		VolumeCount: volumeCount,
		IssueDate:   issueDate,
		Issuer:      issuer,
	}
	for _, node := range assetList.FindAll("Asset") {
		asset, err := parseAsset(node)
		if err != nil {
			return nil, err
		}
		result.Assets = append(result.Assets, asset)
	}
	return result, nil
}

// ParseFile parses the Asset Map document at path.
func ParseFile(path string) (*AssetMap, error) {
	root, err := imfxml.ParseFile(path)
	if err != nil {
		return nil, ingesterr.Wrap(ingesterr.ErrMalformedDocument, "assetmap", "read", path, err)
	}
	parsed, err := Parse(root)
	if err != nil {
		return nil, err
	}
	parsed.Path = path
	return parsed, nil
}

func parseAsset(node *imfxml.Node) (Asset, error) {
	id, err := imfxml.AssetIDOf(node)
	if err != nil {
		return Asset{}, ingesterr.Wrap(ingesterr.ErrMalformedDocument, "assetmap", "parse", "asset identifier", err)
	}

	chunkList := node.Find("ChunkList")
	if chunkList == nil {
		return Asset{}, ingesterr.Wrap(ingesterr.ErrEmptyChunkList, "assetmap", "parse", id, nil)
	}

	asset := Asset{
		ID:            id,
		IsPackingList: imfxml.BoolOf(node, "PackingList", false),
		Annotation:    imfxml.UserTextOf(node, "AnnotationText"),
	}

	var runningOffset int64
	for i, chunkNode := range chunkList.FindAll("Chunk") {
		path := imfxml.StringOf(chunkNode, "Path", "")
		if path == "" {
			return Asset{}, ingesterr.Wrap(ingesterr.ErrMalformedDocument, "assetmap", "parse",
				fmt.Sprintf("asset %s chunk %d has no Path", id, i), nil)
		}
		length := imfxml.IntOf(chunkNode, "Length", LengthUnspecified)
		if length != LengthUnspecified && length < 0 {
			return Asset{}, ingesterr.Wrap(ingesterr.ErrMalformedDocument, "assetmap", "parse",
				fmt.Sprintf("asset %s chunk %d has negative length %d", id, i, length), nil)
		}

		// Offsets are redundant with list order; when declared they must
		// agree with the running sum of prior lengths.
		if offsetNode := chunkNode.Find("Offset"); offsetNode != nil {
			declared := imfxml.IntOf(chunkNode, "Offset", 0)
			if runningOffset != LengthUnspecified && declared != runningOffset {
				return Asset{}, ingesterr.Wrap(ingesterr.ErrMalformedDocument, "assetmap", "parse",
					fmt.Sprintf("asset %s chunk %d declares offset %d, list order implies %d", id, i, declared, runningOffset), nil)
			}
		}

		asset.Chunks = append(asset.Chunks, Chunk{
			Path:        path,
			VolumeIndex: imfxml.IntOf(chunkNode, "VolumeIndex", 1),
			Offset:      runningOffset,
			Length:      length,
		})
		if runningOffset != LengthUnspecified {
			if length == LengthUnspecified {
				runningOffset = LengthUnspecified
			} else {
				runningOffset += length
			}
		}
	}

	if len(asset.Chunks) == 0 {
		return Asset{}, ingesterr.Wrap(ingesterr.ErrEmptyChunkList, "assetmap", "parse", id, nil)
	}
	if len(asset.Chunks) > 1 {
		for i, chunk := range asset.Chunks {
			if chunk.Length == LengthUnspecified {
				return Asset{}, ingesterr.Wrap(ingesterr.ErrMalformedDocument, "assetmap", "parse",
					fmt.Sprintf("asset %s chunk %d omits Length in a multi-chunk list", id, i), nil)
			}
		}
	}
	return asset, nil
}

func nodeName(node *imfxml.Node) string {
	if node == nil {
		return ""
	}
	return node.Name
}
