package assetmap

import (
	"fmt"
	"sort"

	"ingot/internal/ingesterr"
)

// Entry is one asset's resolved location set inside the index.
type Entry struct {
	AssetID       string
	Chunks        []Chunk
	IsPackingList bool
	// SourceMapID identifies the Asset Map document that supplied the entry.
	SourceMapID string
}

// Index maps asset identifiers to ordered chunk locations across every Asset
// Map document of a delivery. Built once per ingest session, then read-only.
type Index struct {
	entries map[string]Entry
}

// BuildIndex constructs the union index over the supplied Asset Map
// documents.
//
// The same identifier appearing twice within one document is a same-delivery
// integrity violation and fails the build. Across documents, the same
// identifier is accepted only when the documents are copies of the same map
// (equal map IDs) or the chunk lists agree exactly; anything else is a
// conflicting entry, never an implicit overwrite.
func BuildIndex(maps ...*AssetMap) (*Index, error) {
	index := &Index{entries: make(map[string]Entry)}
	for _, m := range maps {
		if m == nil {
			continue
		}
		seen := make(map[string]struct{}, len(m.Assets))
		for _, asset := range m.Assets {
			if _, dup := seen[asset.ID]; dup {
				return nil, ingesterr.Wrap(ingesterr.ErrDuplicateAsset, "assetmap", "build index",
					fmt.Sprintf("%s appears twice in map %s", asset.ID, m.ID), nil)
			}
			seen[asset.ID] = struct{}{}

			if existing, ok := index.entries[asset.ID]; ok {
				if existing.SourceMapID == m.ID && chunksEqual(existing.Chunks, asset.Chunks) {
					// Another copy of the same map, as multi-volume sets
					// require. Nothing new to record.
					continue
				}
				if chunksEqual(existing.Chunks, asset.Chunks) {
					continue
				}
				return nil, ingesterr.Wrap(ingesterr.ErrConflictingAssetMap, "assetmap", "build index",
					fmt.Sprintf("%s mapped by both %s and %s with different chunk lists", asset.ID, existing.SourceMapID, m.ID), nil)
			}

			index.entries[asset.ID] = Entry{
				AssetID:       asset.ID,
				Chunks:        asset.Chunks,
				IsPackingList: asset.IsPackingList,
				SourceMapID:   m.ID,
			}
		}
	}
	return index, nil
}

// Resolve returns the ordered chunk list for an asset. The second result is
// false when the asset is not mapped.
func (x *Index) Resolve(id string) ([]Chunk, bool) {
	entry, ok := x.entries[id]
	if !ok {
		return nil, false
	}
	return entry.Chunks, true
}

// Entry returns the full index entry for an asset.
func (x *Index) Entry(id string) (Entry, bool) {
	entry, ok := x.entries[id]
	return entry, ok
}

// Len returns the number of distinct assets in the index.
func (x *Index) Len() int {
	return len(x.entries)
}

// IDs returns every mapped asset identifier in sorted order.
func (x *Index) IDs() []string {
	ids := make([]string, 0, len(x.entries))
	for id := range x.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func chunksEqual(a, b []Chunk) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
