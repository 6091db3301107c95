package packinglist

import (
	"fmt"
	"sort"

	"ingot/internal/ingesterr"
)

// Entry is one asset's expected-digest record inside the index.
type Entry struct {
	AssetID          string
	Digest           string
	Algorithm        string
	Size             int64
	Type             string
	OriginalFileName string
	// SourceListID identifies the Packing List that first supplied the entry.
	SourceListID string
	// ConflictDetail is non-empty when another list declared a different
	// digest or size for the same asset. Conflicted entries stay in the
	// index so ingest can surface the condition per asset instead of
	// failing the whole build.
	ConflictDetail string
}

// Conflicted reports whether cross-list metadata disagreed for this asset.
func (e Entry) Conflicted() bool { return e.ConflictDetail != "" }

// Index maps asset identifiers to expected digests across every Packing List
// of a delivery. Built once per ingest session, then read-only.
type Index struct {
	entries map[string]Entry
	lists   []string
}

// BuildIndex constructs the union index over the supplied Packing Lists.
//
// A duplicate identifier within one list fails the build. Across lists the
// same asset may appear in several packages: identical digest and size merge
// silently (type is informational and kept from the first list seen), while
// disagreement marks the entry conflicted without failing construction, so
// ingest can still proceed on the unambiguous assets.
func BuildIndex(lists ...*PackingList) (*Index, error) {
	index := &Index{entries: make(map[string]Entry)}
	for _, list := range lists {
		if list == nil {
			continue
		}
		index.lists = append(index.lists, list.ID)
		seen := make(map[string]struct{}, len(list.Assets))
		for _, asset := range list.Assets {
			if _, dup := seen[asset.ID]; dup {
				return nil, ingesterr.Wrap(ingesterr.ErrDuplicatePackedAsset, "packinglist", "build index",
					fmt.Sprintf("%s appears twice in list %s", asset.ID, list.ID), nil)
			}
			seen[asset.ID] = struct{}{}

			existing, ok := index.entries[asset.ID]
			if !ok {
				index.entries[asset.ID] = Entry{
					AssetID:          asset.ID,
					Digest:           asset.Digest,
					Algorithm:        asset.Algorithm,
					Size:             asset.Size,
					Type:             asset.Type,
					OriginalFileName: asset.OriginalFileName,
					SourceListID:     list.ID,
				}
				continue
			}
			if existing.Conflicted() {
				continue
			}
			if existing.Digest != asset.Digest || existing.Size != asset.Size || existing.Algorithm != asset.Algorithm {
				existing.ConflictDetail = fmt.Sprintf(
					"lists %s and %s disagree: digest %s/%s size %d/%d",
					existing.SourceListID, list.ID, existing.Digest, asset.Digest, existing.Size, asset.Size)
				index.entries[asset.ID] = existing
			}
		}
	}
	return index, nil
}

// Lookup returns the expected-digest entry for an asset. The second result
// is false when no Packing List declares the asset.
func (x *Index) Lookup(id string) (Entry, bool) {
	entry, ok := x.entries[id]
	return entry, ok
}

// Len returns the number of distinct packed assets.
func (x *Index) Len() int {
	return len(x.entries)
}

// IDs returns every packed asset identifier in sorted order.
func (x *Index) IDs() []string {
	ids := make([]string, 0, len(x.entries))
	for id := range x.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Lists returns the identifiers of the Packing Lists the index was built
// from, in supply order.
func (x *Index) Lists() []string {
	return x.lists
}
