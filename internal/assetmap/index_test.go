package assetmap

import (
	"errors"
	"testing"

	"ingot/internal/ingesterr"
)

func mapDoc(mapID string, assets ...Asset) *AssetMap {
	return &AssetMap{ID: mapID, Assets: assets}
}

func essenceAsset(id string, chunks ...Chunk) Asset {
	return Asset{ID: id, Chunks: chunks}
}

const (
	mapA   = "urn:uuid:aaaaaaaa-0000-4000-8000-000000000000"
	mapB   = "urn:uuid:bbbbbbbb-0000-4000-8000-000000000000"
	asset1 = "urn:uuid:00000001-0000-4000-8000-000000000000"
	asset2 = "urn:uuid:00000002-0000-4000-8000-000000000000"
)

func TestBuildIndexResolves(t *testing.T) {
	index, err := BuildIndex(mapDoc(mapA,
		essenceAsset(asset1, Chunk{Path: "a.mxf", VolumeIndex: 1, Length: 10}),
		essenceAsset(asset2, Chunk{Path: "b1.mxf", VolumeIndex: 1, Length: 5}, Chunk{Path: "b2.mxf", VolumeIndex: 2, Offset: 5, Length: 7}),
	))
	if err != nil {
		t.Fatalf("BuildIndex: %v", err)
	}
	if index.Len() != 2 {
		t.Errorf("len = %d", index.Len())
	}

	chunks, ok := index.Resolve(asset2)
	if !ok || len(chunks) != 2 {
		t.Fatalf("resolve asset2 = %v, %v", chunks, ok)
	}
	if chunks[0].Path != "b1.mxf" || chunks[1].Path != "b2.mxf" {
		t.Errorf("chunk order wrong: %+v", chunks)
	}

	if _, ok := index.Resolve("urn:uuid:ffffffff-0000-4000-8000-000000000000"); ok {
		t.Error("unknown asset should not resolve")
	}

	ids := index.IDs()
	if len(ids) != 2 || ids[0] != asset1 {
		t.Errorf("ids = %v", ids)
	}
}

func TestBuildIndexDuplicateWithinDocument(t *testing.T) {
	_, err := BuildIndex(mapDoc(mapA,
		essenceAsset(asset1, Chunk{Path: "a.mxf", Length: 10}),
		essenceAsset(asset1, Chunk{Path: "a2.mxf", Length: 10}),
	))
	if !errors.Is(err, ingesterr.ErrDuplicateAsset) {
		t.Fatalf("want duplicate asset, got %v", err)
	}
}

func TestBuildIndexAcceptsMapCopies(t *testing.T) {
	// A multi-volume delivery carries a copy of the same asset map on each
	// volume; the union must treat copies as one document.
	shared := essenceAsset(asset1, Chunk{Path: "a.mxf", VolumeIndex: 1, Length: 10})
	index, err := BuildIndex(mapDoc(mapA, shared), mapDoc(mapA, shared))
	if err != nil {
		t.Fatalf("BuildIndex: %v", err)
	}
	if index.Len() != 1 {
		t.Errorf("len = %d", index.Len())
	}
}

func TestBuildIndexRejectsCrossDocumentConflict(t *testing.T) {
	_, err := BuildIndex(
		mapDoc(mapA, essenceAsset(asset1, Chunk{Path: "a.mxf", Length: 10})),
		mapDoc(mapB, essenceAsset(asset1, Chunk{Path: "other.mxf", Length: 99})),
	)
	if !errors.Is(err, ingesterr.ErrConflictingAssetMap) {
		t.Fatalf("want conflicting asset map, got %v", err)
	}
}

func TestBuildIndexAcceptsAgreeingCrossDocumentEntries(t *testing.T) {
	chunk := Chunk{Path: "a.mxf", VolumeIndex: 1, Length: 10}
	index, err := BuildIndex(
		mapDoc(mapA, essenceAsset(asset1, chunk)),
		mapDoc(mapB, essenceAsset(asset1, chunk)),
	)
	if err != nil {
		t.Fatalf("BuildIndex: %v", err)
	}
	entry, ok := index.Entry(asset1)
	if !ok || entry.SourceMapID != mapA {
		t.Errorf("entry = %+v ok=%v", entry, ok)
	}
}
