package delivery

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ingot/internal/ingesterr"
	"ingot/internal/logging"
	"ingot/internal/testsupport"
)

func TestDiscoverRootLevelMap(t *testing.T) {
	root := t.TempDir()
	builder := testsupport.NewBuilder(t, root)
	builder.SimpleAsset("video.mxf", []byte("essence"))
	builder.Build()

	units, err := Discover(root)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if len(units) != 1 {
		t.Fatalf("expected 1 unit, got %d", len(units))
	}
	if units[0].Root != root {
		t.Errorf("expected unit root %s, got %s", root, units[0].Root)
	}
}

func TestDiscoverTopLevelDirectories(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"PKG1", "PKG2"} {
		builder := testsupport.NewBuilder(t, filepath.Join(root, name))
		builder.SimpleAsset("video.mxf", []byte(name))
		builder.Build()
	}
	// A directory without a map, and a stray file, are both ignored.
	if err := os.MkdirAll(filepath.Join(root, "extras"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "README.txt"), []byte("hi"), 0o644); err != nil {
		t.Fatal(err)
	}

	units, err := Discover(root)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if len(units) != 2 {
		t.Fatalf("expected 2 units, got %d", len(units))
	}
}

func TestDiscoverRootMapShadowsSubdirectories(t *testing.T) {
	root := t.TempDir()
	builder := testsupport.NewBuilder(t, root)
	builder.SimpleAsset("video.mxf", []byte("root essence"))
	builder.Build()

	nested := testsupport.NewBuilder(t, filepath.Join(root, "PKG1"))
	nested.SimpleAsset("other.mxf", []byte("nested essence"))
	nested.Build()

	units, err := Discover(root)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if len(units) != 1 || units[0].Root != root {
		t.Fatalf("root-level map should win, got %+v", units)
	}
}

func TestDiscoverSkipsOverlongDirectoryNames(t *testing.T) {
	root := t.TempDir()
	long := strings.Repeat("x", 101)
	builder := testsupport.NewBuilder(t, filepath.Join(root, long))
	builder.SimpleAsset("video.mxf", []byte("essence"))
	builder.Build()

	_, err := Discover(root)
	if !errors.Is(err, ingesterr.ErrNoAssetMapFound) {
		t.Fatalf("expected ErrNoAssetMapFound, got %v", err)
	}

	ok := strings.Repeat("y", 100)
	okBuilder := testsupport.NewBuilder(t, filepath.Join(root, ok))
	okBuilder.SimpleAsset("video.mxf", []byte("essence"))
	okBuilder.Build()

	units, err := Discover(root)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if len(units) != 1 || filepath.Base(units[0].Root) != ok {
		t.Fatalf("expected only the 100-char unit, got %+v", units)
	}
}

func TestDiscoverExactFileNameOnly(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "assetmap.xml"), []byte("<AssetMap/>"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Discover(root); !errors.Is(err, ingesterr.ErrNoAssetMapFound) {
		t.Fatalf("expected ErrNoAssetMapFound for lowercase name, got %v", err)
	}
}

func TestDiscoverEmptyRoot(t *testing.T) {
	if _, err := Discover(t.TempDir()); !errors.Is(err, ingesterr.ErrNoAssetMapFound) {
		t.Fatalf("expected ErrNoAssetMapFound, got %v", err)
	}
}

func TestOpenSingleVolume(t *testing.T) {
	root := t.TempDir()
	builder := testsupport.NewBuilder(t, root)
	id := builder.SimpleAsset("video.mxf", []byte("single volume essence"))
	builder.Build()

	d, err := Open(root, logging.NewNop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	chunks, ok := d.AssetIndex.Resolve(id)
	if !ok {
		t.Fatalf("asset %s not in index", id)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	entry, ok := d.PackIndex.Lookup(id)
	if !ok {
		t.Fatalf("asset %s not in packing index", id)
	}
	if entry.Size != int64(len("single volume essence")) {
		t.Errorf("unexpected declared size %d", entry.Size)
	}

	stream, err := d.ChunkReader().Open(chunks[0])
	if err != nil {
		t.Fatalf("open chunk: %v", err)
	}
	defer stream.Close()
	data, err := io.ReadAll(stream)
	if err != nil {
		t.Fatalf("read chunk: %v", err)
	}
	if string(data) != "single volume essence" {
		t.Errorf("chunk bytes do not round-trip: %q", data)
	}
}

func TestOpenMultiVolume(t *testing.T) {
	root := t.TempDir()
	vol1 := filepath.Join(root, "VOL1")
	vol2 := filepath.Join(root, "VOL2")

	builder := testsupport.NewBuilder(t, vol1)
	builder.AddVolume(2, vol2)
	id := testsupport.NewAssetID()
	builder.AddAsset(testsupport.Asset{ID: id, Chunks: []testsupport.Chunk{
		{Path: "video_part1.mxf", Data: []byte("first half "), Volume: 1},
		{Path: "video_part2.mxf", Data: []byte("second half"), Volume: 2},
	}})
	builder.Build()

	d, err := Open(root, logging.NewNop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if len(d.Units) != 2 {
		t.Fatalf("expected 2 units, got %d", len(d.Units))
	}
	if d.Volumes.Len() != 2 {
		t.Fatalf("expected 2 registered volumes, got %d", d.Volumes.Len())
	}
	// Map copies on both volumes collapse to one set of entries.
	if d.AssetIndex.Len() != 2 {
		t.Fatalf("expected 2 indexed assets (essence + list), got %d", d.AssetIndex.Len())
	}

	chunks, ok := d.AssetIndex.Resolve(id)
	if !ok || len(chunks) != 2 {
		t.Fatalf("expected the split asset's 2 chunks, got %v (found=%v)", chunks, ok)
	}

	reader := d.ChunkReader()
	var whole []byte
	for _, chunk := range chunks {
		stream, err := reader.Open(chunk)
		if err != nil {
			t.Fatalf("open chunk %s: %v", chunk.Path, err)
		}
		data, err := io.ReadAll(stream)
		_ = stream.Close()
		if err != nil {
			t.Fatalf("read chunk %s: %v", chunk.Path, err)
		}
		whole = append(whole, data...)
	}
	if string(whole) != "first half second half" {
		t.Errorf("reassembled %q", whole)
	}
}

func TestOpenAssignsOrdinalsToUnrelatedUnits(t *testing.T) {
	root := t.TempDir()
	for i, name := range []string{"PKG1", "PKG2"} {
		builder := testsupport.NewBuilder(t, filepath.Join(root, name))
		builder.SimpleAsset("video.mxf", []byte{byte(i)})
		builder.Build()
	}

	d, err := Open(root, logging.NewNop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if d.Volumes.Len() != 2 {
		t.Fatalf("expected 2 volumes, got %d", d.Volumes.Len())
	}
	// Two independent packages: 2 essence assets + 2 packing lists.
	if d.AssetIndex.Len() != 4 {
		t.Errorf("expected 4 indexed assets, got %d", d.AssetIndex.Len())
	}
	if len(d.Lists) != 2 {
		t.Errorf("expected 2 packing lists, got %d", len(d.Lists))
	}
}

func TestOpenMissingPackingList(t *testing.T) {
	root := t.TempDir()
	builder := testsupport.NewBuilder(t, root)
	builder.SimpleAsset("video.mxf", []byte("essence"))
	builder.Build()
	// Remove the packing list file the map references.
	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatal(err)
	}
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), "PKL_") {
			if err := os.Remove(filepath.Join(root, entry.Name())); err != nil {
				t.Fatal(err)
			}
		}
	}

	if _, err := Open(root, logging.NewNop()); err == nil {
		t.Fatal("expected an error for the missing packing list")
	}
}

func TestOpenPackingListWithOmittedLength(t *testing.T) {
	root := t.TempDir()
	builder := testsupport.NewBuilder(t, root)
	id := testsupport.NewAssetID()
	builder.AddAsset(testsupport.Asset{
		ID:              id,
		Chunks:          []testsupport.Chunk{{Path: "video.mxf", Data: []byte("essence")}},
		OmitChunkLength: true,
	})
	builder.Build()

	d, err := Open(root, logging.NewNop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, ok := d.PackIndex.Lookup(id); !ok {
		t.Fatalf("asset %s missing from packing index", id)
	}
}
