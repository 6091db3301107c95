package chunkio

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"ingot/internal/assetmap"
	"ingot/internal/ingesterr"
)

func writeChunk(t *testing.T, dir, name string, data []byte) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestVolumeSetAdd(t *testing.T) {
	volumes := NewVolumeSet()
	if err := volumes.Add(1, "/mnt/a"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := volumes.Add(1, "/mnt/a"); err != nil {
		t.Errorf("re-adding same root should be a no-op: %v", err)
	}
	if err := volumes.Add(1, "/mnt/b"); err == nil {
		t.Error("conflicting root for same ordinal should fail")
	}
	if err := volumes.Add(0, "/mnt/c"); err == nil {
		t.Error("non-positive ordinal should fail")
	}
	if err := volumes.Add(2, "/mnt/b"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if got := volumes.Indexes(); len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("indexes = %v", got)
	}
}

func TestOpenStreamsDeclaredBytes(t *testing.T) {
	root := t.TempDir()
	payload := []byte("0123456789abcdef")
	writeChunk(t, root, "essence/video.mxf", payload)

	volumes := NewVolumeSet()
	if err := volumes.Add(1, root); err != nil {
		t.Fatal(err)
	}
	reader := NewReader(volumes)

	stream, err := reader.Open(assetmap.Chunk{Path: "essence/video.mxf", VolumeIndex: 1, Length: int64(len(payload))})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer stream.Close()

	got, err := io.ReadAll(stream)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(got) != string(payload) {
		t.Errorf("read %q, want %q", got, payload)
	}
}

func TestOpenDetectsLengthMismatch(t *testing.T) {
	root := t.TempDir()
	writeChunk(t, root, "short.mxf", []byte("abc"))

	volumes := NewVolumeSet()
	if err := volumes.Add(1, root); err != nil {
		t.Fatal(err)
	}
	reader := NewReader(volumes)

	_, err := reader.Open(assetmap.Chunk{Path: "short.mxf", VolumeIndex: 1, Length: 100})
	if !errors.Is(err, ingesterr.ErrChunkLengthMismatch) {
		t.Fatalf("want length mismatch, got %v", err)
	}
}

func TestOpenUnknownVolume(t *testing.T) {
	volumes := NewVolumeSet()
	if err := volumes.Add(1, t.TempDir()); err != nil {
		t.Fatal(err)
	}
	reader := NewReader(volumes)

	_, err := reader.Open(assetmap.Chunk{Path: "a.mxf", VolumeIndex: 2, Length: 1})
	if !errors.Is(err, ingesterr.ErrVolumeUnavailable) {
		t.Fatalf("want volume unavailable, got %v", err)
	}
}

func TestOpenRemovedVolumeRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "vol2")
	if err := os.MkdirAll(root, 0o755); err != nil {
		t.Fatal(err)
	}
	volumes := NewVolumeSet()
	if err := volumes.Add(2, root); err != nil {
		t.Fatal(err)
	}
	if err := os.RemoveAll(root); err != nil {
		t.Fatal(err)
	}

	reader := NewReader(volumes)
	_, err := reader.Open(assetmap.Chunk{Path: "a.mxf", VolumeIndex: 2, Length: 1})
	if !errors.Is(err, ingesterr.ErrVolumeUnavailable) {
		t.Fatalf("want volume unavailable, got %v", err)
	}
}

func TestOpenMissingChunkFileIsReadFailure(t *testing.T) {
	volumes := NewVolumeSet()
	if err := volumes.Add(1, t.TempDir()); err != nil {
		t.Fatal(err)
	}
	reader := NewReader(volumes)

	_, err := reader.Open(assetmap.Chunk{Path: "gone.mxf", VolumeIndex: 1, Length: 1})
	if !errors.Is(err, ingesterr.ErrChunkRead) {
		t.Fatalf("want chunk read failure, got %v", err)
	}
	if errors.Is(err, ingesterr.ErrVolumeUnavailable) {
		t.Error("missing file must not be conflated with missing volume")
	}
}

func TestOpenRejectsEscapingPath(t *testing.T) {
	volumes := NewVolumeSet()
	if err := volumes.Add(1, t.TempDir()); err != nil {
		t.Fatal(err)
	}
	reader := NewReader(volumes)

	for _, path := range []string{"../outside.mxf", "/etc/passwd", "a/../../b"} {
		if _, err := reader.Open(assetmap.Chunk{Path: path, VolumeIndex: 1, Length: 1}); !errors.Is(err, ingesterr.ErrChunkRead) {
			t.Errorf("path %q: want chunk read failure, got %v", path, err)
		}
	}
}

func TestOpenRejectsUnresolvedLength(t *testing.T) {
	volumes := NewVolumeSet()
	if err := volumes.Add(1, t.TempDir()); err != nil {
		t.Fatal(err)
	}
	reader := NewReader(volumes)

	_, err := reader.Open(assetmap.Chunk{Path: "a.mxf", VolumeIndex: 1, Length: assetmap.LengthUnspecified})
	if !errors.Is(err, ingesterr.ErrChunkRead) {
		t.Fatalf("want chunk read failure, got %v", err)
	}
}
