// Package chunkio resolves chunk locations to readable byte streams through
// a table of mounted volume roots.
//
// Streams are length-checked against the Asset Map declaration both at open
// time (file size) and during reading, so a truncated or grown chunk file is
// reported as a length mismatch rather than silently corrupting a
// reconstruction. A volume whose root is not reachable is a distinct
// condition from a missing chunk file: the SMPTE multi-volume rules allow
// ingesting from a partial volume set, and the engine needs to tell the two
// apart.
package chunkio

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"ingot/internal/assetmap"
	"ingot/internal/ingesterr"
)

// VolumeSet maps volume ordinals to filesystem roots. Populated once at
// delivery-open time, read-only afterwards.
type VolumeSet struct {
	roots map[int64]string
}

// NewVolumeSet returns an empty volume table.
func NewVolumeSet() *VolumeSet {
	return &VolumeSet{roots: make(map[int64]string)}
}

// Add registers a volume root under the given ordinal. Registering the same
// ordinal twice with different roots is an error; re-adding the same root is
// a no-op so multi-map discovery can be naive about repeats.
func (v *VolumeSet) Add(index int64, root string) error {
	if index < 1 {
		return fmt.Errorf("volume index must be positive, got %d", index)
	}
	if existing, ok := v.roots[index]; ok {
		if existing == root {
			return nil
		}
		return fmt.Errorf("volume %d already mapped to %s", index, existing)
	}
	v.roots[index] = root
	return nil
}

// Root returns the filesystem root for a volume ordinal.
func (v *VolumeSet) Root(index int64) (string, bool) {
	root, ok := v.roots[index]
	return root, ok
}

// Indexes returns the registered ordinals in ascending order.
func (v *VolumeSet) Indexes() []int64 {
	indexes := make([]int64, 0, len(v.roots))
	for index := range v.roots {
		indexes = append(indexes, index)
	}
	sort.Slice(indexes, func(i, j int) bool { return indexes[i] < indexes[j] })
	return indexes
}

// Len returns the number of registered volumes.
func (v *VolumeSet) Len() int {
	return len(v.roots)
}

// Reader opens chunk streams. Safe for concurrent use; each Open returns an
// independent stream.
type Reader struct {
	volumes *VolumeSet
}

// NewReader constructs a Reader over the given volume table.
func NewReader(volumes *VolumeSet) *Reader {
	return &Reader{volumes: volumes}
}

// Open resolves a chunk location to a byte stream of exactly the declared
// length. The caller owns the stream and must close it on every exit path.
// Chunks with an unspecified length must have it substituted (from the
// Packing List declaration) before reaching the reader.
func (r *Reader) Open(chunk assetmap.Chunk) (io.ReadCloser, error) {
	if chunk.Length < 0 {
		return nil, ingesterr.Wrap(ingesterr.ErrChunkRead, "chunkio", "open",
			fmt.Sprintf("chunk %s has unresolved length", chunk.Path), nil)
	}

	root, ok := r.volumes.Root(chunk.VolumeIndex)
	if !ok {
		return nil, ingesterr.Wrap(ingesterr.ErrVolumeUnavailable, "chunkio", "open",
			fmt.Sprintf("volume %d is not part of this delivery session", chunk.VolumeIndex), nil)
	}
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return nil, ingesterr.Wrap(ingesterr.ErrVolumeUnavailable, "chunkio", "open",
			fmt.Sprintf("volume %d root %s", chunk.VolumeIndex, root), err)
	}

	rel, err := safeRelPath(chunk.Path)
	if err != nil {
		return nil, ingesterr.Wrap(ingesterr.ErrChunkRead, "chunkio", "open", chunk.Path, err)
	}
	fullPath := filepath.Join(root, rel)

	info, err := os.Stat(fullPath)
	if err != nil {
		return nil, ingesterr.Wrap(ingesterr.ErrChunkRead, "chunkio", "open", fullPath, err)
	}
	if info.Size() != chunk.Length {
		return nil, ingesterr.Wrap(ingesterr.ErrChunkLengthMismatch, "chunkio", "open",
			fmt.Sprintf("%s is %d bytes, asset map declares %d", fullPath, info.Size(), chunk.Length), nil)
	}

	file, err := os.Open(fullPath)
	if err != nil {
		return nil, ingesterr.Wrap(ingesterr.ErrChunkRead, "chunkio", "open", fullPath, err)
	}
	return &chunkStream{file: file, path: fullPath, remaining: chunk.Length}, nil
}

// safeRelPath normalizes a storage-relative chunk path and rejects anything
// that would escape the volume root.
func safeRelPath(chunkPath string) (string, error) {
	if chunkPath == "" {
		return "", fmt.Errorf("empty chunk path")
	}
	cleaned := filepath.Clean(filepath.FromSlash(chunkPath))
	if filepath.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("chunk path %q escapes volume root", chunkPath)
	}
	return cleaned, nil
}

// chunkStream yields exactly the declared number of bytes and reports a
// length mismatch if the underlying file ends early or runs long.
type chunkStream struct {
	file      *os.File
	path      string
	remaining int64
}

func (s *chunkStream) Read(p []byte) (int, error) {
	if s.remaining <= 0 {
		return 0, io.EOF
	}
	if int64(len(p)) > s.remaining {
		p = p[:s.remaining]
	}
	n, err := s.file.Read(p)
	s.remaining -= int64(n)
	if err == io.EOF && s.remaining > 0 {
		return n, ingesterr.Wrap(ingesterr.ErrChunkLengthMismatch, "chunkio", "read",
			fmt.Sprintf("%s ended with %d declared bytes unread", s.path, s.remaining), nil)
	}
	if err != nil && err != io.EOF {
		return n, ingesterr.Wrap(ingesterr.ErrChunkRead, "chunkio", "read", s.path, err)
	}
	if s.remaining == 0 {
		return n, io.EOF
	}
	return n, nil
}

func (s *chunkStream) Close() error {
	return s.file.Close()
}
