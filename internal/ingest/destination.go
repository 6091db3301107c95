package ingest

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"ingot/internal/packinglist"
)

// Destination provides per-asset write targets. Each wanted asset gets an
// exclusive writer; the engine never shares one across workers.
type Destination interface {
	// Create opens a write target for the asset. The entry provides naming
	// hints (original file name, MIME type).
	Create(id string, entry packinglist.Entry) (AssetWriter, error)
}

// AssetWriter receives one asset's reconstructed bytes. Exactly one of
// Commit or Discard must be called.
type AssetWriter interface {
	io.Writer
	// Commit finalizes a verified reconstruction.
	Commit() error
	// Discard abandons a partial or unverified reconstruction.
	Discard() error
	// Path names the final write target, or "" for non-file sinks.
	Path() string
}

// incompleteSuffix marks destination files whose reconstruction has not yet
// verified. A crash or cancellation leaves the suffix in place, so a partial
// file is never mistaken for an ingested asset.
const incompleteSuffix = ".incomplete"

// DirDestination writes each asset to a file in a directory, named after the
// Packing List's original file name (falling back to the UUID). Files are
// written under an .incomplete name and renamed only on Commit.
type DirDestination struct {
	Dir string
	// KeepIncomplete leaves .incomplete files behind on Discard instead of
	// removing them.
	KeepIncomplete bool
}

// Create opens the .incomplete staging file for an asset.
func (d *DirDestination) Create(id string, entry packinglist.Entry) (AssetWriter, error) {
	name := destFileName(id, entry)
	finalPath := filepath.Join(d.Dir, name)
	stagingPath := finalPath + incompleteSuffix

	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create destination dir: %w", err)
	}
	file, err := os.OpenFile(stagingPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create destination file: %w", err)
	}
	return &fileWriter{
		file:           file,
		stagingPath:    stagingPath,
		finalPath:      finalPath,
		keepIncomplete: d.KeepIncomplete,
	}, nil
}

type fileWriter struct {
	file           *os.File
	stagingPath    string
	finalPath      string
	keepIncomplete bool
}

func (w *fileWriter) Write(p []byte) (int, error) {
	return w.file.Write(p)
}

func (w *fileWriter) Commit() error {
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("close destination file: %w", err)
	}
	if err := os.Rename(w.stagingPath, w.finalPath); err != nil {
		return fmt.Errorf("finalize destination file: %w", err)
	}
	return nil
}

func (w *fileWriter) Discard() error {
	_ = w.file.Close()
	if w.keepIncomplete {
		return nil
	}
	if err := os.Remove(w.stagingPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (w *fileWriter) Path() string {
	return w.finalPath
}

// destFileName picks a destination name: the declared original file name
// when present and safe, the bare UUID otherwise.
func destFileName(id string, entry packinglist.Entry) string {
	name := strings.TrimSpace(entry.OriginalFileName)
	if name != "" && name == filepath.Base(name) && name != "." && name != ".." {
		return name
	}
	return strings.TrimPrefix(id, "urn:uuid:")
}

// DiscardDestination verifies assets without writing them anywhere, for
// check-only runs.
type DiscardDestination struct{}

func (DiscardDestination) Create(string, packinglist.Entry) (AssetWriter, error) {
	return discardWriter{}, nil
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }
func (discardWriter) Commit() error               { return nil }
func (discardWriter) Discard() error              { return nil }
func (discardWriter) Path() string                { return "" }
