// Package testsupport builds synthetic deliveries on disk for tests:
// chunk files, a Packing List, and an Asset Map wired together with real
// digests so ingest runs end to end against them.
package testsupport

import (
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
)

// Chunk is one chunk of a synthetic asset.
type Chunk struct {
	Path   string
	Data   []byte
	Volume int64 // 0 means volume 1
}

// Asset is one synthetic asset: its chunk payloads plus the knobs tests use
// to produce broken deliveries on purpose.
type Asset struct {
	ID     string
	Type   string
	Chunks []Chunk
	// OmitChunkLength drops the Length element from the asset map entry
	// (valid only for single-chunk assets).
	OmitChunkLength bool
	// DigestOverride replaces the computed Packing List digest.
	DigestOverride string
	// SizeOverride replaces the computed Packing List size when non-zero.
	SizeOverride int64
}

// Builder accumulates synthetic assets and writes the inventory documents.
type Builder struct {
	t *testing.T

	// UnitDir is where ASSETMAP.xml and the Packing List are written. It is
	// also volume 1 unless overridden.
	UnitDir string
	// VolumeCount written into the asset map. Defaults to the number of
	// registered volumes.
	VolumeCount int64

	MapID  string
	ListID string

	volumes map[int64]string
	assets  []Asset
}

// NewBuilder returns a Builder writing into unitDir.
func NewBuilder(t *testing.T, unitDir string) *Builder {
	t.Helper()
	if err := os.MkdirAll(unitDir, 0o755); err != nil {
		t.Fatal(err)
	}
	return &Builder{
		t:       t,
		UnitDir: unitDir,
		MapID:   NewAssetID(),
		ListID:  NewAssetID(),
		volumes: map[int64]string{1: unitDir},
	}
}

// NewAssetID returns a fresh urn:uuid identifier.
func NewAssetID() string {
	return "urn:uuid:" + uuid.NewString()
}

// AddVolume registers an additional volume directory. Chunk data for that
// volume ordinal is written beneath it, and a VOLINDEX.xml is emitted there
// at Build time.
func (b *Builder) AddVolume(index int64, dir string) {
	b.t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		b.t.Fatal(err)
	}
	b.volumes[index] = dir
}

// AddAsset queues an asset for Build.
func (b *Builder) AddAsset(asset Asset) {
	if asset.ID == "" {
		asset.ID = NewAssetID()
	}
	if asset.Type == "" {
		asset.Type = "application/mxf"
	}
	b.assets = append(b.assets, asset)
}

// SimpleAsset queues a single-chunk asset on volume 1 and returns its
// identifier.
func (b *Builder) SimpleAsset(path string, data []byte) string {
	id := NewAssetID()
	b.AddAsset(Asset{ID: id, Chunks: []Chunk{{Path: path, Data: data}}})
	return id
}

// Build writes chunk files, the Packing List, the Asset Map, and any
// VOLINDEX.xml documents. Returns the unit directory for convenience.
func (b *Builder) Build() string {
	b.t.Helper()

	for _, asset := range b.assets {
		for _, chunk := range asset.Chunks {
			dir, ok := b.volumes[volumeOf(chunk)]
			if !ok {
				b.t.Fatalf("asset %s chunk %s references unregistered volume %d", asset.ID, chunk.Path, volumeOf(chunk))
			}
			path := filepath.Join(dir, filepath.FromSlash(chunk.Path))
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				b.t.Fatal(err)
			}
			if err := os.WriteFile(path, chunk.Data, 0o644); err != nil {
				b.t.Fatal(err)
			}
		}
	}

	listName := "PKL_" + strings.TrimPrefix(b.ListID, "urn:uuid:") + ".xml"
	listXML := b.packingListXML()
	if err := os.WriteFile(filepath.Join(b.UnitDir, listName), []byte(listXML), 0o644); err != nil {
		b.t.Fatal(err)
	}

	// Each volume of a multi-volume set carries a copy of the same map, as
	// 429-9 requires.
	mapXML := b.assetMapXML(listName, int64(len(listXML)))
	for _, dir := range b.volumes {
		if err := os.WriteFile(filepath.Join(dir, "ASSETMAP.xml"), []byte(mapXML), 0o644); err != nil {
			b.t.Fatal(err)
		}
	}

	for index, dir := range b.volumes {
		if dir == b.UnitDir && index == 1 && len(b.volumes) == 1 {
			continue
		}
		volXML := fmt.Sprintf("<?xml version=\"1.0\"?>\n<VolumeIndex xmlns=\"http://www.smpte-ra.org/schemas/429-9/2007/AM\"><Index>%d</Index></VolumeIndex>\n", index)
		if err := os.WriteFile(filepath.Join(dir, "VOLINDEX.xml"), []byte(volXML), 0o644); err != nil {
			b.t.Fatal(err)
		}
	}

	return b.UnitDir
}

func (b *Builder) packingListXML() string {
	var sb strings.Builder
	sb.WriteString("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	sb.WriteString("<PackingList xmlns=\"http://www.smpte-ra.org/schemas/2067-2/2016/PKL\">\n")
	fmt.Fprintf(&sb, "  <Id>%s</Id>\n", b.ListID)
	sb.WriteString("  <AnnotationText>synthetic delivery</AnnotationText>\n")
	sb.WriteString("  <IssueDate>2024-01-01T00:00:00Z</IssueDate>\n")
	sb.WriteString("  <Issuer>testsupport</Issuer>\n")
	sb.WriteString("  <Creator>ingot tests</Creator>\n")
	sb.WriteString("  <AssetList>\n")
	for _, asset := range b.assets {
		digest := asset.DigestOverride
		if digest == "" {
			digest = DigestOf(assetData(asset))
		}
		size := asset.SizeOverride
		if size == 0 {
			size = int64(len(assetData(asset)))
		}
		sb.WriteString("    <Asset>\n")
		fmt.Fprintf(&sb, "      <Id>%s</Id>\n", asset.ID)
		fmt.Fprintf(&sb, "      <Hash>%s</Hash>\n", digest)
		sb.WriteString("      <HashAlgorithm Algorithm=\"http://www.w3.org/2000/09/xmldsig#sha1\"/>\n")
		fmt.Fprintf(&sb, "      <Size>%d</Size>\n", size)
		fmt.Fprintf(&sb, "      <Type>%s</Type>\n", asset.Type)
		fmt.Fprintf(&sb, "      <OriginalFileName>%s</OriginalFileName>\n", filepath.Base(asset.Chunks[0].Path))
		sb.WriteString("    </Asset>\n")
	}
	sb.WriteString("  </AssetList>\n")
	sb.WriteString("</PackingList>\n")
	return sb.String()
}

func (b *Builder) assetMapXML(listName string, listSize int64) string {
	volumeCount := b.VolumeCount
	if volumeCount == 0 {
		volumeCount = int64(len(b.volumes))
	}

	var sb strings.Builder
	sb.WriteString("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	sb.WriteString("<AssetMap xmlns=\"http://www.smpte-ra.org/schemas/429-9/2007/AM\">\n")
	fmt.Fprintf(&sb, "  <Id>%s</Id>\n", b.MapID)
	sb.WriteString("  <Creator>ingot tests</Creator>\n")
	fmt.Fprintf(&sb, "  <VolumeCount>%d</VolumeCount>\n", volumeCount)
	sb.WriteString("  <IssueDate>2024-01-01T00:00:00Z</IssueDate>\n")
	sb.WriteString("  <Issuer>testsupport</Issuer>\n")
	sb.WriteString("  <AssetList>\n")

	// The packing list itself is a mapped asset flagged PackingList.
	sb.WriteString("    <Asset>\n")
	fmt.Fprintf(&sb, "      <Id>%s</Id>\n", b.ListID)
	sb.WriteString("      <PackingList>true</PackingList>\n")
	sb.WriteString("      <ChunkList>\n")
	fmt.Fprintf(&sb, "        <Chunk><Path>%s</Path><VolumeIndex>1</VolumeIndex><Length>%d</Length></Chunk>\n", listName, listSize)
	sb.WriteString("      </ChunkList>\n")
	sb.WriteString("    </Asset>\n")

	for _, asset := range b.assets {
		sb.WriteString("    <Asset>\n")
		fmt.Fprintf(&sb, "      <Id>%s</Id>\n", asset.ID)
		sb.WriteString("      <ChunkList>\n")
		var offset int64
		for _, chunk := range asset.Chunks {
			fmt.Fprintf(&sb, "        <Chunk><Path>%s</Path><VolumeIndex>%d</VolumeIndex><Offset>%d</Offset>",
				chunk.Path, volumeOf(chunk), offset)
			if !asset.OmitChunkLength {
				fmt.Fprintf(&sb, "<Length>%d</Length>", len(chunk.Data))
			}
			sb.WriteString("</Chunk>\n")
			offset += int64(len(chunk.Data))
		}
		sb.WriteString("      </ChunkList>\n")
		sb.WriteString("    </Asset>\n")
	}
	sb.WriteString("  </AssetList>\n")
	sb.WriteString("</AssetMap>\n")
	return sb.String()
}

// DigestOf returns the base64 SHA-1 digest the Packing List would declare
// for the given content.
func DigestOf(data []byte) string {
	sum := sha1.Sum(data)
	return base64.StdEncoding.EncodeToString(sum[:])
}

func assetData(asset Asset) []byte {
	var all []byte
	for _, chunk := range asset.Chunks {
		all = append(all, chunk.Data...)
	}
	return all
}

func volumeOf(chunk Chunk) int64 {
	if chunk.Volume == 0 {
		return 1
	}
	return chunk.Volume
}
