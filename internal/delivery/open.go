package delivery

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"ingot/internal/assetmap"
	"ingot/internal/chunkio"
	"ingot/internal/imfxml"
	"ingot/internal/ingesterr"
	"ingot/internal/logging"
	"ingot/internal/packinglist"
)

// Delivery is an opened ingest session: every inventory document parsed,
// both indices built, volume roots registered. Read-only once returned.
type Delivery struct {
	Units []Unit
	Maps  []*assetmap.AssetMap
	Lists []*packinglist.PackingList

	AssetIndex *assetmap.Index
	PackIndex  *packinglist.Index
	Volumes    *chunkio.VolumeSet
}

// Open discovers and fully loads the delivery rooted at root.
func Open(root string, logger *slog.Logger) (*Delivery, error) {
	logger = logging.WithComponent(logger, "delivery")

	units, err := Discover(root)
	if err != nil {
		return nil, err
	}

	d := &Delivery{
		Units:   units,
		Volumes: chunkio.NewVolumeSet(),
	}

	for _, unit := range units {
		parsed, err := assetmap.ParseFile(unit.MapPath)
		if err != nil {
			return nil, err
		}

		ordinal, err := d.assignVolume(unit)
		if err != nil {
			return nil, err
		}

		// Per the 2014 update a map's VolumeCount shall be 1, with the
		// chunk ordinal implicitly naming the unit itself; those local
		// ordinals are rewritten to the unit's global ordinal. Older
		// multi-volume maps (VolumeCount > 1) already reference global
		// ordinals shared across the volume set, so their chunks pass
		// through untouched.
		if parsed.VolumeCount <= 1 {
			rewriteVolumeOrdinals(parsed, ordinal)
		}

		logger.Debug("asset map loaded", logging.Args(
			logging.String("map_id", parsed.ID),
			logging.String("path", unit.MapPath),
			logging.Int64(logging.FieldVolume, ordinal),
			logging.Int("assets", len(parsed.Assets)),
		)...)
		d.Maps = append(d.Maps, parsed)
	}

	d.AssetIndex, err = assetmap.BuildIndex(d.Maps...)
	if err != nil {
		return nil, err
	}

	if err := d.loadPackingLists(logger); err != nil {
		return nil, err
	}

	d.PackIndex, err = packinglist.BuildIndex(d.Lists...)
	if err != nil {
		return nil, err
	}

	logger.Info("delivery opened", logging.Args(
		logging.Int("units", len(d.Units)),
		logging.Int("volumes", d.Volumes.Len()),
		logging.Int("mapped_assets", d.AssetIndex.Len()),
		logging.Int("packed_assets", d.PackIndex.Len()),
	)...)
	return d, nil
}

// ChunkReader returns a reader over the delivery's volume set.
func (d *Delivery) ChunkReader() *chunkio.Reader {
	return chunkio.NewReader(d.Volumes)
}

// assignVolume registers the unit's root under its ordinal: the VOLINDEX.xml
// declaration when the unit carries one, the next free ordinal otherwise.
func (d *Delivery) assignVolume(unit Unit) (int64, error) {
	volIndexPath := filepath.Join(unit.Root, VolumeIndexFileName)
	if info, err := os.Stat(volIndexPath); err == nil && !info.IsDir() {
		vi, err := assetmap.ParseVolumeIndexFile(volIndexPath)
		if err != nil {
			return 0, err
		}
		if err := d.Volumes.Add(vi.Index, unit.Root); err != nil {
			return 0, ingesterr.Wrap(ingesterr.ErrConflictingAssetMap, "delivery", "assign volume", unit.Root, err)
		}
		return vi.Index, nil
	}

	ordinal := int64(1)
	for {
		if _, taken := d.Volumes.Root(ordinal); !taken {
			break
		}
		ordinal++
	}
	if err := d.Volumes.Add(ordinal, unit.Root); err != nil {
		return 0, ingesterr.Wrap(ingesterr.ErrConflictingAssetMap, "delivery", "assign volume", unit.Root, err)
	}
	return ordinal, nil
}

func rewriteVolumeOrdinals(m *assetmap.AssetMap, ordinal int64) {
	for ai := range m.Assets {
		for ci := range m.Assets[ai].Chunks {
			m.Assets[ai].Chunks[ci].VolumeIndex = ordinal
		}
	}
}

// loadPackingLists reads every asset the maps flag as a Packing List and
// parses it. The same list referenced from several map copies is parsed
// once. List documents themselves live in the asset map as chunked assets,
// so they are reconstructed through the chunk reader like any other asset.
func (d *Delivery) loadPackingLists(logger *slog.Logger) error {
	reader := d.ChunkReader()
	seen := make(map[string]struct{})
	for _, m := range d.Maps {
		for _, asset := range m.PackingLists() {
			if _, done := seen[asset.ID]; done {
				continue
			}
			seen[asset.ID] = struct{}{}

			raw, err := d.readDocumentAsset(reader, asset)
			if err != nil {
				return ingesterr.Wrap(ingesterr.ErrMalformedDocument, "delivery", "read packing list", asset.ID, err)
			}
			node, err := imfxml.Parse(bytes.NewReader(raw))
			if err != nil {
				return ingesterr.Wrap(ingesterr.ErrMalformedDocument, "delivery", "parse packing list", asset.ID, err)
			}
			list, err := packinglist.Parse(node)
			if err != nil {
				return err
			}
			logger.Debug("packing list loaded", logging.Args(
				logging.String("list_id", list.ID),
				logging.Int("assets", len(list.Assets)),
			)...)
			d.Lists = append(d.Lists, list)
		}
	}
	if len(d.Lists) == 0 {
		return ingesterr.Wrap(ingesterr.ErrMalformedDocument, "delivery", "load packing lists",
			"no asset map entry is flagged as a packing list", nil)
	}
	return nil
}

// readDocumentAsset concatenates an inventory document's chunks into memory.
// Inventory documents are small; essence assets never come through here.
func (d *Delivery) readDocumentAsset(reader *chunkio.Reader, asset assetmap.Asset) ([]byte, error) {
	var buf bytes.Buffer
	for _, chunk := range asset.Chunks {
		if chunk.Length == assetmap.LengthUnspecified {
			data, err := d.readWholeChunkFile(chunk)
			if err != nil {
				return nil, err
			}
			buf.Write(data)
			continue
		}
		stream, err := reader.Open(chunk)
		if err != nil {
			return nil, err
		}
		_, err = io.Copy(&buf, stream)
		closeErr := stream.Close()
		if err != nil {
			return nil, err
		}
		if closeErr != nil {
			return nil, closeErr
		}
	}
	return buf.Bytes(), nil
}

// readWholeChunkFile handles the length-omitted single-chunk case, where the
// chunk spans its entire file.
func (d *Delivery) readWholeChunkFile(chunk assetmap.Chunk) ([]byte, error) {
	root, ok := d.Volumes.Root(chunk.VolumeIndex)
	if !ok {
		return nil, ingesterr.Wrap(ingesterr.ErrVolumeUnavailable, "delivery", "read chunk",
			fmt.Sprintf("volume %d not registered", chunk.VolumeIndex), nil)
	}
	return os.ReadFile(filepath.Join(root, filepath.FromSlash(chunk.Path)))
}
