package ingesterr

import (
	"errors"
	"fmt"
	"testing"
)

func TestWrapTagsMarker(t *testing.T) {
	inner := fmt.Errorf("open /mnt/vol2: no such file or directory")
	err := Wrap(ErrVolumeUnavailable, "chunkio", "open", "volume 2", inner)

	if !errors.Is(err, ErrVolumeUnavailable) {
		t.Errorf("marker not preserved: %v", err)
	}
	if !errors.Is(err, inner) {
		t.Errorf("inner error not preserved: %v", err)
	}
	want := "volume unavailable: chunkio: open: volume 2: open /mnt/vol2: no such file or directory"
	if err.Error() != want {
		t.Errorf("message = %q, want %q", err.Error(), want)
	}
}

func TestWrapWithoutInnerError(t *testing.T) {
	err := Wrap(ErrDuplicateAsset, "assetmap", "build", "urn:uuid:abc", nil)
	if !errors.Is(err, ErrDuplicateAsset) {
		t.Errorf("marker not preserved: %v", err)
	}
}

func TestWrapNilMarkerDefaults(t *testing.T) {
	err := Wrap(nil, "", "", "", nil)
	if !errors.Is(err, ErrMalformedDocument) {
		t.Errorf("nil marker should default to malformed document: %v", err)
	}
	if err.Error() != "malformed document: ingest failure" {
		t.Errorf("message = %q", err.Error())
	}
}

func TestConstructionClassification(t *testing.T) {
	construction := []error{
		ErrNoAssetMapFound,
		ErrDuplicateAsset,
		ErrConflictingAssetMap,
		ErrDuplicatePackedAsset,
		ErrEmptyChunkList,
		ErrMalformedDocument,
	}
	for _, marker := range construction {
		if !Construction(Wrap(marker, "x", "y", "z", nil)) {
			t.Errorf("%v should classify as construction tier", marker)
		}
	}

	assetTier := []error{
		ErrVolumeUnavailable,
		ErrChunkLengthMismatch,
		ErrChunkRead,
	}
	for _, marker := range assetTier {
		if Construction(Wrap(marker, "x", "y", "z", nil)) {
			t.Errorf("%v should classify as asset tier", marker)
		}
	}
}
