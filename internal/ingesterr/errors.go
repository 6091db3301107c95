// Package ingesterr defines the failure taxonomy shared by the index
// builders, the chunk reader, and the ingest engine.
//
// Errors are tagged with sentinel markers via Wrap so callers classify with
// errors.Is instead of string matching. Construction-tier markers abort index
// building or delivery open; asset-tier markers are captured into per-asset
// outcomes and never abort sibling assets.
package ingesterr

import (
	"errors"
	"fmt"
	"strings"
)

// Construction-tier markers. Hitting one of these means the Delivery itself
// is not trustworthy enough to proceed.
var (
	ErrNoAssetMapFound      = errors.New("no asset map found")
	ErrDuplicateAsset       = errors.New("duplicate asset identifier")
	ErrConflictingAssetMap  = errors.New("conflicting asset map entry")
	ErrDuplicatePackedAsset = errors.New("duplicate asset in packing list")
	ErrEmptyChunkList       = errors.New("empty chunk list")
	ErrMalformedDocument    = errors.New("malformed document")
)

// Asset-tier markers. These surface as per-asset ingest outcomes rather
// than aborting the run.
var (
	ErrVolumeUnavailable   = errors.New("volume unavailable")
	ErrChunkLengthMismatch = errors.New("chunk length mismatch")
	ErrChunkRead           = errors.New("chunk read failed")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrMalformedDocument
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Construction reports whether err carries a construction-tier marker.
func Construction(err error) bool {
	switch {
	case errors.Is(err, ErrNoAssetMapFound),
		errors.Is(err, ErrDuplicateAsset),
		errors.Is(err, ErrConflictingAssetMap),
		errors.Is(err, ErrDuplicatePackedAsset),
		errors.Is(err, ErrEmptyChunkList),
		errors.Is(err, ErrMalformedDocument):
		return true
	}
	return false
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "ingest failure"
	}
	return strings.Join(parts, ": ")
}
