package ingest

import "time"

// Status classifies the result of one asset's reconstruction.
type Status string

const (
	StatusSucceeded            Status = "succeeded"
	StatusDigestMismatch       Status = "digest_mismatch"
	StatusNotInMap             Status = "asset_not_in_map"
	StatusNotInPackingList     Status = "asset_not_in_packing_list"
	StatusChunkReadFailed      Status = "chunk_read_failed"
	StatusPartialVolumeMissing Status = "partial_volume_missing"
	// StatusConflictingDeclaration marks an asset whose Packing Lists
	// disagree about digest or size; there is no unambiguous expectation to
	// verify against.
	StatusConflictingDeclaration Status = "conflicting_packing_list_entry"
)

// Terminal statuses other than success, used by reporting helpers.
var failureStatuses = map[Status]struct{}{
	StatusDigestMismatch:         {},
	StatusNotInMap:               {},
	StatusNotInPackingList:       {},
	StatusChunkReadFailed:        {},
	StatusPartialVolumeMissing:   {},
	StatusConflictingDeclaration: {},
}

// Outcome is the immutable per-asset result record.
type Outcome struct {
	AssetID string `json:"asset_id"`
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
	// BytesWritten is the number of reconstructed bytes delivered to the
	// destination before the asset terminated.
	BytesWritten int64 `json:"bytes_written"`
	// Receipt is the BLAKE3 content address of the reconstructed asset,
	// recorded for succeeded assets when receipts are enabled.
	Receipt string `json:"receipt,omitempty"`
	// Destination is where the reconstruction was written, when the sink
	// exposes a path.
	Destination string        `json:"destination,omitempty"`
	Duration    time.Duration `json:"duration_ns"`
}

// Failed reports whether the outcome is any terminal failure.
func (o Outcome) Failed() bool {
	_, failed := failureStatuses[o.Status]
	return failed
}

// Report is the engine-level result: one outcome per wanted asset, in the
// order the selection was supplied.
type Report struct {
	Outcomes   []Outcome `json:"outcomes"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Succeeded counts assets that reconstructed and verified.
func (r Report) Succeeded() int {
	count := 0
	for _, outcome := range r.Outcomes {
		if outcome.Status == StatusSucceeded {
			count++
		}
	}
	return count
}

// Failed counts assets with any terminal failure.
func (r Report) Failed() int {
	return len(r.Outcomes) - r.Succeeded()
}
