package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"ingot/internal/assetmap"
	"ingot/internal/chunkio"
	"ingot/internal/digest"
	"ingot/internal/ingesterr"
	"ingot/internal/logging"
	"ingot/internal/packinglist"
)

// Config wires an Engine. AssetIndex, PackIndex, Reader, and Destination are
// required; everything else has usable defaults.
type Config struct {
	AssetIndex  *assetmap.Index
	PackIndex   *packinglist.Index
	Reader      *chunkio.Reader
	Destination Destination
	Logger      *slog.Logger
	// Workers bounds asset-level parallelism. Defaults to 1.
	Workers int
	// ReceiptDigest records a BLAKE3 content address for every verified
	// reconstruction.
	ReceiptDigest bool
}

// Engine reconstructs wanted assets. Construct once per ingest run; the
// indices it holds are read-only for the engine's lifetime.
type Engine struct {
	assets   *assetmap.Index
	packed   *packinglist.Index
	reader   *chunkio.Reader
	dest     Destination
	logger   *slog.Logger
	workers  int
	receipts bool
}

// New validates the wiring and returns an Engine.
func New(cfg Config) (*Engine, error) {
	if cfg.AssetIndex == nil || cfg.PackIndex == nil {
		return nil, errors.New("ingest engine requires both indices")
	}
	if cfg.Reader == nil {
		return nil, errors.New("ingest engine requires a chunk reader")
	}
	if cfg.Destination == nil {
		return nil, errors.New("ingest engine requires a destination")
	}
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	return &Engine{
		assets:   cfg.AssetIndex,
		packed:   cfg.PackIndex,
		reader:   cfg.Reader,
		dest:     cfg.Destination,
		logger:   logging.WithComponent(cfg.Logger, "ingest"),
		workers:  workers,
		receipts: cfg.ReceiptDigest,
	}, nil
}

// Run reconstructs every wanted asset and returns one outcome per asset in
// the supplied order. The engine itself fails only on an empty selection;
// per-asset failures live in the report. Cancellation takes effect at chunk
// boundaries and marks unfinished assets as read failures.
func (e *Engine) Run(ctx context.Context, wanted []string) (Report, error) {
	report := Report{StartedAt: time.Now()}
	if len(wanted) == 0 {
		return report, errors.New("no assets selected for ingest")
	}

	report.Outcomes = make([]Outcome, len(wanted))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < e.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				report.Outcomes[idx] = e.ingestAsset(ctx, wanted[idx])
			}
		}()
	}
	for idx := range wanted {
		jobs <- idx
	}
	close(jobs)
	wg.Wait()

	report.FinishedAt = time.Now()
	e.logger.Info("ingest run complete", logging.Args(
		logging.Int("wanted", len(wanted)),
		logging.Int("succeeded", report.Succeeded()),
		logging.Int("failed", report.Failed()),
		logging.Duration("elapsed", report.FinishedAt.Sub(report.StartedAt)),
	)...)

	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

// ingestAsset drives one asset through resolve, read, and verify. Every
// return path produces a terminal outcome; nothing escapes to the caller.
func (e *Engine) ingestAsset(ctx context.Context, id string) Outcome {
	started := time.Now()
	outcome := func(status Status, message string, bytesWritten int64) Outcome {
		result := Outcome{
			AssetID:      id,
			Status:       status,
			Message:      message,
			BytesWritten: bytesWritten,
			Duration:     time.Since(started),
		}
		e.logAsset(result)
		return result
	}

	if err := ctx.Err(); err != nil {
		return outcome(StatusChunkReadFailed, "ingest cancelled before start", 0)
	}

	entry, ok := e.packed.Lookup(id)
	if !ok {
		return outcome(StatusNotInPackingList, "no packing list declares this asset", 0)
	}
	if entry.Conflicted() {
		return outcome(StatusConflictingDeclaration, entry.ConflictDetail, 0)
	}

	chunks, ok := e.assets.Resolve(id)
	if !ok {
		return outcome(StatusNotInMap, "no asset map locates this asset", 0)
	}
	chunks = resolveLengths(chunks, entry)

	verifier, err := digest.Start(entry.Algorithm)
	if err != nil {
		return outcome(StatusDigestMismatch, err.Error(), 0)
	}
	var receipt *digest.Receipt
	if e.receipts {
		receipt = digest.NewReceipt()
	}

	writer, err := e.dest.Create(id, entry)
	if err != nil {
		return outcome(StatusChunkReadFailed, fmt.Sprintf("destination: %v", err), 0)
	}

	var bytesWritten int64
	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			_ = writer.Discard()
			return outcome(StatusChunkReadFailed, "ingest cancelled", bytesWritten)
		}

		n, err := e.copyChunk(writer, verifier, receipt, chunk)
		bytesWritten += n
		if err != nil {
			_ = writer.Discard()
			status, message := classifyChunkError(err, i)
			return outcome(status, message, bytesWritten)
		}
	}

	if bytesWritten != entry.Size {
		_ = writer.Discard()
		return outcome(StatusDigestMismatch,
			fmt.Sprintf("reconstructed %d bytes, packing list declares %d", bytesWritten, entry.Size), bytesWritten)
	}
	if !digest.Matches(entry.Digest, verifier.Sum()) {
		_ = writer.Discard()
		return outcome(StatusDigestMismatch,
			fmt.Sprintf("%s digest %s does not match declaration %s", verifier.Algorithm(), verifier.SumBase64(), entry.Digest), bytesWritten)
	}

	if err := writer.Commit(); err != nil {
		return outcome(StatusChunkReadFailed, fmt.Sprintf("destination: %v", err), bytesWritten)
	}

	result := outcome(StatusSucceeded, "", bytesWritten)
	result.Destination = writer.Path()
	if receipt != nil {
		result.Receipt = receipt.SumHex()
	}
	return result
}

// copyChunk streams one chunk into the destination and the hashers. The
// chunk stream is closed on every path.
func (e *Engine) copyChunk(writer io.Writer, verifier *digest.Verifier, receipt *digest.Receipt, chunk assetmap.Chunk) (int64, error) {
	stream, err := e.reader.Open(chunk)
	if err != nil {
		return 0, err
	}
	defer stream.Close()

	sinks := []io.Writer{writer, verifier}
	if receipt != nil {
		sinks = append(sinks, receipt)
	}
	return io.Copy(io.MultiWriter(sinks...), stream)
}

// resolveLengths substitutes the Packing List declared size for a
// single-chunk asset whose map entry omitted Length, per the 429-9 note.
func resolveLengths(chunks []assetmap.Chunk, entry packinglist.Entry) []assetmap.Chunk {
	if len(chunks) != 1 || chunks[0].Length != assetmap.LengthUnspecified {
		return chunks
	}
	resolved := make([]assetmap.Chunk, 1)
	resolved[0] = chunks[0]
	resolved[0].Length = entry.Size
	return resolved
}

func classifyChunkError(err error, chunkIndex int) (Status, string) {
	switch {
	case errors.Is(err, ingesterr.ErrVolumeUnavailable):
		return StatusPartialVolumeMissing, fmt.Sprintf("chunk %d: %v", chunkIndex, err)
	case errors.Is(err, ingesterr.ErrChunkLengthMismatch):
		// A wrong-sized chunk cannot reconstruct to the declared length;
		// report it the way the final length check would.
		return StatusDigestMismatch, fmt.Sprintf("chunk %d: %v", chunkIndex, err)
	default:
		return StatusChunkReadFailed, fmt.Sprintf("chunk %d: %v", chunkIndex, err)
	}
}

func (e *Engine) logAsset(result Outcome) {
	attrs := logging.Args(
		logging.String(logging.FieldAssetID, result.AssetID),
		logging.String(logging.FieldOutcome, string(result.Status)),
		logging.Int64("bytes", result.BytesWritten),
		logging.Duration("elapsed", result.Duration),
	)
	if result.Status == StatusSucceeded {
		e.logger.Info("asset ingested", attrs...)
		return
	}
	e.logger.Warn("asset failed", append(attrs, logging.String("detail", result.Message))...)
}
