package sim

import (
	"context"
	"errors"
	"fmt"

	"ballpit/bridge/internal/journal"
	"ballpit/bridge/internal/scene"
	"ballpit/bridge/internal/telemetry"
)

// ErrBatchRejected reports a submission the remote acknowledged but refused.
var ErrBatchRejected = errors.New("batch rejected by remote")

// Transport is the remote submission surface consumed by the bridge.
type Transport interface {
	SubmitBatch(ctx context.Context, operations []scene.Operation) (scene.BatchOutcome, error)
}

// Batcher splits operation lists into bounded chunks. Chunks are submitted
// strictly in order and never concurrently; later operations may reference
// identifiers declared in earlier chunks.
type Batcher struct {
	transport    Transport
	maxBatchSize int
	journal      *journal.Journal
	metrics      telemetry.Metrics
}

// NewBatcher wraps transport with chunked submission. maxBatchSize is
// clamped to at least one operation per chunk.
func NewBatcher(transport Transport, maxBatchSize int, journal *journal.Journal, metrics telemetry.Metrics) *Batcher {
	if transport == nil {
		return nil
	}
	if maxBatchSize < 1 {
		maxBatchSize = 1
	}
	return &Batcher{
		transport:    transport,
		maxBatchSize: maxBatchSize,
		journal:      journal,
		metrics:      metrics,
	}
}

// Submit delivers operations in order, failing fast on the first transport
// error or rejected operation. An empty list never reaches the remote.
func (b *Batcher) Submit(ctx context.Context, operations []scene.Operation) error {
	if b == nil || len(operations) == 0 {
		return nil
	}

	total := (len(operations) + b.maxBatchSize - 1) / b.maxBatchSize
	delivered := 0
	var submitErr error
	for start := 0; start < len(operations); start += b.maxBatchSize {
		end := start + b.maxBatchSize
		if end > len(operations) {
			end = len(operations)
		}
		chunk := operations[start:end]
		outcome, err := b.transport.SubmitBatch(ctx, chunk)
		if err != nil {
			submitErr = fmt.Errorf("chunk %d/%d: %w", delivered+1, total, err)
			break
		}
		if err := firstRejection(outcome, chunk); err != nil {
			submitErr = fmt.Errorf("chunk %d/%d: %w", delivered+1, total, err)
			break
		}
		delivered++
	}

	if b.metrics != nil {
		b.metrics.Add(metricSubmitChunks, uint64(delivered))
		if submitErr != nil {
			b.metrics.Add(metricSubmitFailures, 1)
		} else {
			b.metrics.Add(metricSubmitOperations, uint64(len(operations)))
		}
	}
	if b.journal != nil {
		record := journal.Record{Operations: len(operations), Chunks: delivered}
		if submitErr != nil {
			record.Error = submitErr.Error()
		}
		b.journal.Append(record)
	}
	return submitErr
}

// firstRejection surfaces the remote-supplied error text for the first
// per-operation result that did not succeed.
func firstRejection(outcome scene.BatchOutcome, chunk []scene.Operation) error {
	for i, result := range outcome.Results {
		if result.OK {
			continue
		}
		id := ""
		if i < len(chunk) {
			id = chunk[i].ID
		}
		return fmt.Errorf("%w: operation %q: %s", ErrBatchRejected, id, result.Error)
	}
	return nil
}
