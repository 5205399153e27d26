package sim

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"ballpit/bridge/internal/journal"
	"ballpit/bridge/internal/scene"
	"ballpit/bridge/internal/telemetry"
)

// scriptedTransport records every submitted chunk and can fail a chosen
// call, either with a transport error or a per-operation rejection.
type scriptedTransport struct {
	calls     [][]scene.Operation
	failCall  int
	failIndex int
	message   string
	err       error
}

func (s *scriptedTransport) SubmitBatch(_ context.Context, operations []scene.Operation) (scene.BatchOutcome, error) {
	copied := make([]scene.Operation, len(operations))
	copy(copied, operations)
	s.calls = append(s.calls, copied)

	if s.failCall != 0 && len(s.calls) == s.failCall {
		if s.err != nil {
			return scene.BatchOutcome{}, s.err
		}
		results := okResults(len(operations))
		results[s.failIndex] = scene.OperationResult{Error: s.message}
		return scene.BatchOutcome{Results: results}, nil
	}
	return scene.BatchOutcome{Results: okResults(len(operations))}, nil
}

func (s *scriptedTransport) chunkSizes() []int {
	sizes := make([]int, 0, len(s.calls))
	for _, call := range s.calls {
		sizes = append(sizes, len(call))
	}
	return sizes
}

func okResults(n int) []scene.OperationResult {
	results := make([]scene.OperationResult, n)
	for i := range results {
		results[i].OK = true
	}
	return results
}

func removeOps(n int) []scene.Operation {
	ops := make([]scene.Operation, 0, n)
	for i := 0; i < n; i++ {
		ops = append(ops, scene.RemoveSlot(fmt.Sprintf("slot_%03d", i)))
	}
	return ops
}

func TestBatcherChunksInOrder(t *testing.T) {
	transport := &scriptedTransport{}
	history := journal.New(16, time.Minute)
	counters := telemetry.NewCounters()
	batcher := NewBatcher(transport, 50, history, counters)

	if err := batcher.Submit(context.Background(), removeOps(125)); err != nil {
		t.Fatalf("expected submission to succeed, got %v", err)
	}

	sizes := transport.chunkSizes()
	if len(sizes) != 3 || sizes[0] != 50 || sizes[1] != 50 || sizes[2] != 25 {
		t.Fatalf("expected chunks of 50/50/25, got %v", sizes)
	}
	if got := transport.calls[1][0].ID; got != "slot_050" {
		t.Fatalf("expected second chunk to start at slot_050, got %s", got)
	}
	if got := transport.calls[2][24].ID; got != "slot_124" {
		t.Fatalf("expected final chunk to end at slot_124, got %s", got)
	}

	records := history.Recent()
	if len(records) != 1 {
		t.Fatalf("expected one journal record, got %d", len(records))
	}
	if records[0].Operations != 125 || records[0].Chunks != 3 || records[0].Error != "" {
		t.Fatalf("unexpected journal record %+v", records[0])
	}
	snapshot := counters.Snapshot()
	if snapshot[metricSubmitChunks] != 3 || snapshot[metricSubmitOperations] != 125 {
		t.Fatalf("unexpected submit counters %v", snapshot)
	}
}

func TestBatcherStopsAtRejectedOperation(t *testing.T) {
	transport := &scriptedTransport{failCall: 2, failIndex: 29, message: "slot already disposed"}
	history := journal.New(16, time.Minute)
	batcher := NewBatcher(transport, 50, history, telemetry.NewCounters())

	err := batcher.Submit(context.Background(), removeOps(125))
	if !errors.Is(err, ErrBatchRejected) {
		t.Fatalf("expected ErrBatchRejected, got %v", err)
	}
	if !strings.Contains(err.Error(), "slot already disposed") {
		t.Fatalf("expected remote error text to surface, got %v", err)
	}
	if !strings.Contains(err.Error(), `"slot_079"`) {
		t.Fatalf("expected the failing operation id, got %v", err)
	}
	if sizes := transport.chunkSizes(); len(sizes) != 2 {
		t.Fatalf("expected the third chunk to never be sent, got %v", sizes)
	}

	records := history.Recent()
	if len(records) != 1 || records[0].Chunks != 1 || records[0].Error == "" {
		t.Fatalf("expected a failed journal record with one delivered chunk, got %+v", records)
	}
}

func TestBatcherSurfacesTransportError(t *testing.T) {
	broken := errors.New("write: broken pipe")
	transport := &scriptedTransport{failCall: 1, err: broken}
	batcher := NewBatcher(transport, 50, nil, nil)

	err := batcher.Submit(context.Background(), removeOps(60))
	if !errors.Is(err, broken) {
		t.Fatalf("expected the transport error to propagate, got %v", err)
	}
	if sizes := transport.chunkSizes(); len(sizes) != 1 {
		t.Fatalf("expected submission to stop at the first chunk, got %v", sizes)
	}
}

func TestBatcherSkipsEmptySubmission(t *testing.T) {
	transport := &scriptedTransport{}
	history := journal.New(16, time.Minute)
	batcher := NewBatcher(transport, 50, history, nil)

	if err := batcher.Submit(context.Background(), nil); err != nil {
		t.Fatalf("expected empty submission to be a no-op, got %v", err)
	}
	if len(transport.calls) != 0 {
		t.Fatalf("expected no remote calls for an empty list, got %d", len(transport.calls))
	}
	if size, _, _ := history.Window(); size != 0 {
		t.Fatalf("expected no journal record for an empty list, got %d", size)
	}
}

func TestBatcherSingleChunkUnderLimit(t *testing.T) {
	transport := &scriptedTransport{}
	batcher := NewBatcher(transport, 50, nil, nil)

	if err := batcher.Submit(context.Background(), removeOps(10)); err != nil {
		t.Fatalf("expected submission to succeed, got %v", err)
	}
	if sizes := transport.chunkSizes(); len(sizes) != 1 || sizes[0] != 10 {
		t.Fatalf("expected one chunk of 10, got %v", sizes)
	}
}
