// Package journal keeps a rolling buffer of recent batch submissions so the
// diagnostics endpoint can show what the bridge sent without holding the
// full operation history in memory.
package journal

import (
	"sync"
	"time"
)

// Record summarizes one submission through the transport adapter.
type Record struct {
	Seq        uint64    `json:"seq"`
	RecordedAt time.Time `json:"recordedAt"`
	Operations int       `json:"operations"`
	Chunks     int       `json:"chunks"`
	Error      string    `json:"error,omitempty"`
}

// Journal accumulates submission records with retention enforced by count
// and age.
type Journal struct {
	mu         sync.RWMutex
	records    []Record
	nextSeq    uint64
	maxRecords int
	maxAge     time.Duration
}

// New constructs a journal retaining up to maxRecords entries no older than
// maxAge. A zero maxAge disables age-based eviction.
func New(maxRecords int, maxAge time.Duration) *Journal {
	if maxRecords < 0 {
		maxRecords = 0
	}
	if maxAge < 0 {
		maxAge = 0
	}
	return &Journal{
		records:    make([]Record, 0, maxRecords),
		maxRecords: maxRecords,
		maxAge:     maxAge,
	}
}

// Append stores a submission record, assigns its sequence and timestamp, and
// enforces retention. The stored record is returned.
func (j *Journal) Append(record Record) Record {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.nextSeq++
	record.Seq = j.nextSeq
	record.RecordedAt = time.Now()

	if j.maxRecords == 0 {
		j.records = j.records[:0]
		return record
	}

	j.records = append(j.records, record)

	if j.maxAge > 0 {
		cutoff := record.RecordedAt.Add(-j.maxAge)
		idx := 0
		for idx < len(j.records) {
			if !j.records[idx].RecordedAt.Before(cutoff) {
				break
			}
			idx++
		}
		if idx > 0 {
			copy(j.records, j.records[idx:])
			j.records = j.records[:len(j.records)-idx]
		}
	}

	if len(j.records) > j.maxRecords {
		overflow := len(j.records) - j.maxRecords
		copy(j.records, j.records[overflow:])
		j.records = j.records[:len(j.records)-overflow]
	}

	return record
}

// Recent returns the retained records in chronological order. Callers
// receive a copy.
func (j *Journal) Recent() []Record {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if len(j.records) == 0 {
		return nil
	}
	records := make([]Record, len(j.records))
	copy(records, j.records)
	return records
}

// Window reports the retained count and the oldest and newest sequence.
func (j *Journal) Window() (size int, oldest, newest uint64) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	size = len(j.records)
	if size == 0 {
		return size, 0, 0
	}
	return size, j.records[0].Seq, j.records[size-1].Seq
}
