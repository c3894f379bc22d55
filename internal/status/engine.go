package status

import (
	"errors"
	"log"
	"sync"
	"time"
)

// ErrStatusPageNotFound is returned for an unknown status-page id. It is
// surfaced once to the caller, never retried.
var ErrStatusPageNotFound = errors.New("status page not found")

// Source provides the aggregation inputs for one status page. Implementations
// must return ErrStatusPageNotFound for unknown ids.
type Source interface {
	AggregationInputs(statusPageID uint) (Inputs, error)
}

// PublishFunc receives every newly produced snapshot. Delivery order and
// duplication guarantees are up to the transport; consumers rely on the
// snapshot sequence, not on the publish path.
type PublishFunc func(statusPageID uint, snapshot Snapshot)

// Engine owns the current snapshot per status page. Every mutation to the
// underlying monitor/incident/maintenance state calls Recompute; the mutex
// serializes those triggers so no two snapshots are produced from
// overlapping reads, and sequence numbers are strictly increasing per page.
type Engine struct {
	mu      sync.Mutex
	source  Source
	publish PublishFunc
	now     func() time.Time
	seqs    map[uint]uint64
	current map[uint]Snapshot
}

func NewEngine(source Source, publish PublishFunc) *Engine {
	if publish == nil {
		publish = func(uint, Snapshot) {}
	}

	return &Engine{
		source:  source,
		publish: publish,
		now:     time.Now,
		seqs:    make(map[uint]uint64),
		current: make(map[uint]Snapshot),
	}
}

// Recompute derives a fresh snapshot for the page and publishes it. It is
// called synchronously from every mutation path, so it must stay cheap:
// uptime windows arrive precomputed through the Source.
func (e *Engine) Recompute(statusPageID uint) (Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	inputs, err := e.source.AggregationInputs(statusPageID)
	if err != nil {
		return Snapshot{}, err
	}

	snapshot := Aggregate(inputs)

	e.seqs[statusPageID]++
	snapshot.Sequence = e.seqs[statusPageID]
	snapshot.ComputedAt = e.now()

	e.current[statusPageID] = snapshot
	e.publish(statusPageID, snapshot)

	return snapshot, nil
}

// RecomputeAsync runs Recompute and only logs failures, for mutation paths
// that have already answered their caller.
func (e *Engine) RecomputeAsync(statusPageID uint) {
	if _, err := e.Recompute(statusPageID); err != nil {
		log.Printf("Snapshot recompute failed for status page %d: %v", statusPageID, err)
	}
}

// Current returns the latest snapshot for the page, computing one on first
// access.
func (e *Engine) Current(statusPageID uint) (Snapshot, error) {
	e.mu.Lock()
	snapshot, ok := e.current[statusPageID]
	e.mu.Unlock()

	if ok {
		return snapshot, nil
	}

	return e.Recompute(statusPageID)
}

// Forget drops state for a deleted status page.
func (e *Engine) Forget(statusPageID uint) {
	e.mu.Lock()
	delete(e.current, statusPageID)
	delete(e.seqs, statusPageID)
	e.mu.Unlock()
}
