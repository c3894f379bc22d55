package realtime

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/statuscore-dev/statuscore/internal/status"
)

type fakeFetcher struct {
	mu       sync.Mutex
	snapshot status.Snapshot
	err      error
	calls    int
}

func (f *fakeFetcher) FetchSnapshot(ctx context.Context, statusPageID uint) (status.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.snapshot, f.err
}

func (f *fakeFetcher) set(snapshot status.Snapshot) {
	f.mu.Lock()
	f.snapshot = snapshot
	f.mu.Unlock()
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type recordingNotifier struct {
	mu    sync.Mutex
	stale int
	fresh int
}

func (n *recordingNotifier) SnapshotStale(uint) {
	n.mu.Lock()
	n.stale++
	n.mu.Unlock()
}

func (n *recordingNotifier) SnapshotFresh(uint) {
	n.mu.Lock()
	n.fresh++
	n.mu.Unlock()
}

func snapWithSeq(seq uint64) status.Snapshot {
	return status.Snapshot{
		OverallStatus: status.StatusOperational,
		Sequence:      seq,
	}
}

func TestViewerApplySequenceGate(t *testing.T) {
	v := NewViewer(1, &fakeFetcher{}, nil, time.Second)

	if !v.Apply(snapWithSeq(5)) {
		t.Fatal("first apply rejected")
	}
	if v.Apply(snapWithSeq(3)) {
		t.Error("stale sequence 3 applied over 5")
	}
	if v.Apply(snapWithSeq(5)) {
		t.Error("duplicate sequence 5 applied")
	}
	if !v.Apply(snapWithSeq(6)) {
		t.Error("sequence 6 rejected")
	}

	current, ok := v.Current()
	if !ok || current.Sequence != 6 {
		t.Errorf("current = %d ok=%v, want 6", current.Sequence, ok)
	}
}

// Every delivery permutation must converge on the highest sequence.
func TestViewerApplyOrderIndependent(t *testing.T) {
	permutations := [][]uint64{
		{1, 2, 3},
		{1, 3, 2},
		{2, 1, 3},
		{2, 3, 1},
		{3, 1, 2},
		{3, 2, 1},
	}

	for _, order := range permutations {
		v := NewViewer(1, &fakeFetcher{}, nil, time.Second)
		for _, seq := range order {
			v.Apply(snapWithSeq(seq))
		}

		current, ok := v.Current()
		if !ok || current.Sequence != 3 {
			t.Errorf("order %v converged on %d, want 3", order, current.Sequence)
		}
	}
}

func TestViewerLifecycle(t *testing.T) {
	fetcher := &fakeFetcher{snapshot: snapWithSeq(1)}
	notifier := &recordingNotifier{}
	v := NewViewer(1, fetcher, notifier, time.Hour)

	if v.State() != ViewerOpen {
		t.Fatalf("initial state = %s, want %s", v.State(), ViewerOpen)
	}

	if err := v.Connected(context.Background()); err != nil {
		t.Fatalf("Connected: %v", err)
	}
	if v.State() != ViewerActive {
		t.Errorf("state after Connected = %s, want %s", v.State(), ViewerActive)
	}

	current, ok := v.Current()
	if !ok || current.Sequence != 1 {
		t.Errorf("Connected did not install the fetched snapshot: %d ok=%v", current.Sequence, ok)
	}

	v.ConnectionLost()
	if v.State() != ViewerFallback {
		t.Errorf("state after ConnectionLost = %s, want %s", v.State(), ViewerFallback)
	}

	fetcher.set(snapWithSeq(2))
	if err := v.Connected(context.Background()); err != nil {
		t.Fatalf("reconnect: %v", err)
	}
	if v.State() != ViewerActive {
		t.Errorf("state after reconnect = %s, want %s", v.State(), ViewerActive)
	}

	v.Close()
	if v.State() != ViewerClosed {
		t.Errorf("state after Close = %s, want %s", v.State(), ViewerClosed)
	}

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	if notifier.stale != 1 {
		t.Errorf("stale signals = %d, want 1", notifier.stale)
	}
	if notifier.fresh != 2 {
		t.Errorf("fresh signals = %d, want 2", notifier.fresh)
	}
}

func TestViewerFallbackPolls(t *testing.T) {
	fetcher := &fakeFetcher{snapshot: snapWithSeq(1)}
	v := NewViewer(1, fetcher, nil, 10*time.Millisecond)

	v.ConnectionLost()
	defer v.Close()

	deadline := time.After(2 * time.Second)
	for fetcher.callCount() < 2 {
		select {
		case <-deadline:
			t.Fatal("fallback poll never fetched")
		case <-time.After(5 * time.Millisecond):
		}
	}

	fetcher.set(snapWithSeq(7))

	deadline = time.After(2 * time.Second)
	for {
		if current, ok := v.Current(); ok && current.Sequence == 7 {
			return
		}
		select {
		case <-deadline:
			current, _ := v.Current()
			t.Fatalf("polled snapshot never applied, current sequence %d", current.Sequence)
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestViewerConnectedStopsPolling(t *testing.T) {
	fetcher := &fakeFetcher{snapshot: snapWithSeq(1)}
	v := NewViewer(1, fetcher, nil, 10*time.Millisecond)

	v.ConnectionLost()

	deadline := time.After(2 * time.Second)
	for fetcher.callCount() < 1 {
		select {
		case <-deadline:
			t.Fatal("fallback poll never fetched")
		case <-time.After(5 * time.Millisecond):
		}
	}

	if err := v.Connected(context.Background()); err != nil {
		t.Fatalf("Connected: %v", err)
	}

	// Let any in-flight tick drain, then confirm the poll loop is gone.
	time.Sleep(30 * time.Millisecond)
	settled := fetcher.callCount()
	time.Sleep(50 * time.Millisecond)

	if got := fetcher.callCount(); got != settled {
		t.Errorf("fetch count moved from %d to %d after reconnect", settled, got)
	}

	v.Close()
}

func TestViewerCloseStopsEverything(t *testing.T) {
	fetcher := &fakeFetcher{snapshot: snapWithSeq(1)}
	v := NewViewer(1, fetcher, nil, 10*time.Millisecond)

	v.ConnectionLost()
	v.Close()

	time.Sleep(30 * time.Millisecond)
	settled := fetcher.callCount()
	time.Sleep(50 * time.Millisecond)

	if got := fetcher.callCount(); got != settled {
		t.Errorf("fetch count moved from %d to %d after Close", settled, got)
	}

	if v.Apply(snapWithSeq(99)) {
		t.Error("Apply accepted a snapshot after Close")
	}
	if v.State() != ViewerClosed {
		t.Errorf("state = %s, want %s", v.State(), ViewerClosed)
	}
}

func TestViewerConnectedAfterCloseIsNoop(t *testing.T) {
	fetcher := &fakeFetcher{snapshot: snapWithSeq(1)}
	v := NewViewer(1, fetcher, nil, time.Second)

	v.Close()
	if err := v.Connected(context.Background()); err != nil {
		t.Fatalf("Connected after Close: %v", err)
	}
	if v.State() != ViewerClosed {
		t.Errorf("state = %s, want %s", v.State(), ViewerClosed)
	}
}
