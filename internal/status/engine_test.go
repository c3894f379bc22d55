package status

import (
	"errors"
	"sync"
	"testing"
)

type fakeSource struct {
	mu     sync.Mutex
	inputs map[uint]Inputs
	calls  int
}

func (f *fakeSource) AggregationInputs(statusPageID uint) (Inputs, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++

	in, ok := f.inputs[statusPageID]
	if !ok {
		return Inputs{}, ErrStatusPageNotFound
	}
	return in, nil
}

func healthyPage() Inputs {
	return Inputs{Monitors: []MonitorState{monitorUp(1, "api")}}
}

func TestEngineSequencesStrictlyIncrease(t *testing.T) {
	source := &fakeSource{inputs: map[uint]Inputs{1: healthyPage()}}
	engine := NewEngine(source, nil)

	var last uint64
	for i := 0; i < 5; i++ {
		snap, err := engine.Recompute(1)
		if err != nil {
			t.Fatalf("Recompute: %v", err)
		}
		if snap.Sequence <= last {
			t.Fatalf("sequence %d not greater than %d", snap.Sequence, last)
		}
		last = snap.Sequence
	}
}

func TestEngineSequencesPerPage(t *testing.T) {
	source := &fakeSource{inputs: map[uint]Inputs{
		1: healthyPage(),
		2: healthyPage(),
	}}
	engine := NewEngine(source, nil)

	engine.Recompute(1)
	engine.Recompute(1)
	snap, _ := engine.Recompute(2)

	if snap.Sequence != 1 {
		t.Errorf("page 2 sequence = %d, want 1", snap.Sequence)
	}
}

func TestEngineCurrentComputesOnFirstAccess(t *testing.T) {
	source := &fakeSource{inputs: map[uint]Inputs{1: healthyPage()}}
	engine := NewEngine(source, nil)

	snap, err := engine.Current(1)
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if snap.Sequence != 1 {
		t.Errorf("sequence = %d, want 1", snap.Sequence)
	}

	// Second access serves the cached snapshot.
	again, err := engine.Current(1)
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if again.Sequence != 1 {
		t.Errorf("cached sequence = %d, want 1", again.Sequence)
	}
	if source.calls != 1 {
		t.Errorf("source called %d times, want 1", source.calls)
	}
}

func TestEngineUnknownPage(t *testing.T) {
	engine := NewEngine(&fakeSource{inputs: map[uint]Inputs{}}, nil)

	if _, err := engine.Recompute(42); !errors.Is(err, ErrStatusPageNotFound) {
		t.Errorf("Recompute error = %v, want ErrStatusPageNotFound", err)
	}
	if _, err := engine.Current(42); !errors.Is(err, ErrStatusPageNotFound) {
		t.Errorf("Current error = %v, want ErrStatusPageNotFound", err)
	}
}

func TestEngineFailedRecomputeKeepsState(t *testing.T) {
	source := &fakeSource{inputs: map[uint]Inputs{1: healthyPage()}}
	engine := NewEngine(source, nil)

	first, _ := engine.Recompute(1)

	source.mu.Lock()
	delete(source.inputs, 1)
	source.mu.Unlock()

	if _, err := engine.Recompute(1); err == nil {
		t.Fatal("expected error after source lost the page")
	}

	// A failed recompute must not advance sequences or clear the snapshot.
	snap, err := engine.Current(1)
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if snap.Sequence != first.Sequence {
		t.Errorf("sequence = %d, want %d", snap.Sequence, first.Sequence)
	}
}

func TestEnginePublishesEverySnapshotInOrder(t *testing.T) {
	source := &fakeSource{inputs: map[uint]Inputs{1: healthyPage()}}

	var published []uint64
	engine := NewEngine(source, func(id uint, snap Snapshot) {
		published = append(published, snap.Sequence)
	})

	for i := 0; i < 3; i++ {
		engine.Recompute(1)
	}

	if len(published) != 3 {
		t.Fatalf("published %d snapshots, want 3", len(published))
	}
	for i, seq := range published {
		if seq != uint64(i+1) {
			t.Errorf("publish %d carried sequence %d, want %d", i, seq, i+1)
		}
	}
}

func TestEngineForget(t *testing.T) {
	source := &fakeSource{inputs: map[uint]Inputs{1: healthyPage()}}
	engine := NewEngine(source, nil)

	engine.Recompute(1)
	engine.Recompute(1)
	engine.Forget(1)

	snap, err := engine.Current(1)
	if err != nil {
		t.Fatalf("Current after Forget: %v", err)
	}
	if snap.Sequence != 1 {
		t.Errorf("sequence after Forget = %d, want 1", snap.Sequence)
	}
}

func TestEngineConcurrentRecompute(t *testing.T) {
	source := &fakeSource{inputs: map[uint]Inputs{1: healthyPage()}}

	seen := make(map[uint64]bool)
	var seenMu sync.Mutex

	engine := NewEngine(source, func(id uint, snap Snapshot) {
		seenMu.Lock()
		defer seenMu.Unlock()
		if seen[snap.Sequence] {
			t.Errorf("sequence %d published twice", snap.Sequence)
		}
		seen[snap.Sequence] = true
	})

	const workers = 8
	const perWorker = 25

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				engine.Recompute(1)
			}
		}()
	}
	wg.Wait()

	if len(seen) != workers*perWorker {
		t.Errorf("saw %d unique sequences, want %d", len(seen), workers*perWorker)
	}
}
