package realtime

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/statuscore-dev/statuscore/internal/status"
)

// Fetcher retrieves the current authoritative snapshot for a page. The
// in-process implementation reads the engine; remote viewers implement it
// over the HTTP snapshot endpoint.
type Fetcher interface {
	FetchSnapshot(ctx context.Context, statusPageID uint) (status.Snapshot, error)
}

// Notifier receives viewer-facing staleness signals. Injected rather than
// global so the lifecycle is testable without any rendering layer.
type Notifier interface {
	SnapshotStale(statusPageID uint)
	SnapshotFresh(statusPageID uint)
}

// NopNotifier discards all signals.
type NopNotifier struct{}

func (NopNotifier) SnapshotStale(uint) {}
func (NopNotifier) SnapshotFresh(uint) {}

// ViewerState is the subscription lifecycle:
// open -> active -> (reconnect | fallback)* -> closed.
type ViewerState string

const (
	ViewerOpen     ViewerState = "open"
	ViewerActive   ViewerState = "active"
	ViewerFallback ViewerState = "fallback"
	ViewerClosed   ViewerState = "closed"
)

// Viewer is one subscribed consumer of a status page. It applies snapshots
// through a sequence gate, so duplicate and reordered deliveries are
// harmless, and it falls back to polling while the push channel is down.
// All methods are safe for concurrent use.
type Viewer struct {
	statusPageID uint
	fetcher      Fetcher
	notifier     Notifier
	pollInterval time.Duration

	mu         sync.Mutex
	state      ViewerState
	applied    status.Snapshot
	hasApplied bool
	stopPoll   context.CancelFunc
}

func NewViewer(statusPageID uint, fetcher Fetcher, notifier Notifier, pollInterval time.Duration) *Viewer {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if pollInterval <= 0 {
		pollInterval = 30 * time.Second
	}

	return &Viewer{
		statusPageID: statusPageID,
		fetcher:      fetcher,
		notifier:     notifier,
		pollInterval: pollInterval,
		state:        ViewerOpen,
	}
}

// Apply installs a snapshot if its sequence is strictly greater than the
// one currently applied and reports whether it was installed. The gate
// makes apply commutative over any delivery permutation: the highest
// sequence always wins, duplicates and stragglers are discarded silently.
func (v *Viewer) Apply(snapshot status.Snapshot) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.state == ViewerClosed {
		return false
	}

	if v.hasApplied && snapshot.Sequence <= v.applied.Sequence {
		return false
	}

	v.applied = snapshot
	v.hasApplied = true
	return true
}

// Current returns the last applied snapshot, if any.
func (v *Viewer) Current() (status.Snapshot, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.applied, v.hasApplied
}

// State reports where the viewer is in its lifecycle.
func (v *Viewer) State() ViewerState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Connected transitions to active after a (re)established push channel.
// It always performs a full fetch first: updates pushed while the viewer
// was disconnected are unrecoverable, so push notifications are only
// trusted from a freshly fetched baseline. Any fallback polling stops.
func (v *Viewer) Connected(ctx context.Context) error {
	v.mu.Lock()
	if v.state == ViewerClosed {
		v.mu.Unlock()
		return nil
	}
	v.cancelPollLocked()
	v.mu.Unlock()

	if err := v.refetch(ctx); err != nil {
		return err
	}

	v.mu.Lock()
	if v.state != ViewerClosed {
		v.state = ViewerActive
	}
	v.mu.Unlock()

	v.notifier.SnapshotFresh(v.statusPageID)
	return nil
}

// Refresh resolves a push notification to the authoritative snapshot. The
// pushed payload is only a signal; the fetch is what carries state.
func (v *Viewer) Refresh(ctx context.Context) error {
	return v.refetch(ctx)
}

// ConnectionLost transitions to fallback polling. The viewer keeps showing
// the last applied snapshot, signals staleness once, and polls the fetcher
// until Connected or Close stops it.
func (v *Viewer) ConnectionLost() {
	v.mu.Lock()
	if v.state == ViewerClosed || v.state == ViewerFallback {
		v.mu.Unlock()
		return
	}
	v.state = ViewerFallback
	v.cancelPollLocked()

	ctx, cancel := context.WithCancel(context.Background())
	v.stopPoll = cancel
	v.mu.Unlock()

	v.notifier.SnapshotStale(v.statusPageID)

	go v.pollLoop(ctx)
}

// Close ends the subscription. Both the push apply path and any fallback
// polling stop; later Apply calls are discarded.
func (v *Viewer) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.state == ViewerClosed {
		return
	}

	v.state = ViewerClosed
	v.cancelPollLocked()
}

func (v *Viewer) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(v.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := v.refetch(ctx); err != nil {
				// Transient: keep the stale snapshot, try again next tick.
				log.Printf("Fallback poll failed for status page %d: %v", v.statusPageID, err)
			}
		}
	}
}

func (v *Viewer) refetch(ctx context.Context) error {
	snapshot, err := v.fetcher.FetchSnapshot(ctx, v.statusPageID)
	if err != nil {
		return err
	}

	v.Apply(snapshot)
	return nil
}

// cancelPollLocked stops the fallback poll loop. Caller holds v.mu.
func (v *Viewer) cancelPollLocked() {
	if v.stopPoll != nil {
		v.stopPoll()
		v.stopPoll = nil
	}
}
