package uptime

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/statuscore-dev/statuscore/db"
	"github.com/statuscore-dev/statuscore/internal/models"
)

// Refresher recomputes availability windows for every monitor on its own
// cadence, off the check hot path. Results are cached so the aggregator and
// the snapshot endpoint read them without touching check history.
type Refresher struct {
	mu          sync.RWMutex
	cache       map[uint]Windows
	cadence     time.Duration
	parallelism int
	now         func() time.Time
	ctx         context.Context
	cancel      context.CancelFunc
}

func NewRefresher(cadence time.Duration, parallelism int) *Refresher {
	if cadence <= 0 {
		cadence = time.Minute
	}
	if parallelism <= 0 {
		parallelism = 4
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Refresher{
		cache:       make(map[uint]Windows),
		cadence:     cadence,
		parallelism: parallelism,
		now:         time.Now,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start performs an initial refresh and begins the periodic loop.
func (r *Refresher) Start() error {
	if err := r.RefreshAll(); err != nil {
		return err
	}

	go func() {
		ticker := time.NewTicker(r.cadence)
		defer ticker.Stop()

		for {
			select {
			case <-r.ctx.Done():
				return
			case <-ticker.C:
				if err := r.RefreshAll(); err != nil {
					log.Printf("Uptime refresh failed: %v", err)
				}
			}
		}
	}()

	return nil
}

func (r *Refresher) Stop() {
	r.cancel()
}

// RefreshAll recomputes the windows for every monitor. Each monitor reads
// only its own history, so the per-monitor work runs in parallel, bounded
// by the configured parallelism.
func (r *Refresher) RefreshAll() error {
	var monitors []models.Monitor
	if err := db.DB.Select("id, interval").Find(&monitors).Error; err != nil {
		return err
	}

	now := r.now()
	sem := make(chan struct{}, r.parallelism)

	var wg sync.WaitGroup

	for _, monitor := range monitors {
		wg.Add(1)
		sem <- struct{}{}

		go func(m models.Monitor) {
			defer wg.Done()
			defer func() { <-sem }()

			windows, err := r.computeMonitor(m, now)
			if err != nil {
				log.Printf("Failed to compute uptime for monitor %d: %v", m.ID, err)
				return
			}

			r.mu.Lock()
			r.cache[m.ID] = windows
			r.mu.Unlock()
		}(monitor)
	}

	wg.Wait()
	return nil
}

// RefreshMonitor recomputes one monitor immediately, used right after a
// monitor is created so the snapshot endpoint has data without waiting a
// full cadence.
func (r *Refresher) RefreshMonitor(monitorID uint) {
	var monitor models.Monitor
	if err := db.DB.Select("id, interval").First(&monitor, monitorID).Error; err != nil {
		log.Printf("Failed to load monitor %d for uptime refresh: %v", monitorID, err)
		return
	}

	windows, err := r.computeMonitor(monitor, r.now())
	if err != nil {
		log.Printf("Failed to compute uptime for monitor %d: %v", monitorID, err)
		return
	}

	r.mu.Lock()
	r.cache[monitorID] = windows
	r.mu.Unlock()
}

func (r *Refresher) computeMonitor(monitor models.Monitor, now time.Time) (Windows, error) {
	var checks []models.MonitorCheck

	if err := db.DB.Select("up, checked_at").
		Where("monitor_id = ? AND checked_at > ?", monitor.ID, now.Add(-Window30d)).
		Order("checked_at ASC").
		Find(&checks).Error; err != nil {
		return Windows{}, err
	}

	samples := make([]Sample, 0, len(checks))
	for _, check := range checks {
		samples = append(samples, Sample{CheckedAt: check.CheckedAt, Up: check.Up})
	}

	interval := time.Duration(monitor.Interval) * time.Second
	return ComputeWindows(samples, interval, now), nil
}

// Windows returns the cached windows for a monitor. Monitors that have
// never been refreshed report all-nil windows.
func (r *Refresher) Windows(monitorID uint) Windows {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cache[monitorID]
}

// Forget drops a deleted monitor from the cache.
func (r *Refresher) Forget(monitorID uint) {
	r.mu.Lock()
	delete(r.cache, monitorID)
	r.mu.Unlock()
}
