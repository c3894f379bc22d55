package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/statuscore-dev/statuscore/db"
	"github.com/statuscore-dev/statuscore/internal/models"
	"github.com/statuscore-dev/statuscore/internal/probes"
	"github.com/statuscore-dev/statuscore/internal/registry"
	"github.com/statuscore-dev/statuscore/internal/services"
	"github.com/statuscore-dev/statuscore/internal/status"
	"github.com/statuscore-dev/statuscore/internal/types"
)

type Scheduler struct {
	monitors map[uint]*MonitorJob // monitor ID -> job
	mu       sync.RWMutex
	ctx      context.Context
	cancel   context.CancelFunc

	store             *registry.Store
	notifier          services.IncidentNotifier
	failureThreshold  int
	consecutiveFails  map[uint]int
	consecutiveFailMu sync.Mutex
}

type MonitorJob struct {
	monitor models.Monitor
	ticker  *time.Ticker
	cancel  context.CancelFunc
}

// NewScheduler initializes a new Scheduler instance. Check results flow
// through the registry store, which persists them and triggers snapshot
// recomputation; the scheduler itself never touches the aggregator.
func NewScheduler(store *registry.Store, notifier services.IncidentNotifier, failureThreshold int) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	if failureThreshold <= 0 {
		failureThreshold = 3
	}

	return &Scheduler{
		monitors:         make(map[uint]*MonitorJob),
		ctx:              ctx,
		cancel:           cancel,
		store:            store,
		notifier:         notifier,
		failureThreshold: failureThreshold,
		consecutiveFails: make(map[uint]int),
	}
}

// Start loads all active monitors and begins scheduling
func (s *Scheduler) Start() error {
	log.Println("Starting scheduler...")

	var monitorsList []models.Monitor
	if err := db.DB.Where("active = ?", true).Find(&monitorsList).Error; err != nil {
		return err
	}

	for _, monitor := range monitorsList {
		s.AddMonitor(monitor)
	}

	log.Printf("Scheduler started with %d monitors", len(monitorsList))
	return nil
}

// Stop gracefully shuts down all monitor jobs
func (s *Scheduler) Stop() {
	log.Println("Stopping scheduler...")
	s.cancel() // Cancel main context

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, job := range s.monitors {
		job.ticker.Stop()
		job.cancel()
	}

	s.monitors = make(map[uint]*MonitorJob)
	log.Println("Scheduler stopped")
}

// AddMonitor starts monitoring for a specific monitor
func (s *Scheduler) AddMonitor(monitor models.Monitor) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Stop existing job if it exists
	if existingJob, exists := s.monitors[monitor.ID]; exists {
		existingJob.ticker.Stop()
		existingJob.cancel()
	}

	interval := monitor.Interval
	if interval <= 0 {
		interval = 60
	}

	jobCtx, jobCancel := context.WithCancel(s.ctx)
	ticker := time.NewTicker(time.Duration(interval) * time.Second)

	job := &MonitorJob{
		monitor: monitor,
		ticker:  ticker,
		cancel:  jobCancel,
	}

	s.monitors[monitor.ID] = job

	// Start the monitoring goroutine with immediate check
	go func() {
		monitorCopy := monitor
		s.executeCheck(monitorCopy)
		s.runMonitor(jobCtx, job)
	}()

	log.Printf("Added monitor %d (%s) with immediate check", monitor.ID, monitor.Name)
}

// RemoveMonitor stops monitoring for a specific monitor
func (s *Scheduler) RemoveMonitor(monitorID uint) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if job, exists := s.monitors[monitorID]; exists {
		job.ticker.Stop()
		job.cancel()
		delete(s.monitors, monitorID)
		log.Printf("Removed monitor %d", monitorID)
	}

	s.consecutiveFailMu.Lock()
	delete(s.consecutiveFails, monitorID)
	s.consecutiveFailMu.Unlock()
}

// UpdateMonitor updates an existing monitor (stops old, starts new)
func (s *Scheduler) UpdateMonitor(monitor models.Monitor) {
	s.AddMonitor(monitor) // AddMonitor handles stopping existing job
}

// runMonitor executes the actual monitoring logic
func (s *Scheduler) runMonitor(ctx context.Context, job *MonitorJob) {
	defer job.ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-job.ticker.C:
			s.mu.RLock()
			monitorCopy := job.monitor
			s.mu.RUnlock()

			s.executeCheck(monitorCopy)
		}
	}
}

// executeCheck performs the actual probe and records the result.
func (s *Scheduler) executeCheck(monitor models.Monitor) {
	start := time.Now()
	err := s.probe(monitor)
	responseTime := time.Since(start)

	message := ""
	if err != nil {
		message = err.Error()
	}

	if recordErr := s.store.RecordCheck(monitor.ID, err == nil, int(responseTime.Milliseconds()), message, time.Now()); recordErr != nil {
		log.Printf("Failed to store check result for monitor %d: %v", monitor.ID, recordErr)
	}

	s.trackFailures(monitor, err)

	if err != nil {
		log.Printf("Monitor %d failed: %v", monitor.ID, err)
	} else {
		log.Printf("Monitor %d succeeded in %v", monitor.ID, responseTime)
	}
}

func (s *Scheduler) probe(monitor models.Monitor) error {
	switch monitor.Type {
	case "http":
		var cfg types.HttpConfig
		if err := json.Unmarshal(monitor.Config, &cfg); err != nil {
			return fmt.Errorf("invalid HTTP config: %w", err)
		}
		return probes.GetHTTP(&cfg)
	case "dns":
		var cfg types.DNSConfig
		if err := json.Unmarshal(monitor.Config, &cfg); err != nil {
			return fmt.Errorf("invalid DNS config: %w", err)
		}
		return probes.CheckDNS(&cfg)
	case "database":
		var cfg types.DatabaseConfig
		if err := json.Unmarshal(monitor.Config, &cfg); err != nil {
			return fmt.Errorf("invalid Database config: %w", err)
		}
		return probes.CheckDatabase(&cfg)
	default:
		return fmt.Errorf("unsupported monitor type: %s", monitor.Type)
	}
}

// trackFailures opens an incident after enough consecutive failures and
// resolves it on recovery.
func (s *Scheduler) trackFailures(monitor models.Monitor, checkErr error) {
	s.consecutiveFailMu.Lock()
	if checkErr != nil {
		s.consecutiveFails[monitor.ID]++
	} else {
		s.consecutiveFails[monitor.ID] = 0
	}
	fails := s.consecutiveFails[monitor.ID]
	s.consecutiveFailMu.Unlock()

	if checkErr != nil {
		if fails != s.failureThreshold {
			return
		}

		if _, open, err := s.store.OpenIncidentFor(monitor.ID); err != nil || open {
			if err != nil {
				log.Printf("Failed to look up open incident for monitor %d: %v", monitor.ID, err)
			}
			return
		}

		incident, err := s.store.OpenIncident(
			monitor.StatusPageID,
			fmt.Sprintf("%s is down", monitor.Name),
			fmt.Sprintf("Monitor failed %d consecutive checks: %v", fails, checkErr),
			status.SeverityHigh,
			[]uint{monitor.ID},
		)
		if err != nil {
			log.Printf("Failed to open incident for monitor %d: %v", monitor.ID, err)
			return
		}

		if s.notifier != nil {
			s.notifier.IncidentCreated(monitor.StatusPageID, incident)
		}
		return
	}

	// Recovery: resolve the auto-opened incident, if one exists.
	incident, open, err := s.store.OpenIncidentFor(monitor.ID)
	if err != nil {
		log.Printf("Failed to look up open incident for monitor %d: %v", monitor.ID, err)
		return
	}
	if !open {
		return
	}

	resolved, err := s.store.TransitionIncident(incident.ID, status.IncidentResolved, "Monitor recovered")
	if err != nil {
		log.Printf("Failed to resolve incident %d: %v", incident.ID, err)
		return
	}

	if s.notifier != nil {
		s.notifier.IncidentResolved(monitor.StatusPageID, resolved)
	}
}

// GetStatus returns current scheduler status
func (s *Scheduler) GetStatus() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]interface{}{
		"active_monitors": len(s.monitors),
		"running":         s.ctx.Err() == nil,
	}
}

// Global scheduler instance
var globalScheduler *Scheduler

// Initialize creates and starts the global scheduler
func Initialize(store *registry.Store, notifier services.IncidentNotifier, failureThreshold int) error {
	globalScheduler = NewScheduler(store, notifier, failureThreshold)
	return globalScheduler.Start()
}

// Shutdown stops the global scheduler
func Shutdown() {
	if globalScheduler != nil {
		globalScheduler.Stop()
	}
}

// AddMonitor adds a monitor to the global scheduler
func AddMonitor(monitor models.Monitor) {
	if globalScheduler != nil {
		globalScheduler.AddMonitor(monitor)
	}
}

// RemoveMonitor removes a monitor from the global scheduler
func RemoveMonitor(monitorID uint) {
	if globalScheduler != nil {
		globalScheduler.RemoveMonitor(monitorID)
	}
}

// UpdateMonitor updates a monitor in the global scheduler
func UpdateMonitor(monitor models.Monitor) {
	if globalScheduler != nil {
		globalScheduler.UpdateMonitor(monitor)
	}
}
