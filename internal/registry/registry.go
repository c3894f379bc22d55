package registry

import (
	"errors"
	"sync"
	"time"

	"github.com/statuscore-dev/statuscore/db"
	"github.com/statuscore-dev/statuscore/internal/models"
	"github.com/statuscore-dev/statuscore/internal/status"
	"github.com/statuscore-dev/statuscore/internal/uptime"
	"gorm.io/gorm"
)

// UptimeSource is the cached availability lookup the aggregation inputs are
// built from. Satisfied by *uptime.Refresher.
type UptimeSource interface {
	Windows(monitorID uint) uptime.Windows
}

// Store is the data-access layer for monitors, incidents and maintenance
// windows. It keeps the latest observed state of every monitor in memory,
// persists history through gorm, and invokes OnChange after every mutation
// so the engine can recompute the affected page's snapshot.
type Store struct {
	mu     sync.RWMutex
	states map[uint]status.MonitorState // monitor id -> latest state
	pages  map[uint]uint                // monitor id -> status page id

	uptimes   UptimeSource
	threshold float64
	now       func() time.Time

	// OnChange is called with the status page id after each mutation.
	// Set once during wiring, before any mutation runs.
	OnChange func(statusPageID uint)
}

func NewStore(uptimes UptimeSource, degradedUptimeThreshold float64) *Store {
	return &Store{
		states:    make(map[uint]status.MonitorState),
		pages:     make(map[uint]uint),
		uptimes:   uptimes,
		threshold: degradedUptimeThreshold,
		now:       time.Now,
	}
}

// Load seeds the in-memory registry from the database: every monitor plus
// its most recent check, if any. Called once at startup.
func (s *Store) Load() error {
	var monitors []models.Monitor
	if err := db.DB.Find(&monitors).Error; err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, monitor := range monitors {
		state := status.MonitorState{ID: monitor.ID, Name: monitor.Name}

		var lastCheck models.MonitorCheck
		err := db.DB.Where("monitor_id = ?", monitor.ID).
			Order("checked_at DESC").
			First(&lastCheck).Error

		if err == nil {
			state.Known = true
			state.Up = lastCheck.Up
			state.ResponseTimeMs = lastCheck.ResponseTime
			state.LastCheckedAt = lastCheck.CheckedAt
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		s.states[monitor.ID] = state
		s.pages[monitor.ID] = monitor.StatusPageID
	}

	return nil
}

// TrackMonitor registers a newly created monitor with no check history.
func (s *Store) TrackMonitor(monitor models.Monitor) {
	s.mu.Lock()
	s.states[monitor.ID] = status.MonitorState{ID: monitor.ID, Name: monitor.Name}
	s.pages[monitor.ID] = monitor.StatusPageID
	s.mu.Unlock()

	s.changed(monitor.StatusPageID)
}

// RenameMonitor keeps the registry's display name in sync after an update.
func (s *Store) RenameMonitor(monitor models.Monitor) {
	s.mu.Lock()
	if state, ok := s.states[monitor.ID]; ok {
		state.Name = monitor.Name
		s.states[monitor.ID] = state
	}
	s.mu.Unlock()

	s.changed(monitor.StatusPageID)
}

// DropMonitor removes a deleted monitor from the registry.
func (s *Store) DropMonitor(monitorID uint) {
	s.mu.Lock()
	pageID, tracked := s.pages[monitorID]
	delete(s.states, monitorID)
	delete(s.pages, monitorID)
	s.mu.Unlock()

	if tracked {
		s.changed(pageID)
	}
}

// RecordCheck persists one check result and updates the in-memory state.
// This is the monitor check feed entry point: the scheduler calls it after
// every probe.
func (s *Store) RecordCheck(monitorID uint, up bool, responseTimeMs int, message string, checkedAt time.Time) error {
	check := models.MonitorCheck{
		MonitorID:    monitorID,
		Up:           up,
		ResponseTime: responseTimeMs,
		Message:      message,
		CheckedAt:    checkedAt,
	}

	if err := db.DB.Create(&check).Error; err != nil {
		return err
	}

	s.mu.Lock()
	state, ok := s.states[monitorID]
	if !ok {
		s.mu.Unlock()
		return nil // monitor was deleted while the probe ran
	}
	state.Known = true
	state.Up = up
	state.ResponseTimeMs = responseTimeMs
	state.LastCheckedAt = checkedAt
	s.states[monitorID] = state
	pageID := s.pages[monitorID]
	s.mu.Unlock()

	s.changed(pageID)
	return nil
}

// MonitorState returns the latest observed state for one monitor.
func (s *Store) MonitorState(monitorID uint) (status.MonitorState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.states[monitorID]
	return state, ok
}

// StatusPageOf resolves the owning status page of a monitor.
func (s *Store) StatusPageOf(monitorID uint) (uint, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pageID, ok := s.pages[monitorID]
	return pageID, ok
}

// AggregationInputs assembles the aggregator's view of one status page:
// registry states for its monitors, unresolved incidents, maintenance
// windows active right now, and the cached uptime windows.
func (s *Store) AggregationInputs(statusPageID uint) (status.Inputs, error) {
	var page models.StatusPage
	if err := db.DB.First(&page, statusPageID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return status.Inputs{}, status.ErrStatusPageNotFound
		}
		return status.Inputs{}, err
	}

	var monitors []models.Monitor
	if err := db.DB.Where("status_page_id = ?", statusPageID).Find(&monitors).Error; err != nil {
		return status.Inputs{}, err
	}

	inputs := status.Inputs{
		Uptime:                  make(map[uint]uptime.Windows, len(monitors)),
		DegradedUptimeThreshold: s.threshold,
	}

	s.mu.RLock()
	for _, monitor := range monitors {
		state, ok := s.states[monitor.ID]
		if !ok {
			state = status.MonitorState{ID: monitor.ID, Name: monitor.Name}
		}
		inputs.Monitors = append(inputs.Monitors, state)
	}
	s.mu.RUnlock()

	for _, monitor := range monitors {
		inputs.Uptime[monitor.ID] = s.uptimes.Windows(monitor.ID)
	}

	openIncidents, err := s.openIncidentStates(statusPageID)
	if err != nil {
		return status.Inputs{}, err
	}
	inputs.OpenIncidents = openIncidents

	active, err := s.activeMaintenanceStates(statusPageID, s.now())
	if err != nil {
		return status.Inputs{}, err
	}
	inputs.ActiveMaintenance = active

	return inputs, nil
}

func (s *Store) changed(statusPageID uint) {
	if s.OnChange != nil {
		s.OnChange(statusPageID)
	}
}
