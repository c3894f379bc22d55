package registry

import (
	"errors"
	"fmt"

	"github.com/statuscore-dev/statuscore/db"
	"github.com/statuscore-dev/statuscore/internal/models"
	"github.com/statuscore-dev/statuscore/internal/status"
	"gorm.io/gorm"
)

var ErrIncidentResolved = errors.New("incident is already resolved")

// OpenIncident creates an incident in the "open" state, linked to the
// affected monitors, and triggers a recompute of the page snapshot.
func (s *Store) OpenIncident(statusPageID uint, title, description, severity string, monitorIDs []uint) (models.Incident, error) {
	if !status.ValidSeverity(severity) {
		return models.Incident{}, fmt.Errorf("invalid severity: %s", severity)
	}

	now := s.now()

	incident := models.Incident{
		StatusPageID: statusPageID,
		Status:       status.IncidentOpen,
		Severity:     severity,
		Title:        title,
		Description:  description,
		StartedAt:    &now,
	}

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&incident).Error; err != nil {
			return err
		}

		if len(monitorIDs) == 0 {
			return nil
		}

		var monitors []models.Monitor
		if err := tx.Where("id IN ? AND status_page_id = ?", monitorIDs, statusPageID).
			Find(&monitors).Error; err != nil {
			return err
		}

		return tx.Model(&incident).Association("Monitors").Append(&monitors)
	})

	if err != nil {
		return models.Incident{}, err
	}

	s.changed(statusPageID)
	return incident, nil
}

// TransitionIncident moves an incident to a new lifecycle status and
// optionally appends a timestamped update message. Incidents are never
// deleted; resolving is the terminal transition and records ResolvedAt.
func (s *Store) TransitionIncident(incidentID uint, newStatus, message string) (models.Incident, error) {
	if !status.ValidIncidentStatus(newStatus) {
		return models.Incident{}, fmt.Errorf("invalid incident status: %s", newStatus)
	}

	var incident models.Incident
	if err := db.DB.First(&incident, incidentID).Error; err != nil {
		return models.Incident{}, err
	}

	if incident.Status == status.IncidentResolved {
		return models.Incident{}, ErrIncidentResolved
	}

	now := s.now()

	incident.Status = newStatus
	if newStatus == status.IncidentResolved {
		incident.ResolvedAt = &now
	}

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&incident).Error; err != nil {
			return err
		}

		if message == "" {
			return nil
		}

		update := models.IncidentUpdate{
			IncidentID: incident.ID,
			Message:    message,
			PostedAt:   now,
		}
		return tx.Create(&update).Error
	})

	if err != nil {
		return models.Incident{}, err
	}

	s.changed(incident.StatusPageID)
	return incident, nil
}

// AppendIncidentUpdate adds a timestamped message without changing the
// lifecycle status.
func (s *Store) AppendIncidentUpdate(incidentID uint, message string) (models.IncidentUpdate, error) {
	var incident models.Incident
	if err := db.DB.First(&incident, incidentID).Error; err != nil {
		return models.IncidentUpdate{}, err
	}

	update := models.IncidentUpdate{
		IncidentID: incident.ID,
		Message:    message,
		PostedAt:   s.now(),
	}

	if err := db.DB.Create(&update).Error; err != nil {
		return models.IncidentUpdate{}, err
	}

	s.changed(incident.StatusPageID)
	return update, nil
}

// OpenIncidentFor finds the currently unresolved auto-opened incident
// targeting a single monitor, used by the scheduler to avoid duplicates.
func (s *Store) OpenIncidentFor(monitorID uint) (models.Incident, bool, error) {
	var incident models.Incident

	err := db.DB.Joins("JOIN incident_monitors ON incident_monitors.incident_id = incidents.id").
		Where("incident_monitors.monitor_id = ? AND incidents.status <> ?", monitorID, status.IncidentResolved).
		Order("incidents.created_at DESC").
		First(&incident).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Incident{}, false, nil
	}
	if err != nil {
		return models.Incident{}, false, err
	}

	return incident, true, nil
}

// openIncidentStates loads the unresolved incidents of a page in the shape
// the aggregator consumes. Resolved incidents never appear here; they only
// remain for history.
func (s *Store) openIncidentStates(statusPageID uint) ([]status.IncidentState, error) {
	var incidents []models.Incident

	if err := db.DB.Preload("Monitors").
		Where("status_page_id = ? AND status <> ?", statusPageID, status.IncidentResolved).
		Find(&incidents).Error; err != nil {
		return nil, err
	}

	states := make([]status.IncidentState, 0, len(incidents))

	for _, incident := range incidents {
		state := status.IncidentState{
			ID:       incident.ID,
			Severity: incident.Severity,
		}
		for _, monitor := range incident.Monitors {
			state.MonitorIDs = append(state.MonitorIDs, monitor.ID)
		}
		states = append(states, state)
	}

	return states, nil
}
