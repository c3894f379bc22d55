package registry

import (
	"fmt"
	"time"

	"github.com/statuscore-dev/statuscore/db"
	"github.com/statuscore-dev/statuscore/internal/models"
	"github.com/statuscore-dev/statuscore/internal/status"
	"gorm.io/gorm"
)

// ScheduleMaintenance creates a maintenance window covering the given
// monitors. The window's lifecycle status is never stored; it is derived
// from StartsAt/EndsAt whenever read.
func (s *Store) ScheduleMaintenance(statusPageID uint, title, description string, startsAt, endsAt time.Time, monitorIDs []uint) (models.MaintenanceWindow, error) {
	if !endsAt.After(startsAt) {
		return models.MaintenanceWindow{}, fmt.Errorf("maintenance window must end after it starts")
	}

	window := models.MaintenanceWindow{
		StatusPageID: statusPageID,
		Title:        title,
		Description:  description,
		StartsAt:     startsAt,
		EndsAt:       endsAt,
	}

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&window).Error; err != nil {
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

		return tx.Model(&window).Association("Monitors").Append(&monitors)
	})

	if err != nil {
		return models.MaintenanceWindow{}, err
	}

	s.changed(statusPageID)
	return window, nil
}

// RescheduleMaintenance moves an existing window's bounds.
func (s *Store) RescheduleMaintenance(windowID uint, startsAt, endsAt time.Time) (models.MaintenanceWindow, error) {
	if !endsAt.After(startsAt) {
		return models.MaintenanceWindow{}, fmt.Errorf("maintenance window must end after it starts")
	}

	var window models.MaintenanceWindow
	if err := db.DB.First(&window, windowID).Error; err != nil {
		return models.MaintenanceWindow{}, err
	}

	window.StartsAt = startsAt
	window.EndsAt = endsAt

	if err := db.DB.Save(&window).Error; err != nil {
		return models.MaintenanceWindow{}, err
	}

	s.changed(window.StatusPageID)
	return window, nil
}

// activeMaintenanceStates loads the windows active at the given instant.
// Scheduled and completed windows contribute nothing to the snapshot.
func (s *Store) activeMaintenanceStates(statusPageID uint, now time.Time) ([]status.MaintenanceState, error) {
	var windows []models.MaintenanceWindow

	if err := db.DB.Preload("Monitors").
		Where("status_page_id = ? AND starts_at <= ? AND ends_at > ?", statusPageID, now, now).
		Find(&windows).Error; err != nil {
		return nil, err
	}

	states := make([]status.MaintenanceState, 0, len(windows))

	for _, window := range windows {
		state := status.MaintenanceState{ID: window.ID}
		for _, monitor := range window.Monitors {
			state.MonitorIDs = append(state.MonitorIDs, monitor.ID)
		}
		states = append(states, state)
	}

	return states, nil
}
