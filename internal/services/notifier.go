package services

import (
	"github.com/statuscore-dev/statuscore/internal/models"
)

// IncidentNotifier is called at incident lifecycle boundaries. Injected
// into the scheduler and handlers rather than reached as a singleton so
// tests can observe the calls.
type IncidentNotifier interface {
	IncidentCreated(statusPageID uint, incident models.Incident)
	IncidentResolved(statusPageID uint, incident models.Incident)
}

// NopIncidentNotifier discards all notifications.
type NopIncidentNotifier struct{}

func (NopIncidentNotifier) IncidentCreated(uint, models.Incident)  {}
func (NopIncidentNotifier) IncidentResolved(uint, models.Incident) {}
