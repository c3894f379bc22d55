package models

import "time"

// MaintenanceWindow deliberately stores no lifecycle status column. Whether
// a window is scheduled, active or completed is derived from StartsAt/EndsAt
// against the clock at read time.
type MaintenanceWindow struct {
	BaseModel

	StatusPageID uint   `gorm:"not null;index"`
	Title        string `gorm:"not null"`
	Description  string
	StartsAt     time.Time `gorm:"not null;index"`
	EndsAt       time.Time `gorm:"not null;index"`

	// Relationships
	StatusPage StatusPage `gorm:"foreignKey:StatusPageID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Monitors   []Monitor  `gorm:"many2many:maintenance_monitors"`
}

// LifecycleStatus reports the window's derived state at the given instant.
func (w MaintenanceWindow) LifecycleStatus(now time.Time) string {
	switch {
	case now.Before(w.StartsAt):
		return "scheduled"
	case now.Before(w.EndsAt):
		return "active"
	default:
		return "completed"
	}
}
