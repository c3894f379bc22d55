package models

import (
	"time"
)

type MonitorCheck struct {
	BaseModel

	MonitorID    uint   `gorm:"not null;index:idx_monitor_checked_at"`
	Up           bool   `gorm:"not null"`
	ResponseTime int    `gorm:"not null"` // milliseconds
	Message      string
	CheckedAt    time.Time `gorm:"not null;index:idx_monitor_checked_at"`

	// Relationships
	Monitor Monitor `gorm:"foreignKey:MonitorID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`
}
