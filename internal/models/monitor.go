package models

import (
	"gorm.io/datatypes"
)

type Monitor struct {
	BaseModel

	StatusPageID uint           `gorm:"not null;index"` // Foreign key to the StatusPage
	Name         string         `gorm:"not null"`
	Type         string         `gorm:"not null"` // "http", "dns", "database", etc.
	GroupName    string         `gorm:"index"`
	Tags         datatypes.JSON `gorm:"type:jsonb"`
	Interval     int            `gorm:"not null"` // Interval in seconds for the monitor to run
	Active       bool           `gorm:"default:true"`
	Config       datatypes.JSON `gorm:"type:jsonb"`

	// Relationships
	StatusPage    StatusPage     `gorm:"foreignKey:StatusPageID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	MonitorChecks []MonitorCheck `gorm:"foreignKey:MonitorID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
