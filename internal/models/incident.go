package models

import "time"

type Incident struct {
	BaseModel

	StatusPageID uint   `gorm:"not null;index"`
	Status       string `gorm:"not null"` // "open", "acknowledged", "investigating", "resolved"
	Severity     string `gorm:"not null"` // "low", "medium", "high", "critical"
	Title        string `gorm:"not null"`
	Description  string
	StartedAt    *time.Time
	ResolvedAt   *time.Time

	// Relationships
	StatusPage    StatusPage       `gorm:"foreignKey:StatusPageID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Monitors      []Monitor        `gorm:"many2many:incident_monitors"`
	Updates       []IncidentUpdate `gorm:"foreignKey:IncidentID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Notifications []Notification   `gorm:"foreignKey:IncidentID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}

type IncidentUpdate struct {
	BaseModel

	IncidentID uint      `gorm:"not null;index"`
	Message    string    `gorm:"not null"`
	PostedAt   time.Time `gorm:"not null"`

	// Relationships
	Incident Incident `gorm:"foreignKey:IncidentID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`
}
