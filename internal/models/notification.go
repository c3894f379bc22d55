package models

import "time"

type Notification struct {
	BaseModel

	IncidentID uint   `gorm:"not null;index"`
	Channel    string `gorm:"not null"` // "discord", "slack", "email"
	Status     string `gorm:"not null"` // "sent", "failed"
	Message    string
	SentAt     *time.Time

	// Relationships
	Incident Incident `gorm:"foreignKey:IncidentID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
