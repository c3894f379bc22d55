package models

import (
	"gorm.io/datatypes"
)

type NotificationRule struct {
	BaseModel

	StatusPageID uint           `gorm:"not null;index"`
	TriggerType  string         `gorm:"not null"` // e.g., "incident_created", "incident_resolved"
	Channel      string         `gorm:"not null"` // e.g., "discord", "slack"
	IsActive     bool           `gorm:"default:true"`
	Config       datatypes.JSON `gorm:"type:jsonb"` // channel-specific, e.g. {"webhook_url": ...}

	// Relationships
	StatusPage StatusPage `gorm:"foreignKey:StatusPageID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
