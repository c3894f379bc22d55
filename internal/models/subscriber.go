package models

import "gorm.io/datatypes"

type Subscriber struct {
	BaseModel

	StatusPageID uint           `gorm:"not null;uniqueIndex:idx_page_email"`
	Email        string         `gorm:"not null;uniqueIndex:idx_page_email"`
	Types        datatypes.JSON `gorm:"type:jsonb"` // subset of ["incidents", "maintenance"]

	// Relationships
	StatusPage StatusPage `gorm:"foreignKey:StatusPageID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
