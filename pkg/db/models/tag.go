package models

import (
	"time"
)

// Tag represents a shared label attachable to many packages
type Tag struct {
	ID    uint   `gorm:"primaryKey"`
	Name  string `gorm:"type:text;not null;uniqueIndex"`
	Color string `gorm:"type:text;not null;default:#808080"`

	CreatedAt time.Time
	UpdatedAt time.Time

	// Relationships
	Packages []Package `gorm:"many2many:package_tags"`
}
