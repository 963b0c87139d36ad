package models

import (
	"time"
)

// Package represents a named, versioned installable unit
type Package struct {
	ID      string `gorm:"primaryKey;type:text"`
	Name    string `gorm:"type:text;not null;uniqueIndex:idx_name_version"`
	Version string `gorm:"type:text;not null;uniqueIndex:idx_name_version"`

	// Package metadata
	Description  string `gorm:"type:text"`
	Maintainer   string `gorm:"type:text;not null;index:idx_package_maintainer"`
	Architecture string `gorm:"type:text;not null"`
	Size         int64  `gorm:"not null"`
	Checksum     string `gorm:"type:text;not null"`
	StoragePath  string `gorm:"type:text;not null"`

	AuthorID string `gorm:"type:text;not null;index:idx_package_author"`

	CreatedAt time.Time
	UpdatedAt time.Time

	// Relationships
	Author       User         `gorm:"foreignKey:AuthorID;references:ID"`
	Dependencies []Dependency `gorm:"foreignKey:PackageID;constraint:OnDelete:CASCADE"`
	Tags         []Tag        `gorm:"many2many:package_tags;constraint:OnDelete:CASCADE"`
}
