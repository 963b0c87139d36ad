package models

import (
	"time"
)

// Dependency kinds a package may declare.
const (
	DependencyRuntime  = "runtime"
	DependencyBuild    = "build"
	DependencyOptional = "optional"
)

// Dependency represents a requirement a package declares on another
// named package. The target is a free-text name/version pair and is
// not required to exist in the registry.
type Dependency struct {
	ID        uint   `gorm:"primaryKey"`
	PackageID string `gorm:"type:text;not null;index:idx_package_deps"`

	Name    string `gorm:"type:text;not null"`
	Version string `gorm:"type:text;not null"`
	Type    string `gorm:"type:text;not null;default:runtime"`

	CreatedAt time.Time

	// Relationships
	Package Package `gorm:"foreignKey:PackageID;references:ID"`
}
