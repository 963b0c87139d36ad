package models

import (
	"time"
)

// User roles accepted by the registry.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// User represents a registry account that can author packages
type User struct {
	ID       string `gorm:"primaryKey;type:text"`
	Username string `gorm:"type:text;not null;uniqueIndex"`
	Email    string `gorm:"type:text;not null;uniqueIndex"`
	Role     string `gorm:"type:text;not null;default:USER"`

	// bcrypt digest, never exposed through the API
	PasswordHash string `gorm:"type:text;not null"`

	CreatedAt time.Time
	UpdatedAt time.Time

	// Relationships
	Packages []Package `gorm:"foreignKey:AuthorID"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
