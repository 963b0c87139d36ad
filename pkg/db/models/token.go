package models

import (
	"time"
)

// AuthToken records a bearer token issued by the registry. Tokens are
// opaque and valid until deleted by logout; there is no expiry.
type AuthToken struct {
	ID     uint   `gorm:"primaryKey"`
	Token  string `gorm:"type:text;not null;uniqueIndex"`
	UserID string `gorm:"type:text;not null;index:idx_token_user"`

	CreatedAt time.Time

	// Relationships
	User User `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
}
