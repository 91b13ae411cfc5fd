package models

import (
	"time"
)

// RefreshToken is a persisted refresh token. The RevokedAt and UserAgent
// columns were added after the first deployments; they are provisioned
// through the schema prober rather than AutoMigrate so the service keeps
// working against databases that predate them.
type RefreshToken struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"type:uuid;index;not null" json:"userId"`
	Token     string    `gorm:"uniqueIndex;not null" json:"-"`
	ExpiresAt time.Time `gorm:"not null" json:"expiresAt"`

	RevokedAt *time.Time `gorm:"-:migration" json:"revokedAt,omitempty"`
	UserAgent string     `gorm:"-:migration" json:"userAgent,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

// TableName specifies the table name for RefreshToken model
func (RefreshToken) TableName() string {
	return "refresh_tokens"
}
