package models

import (
	"time"
)

// Document types.
const (
	DocumentReceipt    = "receipt"
	DocumentReturnForm = "return_form"
)

// Document is a generated legal artifact (receipt or return form) tied to
// the history event that produced it. Rows are immutable.
type Document struct {
	ID             string    `gorm:"primaryKey;type:uuid" json:"id"`
	ItemID         string    `gorm:"type:uuid;index;not null" json:"itemId"`
	UserID         string    `gorm:"type:uuid;index;not null" json:"userId"`
	Type           string    `gorm:"type:varchar(50);not null" json:"type"`
	Content        []byte    `gorm:"not null" json:"-"`
	SignedAt       time.Time `json:"signedAt"`
	ActorID        *string   `gorm:"type:uuid" json:"actorId,omitempty"`
	HistoryEventID uint      `gorm:"index;not null" json:"historyEventId"`

	CreatedAt time.Time `json:"createdAt"`
}

// TableName specifies the table name for Document model
func (Document) TableName() string {
	return "item_documents"
}
