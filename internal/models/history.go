package models

import (
	"time"
)

// History event kinds.
const (
	EventCreated  = "created"
	EventUpdated  = "updated"
	EventAssigned = "assigned"
	EventReturned = "returned"
)

// EventColor returns the display color tag for an event kind.
func EventColor(kind string) string {
	switch kind {
	case EventCreated:
		return "green"
	case EventAssigned:
		return "orange"
	case EventReturned:
		return "teal"
	default:
		return "blue"
	}
}

// HistoryEvent is one append-only audit entry for an item. Rows are never
// updated or deleted.
//
// The Return* fields live in optional columns that older deployments may
// not have yet. They are excluded from AutoMigrate and provisioned through
// the schema prober; the ledger degrades the write when they are absent.
type HistoryEvent struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	ItemID      string  `gorm:"type:uuid;index;not null" json:"itemId"`
	UserID      *string `gorm:"type:uuid" json:"userId,omitempty"`
	Kind        string  `gorm:"type:varchar(50);not null" json:"kind"`
	Color       string  `gorm:"type:varchar(50)" json:"color"`
	Title       string  `gorm:"not null" json:"title"`
	Description string  `json:"description,omitempty"`

	// Optional return details, populated for "returned" events only.
	ReturnPhoto  string `gorm:"-:migration" json:"returnPhoto,omitempty"`
	ReturnPhoto2 string `gorm:"-:migration" json:"returnPhoto2,omitempty"`
	ReturnNotes  string `gorm:"-:migration" json:"returnNotes,omitempty"`
	// ReturnItems is the returned sub-item list serialized as JSON text.
	ReturnItems string `gorm:"-:migration" json:"returnItems,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

// TableName specifies the table name for HistoryEvent model
func (HistoryEvent) TableName() string {
	return "item_history"
}
