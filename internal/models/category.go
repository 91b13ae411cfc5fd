package models

import (
	"time"
)

// Category represents an equipment category (Notebook, Phone, ...).
type Category struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"unique;not null" json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TableName specifies the table name for Category model
func (Category) TableName() string {
	return "categories"
}
