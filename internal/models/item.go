package models

import (
	"time"

	"gorm.io/datatypes"
)

// Item statuses.
const (
	StatusAvailable   = "available"
	StatusInUse       = "in_use"
	StatusMaintenance = "maintenance"
	StatusRetired     = "retired"
)

// Item represents one piece of corporate equipment.
// Invariant: Status == in_use exactly when AssignedUserID is set.
type Item struct {
	ID           string `gorm:"primaryKey;type:uuid" json:"id"`
	Category     string `gorm:"not null" json:"category"`
	Type         string `gorm:"not null" json:"type"`
	Manufacturer string `gorm:"not null" json:"manufacturer"`
	Model        string `gorm:"not null" json:"model"`
	SerialNumber string `gorm:"unique;not null" json:"serialNumber"`
	AssetTag     string `gorm:"uniqueIndex" json:"assetTag"`
	// SKU is the legacy tag column; older records carry their number here
	// instead of in asset_tag. Still scanned by the tag allocator.
	SKU string `gorm:"column:sku" json:"sku,omitempty"`

	Status         string  `gorm:"type:varchar(50);default:'available'" json:"status"`
	AssignedUserID *string `gorm:"type:uuid;index" json:"assignedUserId,omitempty"`

	PurchaseDate  time.Time      `json:"purchaseDate"`
	PurchasePrice *float64       `json:"purchasePrice,omitempty"`
	WarrantyEnd   time.Time      `json:"warrantyEnd"`
	Location      string         `json:"location,omitempty"`
	Specs         string         `json:"specs,omitempty"`
	Notes         string         `json:"notes,omitempty"`
	Photos        datatypes.JSON `json:"photos,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Relations
	AssignedUser *User `gorm:"foreignKey:AssignedUserID" json:"assignedUser,omitempty"`
}

// TableName specifies the table name for Item model
func (Item) TableName() string {
	return "items"
}
