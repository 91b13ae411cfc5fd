package assets

import (
	"time"

	"github.com/mwalther/equipcore/internal/models"
)

// Actor is the authenticated identity performing an operation. The engine
// trusts it as supplied by the auth middleware and never verifies
// credentials itself.
type Actor struct {
	ID   string
	Role string
}

// ReturnedItem is one entry of the sub-item list handed back with a
// return (charger, dock, bag, ...).
type ReturnedItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Returned bool   `json:"returned"`
}

// DocumentData is the structured payload handed to the document
// generator. The engine does not know the layout of the produced bytes.
type DocumentData struct {
	Company models.CompanySettings
	User    models.User
	Item    models.Item
	Date    time.Time
	// Signature is an optional base64-encoded PNG captured on a pad.
	Signature   string
	ReturnItems []ReturnedItem
	Notes       string
}

// DocumentGenerator produces an opaque byte buffer from structured data.
type DocumentGenerator interface {
	Receipt(data DocumentData) ([]byte, error)
	ReturnForm(data DocumentData) ([]byte, error)
}

// EventSink receives history events after their transaction committed.
type EventSink interface {
	Publish(event models.HistoryEvent)
}

// CreateItemInput carries the attributes for a new item.
type CreateItemInput struct {
	Category      string    `json:"category"`
	Type          string    `json:"type"`
	Manufacturer  string    `json:"manufacturer"`
	Model         string    `json:"model"`
	SerialNumber  string    `json:"serialNumber"`
	Status        string    `json:"status,omitempty"`
	PurchaseDate  time.Time `json:"purchaseDate"`
	PurchasePrice *float64  `json:"purchasePrice,omitempty"`
	WarrantyEnd   time.Time `json:"warrantyEnd"`
	Location      string    `json:"location,omitempty"`
	Specs         string    `json:"specs,omitempty"`
	Notes         string    `json:"notes,omitempty"`
	Photos        []string  `json:"photos,omitempty"`
}

// UpdateItemInput is a field patch; nil fields are left unchanged.
// Assignment state is never patched here, only through Assign and Return.
type UpdateItemInput struct {
	Category      *string    `json:"category,omitempty"`
	Type          *string    `json:"type,omitempty"`
	Manufacturer  *string    `json:"manufacturer,omitempty"`
	Model         *string    `json:"model,omitempty"`
	SerialNumber  *string    `json:"serialNumber,omitempty"`
	Status        *string    `json:"status,omitempty"`
	PurchaseDate  *time.Time `json:"purchaseDate,omitempty"`
	PurchasePrice *float64   `json:"purchasePrice,omitempty"`
	WarrantyEnd   *time.Time `json:"warrantyEnd,omitempty"`
	Location      *string    `json:"location,omitempty"`
	Specs         *string    `json:"specs,omitempty"`
	Notes         *string    `json:"notes,omitempty"`
	Photos        []string   `json:"photos,omitempty"`
}

// AssignInput carries the target user for an assignment.
type AssignInput struct {
	UserID    string `json:"userId"`
	Signature string `json:"signature,omitempty"`
}

// ReturnInput carries the optional return details.
type ReturnInput struct {
	Photo     string         `json:"photo,omitempty"`
	Photo2    string         `json:"photo2,omitempty"`
	Notes     string         `json:"notes,omitempty"`
	Items     []ReturnedItem `json:"items,omitempty"`
	Signature string         `json:"signature,omitempty"`
}
