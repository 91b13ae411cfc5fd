package models

import (
	"time"
)

// CompanySettings is the single-row company profile printed in the header
// of generated documents.
type CompanySettings struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CompanyName string    `json:"companyName"`
	Street      string    `json:"street,omitempty"`
	ZipCity     string    `json:"zipCity,omitempty"`
	Country     string    `json:"country,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TableName specifies the table name for CompanySettings model
func (CompanySettings) TableName() string {
	return "company_settings"
}
