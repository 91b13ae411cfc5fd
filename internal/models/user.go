package models

import (
	"time"
)

// User roles. Admin and manager may modify equipment; product users
// only hold assignments.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleProduct = "product"
)

// User represents an employee account.
// Standardized: Go (PascalCase) -> DB (snake_case) -> JSON (camelCase)
type User struct {
	ID        string     `gorm:"primaryKey;type:uuid" json:"id"`
	Username  string     `gorm:"unique;not null" json:"username"`
	Password  string     `gorm:"not null" json:"-"`
	Email     string     `gorm:"unique;not null" json:"email"`
	Name      string     `json:"name,omitempty"`
	Role      string     `gorm:"default:'product'" json:"role"`
	IsActive  bool       `gorm:"default:true" json:"isActive"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName specifies the table name for User model
func (User) TableName() string {
	return "users"
}

// CanModify reports whether the role may create, update or delete equipment.
func CanModify(role string) bool {
	return role == RoleAdmin || role == RoleManager
}

// DisplayName returns the best human-readable name for documents.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Username
}
