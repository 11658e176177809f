package models

import (
	"time"
)

// Role is a user's privilege class
type Role string

const (
	RoleBuyer    Role = "buyer"
	RoleExecutor Role = "executor"
	RoleAdmin    Role = "admin"
)

// AdminUserID is the fixed id of the administrator (the first registrant)
const AdminUserID uint = 1

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleBuyer, RoleExecutor, RoleAdmin:
		return true
	}
	return false
}

// User represents a registered account (buyer, executor or the admin)
type User struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Username        string    `gorm:"uniqueIndex;not null;size:50" json:"username"`
	PasswordHash    string    `gorm:"not null" json:"-"`
	Role            Role      `gorm:"type:varchar(16);not null;default:'buyer';index" json:"role"`
	Avatar          *string   `json:"avatar"` // storage key
	City            string    `json:"city"`
	Birthday        string    `json:"birthday"`
	Notes           string    `gorm:"type:text" json:"notes"`
	InitialUsername string    `json:"initial_username"`
	CreatedAt       time.Time `json:"registration_date"`
	UpdatedAt       time.Time `json:"updated_date"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}

// IsAdmin reports whether the user has the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsExecutor reports whether the user has the executor role
func (u *User) IsExecutor() bool {
	return u.Role == RoleExecutor
}
