package models

import (
	"time"
)

// Bounds on custom request attachments
const (
	MaxRequestModelLinks = 5
	MaxRequestHeights    = 5
	MaxRequestImages     = 3
)

// CustomRequest is a buyer-submitted measurement/quote inquiry
type CustomRequest struct {
	ID              uint          `gorm:"primaryKey" json:"id"`
	UserID          uint          `gorm:"not null;index" json:"user_id"`
	User            User          `gorm:"foreignKey:UserID" json:"user"`
	ProductID       *uint         `gorm:"index" json:"product_id"`
	ProductName     string        `gorm:"not null" json:"product_name"`
	AdditionalName  *string       `json:"additional_name"`
	ModelLinks      StringList    `json:"model_links"`
	RequiredHeights StringList    `json:"required_heights"`
	Images          StringList    `json:"images"`
	Status          RequestStatus `gorm:"type:varchar(16);not null;default:'pending';index" json:"status"`
	AdminNotes      string        `gorm:"type:text" json:"admin_notes"`
	Version         int           `gorm:"not null;default:1" json:"version"`
	CreatedAt       time.Time     `gorm:"index" json:"created_date"`
	UpdatedAt       time.Time     `json:"updated_date"`
}

// TableName specifies the table name for the CustomRequest model
func (CustomRequest) TableName() string {
	return "custom_requests"
}
