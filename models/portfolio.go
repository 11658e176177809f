package models

import (
	"time"
)

// MaxPortfolioEntries caps the gallery size of one executor
const MaxPortfolioEntries = 20

// PortfolioEntry is one image in an executor's gallery
type PortfolioEntry struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	ImagePath string    `gorm:"not null" json:"image_path"` // storage key
	CreatedAt time.Time `json:"created_date"`

	ImageURL string `gorm:"-" json:"image_url,omitempty"`
}

// TableName specifies the table name for the PortfolioEntry model
func (PortfolioEntry) TableName() string {
	return "portfolio"
}
