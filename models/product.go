package models

import (
	"time"
)

// Product represents a catalog entry owned by the admin
type Product struct {
	ID               uint          `gorm:"primaryKey" json:"id"`
	Name             string        `gorm:"not null;size:255" json:"name"`
	RelatedName      *string       `json:"related_name"`
	Description      *string       `gorm:"type:text" json:"description"`
	OriginalHeight   *float64      `json:"original_height"`
	OriginalWidth    *float64      `json:"original_width"`
	OriginalLength   *float64      `json:"original_length"`
	PartsCount       int           `gorm:"not null;default:1" json:"parts_count"`
	MainImage        *string       `json:"main_image"`
	AdditionalImages StringList    `json:"additional_images"`
	PriceOptions     []PriceOption `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"price_options"`
	IsVisible        bool          `gorm:"not null;index" json:"is_visible"`
	SalesCount       int64         `gorm:"not null;default:0" json:"sales_count"`
	FavoritesCount   int64         `gorm:"not null;default:0" json:"favorites_count"`
	CreatedAt        time.Time     `json:"created_date"`
	UpdatedAt        time.Time     `json:"updated_date"`
}

// TableName specifies the table name for the Product model
func (Product) TableName() string {
	return "products"
}

// PriceOption is one purchasable size/price variant of a product.
// Price is the stored base price, authored against the reference coefficient.
type PriceOption struct {
	ID        uint     `gorm:"primaryKey" json:"-"`
	ProductID uint     `gorm:"not null;index" json:"-"`
	Position  int      `gorm:"not null;default:0" json:"-"`
	Size      string   `gorm:"not null" json:"size"`
	Price     int64    `gorm:"not null" json:"price"`
	ResinML   *float64 `json:"resin_ml,omitempty"` // admin only
}

// TableName specifies the table name for the PriceOption model
func (PriceOption) TableName() string {
	return "product_price_options"
}

// FindPriceOption returns the option with the given size label
func (p *Product) FindPriceOption(size string) (PriceOption, bool) {
	for _, opt := range p.PriceOptions {
		if opt.Size == size {
			return opt, true
		}
	}
	return PriceOption{}, false
}

// Favorite links a user to a product they marked
type Favorite struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_user_product" json:"user_id"`
	ProductID uint      `gorm:"not null;uniqueIndex:idx_user_product;index" json:"product_id"`
	CreatedAt time.Time `json:"created_date"`
}

// TableName specifies the table name for the Favorite model
func (Favorite) TableName() string {
	return "user_favorites"
}
