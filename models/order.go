package models

import (
	"time"
)

// Order represents a purchase placed from a cart
type Order struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	UserID         uint            `gorm:"not null;index" json:"user_id"` // foreign key to users table
	User           User            `gorm:"foreignKey:UserID" json:"user"`
	LineItems      []OrderLineItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"line_items"`
	Subtotal       int64           `gorm:"not null" json:"subtotal"`
	DiscountAmount int64           `gorm:"not null;default:0" json:"discount_amount"`
	TotalPrice     int64           `gorm:"not null" json:"total_price"` // authoritative, only changed by an admin override
	Notes          string          `gorm:"type:text" json:"notes"`
	AdminNotes     string          `gorm:"type:text" json:"admin_notes"`
	Status         OrderStatus     `gorm:"type:varchar(16);not null;default:'created';index" json:"status"`
	Executors      []OrderExecutor `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"-"`
	Version        int             `gorm:"not null;default:1" json:"version"`
	CreatedAt      time.Time       `gorm:"index" json:"created_date"`
	UpdatedAt      time.Time       `json:"updated_date"`

	AssignedExecutors []uint `gorm:"-" json:"assigned_executors"`
	CurrentSubtotal   int64  `gorm:"-" json:"current_subtotal"` // recomputed from the current coefficient on read
}

// TableName specifies the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

// OrderLineItem is one product line of an order, with the price resolved at creation
type OrderLineItem struct {
	ID        uint   `gorm:"primaryKey" json:"-"`
	OrderID   uint   `gorm:"not null;index" json:"-"`
	ProductID uint   `gorm:"not null;index" json:"product_id"`
	Name      string `gorm:"not null" json:"name"`
	Size      string `gorm:"not null" json:"size"`
	BasePrice int64  `gorm:"not null" json:"base_price"`
	Price     int64  `gorm:"not null" json:"price"`
	Quantity  int    `gorm:"not null;check:quantity > 0" json:"quantity"`

	CurrentPrice int64 `gorm:"-" json:"current_price"`
}

// TableName specifies the table name for the OrderLineItem model
func (OrderLineItem) TableName() string {
	return "order_line_items"
}

// MaxLineQuantity bounds the quantity of a single order line
const MaxLineQuantity = 1000

// LineTotal is price times quantity
func (li OrderLineItem) LineTotal() int64 {
	return li.Price * int64(li.Quantity)
}

// OrderExecutor assigns an executor user to an order
type OrderExecutor struct {
	OrderID    uint      `gorm:"primaryKey" json:"order_id"`
	ExecutorID uint      `gorm:"primaryKey;index" json:"executor_id"`
	CreatedAt  time.Time `json:"created_date"`
}

// TableName specifies the table name for the OrderExecutor model
func (OrderExecutor) TableName() string {
	return "order_executors"
}

// SyncAssignedExecutors fills AssignedExecutors from the loaded join rows
func (o *Order) SyncAssignedExecutors() {
	ids := make([]uint, 0, len(o.Executors))
	for _, e := range o.Executors {
		ids = append(ids, e.ExecutorID)
	}
	o.AssignedExecutors = ids
}

// HasExecutor reports whether the user is assigned to the order
func (o *Order) HasExecutor(userID uint) bool {
	for _, e := range o.Executors {
		if e.ExecutorID == userID {
			return true
		}
	}
	return false
}
