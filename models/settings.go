package models

import (
	"time"
)

// SettingsID is the primary key of the single settings row
const SettingsID uint = 1

// ReferenceCoefficient is the coefficient stored base prices were authored against
const ReferenceCoefficient = 5.25

// DefaultPaymentInfo is written when the settings row is created lazily
const DefaultPaymentInfo = "Payment details:\nBank card: 1234 5678 9012 3456"

// Settings is the global, admin-editable configuration
type Settings struct {
	ID                     uint           `gorm:"primaryKey" json:"id"`
	PaymentInfo            string         `gorm:"type:text" json:"payment_info"`
	PriceCoefficient       float64        `gorm:"not null;default:5.25" json:"price_coefficient"`
	ShowDiscountOnProducts bool           `gorm:"not null;default:false" json:"show_discount_on_products"`
	DiscountRules          []DiscountRule `gorm:"foreignKey:SettingsID;constraint:OnDelete:CASCADE" json:"discount_rules"`
	Version                int            `gorm:"not null;default:1" json:"version"`
	UpdatedAt              time.Time      `json:"updated_date"`
}

// TableName specifies the table name for the Settings model
func (Settings) TableName() string {
	return "settings"
}

// DiscountType selects how a rule's value is applied
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// DiscountRule is one discount with the conditions that must all hold for it to apply
type DiscountRule struct {
	ID         uint                `gorm:"primaryKey" json:"id"`
	SettingsID uint                `gorm:"not null;index" json:"-"`
	Position   int                 `gorm:"not null;default:0" json:"-"`
	Name       string              `gorm:"not null" json:"name"`
	Type       DiscountType        `gorm:"type:varchar(16);not null" json:"type"`
	Value      float64             `gorm:"not null" json:"value"`
	Conditions []DiscountCondition `gorm:"foreignKey:RuleID;constraint:OnDelete:CASCADE" json:"conditions"`
}

// TableName specifies the table name for the DiscountRule model
func (DiscountRule) TableName() string {
	return "discount_rules"
}

// ConditionKind discriminates the DiscountCondition variants
type ConditionKind string

const (
	ConditionRoleEquals         ConditionKind = "role_equals"          // Role
	ConditionUserEquals         ConditionKind = "user_equals"          // UserID
	ConditionMinTotalSpent      ConditionKind = "min_total_spent"      // Amount
	ConditionMinOrderAmount     ConditionKind = "min_order_amount"     // Amount
	ConditionMonthlyOrdersCount ConditionKind = "monthly_orders_count" // Count
	ConditionMonthlySpentAmount ConditionKind = "monthly_spent_amount" // Amount
	ConditionRegisteredAfter    ConditionKind = "registered_after"     // StartsAt
	ConditionDateWindow         ConditionKind = "date_window"          // StartsAt, EndsAt
	ConditionProductInCart      ConditionKind = "product_in_cart"      // ProductIDs
)

// Valid reports whether k is a known condition kind
func (k ConditionKind) Valid() bool {
	switch k {
	case ConditionRoleEquals, ConditionUserEquals, ConditionMinTotalSpent, ConditionMinOrderAmount,
		ConditionMonthlyOrdersCount, ConditionMonthlySpentAmount, ConditionRegisteredAfter,
		ConditionDateWindow, ConditionProductInCart:
		return true
	}
	return false
}

// DiscountCondition is a single tagged predicate. Only the fields used by Kind are meaningful.
type DiscountCondition struct {
	ID         uint          `gorm:"primaryKey" json:"-"`
	RuleID     uint          `gorm:"not null;index" json:"-"`
	Kind       ConditionKind `gorm:"type:varchar(32);not null" json:"kind"`
	Role       Role          `gorm:"type:varchar(16)" json:"role,omitempty"`
	UserID     *uint         `json:"user_id,omitempty"`
	Amount     int64         `json:"amount,omitempty"`
	Count      int           `json:"count,omitempty"`
	StartsAt   *time.Time    `json:"starts_at,omitempty"`
	EndsAt     *time.Time    `json:"ends_at,omitempty"`
	ProductIDs Int64List     `json:"product_ids,omitempty"`
}

// TableName specifies the table name for the DiscountCondition model
func (DiscountCondition) TableName() string {
	return "discount_conditions"
}
