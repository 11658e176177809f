package services

import (
	"testing"
	"time"

	"github.com/DaniilNightingale/EMPIREsite3/models"
	"github.com/stretchr/testify/assert"
)

func TestComputeDiscount(t *testing.T) {
	now := testNow
	buyer := DiscountContext{UserID: 5, Role: models.RoleBuyer, Subtotal: 1000, Now: now}

	tests := []struct {
		name     string
		subtotal int64
		rules    []models.DiscountRule
		dctx     DiscountContext
		expected int64
		applied  int
	}{
		{
			name:     "no rules",
			subtotal: 1000,
			dctx:     buyer,
			expected: 0,
		},
		{
			name:     "unconditional percentage",
			subtotal: 1000,
			rules:    []models.DiscountRule{{Name: "ten", Type: models.DiscountPercentage, Value: 10}},
			dctx:     buyer,
			expected: 100,
			applied:  1,
		},
		{
			name:     "fixed plus percentage",
			subtotal: 2000,
			rules: []models.DiscountRule{
				{Name: "fixed", Type: models.DiscountFixed, Value: 150},
				{Name: "five", Type: models.DiscountPercentage, Value: 5},
			},
			dctx:     buyer,
			expected: 250,
			applied:  2,
		},
		{
			name:     "clamped to subtotal",
			subtotal: 1000,
			rules: []models.DiscountRule{
				{Name: "big", Type: models.DiscountFixed, Value: 900},
				{Name: "half", Type: models.DiscountPercentage, Value: 50},
			},
			dctx:     buyer,
			expected: 1000,
			applied:  2,
		},
		{
			name:     "condition not met",
			subtotal: 1000,
			rules: []models.DiscountRule{{
				Name: "executors", Type: models.DiscountFixed, Value: 100,
				Conditions: []models.DiscountCondition{{Kind: models.ConditionRoleEquals, Role: models.RoleExecutor}},
			}},
			dctx:     buyer,
			expected: 0,
		},
		{
			name:     "unknown condition never applies",
			subtotal: 1000,
			rules: []models.DiscountRule{{
				Name: "mystery", Type: models.DiscountFixed, Value: 100,
				Conditions: []models.DiscountCondition{{Kind: "moon_phase"}},
			}},
			dctx:     buyer,
			expected: 0,
		},
		{
			name:     "unknown type is skipped",
			subtotal: 1000,
			rules:    []models.DiscountRule{{Name: "odd", Type: "bogus", Value: 10}},
			dctx:     buyer,
			expected: 0,
		},
		{
			name:     "zero subtotal",
			subtotal: 0,
			rules:    []models.DiscountRule{{Name: "fixed", Type: models.DiscountFixed, Value: 100}},
			dctx:     buyer,
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ComputeDiscount(tt.subtotal, tt.rules, tt.dctx)
			assert.Equal(t, tt.expected, result.Amount)
			assert.Len(t, result.Applied, tt.applied)
			assert.GreaterOrEqual(t, result.Amount, int64(0))
			assert.LessOrEqual(t, result.Amount, tt.subtotal)
		})
	}
}

func TestDiscountIsMonotonicInSpend(t *testing.T) {
	rules := []models.DiscountRule{
		{Name: "loyal", Type: models.DiscountPercentage, Value: 5,
			Conditions: []models.DiscountCondition{{Kind: models.ConditionMinTotalSpent, Amount: 10000}}},
		{Name: "regular", Type: models.DiscountFixed, Value: 200,
			Conditions: []models.DiscountCondition{{Kind: models.ConditionMonthlySpentAmount, Amount: 3000}}},
	}

	var previous int64
	for spent := int64(0); spent <= 20000; spent += 500 {
		dctx := DiscountContext{LifetimeSpent: spent, MonthlySpent: spent, Now: testNow}
		amount := ComputeDiscount(5000, rules, dctx).Amount
		assert.GreaterOrEqual(t, amount, previous, "spending %d must not reduce the discount", spent)
		previous = amount
	}
	assert.Equal(t, int64(450), previous)
}

func TestConditionHolds(t *testing.T) {
	start := testNow.Add(-24 * time.Hour)
	end := testNow.Add(24 * time.Hour)
	uid := uint(5)
	other := uint(6)

	dctx := DiscountContext{
		UserID:        5,
		Role:          models.RoleBuyer,
		RegisteredAt:  testNow.AddDate(0, -1, 0),
		LifetimeSpent: 5000,
		MonthlyOrders: 3,
		MonthlySpent:  2000,
		Subtotal:      1500,
		ProductIDs:    []uint{10, 11},
		Now:           testNow,
	}

	tests := []struct {
		name     string
		cond     models.DiscountCondition
		expected bool
	}{
		{"role matches", models.DiscountCondition{Kind: models.ConditionRoleEquals, Role: models.RoleBuyer}, true},
		{"empty role is unconstrained", models.DiscountCondition{Kind: models.ConditionRoleEquals}, true},
		{"user matches", models.DiscountCondition{Kind: models.ConditionUserEquals, UserID: &uid}, true},
		{"other user", models.DiscountCondition{Kind: models.ConditionUserEquals, UserID: &other}, false},
		{"lifetime spend reached", models.DiscountCondition{Kind: models.ConditionMinTotalSpent, Amount: 5000}, true},
		{"lifetime spend short", models.DiscountCondition{Kind: models.ConditionMinTotalSpent, Amount: 5001}, false},
		{"order amount reached", models.DiscountCondition{Kind: models.ConditionMinOrderAmount, Amount: 1500}, true},
		{"monthly orders short", models.DiscountCondition{Kind: models.ConditionMonthlyOrdersCount, Count: 4}, false},
		{"monthly spend reached", models.DiscountCondition{Kind: models.ConditionMonthlySpentAmount, Amount: 2000}, true},
		{"registered after", models.DiscountCondition{Kind: models.ConditionRegisteredAfter, StartsAt: &start}, false},
		{"inside window", models.DiscountCondition{Kind: models.ConditionDateWindow, StartsAt: &start, EndsAt: &end}, true},
		{"window start is inclusive", models.DiscountCondition{Kind: models.ConditionDateWindow, StartsAt: &testNow}, true},
		{"window end is exclusive", models.DiscountCondition{Kind: models.ConditionDateWindow, EndsAt: &testNow}, false},
		{"product in cart", models.DiscountCondition{Kind: models.ConditionProductInCart, ProductIDs: models.Int64List{3, 11}}, true},
		{"product not in cart", models.DiscountCondition{Kind: models.ConditionProductInCart, ProductIDs: models.Int64List{3}}, false},
		{"unknown kind", models.DiscountCondition{Kind: "weather"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ConditionHolds(tt.cond, dctx))
		})
	}
}

func TestValidateDiscountRules(t *testing.T) {
	start := testNow
	before := testNow.Add(-time.Hour)

	tests := []struct {
		name  string
		rules []models.DiscountRule
		valid bool
	}{
		{"empty list", nil, true},
		{"valid rules", []models.DiscountRule{
			{Name: "a", Type: models.DiscountPercentage, Value: 100},
			{Name: "b", Type: models.DiscountFixed, Value: 5000},
		}, true},
		{"missing name", []models.DiscountRule{{Type: models.DiscountFixed, Value: 1}}, false},
		{"non-positive value", []models.DiscountRule{{Name: "a", Type: models.DiscountFixed, Value: 0}}, false},
		{"percentage above 100", []models.DiscountRule{{Name: "a", Type: models.DiscountPercentage, Value: 101}}, false},
		{"unknown type", []models.DiscountRule{{Name: "a", Type: "bogus", Value: 1}}, false},
		{"unknown condition", []models.DiscountRule{{Name: "a", Type: models.DiscountFixed, Value: 1,
			Conditions: []models.DiscountCondition{{Kind: "weather"}}}}, false},
		{"negative threshold", []models.DiscountRule{{Name: "a", Type: models.DiscountFixed, Value: 1,
			Conditions: []models.DiscountCondition{{Kind: models.ConditionMinOrderAmount, Amount: -1}}}}, false},
		{"inverted window", []models.DiscountRule{{Name: "a", Type: models.DiscountFixed, Value: 1,
			Conditions: []models.DiscountCondition{{Kind: models.ConditionDateWindow, StartsAt: &start, EndsAt: &before}}}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDiscountRules(tt.rules)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assertServiceError(t, err, ErrValidation, "INVALID_DISCOUNT_RULE")
			}
		})
	}
}
