package services

import (
	"fmt"
	"time"

	"github.com/DaniilNightingale/EMPIREsite3/models"
	"github.com/shopspring/decimal"
)

// DiscountContext is everything a discount condition can be evaluated against
type DiscountContext struct {
	UserID        uint
	Role          models.Role
	RegisteredAt  time.Time
	LifetimeSpent int64 // total of the user's non-cancelled orders
	MonthlyOrders int   // orders placed in the trailing 30 days
	MonthlySpent  int64 // spend in the trailing 30 days
	Subtotal      int64
	ProductIDs    []uint
	Now           time.Time
}

// AppliedDiscount describes one rule that matched
type AppliedDiscount struct {
	RuleID uint                `json:"rule_id"`
	Name   string              `json:"name"`
	Type   models.DiscountType `json:"type"`
	Value  float64             `json:"value"`
	Amount int64               `json:"amount"`
}

// DiscountResult is the outcome of evaluating all rules for a subtotal
type DiscountResult struct {
	Amount  int64             `json:"amount"`
	Applied []AppliedDiscount `json:"applied"`
}

// ComputeDiscount sums every applicable rule and clamps the total to [0, subtotal].
// Percentage rules contribute subtotal*value/100, fixed rules contribute value.
func ComputeDiscount(subtotal int64, rules []models.DiscountRule, dctx DiscountContext) DiscountResult {
	result := DiscountResult{Applied: []AppliedDiscount{}}
	if subtotal <= 0 {
		return result
	}

	base := decimal.NewFromInt(subtotal)
	total := decimal.Zero
	for _, rule := range rules {
		if rule.Value <= 0 || !RuleApplies(rule, dctx) {
			continue
		}
		var amount decimal.Decimal
		switch rule.Type {
		case models.DiscountPercentage:
			amount = base.Mul(decimal.NewFromFloat(rule.Value)).Div(decimal.NewFromInt(100))
		case models.DiscountFixed:
			amount = decimal.NewFromFloat(rule.Value)
		default:
			continue
		}
		total = total.Add(amount)
		result.Applied = append(result.Applied, AppliedDiscount{
			RuleID: rule.ID,
			Name:   rule.Name,
			Type:   rule.Type,
			Value:  rule.Value,
			Amount: amount.Round(0).IntPart(),
		})
	}

	if total.GreaterThan(base) {
		total = base
	}
	result.Amount = total.Round(0).IntPart()
	if result.Amount < 0 {
		result.Amount = 0
	}
	return result
}

// RuleApplies reports whether every condition of the rule holds
func RuleApplies(rule models.DiscountRule, dctx DiscountContext) bool {
	for _, cond := range rule.Conditions {
		if !ConditionHolds(cond, dctx) {
			return false
		}
	}
	return true
}

// ConditionHolds evaluates one tagged predicate. Zero-valued parameters are unconstrained.
func ConditionHolds(cond models.DiscountCondition, dctx DiscountContext) bool {
	switch cond.Kind {
	case models.ConditionRoleEquals:
		return cond.Role == "" || cond.Role == dctx.Role
	case models.ConditionUserEquals:
		return cond.UserID == nil || *cond.UserID == 0 || *cond.UserID == dctx.UserID
	case models.ConditionMinTotalSpent:
		return dctx.LifetimeSpent >= cond.Amount
	case models.ConditionMinOrderAmount:
		return dctx.Subtotal >= cond.Amount
	case models.ConditionMonthlyOrdersCount:
		return dctx.MonthlyOrders >= cond.Count
	case models.ConditionMonthlySpentAmount:
		return dctx.MonthlySpent >= cond.Amount
	case models.ConditionRegisteredAfter:
		return cond.StartsAt == nil || dctx.RegisteredAt.After(*cond.StartsAt)
	case models.ConditionDateWindow:
		if cond.StartsAt != nil && dctx.Now.Before(*cond.StartsAt) {
			return false
		}
		if cond.EndsAt != nil && !dctx.Now.Before(*cond.EndsAt) {
			return false
		}
		return true
	case models.ConditionProductInCart:
		if len(cond.ProductIDs) == 0 {
			return true
		}
		for _, id := range dctx.ProductIDs {
			if cond.ProductIDs.Contains(int64(id)) {
				return true
			}
		}
		return false
	}
	return false
}

// ValidateDiscountRules checks the shape of rules before they are saved
func ValidateDiscountRules(rules []models.DiscountRule) error {
	for i, rule := range rules {
		if rule.Name == "" {
			return validationError("INVALID_DISCOUNT_RULE", fmt.Sprintf("discount rule %d: name is required", i+1))
		}
		if rule.Value <= 0 {
			return validationError("INVALID_DISCOUNT_RULE", fmt.Sprintf("discount rule %q: value must be positive", rule.Name))
		}
		switch rule.Type {
		case models.DiscountPercentage:
			if rule.Value > 100 {
				return validationError("INVALID_DISCOUNT_RULE", fmt.Sprintf("discount rule %q: percentage cannot exceed 100", rule.Name))
			}
		case models.DiscountFixed:
		default:
			return validationError("INVALID_DISCOUNT_RULE", fmt.Sprintf("discount rule %q: unknown type %q", rule.Name, rule.Type))
		}
		for _, cond := range rule.Conditions {
			if err := validateCondition(rule.Name, cond); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateCondition(ruleName string, cond models.DiscountCondition) error {
	if !cond.Kind.Valid() {
		return validationError("INVALID_DISCOUNT_RULE", fmt.Sprintf("discount rule %q: unknown condition %q", ruleName, cond.Kind))
	}
	if cond.Amount < 0 || cond.Count < 0 {
		return validationError("INVALID_DISCOUNT_RULE", fmt.Sprintf("discount rule %q: thresholds cannot be negative", ruleName))
	}
	if cond.Kind == models.ConditionRoleEquals && cond.Role != "" && !cond.Role.Valid() {
		return validationError("INVALID_DISCOUNT_RULE", fmt.Sprintf("discount rule %q: unknown role %q", ruleName, cond.Role))
	}
	if cond.Kind == models.ConditionDateWindow && cond.StartsAt != nil && cond.EndsAt != nil && !cond.EndsAt.After(*cond.StartsAt) {
		return validationError("INVALID_DISCOUNT_RULE", fmt.Sprintf("discount rule %q: window end must be after start", ruleName))
	}
	return nil
}
