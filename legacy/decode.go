package legacy

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/DaniilNightingale/EMPIREsite3/models"
)

// number accepts JSON numbers, numeric strings, "" and null
type number float64

func (n *number) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	s = strings.Trim(s, `"`)
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("not a number: %s", s)
	}
	*n = number(f)
	return nil
}

func (n number) round() int64 {
	return int64(math.Round(float64(n)))
}

type priceOptionJSON struct {
	Size    string  `json:"size"`
	Price   number  `json:"price"`
	ResinML *number `json:"resin_ml"`
}

type orderItemJSON struct {
	ID           number           `json:"id"`
	Name         string           `json:"name"`
	Quantity     number           `json:"quantity"`
	Price        number           `json:"price"`
	SelectedSize *priceOptionJSON `json:"selectedSize"`
}

type discountRuleJSON struct {
	Name       string             `json:"name"`
	Type       string             `json:"type"`
	Value      number             `json:"value"`
	Conditions discountConditions `json:"conditions"`
}

type discountConditions struct {
	MinTotalSpent         number   `json:"min_total_spent"`
	Role                  string   `json:"role"`
	RegistrationDateAfter string   `json:"registration_date_after"`
	MinOrderAmount        number   `json:"min_order_amount"`
	MonthlyOrdersCount    number   `json:"monthly_orders_count"`
	MonthlySpentAmount    number   `json:"monthly_spent_amount"`
	StartDate             string   `json:"start_date"`
	EndDate               string   `json:"end_date"`
	UserID                number   `json:"user_id"`
	ProductIDs            []number `json:"product_ids"`
}

// decodeJSON unmarshals a nullable TEXT column. NULL and blank values leave dst untouched.
func decodeJSON(raw sql.NullString, dst interface{}) error {
	if !raw.Valid || strings.TrimSpace(raw.String) == "" {
		return nil
	}
	return json.Unmarshal([]byte(raw.String), dst)
}

// decodeStringList reads a JSON array of scalars into a StringList, dropping blanks
func decodeStringList(raw sql.NullString) (models.StringList, error) {
	var values []interface{}
	if err := decodeJSON(raw, &values); err != nil {
		return models.StringList{}, err
	}
	out := models.StringList{}
	for _, v := range values {
		var s string
		switch val := v.(type) {
		case string:
			s = strings.TrimSpace(val)
		case float64:
			s = strconv.FormatFloat(val, 'f', -1, 64)
		case nil:
			continue
		default:
			return models.StringList{}, fmt.Errorf("unexpected list element %v", v)
		}
		if s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}

// decodeIDList reads a JSON array of ids that may be numbers or numeric strings
func decodeIDList(raw sql.NullString) ([]uint, error) {
	var values []number
	if err := decodeJSON(raw, &values); err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(values))
	for _, v := range values {
		if id := v.round(); id > 0 {
			ids = append(ids, uint(id))
		}
	}
	return ids, nil
}

// parseDate accepts the date-only format of the old admin form and RFC 3339
func parseDate(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04"} {
		if t, err := time.Parse(layout, value); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("unrecognized date %q", value)
}

// toDiscountRule converts the flat condition object into tagged conditions.
// Only the conditions that were actually set become predicates.
func (r discountRuleJSON) toDiscountRule(position int) (models.DiscountRule, error) {
	rule := models.DiscountRule{
		SettingsID: models.SettingsID,
		Position:   position,
		Name:       strings.TrimSpace(r.Name),
		Type:       models.DiscountType(r.Type),
		Value:      float64(r.Value),
	}
	if rule.Name == "" {
		return rule, fmt.Errorf("rule has no name")
	}

	c := r.Conditions
	var conds []models.DiscountCondition
	if c.MinTotalSpent > 0 {
		conds = append(conds, models.DiscountCondition{Kind: models.ConditionMinTotalSpent, Amount: c.MinTotalSpent.round()})
	}
	if role := models.Role(strings.TrimSpace(c.Role)); role != "" {
		if !role.Valid() {
			return rule, fmt.Errorf("unknown role %q", role)
		}
		conds = append(conds, models.DiscountCondition{Kind: models.ConditionRoleEquals, Role: role})
	}
	registered, err := parseDate(c.RegistrationDateAfter)
	if err != nil {
		return rule, err
	}
	if registered != nil {
		conds = append(conds, models.DiscountCondition{Kind: models.ConditionRegisteredAfter, StartsAt: registered})
	}
	if c.MinOrderAmount > 0 {
		conds = append(conds, models.DiscountCondition{Kind: models.ConditionMinOrderAmount, Amount: c.MinOrderAmount.round()})
	}
	if c.MonthlyOrdersCount > 0 {
		conds = append(conds, models.DiscountCondition{Kind: models.ConditionMonthlyOrdersCount, Count: int(c.MonthlyOrdersCount.round())})
	}
	if c.MonthlySpentAmount > 0 {
		conds = append(conds, models.DiscountCondition{Kind: models.ConditionMonthlySpentAmount, Amount: c.MonthlySpentAmount.round()})
	}
	starts, err := parseDate(c.StartDate)
	if err != nil {
		return rule, err
	}
	ends, err := parseDate(c.EndDate)
	if err != nil {
		return rule, err
	}
	if ends != nil && len(strings.TrimSpace(c.EndDate)) == len("2006-01-02") {
		// A bare end date covers that whole day.
		next := ends.AddDate(0, 0, 1)
		ends = &next
	}
	if starts != nil || ends != nil {
		conds = append(conds, models.DiscountCondition{Kind: models.ConditionDateWindow, StartsAt: starts, EndsAt: ends})
	}
	if id := c.UserID.round(); id > 0 {
		uid := uint(id)
		conds = append(conds, models.DiscountCondition{Kind: models.ConditionUserEquals, UserID: &uid})
	}
	if len(c.ProductIDs) > 0 {
		ids := make(models.Int64List, 0, len(c.ProductIDs))
		for _, p := range c.ProductIDs {
			if id := p.round(); id > 0 {
				ids = append(ids, id)
			}
		}
		if len(ids) > 0 {
			conds = append(conds, models.DiscountCondition{Kind: models.ConditionProductInCart, ProductIDs: ids})
		}
	}
	rule.Conditions = conds
	return rule, nil
}
