package services

import (
	"math"

	"github.com/DaniilNightingale/EMPIREsite3/models"
	"github.com/shopspring/decimal"
)

var (
	referenceCoefficient = decimal.NewFromFloat(models.ReferenceCoefficient)
	maxAmount            = decimal.NewFromInt(math.MaxInt64)
)

// ComputeChargedPrice converts a stored base price into the price charged under the
// given coefficient: round(basePrice / 5.25 * coefficient). The multiplication is done
// before the division so results that land exactly on .5 stay exact and round up.
func ComputeChargedPrice(basePrice int64, coefficient float64) int64 {
	return chargedPrice(basePrice, coefficient).IntPart()
}

func chargedPrice(basePrice int64, coefficient float64) decimal.Decimal {
	return decimal.NewFromInt(basePrice).
		Mul(decimal.NewFromFloat(coefficient)).
		Div(referenceCoefficient).
		Round(0)
}

// PriceOptionsForDisplay returns copies of the options with prices converted under the
// coefficient. The admin-only resin quantity is dropped unless includeAdminFields is set.
func PriceOptionsForDisplay(options []models.PriceOption, coefficient float64, includeAdminFields bool) []models.PriceOption {
	out := make([]models.PriceOption, 0, len(options))
	for _, opt := range options {
		shown := opt
		shown.Price = ComputeChargedPrice(opt.Price, coefficient)
		if !includeAdminFields {
			shown.ResinML = nil
		}
		out = append(out, shown)
	}
	return out
}

// ApplyCurrentPrices decorates an order with prices recomputed from the current
// coefficient. Stored prices and totals are left untouched.
func ApplyCurrentPrices(order *models.Order, coefficient float64) {
	var subtotal int64
	for i := range order.LineItems {
		item := &order.LineItems[i]
		item.CurrentPrice = ComputeChargedPrice(item.BasePrice, coefficient)
		subtotal += item.CurrentPrice * int64(item.Quantity)
	}
	order.CurrentSubtotal = subtotal
}
