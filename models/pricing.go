package models

import (
	"github.com/motoworks/workshop_backend/config"
	"github.com/shopspring/decimal"
)

// PricingStrategy derives the sale price of allocated stock from its cost.
type PricingStrategy interface {
	SalePrice(cost decimal.Decimal) decimal.Decimal
}

type PricingFunc func(cost decimal.Decimal) decimal.Decimal

func (f PricingFunc) SalePrice(cost decimal.Decimal) decimal.Decimal {
	return f(cost)
}

// MarkupPricing multiplies cost by a fixed multiplier.
func MarkupPricing(multiplier decimal.Decimal) PricingStrategy {
	return PricingFunc(func(cost decimal.Decimal) decimal.Decimal {
		return cost.Mul(multiplier)
	})
}

// DefaultPricing uses the configured sale markup (1.5 unless overridden).
func DefaultPricing() PricingStrategy {
	return MarkupPricing(config.SaleMarkup())
}
