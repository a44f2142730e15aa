package utils

import "github.com/shopspring/decimal"

var decimalOneHundred = decimal.NewFromInt(100)

// CalculateTaxAmount applies a tax-exclusive percentage rate.
// No rounding happens here; callers round at the presentation boundary.
func CalculateTaxAmount(taxableAmount decimal.Decimal, taxRate decimal.Decimal) decimal.Decimal {
	if taxRate.IsZero() || taxableAmount.IsZero() {
		return decimal.Zero
	}
	return taxableAmount.Mul(taxRate).Div(decimalOneHundred)
}

// SumDecimals adds values without intermediate rounding.
func SumDecimals(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// FormatMoney renders an amount with two fraction digits (half away from zero).
func FormatMoney(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}
