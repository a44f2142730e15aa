package config

import (
	"os"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultTaxRate is the GST percentage snapshotted onto new job sheets.
//
// Set via env:
// - GST_RATE=9
func DefaultTaxRate() decimal.Decimal {
	return decimalFromEnv("GST_RATE", decimal.NewFromInt(9))
}

// SaleMarkup multiplies the supplier cost price of allocated stock.
//
// Set via env:
// - SALE_MARKUP=1.5
func SaleMarkup() decimal.Decimal {
	return decimalFromEnv("SALE_MARKUP", decimal.NewFromFloat(1.5))
}

// AuthRequired is false only when AUTH_DISABLED is truthy (local development).
func AuthRequired() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("AUTH_DISABLED")))
	return !(v == "1" || v == "true" || v == "yes" || v == "y")
}

// CountryCode is the default region for parsing customer phone numbers.
func CountryCode() string {
	v := strings.ToUpper(strings.TrimSpace(os.Getenv("PHONE_COUNTRY_CODE")))
	if v == "" {
		return "SG"
	}
	return v
}

// ShopTimezone is used to bucket report figures by calendar day.
func ShopTimezone() string {
	v := strings.TrimSpace(os.Getenv("SHOP_TIMEZONE"))
	if v == "" {
		return "Asia/Singapore"
	}
	return v
}

func decimalFromEnv(key string, def decimal.Decimal) decimal.Decimal {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := decimal.NewFromString(v)
	if err != nil || d.IsNegative() {
		return def
	}
	return d
}
