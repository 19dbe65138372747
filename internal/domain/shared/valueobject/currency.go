// Package valueobject holds the immutable money values shared by the cart,
// order and invoice aggregates.
package valueobject

import (
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// Currency is an ISO 4217 code
type Currency string

// Currencies with a registered price symbol
const (
	USD Currency = "USD"
	EUR Currency = "EUR"
	GBP Currency = "GBP"
	JPY Currency = "JPY"
	CNY Currency = "CNY"
	RUB Currency = "RUB"
)

// DefaultCurrency prices the catalog unless configured otherwise
const DefaultCurrency = USD

// ParseCurrency validates an ISO 4217 code and upper-cases it
func ParseCurrency(code string) (Currency, error) {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return "", fmt.Errorf("invalid currency code %q: %w", code, err)
	}
	return Currency(unit.String()), nil
}

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// LineTotal is unitPrice x quantity, less a fractional discount (0.1 is
// 10% off). Amounts stay exact; rounding happens only in ToMinorUnits.
func LineTotal(unitPrice decimal.Decimal, quantity int, discount decimal.Decimal) decimal.Decimal {
	total := unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
	if discount.IsZero() {
		return total
	}
	return total.Mul(one.Sub(discount))
}

// ToMinorUnits converts an amount to whole cents, rounding half away from
// zero. Payment providers bill in minor units.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}
