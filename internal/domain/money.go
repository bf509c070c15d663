package domain

import (
	"github.com/shopspring/decimal" // Exact decimal arithmetic
)

// Money columns are decimal(12,2)
const (
	MoneyScale     = 2  // Digits after the point
	MoneyPrecision = 12 // Total digits
)

// moneyLimit is the first value with too many integer digits
var moneyLimit = decimal.New(1, MoneyPrecision-MoneyScale)

// ValidMoney reports whether d is stored by a money column exactly, with no
// rounding and no overflow
func ValidMoney(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(MoneyScale)) && d.Abs().LessThan(moneyLimit)
}
