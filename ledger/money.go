package ledger

import "github.com/shopspring/decimal"

// MoneyPlaces is the number of decimal places amounts are stored with.
const MoneyPlaces = 2

// Tolerance is the maximum difference at which two amounts are equal.
var Tolerance = decimal.New(1, -MoneyPlaces)

// RoundMoney rounds to cents, half away from zero.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

// ApproxEqual reports whether a and b differ by at most Tolerance.
func ApproxEqual(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(Tolerance)
}

// MustParseMoney parses s or panics. Intended for seeds and tests.
func MustParseMoney(s string) decimal.Decimal {
	return RoundMoney(decimal.RequireFromString(s))
}

func sumDecimals(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}
