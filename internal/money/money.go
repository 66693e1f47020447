// Package money holds decimal helpers shared by pricing, settlement and
// persistence: rounding to currency precision and conversion to and from
// PostgreSQL NUMERIC.
package money

import (
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// DefaultDecimals is used when a currency has no configured precision.
const DefaultDecimals int32 = 2

var hundred = decimal.NewFromInt(100)

// Round rounds d half away from zero to the given number of places.
// Only call this at display or settlement boundaries.
func Round(d decimal.Decimal, places int32) decimal.Decimal {
	return d.Round(places)
}

// Percent returns base × pct / 100 without rounding.
func Percent(base, pct decimal.Decimal) decimal.Decimal {
	return base.Mul(pct).Div(hundred)
}

// PercentOf returns part / whole × 100, or zero when whole is zero.
func PercentOf(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Mul(hundred).Div(whole)
}

// ClampZero returns d, or zero when d is negative.
func ClampZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// NormalizeCurrency upper-cases and trims an ISO 4217 code.
func NormalizeCurrency(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ToNumeric converts d to a pgtype.Numeric keeping full precision.
func ToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.String())
	return n
}

// ToNullNumeric returns an invalid Numeric for nil.
func ToNullNumeric(d *decimal.Decimal) pgtype.Numeric {
	if d == nil {
		return pgtype.Numeric{}
	}
	return ToNumeric(*d)
}

// FromNumeric converts n to a decimal. Invalid (NULL) values become zero.
func FromNumeric(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	s, ok := val.(string)
	if !ok {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// FromNullNumeric returns nil for NULL.
func FromNullNumeric(n pgtype.Numeric) *decimal.Decimal {
	if !n.Valid {
		return nil
	}
	d := FromNumeric(n)
	return &d
}
