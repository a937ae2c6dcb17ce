package normalize

import (
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// MaxExponent bounds the base-10 exponent ParseDecimal accepts. Rounding or
// printing a decimal costs time linear in its exponent.
const MaxExponent = 1000

// ParseDecimal parses value, rejecting exponents above MaxExponent. A value
// whose magnitude is below 10^-MaxExponent parses as zero.
func ParseDecimal(value string) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return decimal.Zero, false
	}
	exp := int64(d.Exponent())
	if exp > MaxExponent {
		return decimal.Zero, false
	}
	if exp < -MaxExponent {
		// magnitude < 10^(digits+exp)
		digits := int64(len(new(big.Int).Abs(d.Coefficient()).String()))
		if digits+exp <= -MaxExponent {
			return decimal.Zero, true
		}
	}
	return d, true
}

// Decimal parses value and formats it at the given number of fractional digits.
func Decimal(value string, precision int) (string, bool) {
	d, ok := ParseDecimal(value)
	if !ok {
		return "", false
	}
	return FormatDecimal(d, precision), true
}

// FormatDecimal rounds half to even and drops insignificant trailing zeros.
func FormatDecimal(d decimal.Decimal, precision int) string {
	return d.RoundBank(int32(precision)).String()
}
