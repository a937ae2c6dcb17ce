package normalize

import (
	"math/big"
	"regexp"
	"strings"
)

var trailingZeroFraction = regexp.MustCompile(`\.0+$`)

// TrimZeroFraction removes one trailing ".0+" run, so "42.00" becomes "42"
// while "42.0.0" only loses its last ".0".
func TrimZeroFraction(value string) string {
	return trailingZeroFraction.ReplaceAllString(value, "")
}

// Integer returns the canonical base-10 form of value.
func Integer(value string) (string, bool) {
	n, ok := new(big.Int).SetString(TrimZeroFraction(strings.TrimSpace(value)), 10)
	if !ok {
		return "", false
	}
	return n.String(), true
}
