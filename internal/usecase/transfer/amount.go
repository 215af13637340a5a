package transfer

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// amountPattern accepts partial input as it is typed: "", "1", "1.", ".5", "1.234".
var amountPattern = regexp.MustCompile(`^[0-9]*\.?[0-9]{0,3}$`)

// wireDecimals is the fixed precision signing backends accept.
const wireDecimals = 3

// MatchesAmountPattern reports whether s is acceptable amount text.
func MatchesAmountPattern(s string) bool {
	return amountPattern.MatchString(s)
}

// ParseAmount parses amount text leniently ("1." and ".5" are numbers).
// It never panics; ok is false for anything that is not a finite decimal.
func ParseAmount(s string) (d decimal.Decimal, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == "." {
		return decimal.Zero, false
	}
	if strings.HasPrefix(s, ".") {
		s = "0" + s
	}
	s = strings.TrimSuffix(s, ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// FixAmount renders d with exactly three fractional digits.
func FixAmount(d decimal.Decimal) string {
	return d.StringFixed(wireDecimals)
}
