package analytics

import (
	"strings"

	"github.com/shopspring/decimal"
)

var (
	thousand = decimal.NewFromInt(1_000)
	million  = decimal.NewFromInt(1_000_000)
	billion  = decimal.NewFromInt(1_000_000_000)
)

// categoryCodes maps display categories to the provider's numeric category ids.
var categoryCodes = map[string]int{
	"general":       0,
	"business":      12,
	"entertainment": 24,
	"health":        45,
	"science":       28,
	"sports":        17,
	"technology":    19,
	"gaming":        20,
}

// ParseViewCount normalises strings such as "1.2K views" or "3M" into an integer count.
// Unparsable input yields 0.
func ParseViewCount(input string) int64 {
	if input == "" {
		return 0
	}

	cleaned := cleanViewCount(input)
	number, ok := leadingDecimal(cleaned)
	if !ok {
		return 0
	}

	switch {
	case strings.Contains(cleaned, "k"):
		number = number.Mul(thousand)
	case strings.Contains(cleaned, "m"):
		number = number.Mul(million)
	case strings.Contains(cleaned, "b"):
		number = number.Mul(billion)
	}

	return toCount(number)
}

// CategoryToCode resolves a category name to its provider code; unknown names map to general (0).
func CategoryToCode(category string) int {
	return categoryCodes[strings.ToLower(category)]
}

// KnownCategory reports whether the category has an explicit code.
func KnownCategory(category string) bool {
	_, ok := categoryCodes[strings.ToLower(category)]
	return ok
}

func cleanViewCount(input string) string {
	var b strings.Builder
	b.Grow(len(input))
	for _, r := range strings.ToLower(input) {
		switch {
		case r >= '0' && r <= '9', r == '.', r == 'k', r == 'm', r == 'b':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// leadingDecimal parses the longest "digits[.digits]" prefix of s.
func leadingDecimal(s string) (decimal.Decimal, bool) {
	end := 0
	digits := 0
	seenDot := false
	for end < len(s) {
		c := s[end]
		if c >= '0' && c <= '9' {
			digits++
		} else if c == '.' && !seenDot {
			seenDot = true
		} else {
			break
		}
		end++
	}
	if digits == 0 {
		return decimal.Zero, false
	}

	prefix := strings.TrimSuffix(s[:end], ".")
	if strings.HasPrefix(prefix, ".") {
		prefix = "0" + prefix
	}

	value, err := decimal.NewFromString(prefix)
	if err != nil {
		return decimal.Zero, false
	}
	return value, true
}
