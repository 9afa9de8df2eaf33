package record

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// dateLayouts are tried in order by ParseDate.
var dateLayouts = []string{
	time.DateOnly,
	time.RFC3339,
	time.DateTime,
	"2006-01-02T15:04:05",
	"01/02/2006",
}

// ParseAmount parses a monetary amount leniently. Currency symbols, spaces and
// thousands separators are ignored, and a parenthesised value is negative.
// It returns false when nothing numeric could be read; the amount is then zero.
func ParseAmount(s string) (decimal.Decimal, bool) {
	clean := strings.TrimSpace(s)
	if clean == "" {
		return decimal.Zero, false
	}

	negative := false
	if strings.HasPrefix(clean, "(") && strings.HasSuffix(clean, ")") {
		negative = true
		clean = clean[1 : len(clean)-1]
	}

	clean = strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r == '.', r == '-':
			return r
		case r == ',', r == '+', r == '$', r == '€', r == '£', r == ' ':
			return -1
		}

		return r
	}, clean)

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, false
	}

	if negative {
		d = d.Neg()
	}

	return d, true
}

// ParseDate parses a calendar date from any of the layouts the upstream
// systems are known to emit. Times are dropped and the date is returned at
// midnight UTC.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}

		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
	}

	return time.Time{}, false
}

// FirstDate returns the first of the candidate strings that parses as a date.
func FirstDate(candidates ...string) (time.Time, bool) {
	for _, c := range candidates {
		if t, ok := ParseDate(c); ok {
			return t, true
		}
	}

	return time.Time{}, false
}

// FirstNonEmpty returns the first candidate that is not blank, trimmed.
func FirstNonEmpty(candidates ...string) string {
	for _, c := range candidates {
		if v := strings.TrimSpace(c); v != "" {
			return v
		}
	}

	return ""
}
