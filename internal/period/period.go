package period

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MrJamesThe3rd/ledgerly/internal/record"
)

var (
	ErrUnknownPeriod        = errors.New("unknown period")
	ErrInvalidConfiguration = errors.New("invalid period configuration")
)

// Token is a named, calendar-aligned reporting period.
type Token string

const (
	CurrentMonth Token = "current-month"
	LastMonth    Token = "last-month"
	CurrentYear  Token = "current-year"
	LastYear     Token = "last-year"
	Custom       Token = "custom"
)

// Tokens lists every supported token in display order.
var Tokens = []Token{CurrentMonth, LastMonth, CurrentYear, LastYear, Custom}

func (t Token) String() string {
	switch t {
	case CurrentMonth:
		return "Current Month"
	case LastMonth:
		return "Last Month"
	case CurrentYear:
		return "Current Year"
	case LastYear:
		return "Last Year"
	case Custom:
		return "Custom Range"
	}

	return "Unknown"
}

// ParseToken validates a user supplied period name.
func ParseToken(s string) (Token, error) {
	t := Token(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Tokens {
		if t == known {
			return t, nil
		}
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownPeriod, s)
}

// Range carries the explicit bounds of a custom period as date strings.
type Range struct {
	Start string
	End   string
}

const labelLayout = "Jan 2, 2006"

// Interval is a closed range of calendar days.
type Interval struct {
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	StartLabel string    `json:"start_label"`
	EndLabel   string    `json:"end_label"`
}

func newInterval(start, end time.Time) Interval {
	return Interval{
		Start:      start,
		End:        end,
		StartLabel: start.Format(labelLayout),
		EndLabel:   end.Format(labelLayout),
	}
}

// Contains reports whether t falls on a day between Start and End, both
// inclusive. The zero time is never contained.
func (i Interval) Contains(t time.Time) bool {
	if t.IsZero() {
		return false
	}

	day := dayNumber(t)

	return day >= dayNumber(i.Start) && day <= dayNumber(i.End)
}

func dayNumber(t time.Time) int {
	return t.Year()*10000 + int(t.Month())*100 + t.Day()
}

// Resolve turns a token into a concrete interval relative to the current time.
func Resolve(token Token, custom *Range) (Interval, error) {
	return ResolveAt(time.Now(), token, custom)
}

// ResolveAt is Resolve with an explicit reference time.
func ResolveAt(now time.Time, token Token, custom *Range) (Interval, error) {
	loc := now.Location()

	switch token {
	case CurrentMonth:
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
		return newInterval(start, start.AddDate(0, 1, -1)), nil
	case LastMonth:
		start := time.Date(now.Year(), now.Month()-1, 1, 0, 0, 0, 0, loc)
		return newInterval(start, start.AddDate(0, 1, -1)), nil
	case CurrentYear:
		return newInterval(
			time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, loc),
			time.Date(now.Year(), time.December, 31, 0, 0, 0, 0, loc),
		), nil
	case LastYear:
		return newInterval(
			time.Date(now.Year()-1, time.January, 1, 0, 0, 0, 0, loc),
			time.Date(now.Year()-1, time.December, 31, 0, 0, 0, 0, loc),
		), nil
	case Custom:
		return resolveCustom(custom)
	}

	return Interval{}, fmt.Errorf("%w: %q", ErrUnknownPeriod, string(token))
}

// resolveCustom does not check that start precedes end; a reversed range
// simply matches nothing.
func resolveCustom(custom *Range) (Interval, error) {
	if custom == nil || strings.TrimSpace(custom.Start) == "" || strings.TrimSpace(custom.End) == "" {
		return Interval{}, fmt.Errorf("%w: custom period requires start and end dates", ErrInvalidConfiguration)
	}

	start, ok := record.ParseDate(custom.Start)
	if !ok {
		return Interval{}, fmt.Errorf("%w: invalid start date %q", ErrInvalidConfiguration, custom.Start)
	}

	end, ok := record.ParseDate(custom.End)
	if !ok {
		return Interval{}, fmt.Errorf("%w: invalid end date %q", ErrInvalidConfiguration, custom.End)
	}

	return newInterval(start, end), nil
}

// FormatLabel returns the human readable name of a resolved period.
func FormatLabel(token Token, interval Interval) string {
	switch token {
	case CurrentMonth, LastMonth:
		return fmt.Sprintf("%s %d", interval.Start.Month(), interval.Start.Year())
	case CurrentYear, LastYear:
		return fmt.Sprintf("%d", interval.Start.Year())
	}

	return interval.StartLabel + " - " + interval.EndLabel
}
