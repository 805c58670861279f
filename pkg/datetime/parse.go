// Package datetime provides date utility functions.
package datetime

import (
	"fmt"
	"time"

	"github.com/iwvelando/household-tax/pkg/constants"
)

const (
	// DateLayout is the format expected in config files and request payloads.
	DateLayout = constants.DateLayout
)

// MonthDay is a recurring calendar date, e.g. a statutory filing deadline.
type MonthDay struct {
	Month time.Month
	Day   int
}

// String renders the month-day as MM-DD.
func (md MonthDay) String() string {
	return fmt.Sprintf("%02d-%02d", int(md.Month), md.Day)
}

// In returns the month-day in the given year at midnight in loc.
func (md MonthDay) In(year int, loc *time.Location) time.Time {
	return time.Date(year, md.Month, md.Day, 0, 0, 0, 0, loc)
}

// ParseMonthDay parses an MM-DD string.
func ParseMonthDay(s string) (MonthDay, error) {
	t, err := time.Parse(constants.MonthDayLayout, s)
	if err != nil {
		return MonthDay{}, fmt.Errorf("invalid month-day %q (expected MM-DD): %w", s, err)
	}
	return MonthDay{Month: t.Month(), Day: t.Day()}, nil
}

// MustParseDate parses a YYYY-MM-DD string and panics on error.
// This is intended for use in tests where the date string is known to be valid.
func MustParseDate(dateStr string) time.Time {
	t, err := time.Parse(DateLayout, dateStr)
	if err != nil {
		panic(err)
	}
	return t
}

// ParseDate parses a YYYY-MM-DD string. An empty string yields the zero time.
func ParseDate(dateStr string) (time.Time, error) {
	if dateStr == "" {
		return time.Time{}, nil
	}
	return time.Parse(DateLayout, dateStr)
}

// DateOnly truncates t to midnight in its own location.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DaysBetween returns the number of whole calendar days from a to b. It is
// negative when b is before a.
func DaysBetween(a, b time.Time) int {
	a = DateOnly(a)
	b = time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, a.Location())
	// Round rather than truncate so DST shifts do not lose a day.
	return int(b.Sub(a).Round(24*time.Hour) / (24 * time.Hour))
}

// NextDeadline returns the earliest deadline falling on or after from.
// ok is false when deadlines is empty.
func NextDeadline(from time.Time, deadlines []MonthDay) (next time.Time, ok bool) {
	from = DateOnly(from)
	for _, year := range []int{from.Year(), from.Year() + 1} {
		for _, md := range deadlines {
			candidate := md.In(year, from.Location())
			if candidate.Before(from) {
				continue
			}
			if !ok || candidate.Before(next) {
				next = candidate
				ok = true
			}
		}
		if ok {
			return next, true
		}
	}
	return next, ok
}
