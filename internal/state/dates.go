package state

import (
	"fmt"
	"time"
)

// DateLayout is the ISO calendar-date layout used for every date key.
const DateLayout = "2006-01-02"

// FormatDate renders a time as an ISO date key.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate parses an ISO date key.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

// IterateDates returns every date key in [start, end] inclusive, in order.
// An invalid or inverted range yields nil.
func IterateDates(start, end string) []string {
	from, err := time.Parse(DateLayout, start)
	if err != nil {
		return nil
	}
	to, err := time.Parse(DateLayout, end)
	if err != nil {
		return nil
	}
	var dates []string
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d.Format(DateLayout))
	}
	return dates
}

// MonthBounds returns the first and last date keys of t's calendar month.
func MonthBounds(t time.Time) (string, string) {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	return first.Format(DateLayout), last.Format(DateLayout)
}
