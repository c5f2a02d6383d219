package parse

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrMalformedDate is returned when a date token matches none of the accepted layouts.
var ErrMalformedDate = errors.New("malformed date")

// dateLayouts are tried in order. The single-digit layout elements also
// accept zero-padded input, so "06/01/2025" and "6/1/2025" both parse.
var dateLayouts = []string{
	"1/2/2006",
	"2006-1-2",
}

// ParseDate converts a reservation date token into a calendar date at UTC midnight.
func ParseDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty value", ErrMalformedDate)
	}
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedDate, raw)
}

// DateOf returns the calendar date of t in its own location, as UTC midnight,
// so it compares directly with ParseDate results.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
