package occupancy

import (
	"time"

	"welcome-screen-backend/internal/parse"
)

// Clock supplies the current instant for a resolution pass.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in a fixed location.
type SystemClock struct {
	Location *time.Location
}

// Now implements Clock.
func (c SystemClock) Now() time.Time {
	if c.Location == nil {
		return time.Now()
	}
	return time.Now().In(c.Location)
}

// FixedClock always returns the same instant.
type FixedClock time.Time

// Now implements Clock.
func (c FixedClock) Now() time.Time { return time.Time(c) }

// Today is the calendar date of now, comparable with parse.ParseDate results.
func Today(now time.Time) time.Time {
	return parse.DateOf(now)
}

// TimeOfDay is the offset of now from its local midnight.
func TimeOfDay(now time.Time) time.Duration {
	h, m, s := now.Clock()
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second + time.Duration(now.Nanosecond())
}
