package occupancy

import (
	"time"

	"welcome-screen-backend/internal/model"
	"welcome-screen-backend/internal/parse"
)

// Classification partitions reservations relative to one calendar day.
// CheckingOut and CheckingIn may overlap with each other and with Other.
// Every slice keeps input order.
type Classification struct {
	Occupying   []model.Reservation
	CheckingOut []model.Reservation
	CheckingIn  []model.Reservation
	Other       []model.Reservation
	// Undated counts the Other records whose start or end date did not parse.
	Undated int
}

// HasTransitionCollision reports a checkout and a check-in on the same day.
func (c Classification) HasTransitionCollision() bool {
	return len(c.CheckingOut) > 0 && len(c.CheckingIn) > 0
}

// Classify sorts records into occupancy states for today. The occupancy
// window is [start, end): the checkout day is not occupied.
func Classify(records []model.Reservation, today time.Time) Classification {
	var c Classification
	for _, r := range records {
		start, errStart := parse.ParseDate(r.StartDate)
		end, errEnd := parse.ParseDate(r.EndDate)
		if errStart != nil || errEnd != nil {
			c.Other = append(c.Other, r)
			c.Undated++
			continue
		}

		if end.Equal(today) {
			c.CheckingOut = append(c.CheckingOut, r)
		}
		if start.Equal(today) {
			c.CheckingIn = append(c.CheckingIn, r)
		}

		if !start.After(today) && today.Before(end) {
			c.Occupying = append(c.Occupying, r)
		} else {
			c.Other = append(c.Other, r)
		}
	}
	return c
}
