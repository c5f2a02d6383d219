package occupancy

import (
	"time"

	"welcome-screen-backend/internal/model"
)

// VacantFullName is reported as the full name of the vacant sentinel.
const VacantFullName = "Property vacant"

// Policy holds the tunables of guest selection. The zero Policy is not
// DefaultPolicy: it has a midnight cutoff, so the arriving guest always wins a
// transition day, and it never shows a reservation in place of the sentinel.
type Policy struct {
	// CheckinCutoff is the time of day at which an arriving guest replaces
	// a departing one on a transition day.
	CheckinCutoff time.Duration
	// VacantName is displayed when nobody is selected.
	VacantName string
	// ShowReservationWhenVacant lets a future or past reservation win over
	// the vacant sentinel when nobody is in residence.
	ShowReservationWhenVacant bool
}

// DefaultPolicy uses an 11:00 cutoff and "Guest" as the sentinel.
var DefaultPolicy = Policy{
	CheckinCutoff:             11 * time.Hour,
	VacantName:                "Guest",
	ShowReservationWhenVacant: true,
}

// Resolver picks the guest to display.
type Resolver struct {
	Policy Policy
}

// NewResolver returns a Resolver for p, filling an empty sentinel name. The
// other fields are used as given; start from DefaultPolicy to change one.
func NewResolver(p Policy) *Resolver {
	if p.VacantName == "" {
		p.VacantName = DefaultPolicy.VacantName
	}
	return &Resolver{Policy: p}
}

// Resolve classifies records against the clock and selects one guest.
// It is pure given its inputs.
func (r *Resolver) Resolve(records []model.Reservation, clock Clock) model.Resolution {
	now := clock.Now()
	return r.Decide(Classify(records, Today(now)), TimeOfDay(now))
}

// Decide applies the rule table to an existing classification.
func (r *Resolver) Decide(c Classification, tod time.Duration) model.Resolution {
	for _, rl := range rules {
		out, ok := rl.apply(r.Policy, c, tod)
		if !ok {
			continue
		}
		res := model.Resolution{
			Rule:        out.rule,
			Reason:      out.reason,
			ActiveCount: len(c.Occupying),
			Reservation: out.record,
		}
		if out.record == nil {
			res.FirstName = r.Policy.VacantName
			res.FullName = VacantFullName
		} else {
			res.FirstName = out.record.FirstName
			res.FullName = out.record.FullName
		}
		return res
	}
	// vacantRule always matches.
	panic("occupancy: rule table has no terminal rule")
}

// Resolve selects the guest to display with DefaultPolicy.
func Resolve(records []model.Reservation, clock Clock) model.Resolution {
	return NewResolver(DefaultPolicy).Resolve(records, clock)
}
