package occupancy

import (
	"fmt"
	"time"

	"welcome-screen-backend/internal/model"
)

// outcome is what a matching rule decided. A nil record means vacant.
type outcome struct {
	rule   model.Rule
	record *model.Reservation
	reason string
}

// rule inspects a classification and reports whether it applies.
type rule struct {
	name  string
	apply func(p Policy, c Classification, tod time.Duration) (outcome, bool)
}

// rules are evaluated top to bottom; the first match wins. Within a bucket
// the first record in ingest order is chosen.
var rules = []rule{
	{name: "transition", apply: transitionRule},
	{name: "occupying", apply: occupyingRule},
	{name: "fallback", apply: fallbackRule},
	{name: "vacant", apply: vacantRule},
}

// transitionRule arbitrates a checkout and a check-in on the same day:
// the departing guest keeps the screen until the cutoff.
func transitionRule(p Policy, c Classification, tod time.Duration) (outcome, bool) {
	if !c.HasTransitionCollision() {
		return outcome{}, false
	}
	if tod < p.CheckinCutoff {
		r := c.CheckingOut[0]
		return outcome{
			rule:   model.RuleCheckoutBeforeCutoff,
			record: &r,
			reason: fmt.Sprintf("checkout day before cutoff %s (ends: %s)", formatTimeOfDay(p.CheckinCutoff), r.EndDate),
		}, true
	}
	r := c.CheckingIn[0]
	return outcome{
		rule:   model.RuleCheckinAfterCutoff,
		record: &r,
		reason: fmt.Sprintf("check-in day after cutoff %s (starts: %s)", formatTimeOfDay(p.CheckinCutoff), r.StartDate),
	}, true
}

func occupyingRule(_ Policy, c Classification, _ time.Duration) (outcome, bool) {
	if len(c.Occupying) == 0 {
		return outcome{}, false
	}
	r := c.Occupying[0]
	return outcome{
		rule:   model.RuleOccupying,
		record: &r,
		reason: fmt.Sprintf("currently occupying (dates: %s to %s)", r.StartDate, r.EndDate),
	}, true
}

// fallbackRule shows a future or past reservation when nobody is in
// residence. Policy.ShowReservationWhenVacant turns it off.
func fallbackRule(p Policy, c Classification, _ time.Duration) (outcome, bool) {
	if !p.ShowReservationWhenVacant || len(c.Other) == 0 {
		return outcome{}, false
	}
	r := c.Other[0]
	return outcome{
		rule:   model.RuleFallbackReservation,
		record: &r,
		reason: "future or past reservation, no active occupant; showing a name anyway for continuity",
	}, true
}

func vacantRule(_ Policy, _ Classification, _ time.Duration) (outcome, bool) {
	return outcome{rule: model.RuleVacant, reason: "no active occupants"}, true
}

func formatTimeOfDay(d time.Duration) string {
	return fmt.Sprintf("%02d:%02d", int(d.Hours()), int(d.Minutes())%60)
}
