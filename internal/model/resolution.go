package model

// Rule identifies which selection rule chose the displayed guest.
type Rule string

const (
	RuleCheckoutBeforeCutoff Rule = "checkout_before_cutoff"
	RuleCheckinAfterCutoff   Rule = "checkin_after_cutoff"
	RuleOccupying            Rule = "occupying"
	RuleFallbackReservation  Rule = "fallback_reservation"
	RuleVacant               Rule = "vacant"
)

// Resolution is the outcome of one guest selection pass.
type Resolution struct {
	FirstName   string       `json:"first_name"`
	FullName    string       `json:"full_name"`
	Rule        Rule         `json:"rule"`
	Reason      string       `json:"reason"`
	ActiveCount int          `json:"active_count"`
	Reservation *Reservation `json:"reservation,omitempty"`
}

// Vacant reports whether the sentinel guest was selected.
func (r Resolution) Vacant() bool {
	return r.Rule == RuleVacant
}
