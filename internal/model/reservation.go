package model

// Reservation is one validated row of the reservations export.
// Dates are kept as the raw tokens from the source; they are parsed when
// the record is classified so an unparsable end date only demotes the record.
type Reservation struct {
	StartDate        string `json:"start_date"`
	EndDate          string `json:"end_date"`
	FullName         string `json:"full_name"`
	FirstName        string `json:"first_name"`
	Status           string `json:"status"`
	ConfirmationCode string `json:"confirmation_code"`
}
