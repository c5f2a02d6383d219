package occupancy

import (
	"strings"

	"welcome-screen-backend/internal/model"
	"welcome-screen-backend/internal/parse"
)

// Column names of the reservations export. Matching is exact and case-sensitive.
const (
	ColumnStatus           = "Status"
	ColumnStartDate        = "Start date"
	ColumnEndDate          = "End date"
	ColumnGuestName        = "Guest name"
	ColumnConfirmationCode = "Confirmation code"
)

var requiredColumns = []string{ColumnStartDate, ColumnGuestName}

// Ingest validates a table and converts its rows into reservations.
//
// A table without the start date or guest name column is rejected as a whole.
// Rows missing a start date, a guest name or a usable first name are skipped.
// Status is carried along but never used to filter.
func Ingest(src Table) ([]model.Reservation, error) {
	columns := src.Columns()
	present := make(map[string]bool, len(columns))
	for _, c := range columns {
		present[c] = true
	}

	var missing []string
	for _, c := range requiredColumns {
		if !present[c] {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingColumnsError{Missing: missing, Found: columns}
	}

	var records []model.Reservation
	for _, row := range src.Rows() {
		start := strings.TrimSpace(row[ColumnStartDate])
		guest := strings.TrimSpace(row[ColumnGuestName])
		if start == "" || guest == "" {
			continue
		}
		first := parse.FirstName(guest)
		if first == "" {
			continue
		}

		records = append(records, model.Reservation{
			StartDate:        start,
			EndDate:          strings.TrimSpace(row[ColumnEndDate]),
			FullName:         guest,
			FirstName:        first,
			Status:           strings.TrimSpace(row[ColumnStatus]),
			ConfirmationCode: strings.TrimSpace(row[ColumnConfirmationCode]),
		})
	}
	return records, nil
}

// IngestCSV parses CSV text and ingests it. It also returns the number of
// data rows that were skipped.
func IngestCSV(data string) ([]model.Reservation, int, error) {
	table, err := ParseCSV(data)
	if err != nil {
		return nil, 0, err
	}
	records, err := Ingest(table)
	if err != nil {
		return nil, 0, err
	}
	return records, len(table.Rows()) - len(records), nil
}
