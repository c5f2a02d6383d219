package occupancy

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// Table is a tabular source of reservation rows.
type Table interface {
	// Columns returns the declared header names in source order.
	Columns() []string
	// Rows returns each data row keyed by column name, in source order.
	Rows() []map[string]string
}

// CSVTable is a Table read from CSV text.
type CSVTable struct {
	columns []string
	rows    []map[string]string
}

// Columns implements Table.
func (t *CSVTable) Columns() []string { return t.columns }

// Rows implements Table.
func (t *CSVTable) Rows() []map[string]string { return t.rows }

// ReadCSV parses CSV text with a header row into a CSVTable.
// Cells are trimmed; short rows are padded with empty strings and extra
// cells beyond the header are ignored.
func ReadCSV(r io.Reader) (*CSVTable, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return &CSVTable{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	table := &CSVTable{columns: header}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv row: %w", err)
		}

		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = strings.TrimSpace(record[i])
			} else {
				row[col] = ""
			}
		}
		table.rows = append(table.rows, row)
	}
	return table, nil
}

// ParseCSV reads CSV text held in memory.
func ParseCSV(data string) (*CSVTable, error) {
	return ReadCSV(strings.NewReader(data))
}
