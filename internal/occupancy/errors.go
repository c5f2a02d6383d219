package occupancy

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingColumns matches any MissingColumnsError with errors.Is.
var ErrMissingColumns = errors.New("missing required columns")

// MissingColumnsError reports a source that lacks required headers.
type MissingColumnsError struct {
	Missing []string
	Found   []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("%v: %s (found: %s)", ErrMissingColumns,
		strings.Join(quoteAll(e.Missing), ", "), strings.Join(quoteAll(e.Found), ", "))
}

// Is lets errors.Is(err, ErrMissingColumns) succeed.
func (e *MissingColumnsError) Is(target error) bool {
	return target == ErrMissingColumns
}

// AsMissingColumns extracts a MissingColumnsError from err, or returns nil.
func AsMissingColumns(err error) *MissingColumnsError {
	if err == nil {
		return nil
	}

	var mc *MissingColumnsError
	if errors.As(err, &mc) {
		return mc
	}

	return nil
}

func quoteAll(items []string) []string {
	out := make([]string, len(items))
	for i, s := range items {
		out[i] = fmt.Sprintf("%q", s)
	}
	return out
}
