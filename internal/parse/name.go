package parse

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	// DefaultCity is the place named in the full welcome message.
	DefaultCity = "Seattle"
	// DefaultLimit is the longest title the welcome screen accepts.
	DefaultLimit = 40

	shortSuffix = ", Welcome!"
	bareWelcome = "Welcome!"
)

// FirstName returns the first whitespace-separated token of a full guest name.
// A name without tokens comes back trimmed.
func FirstName(fullName string) string {
	s := strings.TrimSpace(fullName)
	if parts := strings.Fields(s); len(parts) > 0 {
		return parts[0]
	}
	return s
}

// Composer renders welcome messages that fit a character budget.
type Composer struct {
	City  string
	Limit int
}

// DefaultComposer matches the welcome screen's 40 character title limit.
var DefaultComposer = Composer{City: DefaultCity, Limit: DefaultLimit}

// Compose builds the welcome message for firstName, degrading in order:
// the full greeting, the short greeting, the short greeting with a truncated
// name, and finally a bare "Welcome!". Lengths are counted in runes.
func (c Composer) Compose(firstName string) string {
	city := c.City
	if city == "" {
		city = DefaultCity
	}
	limit := c.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	if firstName == "" {
		return bareWelcome
	}

	message := fmt.Sprintf("%s, Welcome to %s!", firstName, city)
	if utf8.RuneCountInString(message) <= limit {
		return message
	}

	short := firstName + shortSuffix
	if utf8.RuneCountInString(short) <= limit {
		return short
	}

	budget := limit - utf8.RuneCountInString(shortSuffix)
	if budget <= 0 {
		return bareWelcome
	}
	return string([]rune(firstName)[:budget]) + shortSuffix
}

// WelcomeMessage composes a message with DefaultComposer.
func WelcomeMessage(firstName string) string {
	return DefaultComposer.Compose(firstName)
}
