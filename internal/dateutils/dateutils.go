// Package dateutils provides the date conversions used by the statement
// parser, the ledger and the CLI.
package dateutils

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Date layouts
const (
	DateLayoutISO    = "2006-01-02"
	DateLayoutFrench = "02/01/2006"
	DateLayoutMonth  = "2006-01"
)

// frenchLayouts accepts both zero-padded and bare day/month numbers.
var frenchLayouts = []string{
	DateLayoutFrench,
	"2/1/2006",
}

var whitespace = regexp.MustCompile(`\s+`)

// CleanDateString trims and collapses internal whitespace.
func CleanDateString(dateStr string) string {
	return whitespace.ReplaceAllString(strings.TrimSpace(dateStr), " ")
}

// ParseFrenchDate parses a DD/MM/YYYY date as found in bank exports.
func ParseFrenchDate(dateStr string) (time.Time, error) {
	clean := CleanDateString(dateStr)
	for _, layout := range frenchLayouts {
		if t, err := time.Parse(layout, clean); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse date: %s", dateStr)
}

// FrenchToISO converts DD/MM/YYYY into YYYY-MM-DD with zero-padded day and
// month.
func FrenchToISO(dateStr string) (string, error) {
	t, err := ParseFrenchDate(dateStr)
	if err != nil {
		return "", err
	}
	return ToISODate(t), nil
}

// ParseISODate parses a YYYY-MM-DD date.
func ParseISODate(dateStr string) (time.Time, error) {
	t, err := time.Parse(DateLayoutISO, CleanDateString(dateStr))
	if err != nil {
		return time.Time{}, fmt.Errorf("unable to parse date: %s", dateStr)
	}
	return t, nil
}

// ParseMonth accepts YYYY-MM or any ISO date within the month and returns the
// first day of that month.
func ParseMonth(monthStr string) (time.Time, error) {
	clean := CleanDateString(monthStr)
	if t, err := time.Parse(DateLayoutMonth, clean); err == nil {
		return t, nil
	}
	t, err := ParseISODate(clean)
	if err != nil {
		return time.Time{}, fmt.Errorf("unable to parse month: %s", monthStr)
	}
	return StartOfMonth(t), nil
}

// ToISODate formats a time.Time value as an ISO date (YYYY-MM-DD)
func ToISODate(date time.Time) string {
	return date.Format(DateLayoutISO)
}

// StartOfMonth returns the first day of the month for a given date
func StartOfMonth(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, date.Location())
}

// EndOfMonth returns the last day of the month for a given date
func EndOfMonth(date time.Time) time.Time {
	return StartOfMonth(date).AddDate(0, 1, -1)
}

// InRange reports whether the ISO date lies within [from, to]. Empty bounds
// are open. ISO dates compare correctly as strings.
func InRange(date, from, to string) bool {
	if from != "" && date < from {
		return false
	}
	if to != "" && date > to {
		return false
	}
	return true
}
