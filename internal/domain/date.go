package domain

import (
	"strings"
	"time"
)

// Accepted textual date forms. The day/month layout takes one or two digits.
const (
	layoutDMY = "2/1/2006"
	layoutISO = "2006-01-02"
)

// ParseDate parses a transaction date written as dd/mm/yyyy or yyyy-mm-dd and
// returns midnight UTC of that calendar day. ok is false for anything else,
// including impossible dates such as 31/02/2024.
func ParseDate(s string) (t time.Time, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	var err error
	switch {
	case strings.Contains(s, "/"):
		t, err = time.ParseInLocation(layoutDMY, s, time.UTC)
	case strings.Contains(s, "-"):
		t, err = time.ParseInLocation(layoutISO, s, time.UTC)
	default:
		return time.Time{}, false
	}
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// FormatDate renders the calendar date of t (in UTC) as yyyy-mm-dd.
func FormatDate(t time.Time) string {
	return t.UTC().Format(layoutISO)
}

// DaysBetween returns the whole number of calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	ua := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}
