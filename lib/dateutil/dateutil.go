package dateutil

import (
	"strings"
	"time"
)

// candidate layouts for the free-text "Date Posted" fields, tried in order.
// day-month forms come before month-day since the registry is maintained with
// day-first conventions.
var layouts = []string{
	"2/1/2006",
	"2-1-2006",
	"1/2/2006",
	"2006-01-02",
	"2 January 2006",
	"January 2, 2006",
}

// Parse attempts each candidate layout in order. The second return value is
// false when no layout matches, callers treat that as a missing date rather
// than an error.
func Parse(s string) (time.Time, bool) {
	s = strings.Trim(s, " \t\n")
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range layouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Year derives the calendar year from a free-text date, 0 when unparseable.
func Year(s string) int {
	t, ok := Parse(s)
	if !ok {
		return 0
	}
	return t.Year()
}
