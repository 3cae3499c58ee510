package domain

import (
	"errors"
	"strings"
	"time"
)

// ErrInvalidWeekday is returned when a weekday code is not one of
// mon/tue/wed/thu/fri/sat/sun.
var ErrInvalidWeekday = errors.New("invalid weekday code")

// Weekday is a lowercase three-letter day-of-week code as stored with
// recurring templates and selections (e.g. "mon", "wed", "fri").
type Weekday string

// Weekday codes, Monday first to match the recurrence UI ordering.
const (
	Monday    Weekday = "mon"
	Tuesday   Weekday = "tue"
	Wednesday Weekday = "wed"
	Thursday  Weekday = "thu"
	Friday    Weekday = "fri"
	Saturday  Weekday = "sat"
	Sunday    Weekday = "sun"
)

// weekdayOrder fixes the canonical ordering used when serializing a set.
var weekdayOrder = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// WeekdayOf returns the code for the day of week of t.
func WeekdayOf(t time.Time) Weekday {
	switch t.Weekday() {
	case time.Monday:
		return Monday
	case time.Tuesday:
		return Tuesday
	case time.Wednesday:
		return Wednesday
	case time.Thursday:
		return Thursday
	case time.Friday:
		return Friday
	case time.Saturday:
		return Saturday
	default:
		return Sunday
	}
}

// WeekdaySet is an unordered set of weekday codes. The zero value is the
// empty set.
type WeekdaySet map[Weekday]struct{}

// NewWeekdaySet builds a set from the given days.
func NewWeekdaySet(days ...Weekday) WeekdaySet {
	set := make(WeekdaySet, len(days))
	for _, d := range days {
		set[d] = struct{}{}
	}
	return set
}

// ParseWeekdaySet parses a comma-separated list of weekday codes such as
// "mon,wed,fri". Whitespace around codes is ignored and matching is
// case-insensitive. An empty string parses to the empty set.
// Returns ErrInvalidWeekday if any code is unknown.
func ParseWeekdaySet(s string) (WeekdaySet, error) {
	set := make(WeekdaySet)
	if strings.TrimSpace(s) == "" {
		return set, nil
	}

	for _, part := range strings.Split(s, ",") {
		code := Weekday(strings.ToLower(strings.TrimSpace(part)))
		switch code {
		case Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday:
			set[code] = struct{}{}
		default:
			return nil, ErrInvalidWeekday
		}
	}

	return set, nil
}

// Contains reports whether day is in the set.
func (s WeekdaySet) Contains(day Weekday) bool {
	_, ok := s[day]
	return ok
}

// IsEmpty reports whether the set has no days.
func (s WeekdaySet) IsEmpty() bool {
	return len(s) == 0
}

// String serializes the set in canonical Monday-first order, e.g.
// "mon,wed,fri". The empty set serializes to "".
func (s WeekdaySet) String() string {
	if len(s) == 0 {
		return ""
	}

	codes := make([]string, 0, len(s))
	for _, d := range weekdayOrder {
		if s.Contains(d) {
			codes = append(codes, string(d))
		}
	}
	return strings.Join(codes, ",")
}
