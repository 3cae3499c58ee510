package domain

import (
	"errors"
	"testing"
	"time"
)

func TestParseWeekdaySet(t *testing.T) {
	t.Parallel()

	set, err := ParseWeekdaySet("mon,wed,fri")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(set) != 3 {
		t.Errorf("Expected 3 days, got %d", len(set))
	}
	for _, d := range []Weekday{Monday, Wednesday, Friday} {
		if !set.Contains(d) {
			t.Errorf("Expected set to contain %s", d)
		}
	}
	if set.Contains(Tuesday) {
		t.Error("Expected set not to contain tue")
	}

	// Whitespace and case are tolerated.
	set, err = ParseWeekdaySet(" Mon , SAT ")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !set.Contains(Monday) || !set.Contains(Saturday) {
		t.Errorf("Expected mon and sat, got %v", set)
	}

	// Empty input parses to the empty set.
	set, err = ParseWeekdaySet("")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !set.IsEmpty() {
		t.Errorf("Expected empty set, got %v", set)
	}

	// Unknown codes are rejected.
	_, err = ParseWeekdaySet("mon,funday")
	if !errors.Is(err, ErrInvalidWeekday) {
		t.Errorf("Expected ErrInvalidWeekday, got %v", err)
	}
}

func TestWeekdaySetString(t *testing.T) {
	t.Parallel()

	// Serialization is canonical Monday-first regardless of insertion order.
	set := NewWeekdaySet(Friday, Monday, Wednesday)
	if got := set.String(); got != "mon,wed,fri" {
		t.Errorf("Expected mon,wed,fri, got %q", got)
	}

	if got := (WeekdaySet{}).String(); got != "" {
		t.Errorf("Expected empty string, got %q", got)
	}
}

func TestWeekdayOf(t *testing.T) {
	t.Parallel()

	// 2025-06-02 is a Monday.
	monday := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	for i, want := range []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday} {
		got := WeekdayOf(monday.AddDate(0, 0, i))
		if got != want {
			t.Errorf("Day %d: expected %s, got %s", i, want, got)
		}
	}
}
