package date

import (
	"testing"
	"time"
)

// TestTime assert that the time() is cannonical and gives comparable times.
func TestTime(t *testing.T) {
	d1 := New(2025, 7, 31)
	d2 := New(2025, 7, 31)

	if d1.time() != d2.time() {
		// Note that usually time.Time are not comparable (there is a pointer for the timezone) this
		// tests also checks that the property remain true
		t.Errorf("invalid time() function same day gives two different time")
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		input    string
		expected Date
		err      bool
	}{
		{"2025-01-15", New(2025, time.January, 15), false},
		{"2025-7-1", New(2025, time.July, 1), false},
		{"invalid-date", Date{}, true},
		{"", Date{}, true},
	}

	for _, tt := range tests {
		got, err := Parse(tt.input)
		if tt.err {
			if err == nil {
				t.Errorf("Parse(%q) expected an error, got %v", tt.input, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("Parse(%q) unexpected error: %v", tt.input, err)
			continue
		}
		if got != tt.expected {
			t.Errorf("Parse(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}

func TestAddMonths(t *testing.T) {
	tests := []struct {
		start    Date
		months   int
		expected Date
	}{
		{New(2025, time.January, 15), 1, New(2025, time.February, 15)},
		{New(2025, time.January, 31), 1, New(2025, time.March, 3)}, // normalized, feb has 28 days
		{New(2025, time.November, 30), 3, New(2026, time.March, 2)},
		{New(2025, time.December, 1), 1, New(2026, time.January, 1)},
		{New(2025, time.June, 10), 0, New(2025, time.June, 10)},
	}
	for _, tt := range tests {
		if got := tt.start.AddMonths(tt.months); got != tt.expected {
			t.Errorf("%v.AddMonths(%d) = %v, want %v", tt.start, tt.months, got, tt.expected)
		}
	}
}

func TestAddYears(t *testing.T) {
	// 2024 is a leap year, 2025 is not: Feb 29 normalizes to Mar 1.
	if got, want := New(2024, time.February, 29).AddYears(1), New(2025, time.March, 1); got != want {
		t.Errorf("AddYears(1) = %v, want %v", got, want)
	}
}

func TestOrdering(t *testing.T) {
	a := New(2025, time.March, 1)
	b := New(2025, time.March, 2)
	if !a.Before(b) || b.Before(a) || !b.After(a) {
		t.Errorf("ordering broken for %v and %v", a, b)
	}
	if !a.Equal(New(2025, time.March, 1)) {
		t.Errorf("Equal broken for %v", a)
	}
}
