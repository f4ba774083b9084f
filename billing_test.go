package idgraph

import (
	"errors"
	"testing"

	"github.com/etnz/idgraph/date"
)

func TestAdvanceOnce(t *testing.T) {
	d := date.New(2025, 1, 15)
	tests := []struct {
		cycle BillingCycle
		want  date.Date
	}{
		{Monthly, date.New(2025, 2, 15)},
		{Yearly, date.New(2026, 1, 15)},
		{Quarterly, date.New(2025, 4, 15)},
		{Weekly, date.New(2025, 1, 22)},
		{OneTime, d},
		{NoCycle, d},
	}
	for _, tt := range tests {
		if got := AdvanceOnce(d, tt.cycle); got != tt.want {
			t.Errorf("AdvanceOnce(%v, %v) = %v, want %v", d, tt.cycle, got, tt.want)
		}
	}
}

func TestRollForward(t *testing.T) {
	today := date.New(2025, 8, 28)

	tests := []struct {
		name  string
		start date.Date
		cycle BillingCycle
		want  date.Date
	}{
		{"six months behind", date.New(2025, 2, 28), Monthly, date.New(2025, 8, 28)},
		{"already today", today, Monthly, today},
		{"in the future", date.New(2025, 12, 1), Monthly, date.New(2025, 12, 1)},
		{"yearly behind", date.New(2023, 3, 1), Yearly, date.New(2026, 3, 1)},
		{"weekly behind", date.New(2025, 8, 20), Weekly, date.New(2025, 9, 3)},
		{"one-time far in the past is untouched", date.New(2019, 1, 1), OneTime, date.New(2019, 1, 1)},
		{"none is untouched", date.New(2019, 1, 1), NoCycle, date.New(2019, 1, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RollForwardOn(tt.start, tt.cycle, today)
			if got != tt.want {
				t.Errorf("RollForwardOn(%v, %v) = %v, want %v", tt.start, tt.cycle, got, tt.want)
			}
			// Idempotent once the result is >= today.
			if again := RollForwardOn(got, tt.cycle, today); again != got {
				t.Errorf("not idempotent: %v then %v", got, again)
			}
		})
	}
}

func TestRollForwardSixMonthsScenario(t *testing.T) {
	// A monthly date six months in the past must land six steps later,
	// >= today and < today + 1 month.
	today := date.New(2025, 8, 28)
	start := date.New(2025, 2, 28)

	got := RollForwardOn(start, Monthly, today)

	want := start
	for i := 0; i < 6; i++ {
		want = AdvanceOnce(want, Monthly)
	}
	if got != want {
		t.Errorf("got %v, want six advances = %v", got, want)
	}
	if got.Before(today) || !got.Before(today.AddMonths(1)) {
		t.Errorf("%v not in [today, today+1m)", got)
	}
}

func TestValidateBillingDate(t *testing.T) {
	today := date.New(2025, 8, 28)

	if err := validateBillingDateOn(nil, today); err != nil {
		t.Errorf("missing date must be valid, got %v", err)
	}
	d := today
	if err := validateBillingDateOn(&d, today); err != nil {
		t.Errorf("today must be valid, got %v", err)
	}
	d = today.Add(1)
	if err := validateBillingDateOn(&d, today); err != nil {
		t.Errorf("tomorrow must be valid, got %v", err)
	}
	d = today.Add(-1)
	err := validateBillingDateOn(&d, today)
	if err == nil {
		t.Fatal("yesterday must be rejected")
	}
	var v *ValidationError
	if !errors.As(err, &v) {
		t.Errorf("want ValidationError, got %T", err)
	}
}

func TestEffectiveNextBilling(t *testing.T) {
	today := date.New(2025, 8, 28)
	past := date.New(2025, 2, 28)

	tests := []struct {
		name   string
		status ServiceStatus
		cycle  BillingCycle
		want   date.Date
	}{
		{"active monthly rolls", Active, Monthly, date.New(2025, 8, 28)},
		{"trial rolls", Trial, Monthly, date.New(2025, 8, 28)},
		{"cancelled does not roll", Cancelled, Monthly, past},
		{"archived does not roll", Archived, Monthly, past},
		{"active one-time does not roll", Active, OneTime, past},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := past
			s := &Service{Status: tt.status, BillingCycle: tt.cycle, NextBillingDate: &d}
			got := s.effectiveNextBillingOn(today)
			if got == nil || *got != tt.want {
				t.Errorf("effective = %v, want %v", got, tt.want)
			}
			// Read-time only: the stored date must be untouched.
			if *s.NextBillingDate != past {
				t.Errorf("stored date mutated to %v", *s.NextBillingDate)
			}
		})
	}

	s := &Service{Status: Active, BillingCycle: Monthly}
	if got := s.effectiveNextBillingOn(today); got != nil {
		t.Errorf("no stored date should yield nil, got %v", got)
	}
}

func TestSuggestReactivationBilling(t *testing.T) {
	today := date.New(2025, 8, 28)
	past := date.New(2025, 2, 28)
	future := date.New(2025, 12, 1)

	mk := func(status ServiceStatus, cycle BillingCycle, d *date.Date) *Service {
		return &Service{Status: status, BillingCycle: cycle, NextBillingDate: d}
	}

	if got := suggestReactivationBillingOn(mk(Cancelled, Monthly, &past), Active, today); got == nil || *got != today {
		t.Errorf("cancelled->active with past date: suggestion = %v, want %v", got, today)
	}
	if got := suggestReactivationBillingOn(mk(Cancelled, Monthly, &future), Active, today); got != nil {
		t.Errorf("current date needs no suggestion, got %v", got)
	}
	if got := suggestReactivationBillingOn(mk(Active, Monthly, &past), Active, today); got != nil {
		t.Errorf("active->active is not a reactivation, got %v", got)
	}
	if got := suggestReactivationBillingOn(mk(Cancelled, OneTime, &past), Active, today); got != nil {
		t.Errorf("one-time never suggests, got %v", got)
	}
	if got := suggestReactivationBillingOn(mk(Cancelled, Monthly, nil), Active, today); got != nil {
		t.Errorf("no stored date, no suggestion, got %v", got)
	}
	if got := suggestReactivationBillingOn(mk(Cancelled, Monthly, &past), Archived, today); got != nil {
		t.Errorf("inactive->inactive is not a reactivation, got %v", got)
	}
}
