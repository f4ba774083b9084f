package idgraph

import (
	"github.com/etnz/idgraph/date"
)

// This file implements the billing cycle arithmetic. All functions are pure:
// the stored billing date is never advanced on disk, the roll-forward is
// recomputed at read time.

// AdvanceOnce advances a billing date forward by one cycle. Non-recurring
// cycles (one-time, none) are a no-op and return the input unchanged.
func AdvanceOnce(d date.Date, cycle BillingCycle) date.Date {
	switch cycle {
	case Monthly:
		return d.AddMonths(1)
	case Yearly:
		return d.AddYears(1)
	case Quarterly:
		return d.AddMonths(3)
	case Weekly:
		return d.Add(7)
	default:
		return d
	}
}

// RollForward repeatedly advances a billing date by its cycle until it is no
// longer strictly before today. It is idempotent once the result is >= today.
func RollForward(d date.Date, cycle BillingCycle) date.Date {
	return RollForwardOn(d, cycle, date.Today())
}

// RollForwardOn is RollForward against an explicit "today", for read paths
// that pin the clock (and for tests).
func RollForwardOn(d date.Date, cycle BillingCycle, today date.Date) date.Date {
	if !cycle.IsRecurring() {
		// The no-op cycles would loop forever, exit immediately instead.
		return d
	}
	for d.Before(today) {
		d = AdvanceOnce(d, cycle)
	}
	return d
}

// ValidateBillingDate rejects a user-supplied next billing date that is
// strictly in the past. A missing date is always valid: the field is
// optional and carries no constraint.
func ValidateBillingDate(d *date.Date) error {
	return validateBillingDateOn(d, date.Today())
}

func validateBillingDateOn(d *date.Date, today date.Date) error {
	if d == nil {
		return nil
	}
	if d.Before(today) {
		return &ValidationError{Field: "nextBillingDate", Reason: "date must be today or later"}
	}
	return nil
}

// SuggestReactivationBilling returns the rolled-forward billing date to
// propose when a service transitions from an inactive status (cancelled,
// archived) back to a billable one. The suggestion is surfaced to the
// operator to accept or override, never applied silently. It returns nil
// when the transition needs no suggestion (no stored date, non-recurring
// cycle, date already current, or not a reactivation).
func SuggestReactivationBilling(s *Service, newStatus ServiceStatus) *date.Date {
	return suggestReactivationBillingOn(s, newStatus, date.Today())
}

func suggestReactivationBillingOn(s *Service, newStatus ServiceStatus, today date.Date) *date.Date {
	if s == nil || s.NextBillingDate == nil {
		return nil
	}
	if !s.Status.IsInactive() || !newStatus.IsBillable() {
		return nil
	}
	if !s.BillingCycle.IsRecurring() {
		return nil
	}
	rolled := RollForwardOn(*s.NextBillingDate, s.BillingCycle, today)
	if rolled.Equal(*s.NextBillingDate) {
		return nil
	}
	return &rolled
}
