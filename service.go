package idgraph

import (
	"fmt"
	"strings"
	"time"

	"github.com/etnz/idgraph/date"
	"github.com/google/uuid"
)

// BillingCycle is the recurrence of a service's billing date.
type BillingCycle int

const (
	Monthly BillingCycle = iota
	Yearly
	Quarterly
	Weekly
	OneTime
	NoCycle
)

func (c BillingCycle) String() string {
	switch c {
	case Monthly:
		return "monthly"
	case Yearly:
		return "yearly"
	case Quarterly:
		return "quarterly"
	case Weekly:
		return "weekly"
	case OneTime:
		return "one-time"
	case NoCycle:
		return "none"
	default:
		return "none"
	}
}

// IsRecurring reports whether the cycle actually repeats. One-time and
// no-cycle services never roll forward.
func (c BillingCycle) IsRecurring() bool {
	switch c {
	case Monthly, Yearly, Quarterly, Weekly:
		return true
	default:
		return false
	}
}

// ParseBillingCycle parses a string into a BillingCycle. Unrecognized values
// parse as NoCycle without error: historical data carries free-form
// frequencies and a write must not be rejected for them.
func ParseBillingCycle(s string) BillingCycle {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "monthly", "month":
		return Monthly
	case "yearly", "year", "annual", "annually":
		return Yearly
	case "quarterly", "quarter":
		return Quarterly
	case "weekly", "week":
		return Weekly
	case "one-time", "onetime", "once":
		return OneTime
	default:
		return NoCycle
	}
}

// ServiceStatus is the lifecycle state of a service.
type ServiceStatus int

const (
	Active ServiceStatus = iota
	Trial
	Cancelled
	PastDue
	Expired
	Archived
)

func (s ServiceStatus) String() string {
	switch s {
	case Active:
		return "active"
	case Trial:
		return "trial"
	case Cancelled:
		return "cancelled"
	case PastDue:
		return "past_due"
	case Expired:
		return "expired"
	case Archived:
		return "archived"
	default:
		return "active"
	}
}

// IsBillable reports whether the service still accrues billing dates.
func (s ServiceStatus) IsBillable() bool { return s == Active || s == Trial }

// IsInactive reports whether the service left the billing lifecycle.
// Reactivating from one of these states triggers a billing-date suggestion.
func (s ServiceStatus) IsInactive() bool { return s == Cancelled || s == Archived }

// ParseServiceStatus parses a string into a ServiceStatus.
func ParseServiceStatus(s string) (ServiceStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "active":
		return Active, nil
	case "trial":
		return Trial, nil
	case "cancelled", "canceled":
		return Cancelled, nil
	case "past_due", "past-due":
		return PastDue, nil
	case "expired":
		return Expired, nil
	case "archived":
		return Archived, nil
	default:
		return Active, fmt.Errorf("unknown service status: %q", s)
	}
}

// Service is a trackable paid or free external account.
//
// This is the canonical in-memory shape: one field per concept. The
// historical alias fields (profileIds/ownerIdentityIds/identityId,
// websiteUrl/loginUrl, billingEmailId/emailId) exist only at the storage and
// wire boundary; see PartialService and the codec in encode.go.
type Service struct {
	ID       string
	Name     string
	Category string

	Cost            *Money
	BillingCycle    BillingCycle
	Status          ServiceStatus
	NextBillingDate *date.Date

	// OwnerIDs is the canonical owner list; index 0 is the primary owner.
	OwnerIDs []string

	WebsiteURL     string
	BillingEmailID string
	Notes          string

	// LoginEmail is nil while the user never provided a value; a pointer to
	// the empty string records an explicit clear. The distinction gates the
	// one-shot auto-derivation from the billing email (see Reconcile).
	LoginEmail *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewService mints a service with a fresh id and creation timestamps.
func NewService(name string) *Service {
	now := time.Now().UTC()
	return &Service{
		ID:        uuid.NewString(),
		Name:      name,
		Status:    Active,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// PrimaryOwner returns the first owner id, or "" when the service is
// unowned.
func (s *Service) PrimaryOwner() string {
	if len(s.OwnerIDs) == 0 {
		return ""
	}
	return s.OwnerIDs[0]
}

// EffectiveNextBilling returns the billing date rolled forward past today
// for billable recurring services. It never mutates the stored date: a past
// date at rest is legal, the advance is recomputed at every read.
func (s *Service) EffectiveNextBilling() *date.Date {
	return s.effectiveNextBillingOn(date.Today())
}

func (s *Service) effectiveNextBillingOn(today date.Date) *date.Date {
	if s.NextBillingDate == nil {
		return nil
	}
	if !s.Status.IsBillable() || !s.BillingCycle.IsRecurring() {
		return s.NextBillingDate
	}
	d := RollForwardOn(*s.NextBillingDate, s.BillingCycle, today)
	return &d
}
