package idgraph

import (
	"fmt"
	"strings"

	"github.com/etnz/idgraph/date"
	"github.com/shopspring/decimal"
)

// ModuleKey names one of the fixed per-identity record categories.
type ModuleKey int

const (
	EmailModule ModuleKey = iota
	ServicesModule
	SubscriptionsModule
	TasksModule
	AdminLinksModule
)

func (k ModuleKey) String() string {
	switch k {
	case EmailModule:
		return "email"
	case ServicesModule:
		return "services"
	case SubscriptionsModule:
		return "subscriptions"
	case TasksModule:
		return "tasks"
	case AdminLinksModule:
		return "adminLinks"
	default:
		return "unknown"
	}
}

// ParseModuleKey parses a string into a ModuleKey.
func ParseModuleKey(s string) (ModuleKey, error) {
	switch strings.TrimSpace(s) {
	case "email":
		return EmailModule, nil
	case "services":
		return ServicesModule, nil
	case "subscriptions":
		return SubscriptionsModule, nil
	case "tasks":
		return TasksModule, nil
	case "adminLinks", "admin-links":
		return AdminLinksModule, nil
	default:
		return EmailModule, fmt.Errorf("unknown module: %q", s)
	}
}

// TaskRecord is a to-do item attached to an identity.
type TaskRecord struct {
	ID         string     `json:"id"`
	IdentityID string     `json:"identityId"`
	Title      string     `json:"title"`
	IsDone     bool       `json:"isDone"`
	DueDate    *date.Date `json:"dueDate,omitempty"`
	Notes      string     `json:"notes,omitempty"`
}

// SubscriptionRecord is a lightweight recurring cost attached to an
// identity. Unlike a full Service it has no lifecycle or alias fields.
type SubscriptionRecord struct {
	ID              string          `json:"id"`
	IdentityID      string          `json:"identityId"`
	Name            string          `json:"name"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency,omitempty"`
	Frequency       string          `json:"frequency,omitempty"`
	NextBillingDate *date.Date      `json:"nextBillingDate,omitempty"`
}

// Cost returns the subscription's amount as Money.
func (s *SubscriptionRecord) Cost() Money { return M(s.Amount, s.Currency) }

// AdminLinkRecord is a bookmarked administrative URL attached to an
// identity (router admin, tax portal, registrar console...).
type AdminLinkRecord struct {
	ID         string `json:"id"`
	IdentityID string `json:"identityId"`
	Label      string `json:"label"`
	URL        string `json:"url"`
	Category   string `json:"category,omitempty"`
}

// EmailRecord is an email account attached to an identity. Services point
// at it through their billing-email field.
type EmailRecord struct {
	ID         string `json:"id"`
	IdentityID string `json:"identityId"`
	Address    string `json:"address"`
	Provider   string `json:"provider,omitempty"`
}
