package idgraph

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/etnz/idgraph/date"
)

// PartialService is a mutation payload for a service, as both write paths
// (forms and assistant commands) produce it. It carries the historical alias
// fields side by side; Reconcile normalizes them before the patch is applied.
//
// Field semantics are tri-state where the distinction matters: a nil pointer
// is "not provided", and for loginEmail and nextBillingDate a JSON null (or,
// for loginEmail, an explicit empty string) is "clear". UnmarshalJSON records
// the presence of those two keys so that absent and null never collapse.
type PartialService struct {
	Name     *string
	Category *string
	Notes    *string

	Cost         *Money
	BillingCycle *BillingCycle
	Status       *ServiceStatus

	// NextBillingDate is meaningful only when nextProvided is set.
	NextBillingDate *date.Date

	// Ownership aliases. Empty slices count as "not supplied".
	ProfileIDs       []string
	OwnerIdentityIDs []string
	IdentityID       *string

	// URL aliases.
	WebsiteURL *string
	LoginURL   *string

	// Billing email aliases.
	BillingEmailID *string
	EmailID        *string

	// LoginEmail is meaningful only when loginEmailProvided is set; nil with
	// the flag set means an explicit clear.
	LoginEmail *string

	nextProvided       bool
	loginEmailProvided bool
	ownersResolved     bool
}

// SetNextBillingDate marks the next billing date as provided (nil clears it).
func (p *PartialService) SetNextBillingDate(d *date.Date) {
	p.NextBillingDate, p.nextProvided = d, true
}

// NextBillingProvided reports whether the patch carries a next billing date
// intent (set or clear).
func (p *PartialService) NextBillingProvided() bool { return p.nextProvided }

// SetLoginEmail marks the login email as provided. An empty value records an
// explicit clear.
func (p *PartialService) SetLoginEmail(v string) {
	p.LoginEmail, p.loginEmailProvided = &v, true
}

// jpartial is the wire shape of a service mutation.
type jpartial struct {
	Name             *string          `json:"name"`
	Category         *string          `json:"category"`
	Notes            *string          `json:"notes"`
	Cost             *Money           `json:"cost"`
	BillingCycle     *string          `json:"billingCycle"`
	Status           *string          `json:"status"`
	NextBillingDate  *date.Date       `json:"nextBillingDate"`
	ProfileIDs       []string         `json:"profileIds"`
	OwnerIdentityIDs []string         `json:"ownerIdentityIds"`
	IdentityID       *string          `json:"identityId"`
	WebsiteURL       *string          `json:"websiteUrl"`
	LoginURL         *string          `json:"loginUrl"`
	BillingEmailID   *string          `json:"billingEmailId"`
	EmailID          *string          `json:"emailId"`
	LoginEmail       *string          `json:"loginEmail"`
}

func (p *PartialService) UnmarshalJSON(data []byte) error {
	var j jpartial
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	// Key presence is the tri-state discriminator for the two fields where
	// "absent" and "null" carry different intents.
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}

	p.Name, p.Category, p.Notes = j.Name, j.Category, j.Notes
	p.Cost = j.Cost
	if j.BillingCycle != nil {
		c := ParseBillingCycle(*j.BillingCycle)
		p.BillingCycle = &c
	}
	if j.Status != nil {
		s, err := ParseServiceStatus(*j.Status)
		if err != nil {
			return err
		}
		p.Status = &s
	}
	p.ProfileIDs, p.OwnerIdentityIDs, p.IdentityID = j.ProfileIDs, j.OwnerIdentityIDs, j.IdentityID
	p.WebsiteURL, p.LoginURL = j.WebsiteURL, j.LoginURL
	p.BillingEmailID, p.EmailID = j.BillingEmailID, j.EmailID

	if _, ok := keys["nextBillingDate"]; ok {
		p.NextBillingDate, p.nextProvided = j.NextBillingDate, true
	}
	if _, ok := keys["loginEmail"]; ok {
		p.LoginEmail, p.loginEmailProvided = j.LoginEmail, true
	}
	return nil
}

// EmailLookup resolves an email record id to its address. A nil lookup
// disables login-email auto-derivation.
type EmailLookup func(id string) (address string, ok bool)

// Reconcile normalizes a service mutation so the alias fields stay mutually
// consistent. It is a total function: it has no failure mode and performs no
// I/O (the email lookup is an in-memory index).
//
// The rules run in order, each one short-circuiting once it resolves its
// field:
//  1. ownership: profileIds wins, then ownerIdentityIds, then the singleton
//     identityId; when none is supplied the existing owner set is carried
//     forward so that a partial update cannot erase ownership.
//  2. url: websiteUrl wins over loginUrl; else whichever existed before is
//     applied to both.
//  3. billing email: billingEmailId and the legacy emailId mirror each
//     other; no forward-fill when neither is supplied.
//  4. login email: derived once from the billing email's address, only while
//     the user never provided any value (including an explicit clear).
func Reconcile(incoming PartialService, existing *Service, emails EmailLookup) PartialService {
	out := incoming

	// Rule 1: ownership aliases.
	var owners []string
	switch {
	case len(incoming.ProfileIDs) > 0:
		owners = incoming.ProfileIDs
	case len(incoming.OwnerIdentityIDs) > 0:
		owners = incoming.OwnerIdentityIDs
	case incoming.IdentityID != nil && *incoming.IdentityID != "":
		owners = []string{*incoming.IdentityID}
	case existing != nil:
		owners = existing.OwnerIDs
	}
	out.ownersResolved = true
	out.ProfileIDs = append([]string(nil), owners...)
	out.OwnerIdentityIDs = append([]string(nil), owners...)
	if len(owners) > 0 {
		primary := owners[0]
		out.IdentityID = &primary
	} else {
		out.IdentityID = nil
	}

	// Rule 2: url aliases.
	var url *string
	switch {
	case incoming.WebsiteURL != nil:
		url = incoming.WebsiteURL
	case incoming.LoginURL != nil:
		url = incoming.LoginURL
	case existing != nil && existing.WebsiteURL != "":
		u := existing.WebsiteURL
		url = &u
	}
	out.WebsiteURL, out.LoginURL = url, url

	// Rule 3: billing email aliases, whichever is supplied wins.
	var billing *string
	switch {
	case incoming.BillingEmailID != nil:
		billing = incoming.BillingEmailID
	case incoming.EmailID != nil:
		billing = incoming.EmailID
	}
	out.BillingEmailID, out.EmailID = billing, billing

	// Rule 4: login email auto-derivation. Only when the patch carries no
	// login-email intent at all and the user never set one before.
	if !incoming.loginEmailProvided && (existing == nil || existing.LoginEmail == nil) && emails != nil {
		id := ""
		if billing != nil {
			id = *billing
		} else if existing != nil {
			id = existing.BillingEmailID
		}
		if id != "" {
			if addr, ok := emails(id); ok && addr != "" {
				out.LoginEmail, out.loginEmailProvided = &addr, true
			}
		}
	}

	return out
}

// Apply merges a reconciled patch into the service and bumps its update
// timestamp. Run the patch through Reconcile first: Apply trusts the alias
// fields to already agree and only reads the canonical side of each pair.
func (s *Service) Apply(p PartialService) {
	if p.Name != nil {
		s.Name = strings.TrimSpace(*p.Name)
	}
	if p.Category != nil {
		s.Category = *p.Category
	}
	if p.Notes != nil {
		s.Notes = *p.Notes
	}
	if p.Cost != nil {
		c := *p.Cost
		s.Cost = &c
	}
	if p.BillingCycle != nil {
		s.BillingCycle = *p.BillingCycle
	}
	if p.Status != nil {
		s.Status = *p.Status
	}
	if p.nextProvided {
		s.NextBillingDate = p.NextBillingDate
	}
	if p.ownersResolved {
		s.OwnerIDs = append([]string(nil), p.ProfileIDs...)
	}
	if p.WebsiteURL != nil {
		s.WebsiteURL = *p.WebsiteURL
	}
	if p.BillingEmailID != nil {
		s.BillingEmailID = *p.BillingEmailID
	}
	if p.loginEmailProvided {
		if p.LoginEmail == nil {
			empty := ""
			s.LoginEmail = &empty // explicit clear, sticks
		} else {
			v := *p.LoginEmail
			s.LoginEmail = &v
		}
	}
	s.UpdatedAt = time.Now().UTC()
}
