package idgraph

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/etnz/idgraph/date"
)

// This file is the storage boundary of the graph. The in-memory entities
// keep one canonical field per concept; this codec is where the historical
// alias fields live on. Encoding writes every alias (profileIds,
// ownerIdentityIds, identityId, websiteUrl, loginUrl, billingEmailId,
// emailId) so files stay readable by the older tooling; decoding accepts any
// of them and folds them back onto the canonical field, through the same
// precedence as Reconcile.

// Store collections, one per entity kind.
const (
	colIdentities    = "identities"
	colServices      = "services"
	colTasks         = "tasks"
	colSubscriptions = "subscriptions"
	colAdminLinks    = "adminLinks"
	colEmails        = "emails"
)

// jidentity is the persisted shape of an identity.
type jidentity struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// encodeIdentity returns the persistable form of an identity.
func encodeIdentity(id *Identity) json.Marshaler {
	var w jsonObjectWriter
	w.Append("id", id.ID)
	w.Append("name", id.Name)
	w.Append("type", id.Type.String())
	w.Optional("description", id.Description)
	w.Append("createdAt", id.CreatedAt)
	w.Append("updatedAt", id.UpdatedAt)
	return &w
}

func decodeIdentity(raw json.RawMessage) (*Identity, error) {
	var j jidentity
	if err := json.Unmarshal(raw, &j); err != nil {
		return nil, fmt.Errorf("format error in identity record: %w", err)
	}
	typ, err := ParseIdentityType(j.Type)
	if err != nil {
		return nil, err
	}
	return &Identity{
		ID:          j.ID,
		Name:        j.Name,
		Type:        typ,
		Description: j.Description,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
	}, nil
}

// jservice is the persisted shape of a service, aliases included.
type jservice struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Category        string     `json:"category,omitempty"`
	Cost            *Money     `json:"cost,omitempty"`
	BillingCycle    string     `json:"billingCycle,omitempty"`
	Status          string     `json:"status,omitempty"`
	NextBillingDate *date.Date `json:"nextBillingDate,omitempty"`
	Notes           string     `json:"notes,omitempty"`

	ProfileIDs       []string `json:"profileIds,omitempty"`
	OwnerIdentityIDs []string `json:"ownerIdentityIds,omitempty"`
	IdentityID       string   `json:"identityId,omitempty"`

	WebsiteURL string `json:"websiteUrl,omitempty"`
	LoginURL   string `json:"loginUrl,omitempty"`

	BillingEmailID string `json:"billingEmailId,omitempty"`
	EmailID        string `json:"emailId,omitempty"`

	LoginEmail *string `json:"loginEmail,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// encodeService returns the persistable form of a service, triple-writing
// the ownership aliases and double-writing the url and billing-email ones.
func encodeService(s *Service) json.Marshaler {
	var w jsonObjectWriter
	w.Append("id", s.ID)
	w.Append("name", s.Name)
	w.Optional("category", s.Category)
	if s.Cost != nil {
		w.Append("cost", *s.Cost)
	}
	w.Append("billingCycle", s.BillingCycle.String())
	w.Append("status", s.Status.String())
	if s.NextBillingDate != nil {
		w.Append("nextBillingDate", *s.NextBillingDate)
	}
	w.Optional("notes", s.Notes)

	if len(s.OwnerIDs) > 0 {
		w.Append("profileIds", s.OwnerIDs)
		w.Append("ownerIdentityIds", s.OwnerIDs)
		w.Append("identityId", s.OwnerIDs[0])
	}
	if s.WebsiteURL != "" {
		w.Append("websiteUrl", s.WebsiteURL)
		w.Append("loginUrl", s.WebsiteURL)
	}
	if s.BillingEmailID != "" {
		w.Append("billingEmailId", s.BillingEmailID)
		w.Append("emailId", s.BillingEmailID)
	}
	if s.LoginEmail != nil {
		w.Append("loginEmail", *s.LoginEmail)
	}
	w.Append("createdAt", s.CreatedAt)
	w.Append("updatedAt", s.UpdatedAt)
	return &w
}

func decodeService(raw json.RawMessage) (*Service, error) {
	var j jservice
	if err := json.Unmarshal(raw, &j); err != nil {
		return nil, fmt.Errorf("format error in service record: %w", err)
	}
	status, err := ParseServiceStatus(j.Status)
	if err != nil {
		return nil, err
	}

	// Fold the aliases onto the canonical fields, same precedence as
	// Reconcile rule 1-3.
	owners := j.ProfileIDs
	if len(owners) == 0 {
		owners = j.OwnerIdentityIDs
	}
	if len(owners) == 0 && j.IdentityID != "" {
		owners = []string{j.IdentityID}
	}
	url := j.WebsiteURL
	if url == "" {
		url = j.LoginURL
	}
	billing := j.BillingEmailID
	if billing == "" {
		billing = j.EmailID
	}

	return &Service{
		ID:              j.ID,
		Name:            j.Name,
		Category:        j.Category,
		Cost:            j.Cost,
		BillingCycle:    ParseBillingCycle(j.BillingCycle),
		Status:          status,
		NextBillingDate: j.NextBillingDate,
		Notes:           j.Notes,
		OwnerIDs:        owners,
		WebsiteURL:      url,
		BillingEmailID:  billing,
		LoginEmail:      j.LoginEmail,
		CreatedAt:       j.CreatedAt,
		UpdatedAt:       j.UpdatedAt,
	}, nil
}

// LoadGraph reads the whole graph out of a store. Missing collections are
// empty, not errors: a fresh data directory is a valid empty graph.
func LoadGraph(store Store) (*Graph, error) {
	g := NewGraph()

	raws, err := store.List(colIdentities)
	if err != nil {
		return nil, fmt.Errorf("cannot load identities: %w", err)
	}
	for _, raw := range raws {
		id, err := decodeIdentity(raw)
		if err != nil {
			return nil, err
		}
		g.AddIdentity(id)
	}

	raws, err = store.List(colServices)
	if err != nil {
		return nil, fmt.Errorf("cannot load services: %w", err)
	}
	for _, raw := range raws {
		s, err := decodeService(raw)
		if err != nil {
			return nil, err
		}
		g.AddService(s)
	}

	if err := loadRecords(store, colTasks, func(t *TaskRecord) { g.AddTask(t) }); err != nil {
		return nil, err
	}
	if err := loadRecords(store, colSubscriptions, func(s *SubscriptionRecord) { g.AddSubscription(s) }); err != nil {
		return nil, err
	}
	if err := loadRecords(store, colAdminLinks, func(l *AdminLinkRecord) { g.AddAdminLink(l) }); err != nil {
		return nil, err
	}
	if err := loadRecords(store, colEmails, func(e *EmailRecord) { g.AddEmail(e) }); err != nil {
		return nil, err
	}
	return g, nil
}

func loadRecords[T any](store Store, collection string, add func(*T)) error {
	raws, err := store.List(collection)
	if err != nil {
		return fmt.Errorf("cannot load %s: %w", collection, err)
	}
	for _, raw := range raws {
		rec := new(T)
		if err := json.Unmarshal(raw, rec); err != nil {
			return fmt.Errorf("format error in %s record: %w", collection, err)
		}
		add(rec)
	}
	return nil
}

// SaveGraph writes the whole graph back into a store.
func SaveGraph(store Store, g *Graph) error {
	for _, id := range g.Identities() {
		if err := store.Put(colIdentities, id.ID, encodeIdentity(id)); err != nil {
			return fmt.Errorf("cannot save identity %s: %w", id.ID, err)
		}
	}
	for _, s := range g.Services() {
		if err := store.Put(colServices, s.ID, encodeService(s)); err != nil {
			return fmt.Errorf("cannot save service %s: %w", s.ID, err)
		}
	}
	for _, t := range g.Tasks("") {
		if err := store.Put(colTasks, t.ID, t); err != nil {
			return fmt.Errorf("cannot save task %s: %w", t.ID, err)
		}
	}
	for _, s := range g.Subscriptions() {
		if err := store.Put(colSubscriptions, s.ID, s); err != nil {
			return fmt.Errorf("cannot save subscription %s: %w", s.ID, err)
		}
	}
	for _, l := range g.AdminLinks() {
		if err := store.Put(colAdminLinks, l.ID, l); err != nil {
			return fmt.Errorf("cannot save admin link %s: %w", l.ID, err)
		}
	}
	for _, e := range g.Emails() {
		if err := store.Put(colEmails, e.ID, e); err != nil {
			return fmt.Errorf("cannot save email %s: %w", e.ID, err)
		}
	}
	return nil
}
