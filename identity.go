package idgraph

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// IdentityType classifies an identity: the kind of context that owns emails
// and services.
type IdentityType int

const (
	Personal IdentityType = iota
	Business
	Project
	OtherIdentity
)

func (t IdentityType) String() string {
	switch t {
	case Personal:
		return "personal"
	case Business:
		return "business"
	case Project:
		return "project"
	case OtherIdentity:
		return "other"
	default:
		return "unknown"
	}
}

// ParseIdentityType parses a string into an IdentityType. An empty string
// defaults to Personal.
func ParseIdentityType(s string) (IdentityType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "personal":
		return Personal, nil
	case "business":
		return Business, nil
	case "project":
		return Project, nil
	case "other":
		return OtherIdentity, nil
	default:
		return Personal, fmt.Errorf("unknown identity type: %q", s)
	}
}

// Identity is a named context (person, business, project) that owns emails
// and services. Name is the natural join key when an id is not yet known.
type Identity struct {
	ID          string
	Name        string
	Type        IdentityType
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewIdentity mints an identity with a fresh id and creation timestamps.
func NewIdentity(name string, typ IdentityType, description string) *Identity {
	now := time.Now().UTC()
	return &Identity{
		ID:          uuid.NewString(),
		Name:        name,
		Type:        typ,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// foldName is the canonical form used for case-insensitive name matching.
func foldName(name string) string { return strings.ToLower(strings.TrimSpace(name)) }

// Graph is the in-memory entity set both write paths operate on. It keeps a
// case-folded name index so identity resolution is a lookup, not a scan.
//
// Graph assumes a single active writer; it is not safe for concurrent use.
type Graph struct {
	identities    []*Identity
	byID          map[string]*Identity
	byName        map[string]*Identity // case-folded name index
	services      []*Service
	tasks         []*TaskRecord
	subscriptions []*SubscriptionRecord
	adminLinks    []*AdminLinkRecord
	emails        []*EmailRecord
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		byID:   make(map[string]*Identity),
		byName: make(map[string]*Identity),
	}
}

// AddIdentity indexes a new identity. Name uniqueness is the caller's
// responsibility (it is a creation-time rule, not a storage rule); on a
// folded-name collision the index keeps the first entry.
func (g *Graph) AddIdentity(id *Identity) {
	g.identities = append(g.identities, id)
	g.byID[id.ID] = id
	if _, taken := g.byName[foldName(id.Name)]; !taken {
		g.byName[foldName(id.Name)] = id
	}
}

// Identity returns the identity with this exact id, or nil if unknown.
func (g *Graph) Identity(id string) *Identity { return g.byID[id] }

// IdentityByName returns the identity matching name case-insensitively, or
// nil if unknown.
func (g *Graph) IdentityByName(name string) *Identity { return g.byName[foldName(name)] }

// Identities returns the identities in insertion order.
func (g *Graph) Identities() []*Identity { return g.identities }

// AddService appends a service to the graph.
func (g *Graph) AddService(s *Service) { g.services = append(g.services, s) }

// Services returns the services in insertion order.
func (g *Graph) Services() []*Service { return g.services }

// Service returns the service with this id, or nil if unknown.
func (g *Graph) Service(id string) *Service {
	for _, s := range g.services {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// EmailAddress returns the address of the email record with this id.
func (g *Graph) EmailAddress(id string) (string, bool) {
	for _, e := range g.emails {
		if e.ID == id {
			return e.Address, true
		}
	}
	return "", false
}

// AddEmail appends an email record to the graph.
func (g *Graph) AddEmail(e *EmailRecord) { g.emails = append(g.emails, e) }

// Emails returns the email records in insertion order.
func (g *Graph) Emails() []*EmailRecord { return g.emails }

// AddTask appends a task record to the graph.
func (g *Graph) AddTask(t *TaskRecord) { g.tasks = append(g.tasks, t) }

// Tasks returns all task records, optionally filtered by identity id
// (empty id means all).
func (g *Graph) Tasks(identityID string) []*TaskRecord {
	if identityID == "" {
		return g.tasks
	}
	var out []*TaskRecord
	for _, t := range g.tasks {
		if t.IdentityID == identityID {
			out = append(out, t)
		}
	}
	return out
}

// AddSubscription appends a subscription record to the graph.
func (g *Graph) AddSubscription(s *SubscriptionRecord) {
	g.subscriptions = append(g.subscriptions, s)
}

// Subscriptions returns the subscription records in insertion order.
func (g *Graph) Subscriptions() []*SubscriptionRecord { return g.subscriptions }

// AddAdminLink appends an admin link record to the graph.
func (g *Graph) AddAdminLink(l *AdminLinkRecord) { g.adminLinks = append(g.adminLinks, l) }

// AdminLinks returns the admin link records in insertion order.
func (g *Graph) AdminLinks() []*AdminLinkRecord { return g.adminLinks }
