package cmd

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/etnz/idgraph"
	"github.com/etnz/idgraph/date"
	"github.com/google/subcommands"
)

// addServiceCmd holds the flags for the 'add-service' subcommand: it
// creates a service, or updates one when -id is given. Every write goes
// through the field reconciler and billing-date validation.
type addServiceCmd struct {
	id         string
	name       string
	category   string
	cost       float64
	currency   string
	cycle      string
	status     string
	next       string
	owners     string
	url        string
	loginURL   string
	billing    string
	loginEmail string
	notes      string
}

func (*addServiceCmd) Name() string     { return "add-service" }
func (*addServiceCmd) Synopsis() string { return "create or update a service" }
func (*addServiceCmd) Usage() string {
	return `idg add-service -name <name> [flags]
idg add-service -id <service-id> [flags]

  Creates a service, or updates the service with the given id. Only the
  flags you pass are written; ownership, url and billing-email aliases are
  reconciled automatically. A next billing date in the past is rejected.
`
}

func (c *addServiceCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.id, "id", "", "Service id to update (create when empty)")
	f.StringVar(&c.name, "name", "", "Service name")
	f.StringVar(&c.category, "category", "", "Service category")
	f.Float64Var(&c.cost, "cost", 0, "Cost amount")
	f.StringVar(&c.currency, "currency", "", "Cost currency code (e.g. EUR)")
	f.StringVar(&c.cycle, "cycle", "", "Billing cycle: monthly, yearly, quarterly, weekly, one-time, none")
	f.StringVar(&c.status, "status", "", "Status: active, trial, cancelled, past_due, expired, archived")
	f.StringVar(&c.next, "next", "", "Next billing date (YYYY-MM-DD), today or later")
	f.StringVar(&c.owners, "owner", "", "Owning identity names or ids, comma separated; first one is primary")
	f.StringVar(&c.url, "url", "", "Website url")
	f.StringVar(&c.loginURL, "login-url", "", "Login url (alias of -url)")
	f.StringVar(&c.billing, "billing-email", "", "Billing email record id")
	f.StringVar(&c.loginEmail, "login-email", "", "Login email (empty value clears it)")
	f.StringVar(&c.notes, "notes", "", "Free-form notes")
}

func (c *addServiceCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	set := make(map[string]bool)
	f.Visit(func(fl *flag.Flag) { set[fl.Name] = true })

	g, store, err := loadGraph()
	if err != nil {
		return fail("Error loading graph: %v", err)
	}

	var existing *idgraph.Service
	if c.id != "" {
		if existing = g.Service(c.id); existing == nil {
			return fail("Error: no service with id %q", c.id)
		}
	} else if c.name == "" {
		return fail("Error: -name is required to create a service")
	}

	patch, status := c.patch(f, set, g)
	if status != subcommands.ExitSuccess {
		return status
	}

	// A write may not move the billing date into the past.
	if patch.NextBillingProvided() {
		if err := idgraph.ValidateBillingDate(patch.NextBillingDate); err != nil {
			return fail("Error: %v", err)
		}
	}

	// Reactivation surfaces a rolled-forward suggestion instead of silently
	// advancing the stored date.
	if existing != nil && patch.Status != nil && !patch.NextBillingProvided() {
		if suggested := idgraph.SuggestReactivationBilling(existing, *patch.Status); suggested != nil {
			fmt.Printf("next billing date %s is in the past; suggested: %s (pass -next to accept or override)\n",
				existing.NextBillingDate, suggested)
			return subcommands.ExitSuccess
		}
	}

	patch = idgraph.Reconcile(patch, existing, g.EmailAddress)

	svc := existing
	if svc == nil {
		svc = idgraph.NewService(c.name)
		g.AddService(svc)
	}
	svc.Apply(patch)

	if err := idgraph.SaveGraph(store, g); err != nil {
		return fail("Error saving graph: %v", err)
	}
	fmt.Printf("Saved service %q (%s)\n", svc.Name, svc.ID)
	return subcommands.ExitSuccess
}

// patch builds the mutation from the flags that were actually passed.
func (c *addServiceCmd) patch(f *flag.FlagSet, set map[string]bool, g *idgraph.Graph) (idgraph.PartialService, subcommands.ExitStatus) {
	var p idgraph.PartialService

	if set["name"] {
		p.Name = &c.name
	}
	if set["category"] {
		p.Category = &c.category
	}
	if set["notes"] {
		p.Notes = &c.notes
	}
	if set["cost"] || set["currency"] {
		m := idgraph.M(c.cost, c.currency)
		p.Cost = &m
	}
	if set["cycle"] {
		cycle := idgraph.ParseBillingCycle(c.cycle)
		p.BillingCycle = &cycle
	}
	if set["status"] {
		status, err := idgraph.ParseServiceStatus(c.status)
		if err != nil {
			return p, fail("Error: %v", err)
		}
		p.Status = &status
	}
	if set["next"] {
		if c.next == "" {
			p.SetNextBillingDate(nil)
		} else {
			d, err := date.Parse(c.next)
			if err != nil {
				return p, fail("Error: %v", err)
			}
			p.SetNextBillingDate(&d)
		}
	}
	if set["owner"] {
		var owners []string
		for _, ref := range strings.Split(c.owners, ",") {
			ref = strings.TrimSpace(ref)
			if ref == "" {
				continue
			}
			if id := g.IdentityByName(ref); id != nil {
				owners = append(owners, id.ID)
			} else if id := g.Identity(ref); id != nil {
				owners = append(owners, id.ID)
			} else {
				return p, fail("Error: unknown identity %q", ref)
			}
		}
		p.OwnerIdentityIDs = owners
	}
	if set["url"] {
		p.WebsiteURL = &c.url
	}
	if set["login-url"] {
		p.LoginURL = &c.loginURL
	}
	if set["billing-email"] {
		p.BillingEmailID = &c.billing
	}
	if set["login-email"] {
		p.SetLoginEmail(c.loginEmail)
	}
	return p, subcommands.ExitSuccess
}

// servicesCmd lists services with their effective billing dates.
type servicesCmd struct{}

func (*servicesCmd) Name() string     { return "services" }
func (*servicesCmd) Synopsis() string { return "list services" }
func (*servicesCmd) Usage() string {
	return `idg services

  Lists services. Billing dates of active and trial recurring services are
  shown rolled forward past today; the stored dates are not modified.
`
}
func (*servicesCmd) SetFlags(_ *flag.FlagSet) {}

func (c *servicesCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	g, _, err := loadGraph()
	if err != nil {
		return fail("Error loading graph: %v", err)
	}
	for _, s := range g.Services() {
		owner := ""
		if id := g.Identity(s.PrimaryOwner()); id != nil {
			owner = id.Name
		}
		cost := ""
		if s.Cost != nil {
			cost = s.Cost.String()
		}
		next := ""
		if d := s.EffectiveNextBilling(); d != nil {
			next = d.String()
		}
		fmt.Printf("%-24s %-10s %-10s %-12s %-10s %s\n", s.Name, s.Status, cost, s.BillingCycle, next, owner)
	}
	return subcommands.ExitSuccess
}
