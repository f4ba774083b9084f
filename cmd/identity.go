package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/etnz/idgraph"
	"github.com/google/subcommands"
)

// addIdentityCmd holds the flags for the 'add-identity' subcommand.
type addIdentityCmd struct {
	name        string
	typ         string
	description string
}

func (*addIdentityCmd) Name() string     { return "add-identity" }
func (*addIdentityCmd) Synopsis() string { return "create a new identity" }
func (*addIdentityCmd) Usage() string {
	return `idg add-identity -name <name> [-type personal|business|project|other] [-desc <text>]

  Creates a new identity. Names are unique, case-insensitively.
`
}

func (c *addIdentityCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.name, "name", "", "Identity name (required)")
	f.StringVar(&c.typ, "type", "personal", "Identity type: personal, business, project, other")
	f.StringVar(&c.description, "desc", "", "Free-form description")
}

func (c *addIdentityCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.name == "" {
		return fail("Error: -name is required")
	}
	typ, err := idgraph.ParseIdentityType(c.typ)
	if err != nil {
		return fail("Error: %v", err)
	}

	g, store, err := loadGraph()
	if err != nil {
		return fail("Error loading graph: %v", err)
	}
	if g.IdentityByName(c.name) != nil {
		return fail("Error: identity %q already exists", c.name)
	}

	id := idgraph.NewIdentity(c.name, typ, c.description)
	g.AddIdentity(id)
	if err := idgraph.SaveGraph(store, g); err != nil {
		return fail("Error saving graph: %v", err)
	}
	fmt.Printf("Created identity %q (%s)\n", id.Name, id.ID)
	return subcommands.ExitSuccess
}

// identitiesCmd lists the identities.
type identitiesCmd struct{}

func (*identitiesCmd) Name() string             { return "identities" }
func (*identitiesCmd) Synopsis() string         { return "list identities" }
func (*identitiesCmd) Usage() string            { return "idg identities\n\n  Lists all identities.\n" }
func (*identitiesCmd) SetFlags(_ *flag.FlagSet) {}

func (c *identitiesCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	g, _, err := loadGraph()
	if err != nil {
		return fail("Error loading graph: %v", err)
	}
	for _, id := range g.Identities() {
		line := fmt.Sprintf("%-20s %-10s %s", id.Name, id.Type, id.ID)
		if id.Description != "" {
			line += "  " + id.Description
		}
		fmt.Println(line)
	}
	return subcommands.ExitSuccess
}
