// Package cmd implements the CLI application to manage an identity graph.
package cmd

import (
	"flag"
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/etnz/idgraph"
	"github.com/google/subcommands"
)

// Commands is the list of subcommands a main package registers on its
// Commander.
var Commands = []subcommands.Command{
	&addIdentityCmd{},
	&identitiesCmd{},
	&addServiceCmd{},
	&servicesCmd{},
	&summaryCmd{},
	&applyCmd{},
	&assistCmd{},
	&topicCmd{},
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var dataPath = flag.String("data", ".idgraph", "Path to the identity graph data directory")

// openStore opens the flat-file store at the app data path.
func openStore() (idgraph.Store, error) {
	return idgraph.NewFileStore(*dataPath)
}

// loadGraph opens the store and reads the whole graph. A missing data
// directory is an empty graph.
func loadGraph() (*idgraph.Graph, idgraph.Store, error) {
	store, err := openStore()
	if err != nil {
		return nil, nil, err
	}
	g, err := idgraph.LoadGraph(store)
	if err != nil {
		return nil, nil, err
	}
	return g, store, nil
}

// fail prints an error and returns the failure exit status.
func fail(format string, args ...any) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	return subcommands.ExitFailure
}

// printMarkdown renders markdown for the terminal, falling back to the raw
// text when rendering is not possible.
func printMarkdown(md string) {
	out, err := glamour.Render(md, "auto")
	if err != nil {
		fmt.Println(md)
		return
	}
	fmt.Print(out)
}
