package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/etnz/idgraph"
	"github.com/google/subcommands"
)

// applyCmd holds the flags for the 'apply' subcommand.
type applyCmd struct {
	file string
}

func (*applyCmd) Name() string     { return "apply" }
func (*applyCmd) Synopsis() string { return "apply a JSON command batch" }
func (*applyCmd) Usage() string {
	return `idg apply [-f <file>]

  Reads a JSON array of commands (from the file, or stdin) and applies them
  in order, best effort. Prints one line per command; a failing command does
  not stop the rest.
`
}

func (c *applyCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.file, "f", "", "Batch file (default: stdin)")
}

func (c *applyCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	var data []byte
	var err error
	if c.file != "" {
		data, err = os.ReadFile(c.file)
	} else {
		data, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		return fail("Error reading batch: %v", err)
	}

	batch, err := idgraph.DecodeBatch(data)
	if err != nil {
		return fail("Error parsing batch: %v", err)
	}

	g, store, err := loadGraph()
	if err != nil {
		return fail("Error loading graph: %v", err)
	}

	executor := idgraph.NewExecutor(g, store)
	failed := 0
	for _, r := range executor.Execute(batch) {
		status := "ok"
		if !r.Success {
			status = "failed"
			failed++
		}
		fmt.Printf("[%s] %s: %s\n", status, r.Command.Type, r.Message)
	}
	if failed > 0 {
		fmt.Fprintf(os.Stderr, "%d of %d commands failed\n", failed, len(batch))
	}
	return subcommands.ExitSuccess
}
