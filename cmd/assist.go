package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/etnz/idgraph"
	"github.com/etnz/idgraph/agent"
	"github.com/google/subcommands"
	"google.golang.org/genai"
)

// assistCmd is the subcommand for the AI assistant.
type assistCmd struct{}

func (*assistCmd) Name() string     { return "assist" }
func (*assistCmd) Synopsis() string { return "start an interactive session with the AI assistant" }
func (*assistCmd) Usage() string {
	return `idg assist [initial prompt...]

  Start an interactive session with the AI assistant. Commands the
  assistant issues are applied to the graph immediately, one reported
  outcome per command.
`
}

func (*assistCmd) SetFlags(_ *flag.FlagSet) {}

func (c *assistCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	initialPrompt := ""
	if f.NArg() > 0 {
		initialPrompt = strings.Join(f.Args(), " ")
	}

	g, store, err := loadGraph()
	if err != nil {
		return fail("Error loading graph: %v", err)
	}

	client, err := genai.NewClient(ctx, nil)
	if err != nil {
		return fail("Error initializing Gemini's client: %v", err)
	}

	executor := idgraph.NewExecutor(g, store)

	a := agent.New(os.Stdout, os.Stdin)
	a.Apply = executor.Execute
	a.Render = func(md string) string {
		out, err := glamour.Render(md, "auto")
		if err != nil {
			return md
		}
		return out
	}

	names := make([]string, 0, len(g.Identities()))
	for _, id := range g.Identities() {
		names = append(names, id.Name)
	}

	if err := a.Run(ctx, client, names, initialPrompt); err != nil {
		fmt.Fprintln(os.Stderr, "Assistant failed:", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
