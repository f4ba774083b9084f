// Package agent implements the natural-language boundary of the identity
// graph: a Gemini-backed assistant that answers questions about the graph
// and emits structured commands for the executor to apply.
//
// The assistant's reasoning is opaque by design. The only contract the rest
// of the module consumes is its reply shape: an answer string plus a list of
// commands in the executor's envelope format.
package agent

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/etnz/idgraph"
	"google.golang.org/genai"
)

const model = "gemini-2.5-pro"

// Assistant is the AI assistant that handles the chat session.
type Assistant struct {
	w io.Writer
	r *bufio.Reader

	ModelName string

	// Apply executes a command batch and returns per-command outcomes. The
	// REPL prints them after each reply. A nil Apply drops the commands.
	Apply func(commands []idgraph.Command) []idgraph.Result

	// Render formats a markdown answer for the terminal. A nil Render prints
	// the answer raw.
	Render func(markdown string) string

	chat *genai.Chat
}

// New creates a new Assistant over the given output writer and input reader
// (e.g. os.Stdout and os.Stdin).
func New(w io.Writer, r io.Reader) *Assistant {
	return &Assistant{w: w, r: bufio.NewReader(r), ModelName: model}
}

// Start initializes the chat session. identityNames seeds the system
// instruction with the names currently in the graph, so the assistant
// references existing identities instead of inventing near-duplicates.
func (a *Assistant) Start(ctx context.Context, client *genai.Client, identityNames []string) error {
	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: systemInstruction(identityNames)}}},
	}
	chat, err := client.Chats.Create(ctx, a.ModelName, config, nil)
	if err != nil {
		return err
	}
	a.chat = chat
	return nil
}

// Ask sends one user input and parses the reply.
func (a *Assistant) Ask(ctx context.Context, input string) (Reply, error) {
	resp, err := a.chat.Send(ctx, &genai.Part{Text: input})
	if err != nil {
		return Reply{}, err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return Reply{}, fmt.Errorf("no response from assistant")
	}
	return ParseReply(resp.Candidates[0].Content.Parts[0].Text)
}

const prompt = "graph> "

// Run starts the interactive REPL session for the assistant. Initial
// prompts, if any, are consumed before reading from the input.
func (a *Assistant) Run(ctx context.Context, client *genai.Client, identityNames []string, prompts ...string) error {
	if a.chat == nil {
		if err := a.Start(ctx, client, identityNames); err != nil {
			return err
		}
	}

	fmt.Fprintln(a.w, "Welcome to idg assist. Type 'bye' to exit.")

	for {
		fmt.Fprint(a.w, prompt)
		var input string

		if len(prompts) > 0 {
			input, prompts = prompts[0], prompts[1:]
			input = strings.TrimSpace(input)
			if input == "" {
				continue
			}
			fmt.Fprintln(a.w, input)
		} else {
			var err error
			input, err = a.r.ReadString('\n')
			if err != nil {
				if err == io.EOF {
					return nil // Clean exit on Ctrl+D
				}
				return err
			}
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if input == "bye" {
			return nil
		}

		reply, err := a.Ask(ctx, input)
		if err != nil {
			fmt.Fprintf(a.w, "error: %v\n", err)
			continue
		}
		a.print(reply)
	}
}

func (a *Assistant) print(reply Reply) {
	answer := reply.Answer
	if a.Render != nil {
		answer = a.Render(answer)
	}
	fmt.Fprintln(a.w, answer)

	if len(reply.Commands) == 0 || a.Apply == nil {
		return
	}
	for _, r := range a.Apply(reply.Commands) {
		status := "ok"
		if !r.Success {
			status = "failed"
		}
		fmt.Fprintf(a.w, "  [%s] %s: %s\n", status, r.Command.Type, r.Message)
	}
}

func systemInstruction(identityNames []string) string {
	var b strings.Builder
	b.WriteString(`You manage the user's personal identity graph: named identities
(personal, business, project, other) that own email accounts, services,
subscriptions, tasks and admin links.

Always answer with a single JSON object, no prose around it:

  {"answer": "<markdown answer for the user>", "commands": [<command>...]}

Leave "commands" empty unless the user asked for a change. Each command is:

  {"type": "<type>", "identityName": "<name>", "payload": {...}}

Command types and payload fields:
  create_identity  {name, type?, description?}   (no identityName needed)
  add_task         {title, dueDate?, notes?}
  complete_task    {taskTitle? or taskId?}
  add_subscription {name, amount?, currency?, frequency?, nextBillingDate?}
  add_service      {name, category?, url?, notes?}
  add_admin_link   {label, url, category?}

Dates are YYYY-MM-DD. Reference identities by their exact existing name; a
command may reference an identity created by an earlier command in the same
list.
`)
	if len(identityNames) > 0 {
		b.WriteString("\nKnown identities: ")
		b.WriteString(strings.Join(identityNames, ", "))
		b.WriteString("\n")
	}
	return b.String()
}
