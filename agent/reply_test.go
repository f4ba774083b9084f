package agent

import (
	"testing"

	"github.com/etnz/idgraph"
)

func TestParseReply(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		wantAnswer  string
		wantNumCmds int
	}{
		{
			"bare object",
			`{"answer":"done","commands":[{"type":"create_identity","payload":{"name":"Studio"}}]}`,
			"done", 1,
		},
		{
			"fenced object",
			"```json\n{\"answer\":\"done\",\"commands\":[]}\n```",
			"done", 0,
		},
		{
			"prose around the object",
			"Here is what I did:\n{\"answer\":\"done\",\"commands\":[]}\nHope that helps!",
			"done", 0,
		},
		{
			"plain text degrades to answer",
			"  I cannot help with that.  ",
			"I cannot help with that.", 0,
		},
		{
			"braces inside strings do not confuse the scanner",
			`{"answer":"use {curly} braces","commands":[]}`,
			"use {curly} braces", 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := ParseReply(tt.text)
			if err != nil {
				t.Fatalf("ParseReply: %v", err)
			}
			if r.Answer != tt.wantAnswer {
				t.Errorf("answer = %q, want %q", r.Answer, tt.wantAnswer)
			}
			if len(r.Commands) != tt.wantNumCmds {
				t.Errorf("commands = %d, want %d", len(r.Commands), tt.wantNumCmds)
			}
		})
	}
}

func TestParseReplyCommandTypes(t *testing.T) {
	r, err := ParseReply(`{"answer":"ok","commands":[{"type":"add_task","identityName":"Alice","payload":{"title":"taxes"}}]}`)
	if err != nil {
		t.Fatal(err)
	}
	if len(r.Commands) != 1 {
		t.Fatalf("commands = %d, want 1", len(r.Commands))
	}
	c := r.Commands[0]
	if c.Type != idgraph.AddTask || c.IdentityName != "Alice" {
		t.Errorf("command = %+v", c)
	}
}

func TestParseReplyMalformedJSON(t *testing.T) {
	if _, err := ParseReply(`{"answer": 12, "commands": "not a list"}`); err == nil {
		t.Error("want error on object with wrong field types")
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"no object here", ""},
		{"{unbalanced", ""},
		{`a {"x":1} b {"y":2}`, `{"x":1}`},
		{`{"s":"a \" } b","n":1}`, `{"s":"a \" } b","n":1}`},
	}
	for _, tt := range tests {
		if got := extractJSON(tt.text); got != tt.want {
			t.Errorf("extractJSON(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}
