package docs

import (
	"strings"
	"testing"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// TestTopicsStructure checks that every embedded topic is well-formed
// markdown opening with a single level-1 heading, since topics are
// concatenated by `idg topic '*'` and rendered in the terminal.
func TestTopicsStructure(t *testing.T) {
	topics, err := GetAllTopics()
	if err != nil {
		t.Fatalf("GetAllTopics: %v", err)
	}
	if len(topics) == 0 {
		t.Fatal("no embedded topics found")
	}

	mdParser := goldmark.DefaultParser()
	for _, topic := range topics {
		content, err := GetTopic(topic)
		if err != nil {
			t.Fatalf("GetTopic(%q): %v", topic, err)
		}
		source := []byte(content)
		root := mdParser.Parse(text.NewReader(source))

		h1 := 0
		ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
			if !entering {
				return ast.WalkContinue, nil
			}
			if h, ok := n.(*ast.Heading); ok && h.Level == 1 {
				h1++
			}
			return ast.WalkContinue, nil
		})
		if h1 != 1 {
			t.Errorf("topic %q has %d level-1 headings, want exactly 1", topic, h1)
		}
	}
}

func TestGetTopics(t *testing.T) {
	content, err := GetTopics("billing", "currencies")
	if err != nil {
		t.Fatalf("GetTopics: %v", err)
	}
	if !strings.Contains(content, "# Billing dates") || !strings.Contains(content, "# Currencies") {
		t.Errorf("GetTopics missing expected headings")
	}

	if _, err := GetTopic("no-such-topic"); err == nil {
		t.Errorf("GetTopic of unknown topic should fail")
	}

	all, err := GetTopics("*")
	if err != nil {
		t.Fatalf("GetTopics(*): %v", err)
	}
	if len(all) == 0 {
		t.Errorf("GetTopics(*) returned empty content")
	}
}
