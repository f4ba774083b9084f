package agent

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/etnz/idgraph"
)

// Reply is the assistant's output contract: a markdown answer and the
// commands it decided to issue.
type Reply struct {
	Answer   string            `json:"answer"`
	Commands []idgraph.Command `json:"commands"`
}

// ParseReply extracts the reply object from raw model text. Models wrap JSON
// in markdown fences or lead with prose more often than not, so the parser
// accepts the first top-level JSON object it can find.
func ParseReply(text string) (Reply, error) {
	raw := extractJSON(text)
	if raw == "" {
		// No JSON at all: degrade to a plain-text answer with no commands
		// rather than losing the model's output.
		return Reply{Answer: strings.TrimSpace(text)}, nil
	}
	var r Reply
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return Reply{}, fmt.Errorf("malformed assistant reply: %w", err)
	}
	return r, nil
}

// extractJSON returns the first balanced top-level {...} in the text, fences
// and surrounding prose stripped. Empty when the text holds no object.
func extractJSON(text string) string {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}
