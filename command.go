package idgraph

import (
	"encoding/json"

	"github.com/etnz/idgraph/date"
)

// CommandType names one assistant-issued mutation. The values are the wire
// contract with the language-model agent and never change shape for its
// sake: unknown values are reported as failed commands, not rejected
// batches.
type CommandType string

const (
	CreateIdentity  CommandType = "create_identity"
	AddTask         CommandType = "add_task"
	CompleteTask    CommandType = "complete_task"
	AddSubscription CommandType = "add_subscription"
	AddService      CommandType = "add_service"
	AddAdminLink    CommandType = "add_admin_link"
)

// Command is one structured instruction from the assistant: the envelope
// names the target identity (by id when known, by name otherwise) and
// carries a type-specific payload. Commands are transient; only their
// effects are persisted.
type Command struct {
	Type         CommandType     `json:"type"`
	IdentityName string          `json:"identityName,omitempty"`
	IdentityID   string          `json:"identityId,omitempty"`
	Payload      json.RawMessage `json:"payload,omitempty"`
}

// needsIdentity reports whether the command must resolve its target
// identity before applying.
func (c Command) needsIdentity() bool { return c.Type != CreateIdentity }

// payload shapes, decoded per command type at apply time.

type createIdentityPayload struct {
	Name        string `json:"name"`
	Type        string `json:"type,omitempty"`
	Description string `json:"description,omitempty"`
}

type addTaskPayload struct {
	Title   string     `json:"title"`
	DueDate *date.Date `json:"dueDate,omitempty"`
	Notes   string     `json:"notes,omitempty"`
}

type completeTaskPayload struct {
	TaskTitle string `json:"taskTitle,omitempty"`
	TaskID    string `json:"taskId,omitempty"`
}

type addSubscriptionPayload struct {
	Name            string     `json:"name"`
	Amount          float64    `json:"amount,omitempty"`
	Currency        string     `json:"currency,omitempty"`
	Frequency       string     `json:"frequency,omitempty"`
	NextBillingDate *date.Date `json:"nextBillingDate,omitempty"`
}

type addServicePayload struct {
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
	URL      string `json:"url,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

type addAdminLinkPayload struct {
	Label    string `json:"label"`
	URL      string `json:"url"`
	Category string `json:"category,omitempty"`
}

// Result is the reported outcome of one command. A batch always yields one
// Result per input command, in input order, failures included.
type Result struct {
	Command Command `json:"command"`
	Success bool    `json:"success"`
	Message string  `json:"message"`
}

// DecodeBatch parses a JSON array of commands.
func DecodeBatch(data []byte) ([]Command, error) {
	var batch []Command
	if err := json.Unmarshal(data, &batch); err != nil {
		return nil, err
	}
	return batch, nil
}
