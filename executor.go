package idgraph

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Executor applies batches of assistant commands against the graph.
//
// A batch is best-effort, not a transaction: commands run strictly in input
// order (later commands may reference identities created by earlier ones),
// every command gets a Result, and a failing command leaves the graph
// untouched without stopping its siblings. There is no rollback.
type Executor struct {
	graph *Graph
	store Store // nil disables per-command persistence
}

// NewExecutor creates an executor over a graph. When store is not nil each
// successful command is committed to it immediately.
func NewExecutor(graph *Graph, store Store) *Executor {
	return &Executor{graph: graph, store: store}
}

// batchView is the batch-scoped working copy of the identity set. All
// identity resolution inside a batch reads through it: it starts as a
// snapshot of the graph and is appended to after every successful
// create_identity, so that a later command in the same batch can reference
// the new identity by name even before the backing store reflects it.
type batchView struct {
	byID   map[string]*Identity
	byName map[string]*Identity
}

func newBatchView(g *Graph) *batchView {
	v := &batchView{
		byID:   make(map[string]*Identity),
		byName: make(map[string]*Identity),
	}
	for _, id := range g.Identities() {
		v.add(id)
	}
	return v
}

func (v *batchView) add(id *Identity) {
	v.byID[id.ID] = id
	if _, taken := v.byName[foldName(id.Name)]; !taken {
		v.byName[foldName(id.Name)] = id
	}
}

// resolve finds the command's target identity: exact id match first, then
// case-insensitive name match.
func (v *batchView) resolve(c Command) (*Identity, error) {
	if c.IdentityID != "" {
		if id, ok := v.byID[c.IdentityID]; ok {
			return id, nil
		}
		return nil, fmt.Errorf("%w: id %q", ErrIdentityNotFound, c.IdentityID)
	}
	if c.IdentityName != "" {
		if id, ok := v.byName[foldName(c.IdentityName)]; ok {
			return id, nil
		}
		return nil, fmt.Errorf("%w: name %q", ErrIdentityNotFound, c.IdentityName)
	}
	return nil, fmt.Errorf("%w: command names no identity", ErrIdentityNotFound)
}

// Execute runs the batch sequentially and returns one result per command,
// in input order. Failures never halt the batch; an unrecognized command
// type is a failed result, not an error.
func (e *Executor) Execute(batch []Command) []Result {
	view := newBatchView(e.graph)
	results := make([]Result, 0, len(batch))
	for _, c := range batch {
		msg, err := e.apply(c, view)
		if err != nil {
			results = append(results, Result{Command: c, Success: false, Message: err.Error()})
			continue
		}
		results = append(results, Result{Command: c, Success: true, Message: msg})
	}
	return results
}

func (e *Executor) apply(c Command, view *batchView) (string, error) {
	var target *Identity
	if c.needsIdentity() {
		var err error
		if target, err = view.resolve(c); err != nil {
			return "", err
		}
	}

	switch c.Type {
	case CreateIdentity:
		return e.createIdentity(c, view)
	case AddTask:
		return e.addTask(c, target)
	case CompleteTask:
		return e.completeTask(c, target)
	case AddSubscription:
		return e.addSubscription(c, target)
	case AddService:
		return e.addService(c, target)
	case AddAdminLink:
		return e.addAdminLink(c, target)
	default:
		return "", fmt.Errorf("unknown command type %q", c.Type)
	}
}

func (e *Executor) createIdentity(c Command, view *batchView) (string, error) {
	var p createIdentityPayload
	if err := decodePayload(c, &p); err != nil {
		return "", err
	}
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return "", &ValidationError{Field: "name", Reason: "identity name is required"}
	}
	if e.graph.IdentityByName(name) != nil {
		return "", &ValidationError{Field: "name", Reason: fmt.Sprintf("identity %q already exists", name)}
	}
	typ, err := ParseIdentityType(p.Type)
	if err != nil {
		return "", &ValidationError{Field: "type", Reason: err.Error()}
	}

	id := NewIdentity(name, typ, p.Description)
	e.graph.AddIdentity(id)
	view.add(id)
	if err := e.commit(colIdentities, id.ID, encodeIdentity(id)); err != nil {
		return "", err
	}
	return fmt.Sprintf("created identity %q", name), nil
}

func (e *Executor) addTask(c Command, target *Identity) (string, error) {
	var p addTaskPayload
	if err := decodePayload(c, &p); err != nil {
		return "", err
	}
	if strings.TrimSpace(p.Title) == "" {
		return "", &ValidationError{Field: "title", Reason: "task title is required"}
	}
	task := &TaskRecord{
		ID:         uuid.NewString(),
		IdentityID: target.ID,
		Title:      strings.TrimSpace(p.Title),
		DueDate:    p.DueDate,
		Notes:      p.Notes,
	}
	e.graph.AddTask(task)
	if err := e.commit(colTasks, task.ID, task); err != nil {
		return "", err
	}
	return fmt.Sprintf("added task %q to %s", task.Title, target.Name), nil
}

func (e *Executor) completeTask(c Command, target *Identity) (string, error) {
	var p completeTaskPayload
	if err := decodePayload(c, &p); err != nil {
		return "", err
	}
	task := findTask(e.graph.Tasks(target.ID), p)
	if task == nil {
		return "", fmt.Errorf("%w: no open task matching %q", ErrTaskNotFound, firstNonEmpty(p.TaskID, p.TaskTitle))
	}
	task.IsDone = true
	if err := e.commit(colTasks, task.ID, task); err != nil {
		return "", err
	}
	return fmt.Sprintf("completed task %q", task.Title), nil
}

// findTask resolves a task by exact id, or by a case-insensitive substring
// match against the titles of open (not done) tasks. Done tasks are never
// matched by title: "complete the taxes task" must not silently re-complete
// last month's.
func findTask(tasks []*TaskRecord, p completeTaskPayload) *TaskRecord {
	if p.TaskID != "" {
		for _, t := range tasks {
			if t.ID == p.TaskID {
				return t
			}
		}
		return nil
	}
	query := strings.ToLower(strings.TrimSpace(p.TaskTitle))
	if query == "" {
		return nil
	}
	for _, t := range tasks {
		if t.IsDone {
			continue
		}
		if strings.Contains(strings.ToLower(t.Title), query) {
			return t
		}
	}
	return nil
}

func (e *Executor) addSubscription(c Command, target *Identity) (string, error) {
	var p addSubscriptionPayload
	if err := decodePayload(c, &p); err != nil {
		return "", err
	}
	if strings.TrimSpace(p.Name) == "" {
		return "", &ValidationError{Field: "name", Reason: "subscription name is required"}
	}
	if err := ValidateBillingDate(p.NextBillingDate); err != nil {
		return "", err
	}
	sub := &SubscriptionRecord{
		ID:              uuid.NewString(),
		IdentityID:      target.ID,
		Name:            strings.TrimSpace(p.Name),
		Amount:          decimal.NewFromFloat(p.Amount),
		Currency:        strings.ToUpper(p.Currency),
		Frequency:       p.Frequency,
		NextBillingDate: p.NextBillingDate,
	}
	e.graph.AddSubscription(sub)
	if err := e.commit(colSubscriptions, sub.ID, sub); err != nil {
		return "", err
	}
	return fmt.Sprintf("added subscription %q to %s", sub.Name, target.Name), nil
}

func (e *Executor) addService(c Command, target *Identity) (string, error) {
	var p addServicePayload
	if err := decodePayload(c, &p); err != nil {
		return "", err
	}
	if strings.TrimSpace(p.Name) == "" {
		return "", &ValidationError{Field: "name", Reason: "service name is required"}
	}

	// Assistant-created services take the same path as form writes: a patch
	// through the reconciler, so the alias invariants hold from birth.
	svc := NewService(strings.TrimSpace(p.Name))
	patch := PartialService{
		Category:         &p.Category,
		Notes:            &p.Notes,
		OwnerIdentityIDs: []string{target.ID},
	}
	if p.URL != "" {
		patch.WebsiteURL = &p.URL
	}
	svc.Apply(Reconcile(patch, nil, e.graph.EmailAddress))

	e.graph.AddService(svc)
	if err := e.commit(colServices, svc.ID, encodeService(svc)); err != nil {
		return "", err
	}
	return fmt.Sprintf("added service %q to %s", svc.Name, target.Name), nil
}

func (e *Executor) addAdminLink(c Command, target *Identity) (string, error) {
	var p addAdminLinkPayload
	if err := decodePayload(c, &p); err != nil {
		return "", err
	}
	if strings.TrimSpace(p.Label) == "" || strings.TrimSpace(p.URL) == "" {
		return "", &ValidationError{Field: "label", Reason: "admin link label and url are required"}
	}
	link := &AdminLinkRecord{
		ID:         uuid.NewString(),
		IdentityID: target.ID,
		Label:      strings.TrimSpace(p.Label),
		URL:        strings.TrimSpace(p.URL),
		Category:   p.Category,
	}
	e.graph.AddAdminLink(link)
	if err := e.commit(colAdminLinks, link.ID, link); err != nil {
		return "", err
	}
	return fmt.Sprintf("added admin link %q to %s", link.Label, target.Name), nil
}

// commit persists one record when a store is attached.
func (e *Executor) commit(collection, key string, v any) error {
	if e.store == nil {
		return nil
	}
	if err := e.store.Put(collection, key, v); err != nil {
		return fmt.Errorf("cannot persist %s/%s: %w", collection, key, err)
	}
	return nil
}

func decodePayload(c Command, v any) error {
	if len(c.Payload) == 0 {
		return &ValidationError{Field: "payload", Reason: fmt.Sprintf("command %q has no payload", c.Type)}
	}
	if err := json.Unmarshal(c.Payload, v); err != nil {
		return &ValidationError{Field: "payload", Reason: fmt.Sprintf("malformed %q payload: %v", c.Type, err)}
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
