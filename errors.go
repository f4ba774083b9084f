package idgraph

import (
	"errors"
	"fmt"
)

// Sentinel errors reported by the command executor. They are command-scoped:
// a command failing with one of these never aborts the rest of its batch.
var (
	// ErrIdentityNotFound is returned when a command references an identity,
	// by id or by name, that does not exist in the graph.
	ErrIdentityNotFound = errors.New("identity not found")

	// ErrTaskNotFound is returned by complete_task when neither the task id
	// nor a title substring matches an open task.
	ErrTaskNotFound = errors.New("task not found")

	// ErrRateProviderUnavailable reports a failed exchange-rate fetch with no
	// usable cache to fall back to. Callers degrade to identity conversion.
	ErrRateProviderUnavailable = errors.New("rate provider unavailable")
)

// ValidationError rejects a write with a user-facing reason. It is never
// retried: the caller surfaces the message and drops the mutation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
