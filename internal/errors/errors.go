// Package errors defines the failure vocabulary of the request core.
//
// Failures fall into an explicitly ordered set of kinds, from most specific
// to least specific: not-found, recoverable, unhandled. Classification is a
// pure function over the error value, so handlers never depend on a type
// hierarchy to decide how a failure is surfaced.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Kind identifies how a failure is surfaced to the client.
type Kind int

const (
	// KindNotFound means the requested resource does not exist.
	KindNotFound Kind = iota

	// KindRecoverable means a validation or business-rule failure carrying
	// one or more user-facing messages, intended for a fallback view.
	KindRecoverable

	// KindUnhandled is everything else and maps to the generic error view.
	KindUnhandled
)

// String returns the kind name used in logs.
func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindRecoverable:
		return "recoverable"
	default:
		return "unhandled"
	}
}

// NotFoundError reports an absent resource.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return e.Resource + " not found"
}

// NotFound creates a not-found failure for the named resource.
func NotFound(format string, args ...any) error {
	return &NotFoundError{Resource: fmt.Sprintf(format, args...)}
}

// RecoverableError carries the user-facing messages accumulated during a
// single submission attempt. Validation checks append to one instance so the
// response can list every problem at once instead of failing one at a time.
type RecoverableError struct {
	Messages []string
}

func (e *RecoverableError) Error() string {
	return strings.Join(e.Messages, "; ")
}

// Recoverable creates a recoverable failure with the given messages.
func Recoverable(messages ...string) error {
	return &RecoverableError{Messages: messages}
}

// Messages extracts the user-facing messages from a failure. For recoverable
// failures this is the accumulated list; for anything else it is the single
// error string.
func Messages(err error) []string {
	var rec *RecoverableError
	if errors.As(err, &rec) {
		return rec.Messages
	}
	return []string{err.Error()}
}

// Classify maps a failure to its kind, testing the registered kinds from
// most specific to least specific and falling back to unhandled.
func Classify(err error) Kind {
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return KindNotFound
	}
	var rec *RecoverableError
	if errors.As(err, &rec) {
		return KindRecoverable
	}
	return KindUnhandled
}

// Check collects validation failures so a submission can report all of them
// in one response.
type Check struct {
	messages []string
}

// Add appends a user-facing validation message.
func (c *Check) Add(message string) {
	c.messages = append(c.messages, message)
}

// Err returns the accumulated recoverable failure, or nil when every check
// passed.
func (c *Check) Err() error {
	if len(c.messages) == 0 {
		return nil
	}
	return &RecoverableError{Messages: c.messages}
}
