// Package boserrors classifies the error kinds spec §7 distinguishes, so
// operators and clients can decide policy (retry next pass, hold the
// component, fail the session) without string-matching error text.
package boserrors

import (
	"errors"
	"fmt"
)

// Kind is one of the error taxonomy entries from spec §7.
type Kind string

const (
	// KindTransient covers connection resets, 5xx, and timeouts talking
	// to an external service. Retried inside the HTTP client; if
	// retries are exhausted the operator records it and the next pass
	// retries.
	KindTransient Kind = "transient_external"
	// KindPerComponent covers a per-xname error returned by PCS/CFS for
	// one component; that xname is marked failed, and certain error
	// classes additionally disable it.
	KindPerComponent Kind = "per_component_external"
	// KindMissingReferent covers a missing session template or IMS
	// image: the session is marked complete with an error, or the
	// component is held with status_override=on_hold.
	KindMissingReferent Kind = "missing_referent"
	// KindValidation covers malformed input; it never reaches the core
	// (rejected at the REST boundary) but is defined here for clients
	// that validate request bodies before sending them.
	KindValidation Kind = "validation"
	// KindDataIntegrity covers a stored record that fails schema
	// validation; repaired by the migration tool, not by operators.
	KindDataIntegrity Kind = "data_integrity"
)

// Error wraps an underlying error with a Kind so callers can classify it
// with errors.As without string matching.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New wraps err with the given kind and operation label.
func New(kind Kind, op string, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// Is reports whether err carries the given Kind.
func Is(err error, kind Kind) bool {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind == kind
	}
	return false
}
