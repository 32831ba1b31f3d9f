// Package operr defines the operational error taxonomy shared by the
// secret lifecycle and validation code paths.
//
// Every error crossing a package boundary carries a Kind so the CLI can
// report it correctly and callers can decide whether a retry makes sense:
//   - Validation: bad input, fixable by the caller
//   - NotFound: the resource does not exist
//   - Permission: the ambient credentials lack access
//   - Transient: network, timeout, or server-side trouble; retryable
//
// Classify maps gRPC status codes and googleapi HTTP errors into kinds so
// the rest of the codebase never inspects provider errors directly.
package operr

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Kind categorizes an operational error.
type Kind int

const (
	KindTransient Kind = iota
	KindValidation
	KindNotFound
	KindPermission
)

// String returns the user-facing label for the kind.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "invalid input"
	case KindNotFound:
		return "not found"
	case KindPermission:
		return "permission denied"
	default:
		return "transient"
	}
}

// Error is a kind-tagged operational error.
type Error struct {
	Kind     Kind
	Op       string // operation that failed, e.g. "secrets.get"
	Resource string // resource identifier, e.g. the secret or bucket name
	Err      error  // underlying cause, may be nil for synthesized errors
}

func (e *Error) Error() string {
	msg := e.Op
	if e.Resource != "" {
		msg = fmt.Sprintf("%s %q", e.Op, e.Resource)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", msg, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", msg, e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New builds an Error with an explicit kind and message.
func New(kind Kind, op, resource, msg string) *Error {
	return &Error{Kind: kind, Op: op, Resource: resource, Err: errors.New(msg)}
}

// Validationf builds a Validation error from a format string.
func Validationf(op, format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf extracts the kind from err. Errors that never passed through this
// package are treated as transient, since they are invariably network or
// provider trouble.
func KindOf(err error) Kind {
	var oe *Error
	if errors.As(err, &oe) {
		return oe.Kind
	}
	return KindTransient
}

// IsNotFound reports whether err is a NotFound error.
func IsNotFound(err error) bool {
	return err != nil && KindOf(err) == KindNotFound
}

// IsPermission reports whether err is a Permission error.
func IsPermission(err error) bool {
	return err != nil && KindOf(err) == KindPermission
}

// Classify wraps a provider error with the kind implied by its gRPC status
// code or googleapi HTTP status. Anything unrecognized is Transient.
func Classify(op, resource string, err error) error {
	if err == nil {
		return nil
	}
	var oe *Error
	if errors.As(err, &oe) {
		return err // already classified upstream
	}
	return &Error{Kind: classify(err), Op: op, Resource: resource, Err: err}
}

func classify(err error) Kind {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return KindTransient
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch {
		case gerr.Code == 404:
			return KindNotFound
		case gerr.Code == 401 || gerr.Code == 403:
			return KindPermission
		case gerr.Code == 400:
			return KindValidation
		default:
			return KindTransient
		}
	}

	if st, ok := status.FromError(err); ok {
		switch st.Code() {
		case codes.NotFound:
			return KindNotFound
		case codes.PermissionDenied, codes.Unauthenticated:
			return KindPermission
		case codes.InvalidArgument, codes.FailedPrecondition:
			return KindValidation
		default:
			return KindTransient
		}
	}

	return KindTransient
}
