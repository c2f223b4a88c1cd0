// Package faults defines the error taxonomy shared by the lambdas.
//
// Three kinds exist:
//
//   - Validation: bad caller input; reported back as a client-style result.
//   - Backend: token or CRM/table communication failure; per-handler policy
//     decides whether this becomes a retry prompt, a failure result, or an
//     aborted invocation.
//   - Fatal: missing or invalid configuration; always aborts the invocation.
package faults

import (
	"errors"
	"fmt"
)

// Kind classifies an error for per-handler policy decisions.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindBackend
	KindFatal
)

type fault struct {
	kind Kind
	err  error
}

func (f *fault) Error() string { return f.err.Error() }

func (f *fault) Unwrap() error { return f.err }

// Validation wraps err as a validation fault.
func Validation(format string, v ...any) error {
	return &fault{kind: KindValidation, err: fmt.Errorf(format, v...)}
}

// Backend wraps err as a backend communication fault.
func Backend(err error) error {
	if err == nil {
		return nil
	}
	return &fault{kind: KindBackend, err: err}
}

// Fatal wraps err as a configuration fault.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &fault{kind: KindFatal, err: err}
}

// KindOf returns the kind of err, or KindUnknown for unclassified errors.
func KindOf(err error) Kind {
	var f *fault
	if errors.As(err, &f) {
		return f.kind
	}
	return KindUnknown
}

// IsValidation reports whether err is a validation fault.
func IsValidation(err error) bool { return KindOf(err) == KindValidation }

// IsBackend reports whether err is a backend fault.
func IsBackend(err error) bool { return KindOf(err) == KindBackend }

// IsFatal reports whether err is a configuration fault.
func IsFatal(err error) bool { return KindOf(err) == KindFatal }
