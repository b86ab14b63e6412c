// Package fleeterr defines the error taxonomy shared across the engine and
// the HTTP layer (spec §7): Validation, IO, Rotation, TruncatedByCap and
// Cancelled. Components never swallow errors; the HTTP layer maps these
// kinds to status codes.
package fleeterr

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"
)

// Kind classifies an error for HTTP-status mapping.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindIO
	KindRotation
	KindTruncatedByCap
	KindCancelled
)

// Error wraps an underlying cause with a Kind.
type Error struct {
	Kind Kind
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func NewPath(kind Kind, op, path string, err error) *Error {
	return &Error{Kind: kind, Op: op, Path: redactPath(path), Err: err}
}

// redactionRoot is the configured service root directory, set once at
// startup via SetRedactionRoot. Paths embedded in errors are stripped to
// this root's relative form (spec §7) before they ever reach a caller, so a
// redactionRoot of "" (never configured, e.g. in unit tests) leaves paths
// untouched rather than failing.
var redactionRoot atomic.Value

// SetRedactionRoot configures the directory whose prefix is stripped from
// any path later embedded in an IO error, so HTTP error bodies expose only
// the service-relative form ("<service>/logs/<file>") rather than the
// server's absolute filesystem layout.
func SetRedactionRoot(root string) {
	redactionRoot.Store(filepath.Clean(root))
}

func redactPath(path string) string {
	root, _ := redactionRoot.Load().(string)
	if root == "" {
		return path
	}
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}

// Validation builds a validation-kind error from a formatted message.
func Validation(op, format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Op: op, Err: fmt.Errorf(format, args...)}
}

// Cancelled is the sentinel cooperative-cancellation error.
var Cancelled = &Error{Kind: KindCancelled, Op: "cancelled", Err: errors.New("operation cancelled")}

// KindOf extracts the Kind from err, defaulting to KindIO for opaque errors
// (i.e. anything that is not itself a *Error is treated as an IO failure at
// the boundary, since Validation/Rotation/Cancelled are always explicit).
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindIO
}
