// Package muxerr defines the sealed error kinds shared across the core:
// path resolution, SSH transport, runtime readiness, and the message queue
// each fail with one of a small fixed set of classifiable reasons rather
// than ad-hoc strings.
package muxerr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure into one of the reasons spec.md names. Callers
// that need to branch on failure type should use Classify rather than
// string-matching Error().
type Kind string

const (
	KindUnknown Kind = ""

	// Path Resolver
	KindPathUnknownHome Kind = "path_unknown_home"

	// Message Queue
	KindCompactionBusy Kind = "compaction_busy"

	// Runtime readiness
	KindRuntimeNotReady    Kind = "runtime_not_ready"
	KindRuntimeStartFailed Kind = "runtime_start_failed"

	// Runtime config classification
	KindRuntimeIncompatible Kind = "runtime_incompatible"

	// SSH transport / pool
	KindSSHHostKeyRejected Kind = "ssh_host_key_rejected"
	KindSSHAuthRequired    Kind = "ssh_auth_required"

	// MCP server manager
	KindMCPServerNotFound  Kind = "mcp_server_not_found"
	KindMCPServerLeaseBusy Kind = "mcp_server_lease_busy"

	// Not found, generic
	KindNotFound Kind = "not_found"
)

// Error is a classified, wrappable error. It satisfies errors.Unwrap so
// callers can still reach the underlying cause with errors.Is/As.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a classified error with no wrapped cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates a classified error that wraps cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Classify returns the Kind of err, or KindUnknown if err was not produced
// by this package.
func Classify(err error) Kind {
	var classified *Error
	if errors.As(err, &classified) {
		return classified.Kind
	}
	return KindUnknown
}

// Is reports whether err was classified with the given kind.
func Is(err error, kind Kind) bool {
	return Classify(err) == kind
}

// Sentinel instances for comparisons where a bare error value is more
// convenient than constructing one, mirroring the teacher's
// ErrServiceNotFound-style package-level vars.
var (
	ErrPathUnknownHome   = New(KindPathUnknownHome, "cannot expand ~: remote home directory is unknown")
	ErrCompactionBusy    = New(KindCompactionBusy, "a compaction request is already queued")
	ErrRuntimeNotReady   = New(KindRuntimeNotReady, "runtime is not ready")
	ErrSSHHostKeyRejected = New(KindSSHHostKeyRejected, "host key verification failed")
)

// NotFound builds a not-found error for the given resource type/name, in
// the teacher's NewXNotFoundError constructor style.
func NotFound(resourceType, name string) *Error {
	return New(KindNotFound, fmt.Sprintf("%s %q not found", resourceType, name))
}
