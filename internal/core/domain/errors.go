package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned (wrapped) by repositories when a record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyFavorited is returned when the same segment is saved twice.
	ErrAlreadyFavorited = errors.New("route already favorited")
)

// UsageError reports a request the caller should never have made,
// such as identical origin and destination.
type UsageError struct {
	Reason string
}

func (e *UsageError) Error() string {
	return "invalid request: " + e.Reason
}

// NewUsageError builds a UsageError from a format string.
func NewUsageError(format string, args ...any) *UsageError {
	return &UsageError{Reason: fmt.Sprintf(format, args...)}
}

// NotFoundError reports that a named entity could not be resolved.
type NotFoundError struct {
	Kind string // "stop", "origin stop", "line", ...
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.Key)
}

// Is lets errors.Is(err, ErrNotFound) match a NotFoundError.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// UpstreamError wraps a failure of the catalog or another backing store.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Upstream wraps err as an UpstreamError unless it already is one.
func Upstream(op string, err error) error {
	if err == nil {
		return nil
	}
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return err
	}
	return &UpstreamError{Op: op, Err: err}
}
