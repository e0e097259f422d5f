package errs

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across the pipeline and its clients.
var (
	// ErrInvalidArgument marks a structurally invalid parameter passed to a
	// pure function. Never retried; it indicates a programming error upstream.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrParse marks extraction input that could not produce text.
	ErrParse = errors.New("parse error")

	// ErrMissingData marks required fields absent from a job payload.
	// Terminal on first occurrence.
	ErrMissingData = errors.New("missing data")

	// ErrUpstream marks a failure reported by a remote service.
	// Retried per the orchestrator's backoff policy.
	ErrUpstream = errors.New("upstream error")

	// ErrNotFound marks an entity that does not exist.
	ErrNotFound = errors.New("not found")
)

// UpstreamError carries the provider's status and message alongside the
// ErrUpstream sentinel so callers can both classify and log the failure.
type UpstreamError struct {
	Service string
	Status  int
	Message string
	Err     error
}

func (e *UpstreamError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s upstream failure (status %d): %s", e.Service, e.Status, e.Message)
	}
	return fmt.Sprintf("%s upstream failure: %s", e.Service, e.Message)
}

func (e *UpstreamError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrUpstream
}

// Upstream wraps err as an UpstreamError for the named service.
func Upstream(service string, err error) error {
	if err == nil {
		return nil
	}
	return &UpstreamError{Service: service, Message: err.Error(), Err: fmt.Errorf("%w: %v", ErrUpstream, err)}
}
