// Package fault classifies the failures the crawler distinguishes between.
//
// Resolution failures (ErrNotFound, ErrTimeout) propagate to the caller of a
// single index request. ErrUpstream aborts a full reindex. Per-item failures
// inside a batch are wrapped in ItemError and only logged. ErrSerialization
// marks a queue payload that could not be decoded and must be left to the
// transport's redelivery policy.
package fault

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a PID exists in neither the draft nor the
	// published graph.
	ErrNotFound = errors.New("resource not found")

	// ErrTimeout is returned when store queries exceed the resolution deadline.
	ErrTimeout = errors.New("resource resolution timed out")

	// ErrUpstream is returned for non-2xx responses from the search or
	// registration service.
	ErrUpstream = errors.New("upstream service failure")

	// ErrSerialization is returned for malformed queue payloads.
	ErrSerialization = errors.New("malformed payload")
)

// ItemError wraps a failure that affects a single queue message or document.
type ItemError struct {
	Item  string
	Stage string
	err   error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Stage, e.Item, e.err)
}

func (e *ItemError) Unwrap() error {
	return e.err
}

// NewItemError wraps err as a per-item failure at the given stage.
func NewItemError(stage, item string, err error) error {
	if err == nil {
		return nil
	}
	return &ItemError{Item: item, Stage: stage, err: err}
}

// IsItemError reports whether err is a per-item failure.
func IsItemError(err error) bool {
	var item *ItemError
	return errors.As(err, &item)
}

// UpstreamError describes a failed call to an HTTP collaborator.
type UpstreamError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s responded with status %d", e.Service, e.StatusCode)
	}
	return fmt.Sprintf("%s responded with status %d: %s", e.Service, e.StatusCode, e.Body)
}

// Is makes every UpstreamError match ErrUpstream.
func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstream
}

// Serialization wraps a decode failure as ErrSerialization.
func Serialization(err error) error {
	return fmt.Errorf("%w: %v", ErrSerialization, err)
}
