package fetchers

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a source attempt failed
type ErrorKind string

const (
	KindTransport  ErrorKind = "transport"
	KindStatus     ErrorKind = "status"
	KindPayload    ErrorKind = "payload"
	KindEmpty      ErrorKind = "empty"
	KindCredential ErrorKind = "credential"
)

var (
	// ErrFetchFailed matches every *FetchError
	ErrFetchFailed = errors.New("source fetch failed")
	// ErrMissingCredential is returned by sources that need an API key that is not configured
	ErrMissingCredential = errors.New("missing credential")
	// ErrEmptyPayload is returned when the upstream answered without usable data
	ErrEmptyPayload = errors.New("empty payload")
)

// FetchError describes a failed attempt against one source
type FetchError struct {
	Source string
	Kind   ErrorKind
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("source %s: %s: %v", e.Source, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrFetchFailed) match any FetchError
func (e *FetchError) Is(target error) bool {
	return target == ErrFetchFailed
}

// KindOf extracts the failure kind from an error chain
func KindOf(err error) (ErrorKind, bool) {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind, true
	}
	return "", false
}
