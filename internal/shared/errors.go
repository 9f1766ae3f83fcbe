package shared

import (
	"errors"
	"fmt"
)

var (
	// Configuration errors
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed   = fmt.Errorf("authentication failed")
	ErrTokenExpired = fmt.Errorf("access token expired")

	// API and service errors
	ErrAPIRequest  = fmt.Errorf("API request failed")
	ErrRateLimited = fmt.Errorf("rate limit exceeded")

	// Validation errors
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrInvalidTrack    = fmt.Errorf("invalid track")
	ErrInvalidResult   = fmt.Errorf("invalid filter result")
)

// ErrorKind classifies failures raised while talking to a reference platform.
type ErrorKind int

const (
	KindUnexpected ErrorKind = iota
	KindConfiguration
	KindAuthentication
	KindRateLimit
	KindTimeout
	KindValidation
)

func (k ErrorKind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindAuthentication:
		return "authentication"
	case KindRateLimit:
		return "rate_limit"
	case KindTimeout:
		return "timeout"
	case KindValidation:
		return "validation"
	default:
		return "unexpected"
	}
}

// Fatal reports whether an error of this kind aborts the operation that raised it.
//
// Validation errors are always recovered where they happen.
func (k ErrorKind) Fatal() bool {
	return k != KindValidation
}

// Retryable reports whether the operation may be attempted again.
func (k ErrorKind) Retryable() bool {
	return k == KindTimeout
}

// FetchError is returned by the reference fetcher once retries (if any) are exhausted.
type FetchError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *FetchError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s error", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s error: %v", e.Op, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Fatal reports whether the error escaped the fetcher as a failure of the whole fetch.
func (e *FetchError) Fatal() bool { return e.Kind.Fatal() }

// NewFetchError wraps err with a kind and operation name.
func NewFetchError(kind ErrorKind, op string, err error) *FetchError {
	return &FetchError{Kind: kind, Op: op, Err: err}
}

// KindOf extracts the [ErrorKind] of err, defaulting to [KindUnexpected].
func KindOf(err error) ErrorKind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnexpected
}

// StatusError carries a non-2xx HTTP response status from an API client.
type StatusError struct {
	Service    string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s API error (status %d): %s", e.Service, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s API error: status %d", e.Service, e.StatusCode)
}

// Unwrap maps well-known statuses onto the package sentinels so callers can use [errors.Is].
func (e *StatusError) Unwrap() error {
	switch e.StatusCode {
	case 401:
		return ErrTokenExpired
	case 403:
		return ErrAuthFailed
	case 429:
		return ErrRateLimited
	default:
		return ErrAPIRequest
	}
}

// StatusCode returns the HTTP status carried by err, or 0 when there is none.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}
