package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
)

var (
	// ErrUnknownInstitution is returned when a code is not registered.
	ErrUnknownInstitution = errors.New("unknown institution")
	// ErrUnsupportedCategory is returned when an adapter does not serve a category.
	ErrUnsupportedCategory = errors.New("unsupported category")
)

// FetchErrorKind classifies fatal fetch failures.
type FetchErrorKind string

const (
	// KindTimeout means the upstream did not answer within the deadline.
	KindTimeout FetchErrorKind = "timeout"
	// KindBadResponse means the upstream answered with something unusable.
	KindBadResponse FetchErrorKind = "bad_response"
	// KindNetworkUnavailable means the upstream could not be reached or
	// reported a transient server-side failure.
	KindNetworkUnavailable FetchErrorKind = "network_unavailable"
)

// FetchError is a fatal failure of a whole fetch.
type FetchError struct {
	Kind FetchErrorKind
	// URL is the request that failed, if any.
	URL string
	// StatusCode is the HTTP status, if a response was received.
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	msg := "fetch " + string(e.Kind)
	if e.URL != "" {
		msg += ": " + e.URL
	}
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(": status %d", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FetchError) Unwrap() error { return e.Err }

// Retryable reports whether repeating the fetch may succeed.
func (e *FetchError) Retryable() bool {
	return e.Kind == KindTimeout || e.Kind == KindNetworkUnavailable
}

// NewFetchError builds a FetchError.
func NewFetchError(kind FetchErrorKind, url string, err error) *FetchError {
	return &FetchError{Kind: kind, URL: url, Err: err}
}

// ParseError marks a single upstream record that could not be normalized.
// It never aborts a fetch.
type ParseError struct {
	// Ref identifies the offending record as well as the source allows,
	// e.g. a course code or a row number.
	Ref string
	Err error
}

func (e *ParseError) Error() string {
	if e.Ref == "" {
		return "parse error: " + e.Err.Error()
	}
	return fmt.Sprintf("parse error at %s: %v", e.Ref, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// NewParseError builds a ParseError.
func NewParseError(ref string, err error) *ParseError {
	return &ParseError{Ref: ref, Err: err}
}

// Classify maps an arbitrary fetch failure to a FetchError. Deadlines map to
// Timeout, connection level failures to NetworkUnavailable, and anything else
// to BadResponse.
func Classify(err error) *FetchError {
	if err == nil {
		return nil
	}

	var fe *FetchError
	if errors.As(err, &fe) {
		return fe
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &FetchError{Kind: KindTimeout, Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &FetchError{Kind: KindTimeout, Err: err}
	}

	if isNetworkErr(err) {
		return &FetchError{Kind: KindNetworkUnavailable, Err: err}
	}

	return &FetchError{Kind: KindBadResponse, Err: err}
}

func isNetworkErr(err error) bool {
	if errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	var opErr *net.OpError
	return errors.As(err, &opErr)
}
