package oracle

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies why a request did not produce a signed response.
type Kind int

const (
	// KindInvalidRequest: the request body could not be parsed.
	KindInvalidRequest Kind = iota
	// KindFetchFailed: the dataset could not be retrieved (network, timeout, non-2xx).
	KindFetchFailed
	// KindHashFormat: a caller-supplied hash is not valid hex.
	KindHashFormat
	// KindHashMismatch: the computed content hash differs from the expected one.
	KindHashMismatch
	// KindIncompleteMetadata: a required metadata field is empty.
	KindIncompleteMetadata
	// KindClock: the current time could not be read.
	KindClock
	// KindAttestationUnavailable: the hardware root of trust could not be reached.
	KindAttestationUnavailable
	// KindContentTooLarge: the dataset exceeds the configured size limit.
	KindContentTooLarge
)

func (k Kind) String() string {
	switch k {
	case KindInvalidRequest:
		return "invalid_request"
	case KindFetchFailed:
		return "fetch_failed"
	case KindHashFormat:
		return "hash_format"
	case KindHashMismatch:
		return "hash_mismatch"
	case KindIncompleteMetadata:
		return "incomplete_metadata"
	case KindClock:
		return "clock"
	case KindAttestationUnavailable:
		return "attestation_unavailable"
	case KindContentTooLarge:
		return "content_too_large"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// StatusCode maps caller faults to 4xx and environment faults to 5xx.
func (k Kind) StatusCode() int {
	switch k {
	case KindInvalidRequest, KindHashFormat, KindIncompleteMetadata:
		return http.StatusBadRequest
	case KindHashMismatch:
		return http.StatusUnprocessableEntity
	case KindContentTooLarge:
		return http.StatusRequestEntityTooLarge
	case KindFetchFailed:
		return http.StatusBadGateway
	case KindAttestationUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Retryable reports whether the same request may succeed later.
func (k Kind) Retryable() bool {
	switch k {
	case KindFetchFailed, KindClock, KindAttestationUnavailable:
		return true
	default:
		return false
	}
}

// Error is returned by the verifiers and the attestation service.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func NewError(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf extracts the Kind carried by err. ok is false for errors that were
// never classified.
func KindOf(err error) (kind Kind, ok bool) {
	var oe *Error
	if errors.As(err, &oe) {
		return oe.Kind, true
	}
	return 0, false
}
