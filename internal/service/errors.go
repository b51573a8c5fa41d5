package service

import (
	"errors"
	"fmt"
)

// --- Error Definitions ---
var (
	ErrFileNotFound  = errors.New("file not found")
	ErrFileExpired   = errors.New("file has expired")
	ErrInvalidUpload = errors.New("invalid upload")
	// ErrUpstream wraps every object store / metadata store failure.
	ErrUpstream = errors.New("upstream failure")
)

// ErrorKind is the closed set of failures callers can distinguish.
type ErrorKind int

const (
	KindNone ErrorKind = iota
	// KindNotFound: the handle never existed or was already reaped. Try a different link.
	KindNotFound
	// KindExpired: the handle existed but its TTL elapsed. Terminal.
	KindExpired
	// KindInvalid: the request itself was malformed.
	KindInvalid
	// KindUpstream: a store call failed. Try again later.
	KindUpstream
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindNotFound:
		return "not_found"
	case KindExpired:
		return "expired"
	case KindInvalid:
		return "invalid"
	default:
		return "upstream"
	}
}

// KindOf classifies err. Anything not recognised is an upstream failure.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrFileNotFound):
		return KindNotFound
	case errors.Is(err, ErrFileExpired):
		return KindExpired
	case errors.Is(err, ErrInvalidUpload):
		return KindInvalid
	default:
		return KindUpstream
	}
}

// upstream marks err as a store failure while keeping the cause for logs.
func upstream(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrUpstream, op, err)
}
