// Package domain holds the error taxonomy shared by the gateway implementations
// and the editor.
package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors, matched with errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrTransport    = errors.New("transport failure")
	ErrUnsupported  = errors.New("not supported")
)

// ErrorKind classifies a gateway failure.
type ErrorKind int

const (
	KindServer ErrorKind = iota
	KindTransport
	KindValidation
	KindNotFound
	KindUnauthorized
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	default:
		return "server"
	}
}

// GatewayError is returned by every store and calculator operation that fails.
// Detail carries the store's own explanation, when it sent one.
// Status is the transport's status code, zero when the store has none.
type GatewayError struct {
	Op     string
	Kind   ErrorKind
	Status int
	Detail string
	Err    error
}

func (e *GatewayError) Error() string {
	msg := e.Op + ": " + e.Kind.String()
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (%d)", msg, e.Status)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *GatewayError) Unwrap() error { return e.Err }

// Is lets errors.Is match the sentinel for the error's kind.
func (e *GatewayError) Is(target error) bool {
	switch e.Kind {
	case KindNotFound:
		return target == ErrNotFound
	case KindValidation:
		return target == ErrValidation
	case KindUnauthorized:
		return target == ErrUnauthorized
	case KindTransport:
		return target == ErrTransport
	}
	return false
}

// NotFound builds a not-found GatewayError.
func NotFound(op, detail string) *GatewayError {
	return &GatewayError{Op: op, Kind: KindNotFound, Detail: detail}
}

// Invalid builds a validation GatewayError wrapping the underlying cause.
func Invalid(op, detail string, err error) *GatewayError {
	return &GatewayError{Op: op, Kind: KindValidation, Detail: detail, Err: err}
}

// UserMessage converts err into the string shown to the user:
// the store's detail when present, otherwise the fallback.
func UserMessage(err error, fallback string) string {
	var gerr *GatewayError
	if errors.As(err, &gerr) && gerr.Detail != "" {
		return gerr.Detail
	}
	return fallback
}
