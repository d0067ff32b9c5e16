package service

import (
	"errors"
	"fmt"
	"time"
)

// Status is the transport-independent outcome of a service call. Handlers map
// a Status to HTTP or gRPC codes and never inspect the underlying error.
type Status int

const (
	StatusOK Status = iota
	StatusUnauthorized
	StatusConflict
	StatusInternalError
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusUnauthorized:
		return "unauthorized"
	case StatusConflict:
		return "conflict"
	default:
		return "internal_error"
	}
}

// StatusOf classifies an error returned by this package
func StatusOf(err error) Status {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, ErrInternal):
		return StatusInternalError
	case errors.Is(err, ErrInvalidToken), errors.Is(err, ErrInvalidCredentials):
		return StatusUnauthorized
	case errors.Is(err, ErrEmailAlreadyExists), errors.Is(err, ErrUsernameTaken):
		return StatusConflict
	default:
		return StatusInternalError
	}
}

// Service errors
var (
	ErrEmailAlreadyExists = errors.New("email already registered")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrInternal           = errors.New("internal error")
)

func internalError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrInternal, op, err)
}

// Option customises a service at construction time
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock replaces time.Now, mainly for expiry tests
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
