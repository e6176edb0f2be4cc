package service

import "errors"

var (
	ErrValidation            = errors.New("invalid input")
	ErrCapacityExceeded      = errors.New("capacity exceeded")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrDownstreamUnavailable = errors.New("downstream unavailable")
	ErrReconciliationFailed  = errors.New("capacity reconciliation failed")
	ErrPersistence           = errors.New("booking persistence failed")
	ErrCompensationFailed    = errors.New("compensation failed")
	ErrRateLimited           = errors.New("rate limit exceeded")
	ErrBookingNotFound       = errors.New("booking not found")
)
