package recurring

import "errors"

var (
	ErrUnauthorized      = errors.New("recurring: unauthorized")
	ErrBelowMinimum      = errors.New("recurring: amount below minimum")
	ErrFrequencyTooShort = errors.New("recurring: frequency below minimum interval")
	ErrTooManyIntents    = errors.New("recurring: intent limit reached")
	ErrInvalidIndex      = errors.New("recurring: intent index out of range")
)
