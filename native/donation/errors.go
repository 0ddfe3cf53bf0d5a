package donation

import "errors"

var (
	ErrNotFound      = errors.New("donation: not found")
	ErrUnauthorized  = errors.New("donation: unauthorized")
	ErrBelowMinimum  = errors.New("donation: amount below minimum")
	ErrFeeTooHigh    = errors.New("donation: fee basis points above maximum")
	ErrReentrantCall = errors.New("donation: reentrant call rejected")
)
