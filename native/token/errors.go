package token

import "errors"

var (
	ErrNotConfigured       = errors.New("token: not configured")
	ErrUnauthorized        = errors.New("token: caller lacks minter role")
	ErrInvalidAmount       = errors.New("token: amount must be non-negative")
	ErrSupplyCeiling       = errors.New("token: mint would exceed max supply")
	ErrInsufficientBalance = errors.New("token: insufficient balance")
)
