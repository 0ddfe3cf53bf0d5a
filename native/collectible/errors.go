package collectible

import "errors"

var (
	ErrNotConfigured = errors.New("collectible: not configured")
	ErrUnauthorized  = errors.New("collectible: caller lacks minter role")
	ErrSupplyCeiling = errors.New("collectible: supply ceiling reached")
	ErrNotFound      = errors.New("collectible: not found")
)
