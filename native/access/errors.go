package access

import "errors"

var (
	ErrUnauthorized = errors.New("access: unauthorized")
	ErrInvalidRole  = errors.New("access: invalid role")
)
