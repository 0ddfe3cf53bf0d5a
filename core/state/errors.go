package state

import "errors"

var (
	errNilRecord       = errors.New("state: nil record")
	errNegativeAmount  = errors.New("state: amount must be non-negative")
	errIndexOutOfRange = errors.New("state: index out of range")
)
