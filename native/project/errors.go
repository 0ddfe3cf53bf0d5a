package project

import "errors"

var (
	ErrNotFound             = errors.New("project: not found")
	ErrMilestoneNotFound    = errors.New("project: milestone not found")
	ErrUnauthorized         = errors.New("project: unauthorized")
	ErrInvalidCategory      = errors.New("project: category not registered")
	ErrInvalidTarget        = errors.New("project: target outside allowed range")
	ErrInvalidEndDate       = errors.New("project: end date must be in the future")
	ErrInvalidAmount        = errors.New("project: amount must be positive")
	ErrNotActive            = errors.New("project: not active")
	ErrTerminalStatus       = errors.New("project: status is terminal")
	ErrExceedsTarget        = errors.New("project: funding would exceed target")
	ErrExceedsProjectTarget = errors.New("project: milestone target exceeds project target")
	ErrTargetNotReached     = errors.New("project: funding target not reached")
	ErrAlreadyCompleted     = errors.New("project: milestone already completed")
	ErrAlreadyVerified      = errors.New("project: already verified")
	ErrNotPaused            = errors.New("project: not paused")
	ErrEscrowShortfall      = errors.New("project: release exceeds collected funds")
)
