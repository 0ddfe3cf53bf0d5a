package rewards

import "errors"

var (
	ErrInvalidAmount      = errors.New("rewards: net amount must be positive")
	ErrMinterNotSet       = errors.New("rewards: credit minter not configured")
	ErrCollectiblesNotSet = errors.New("rewards: collectible minter not configured")
)
