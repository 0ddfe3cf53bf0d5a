package token

import (
	"encoding/hex"
	"math/big"

	"givechain/core/types"
)

const (
	EventTypeMinted = "token.minted"
	EventTypeBurned = "token.burned"
)

type tokenEvent struct {
	evt *types.Event
}

func (e tokenEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e tokenEvent) Event() *types.Event { return e.evt }

// NewMintedEvent returns the canonical payload for a credit mint.
func NewMintedEvent(symbol string, to [20]byte, amount *big.Int, reason string) tokenEvent {
	return tokenEvent{evt: &types.Event{
		Type: EventTypeMinted,
		Attributes: map[string]string{
			"symbol": symbol,
			"to":     hex.EncodeToString(to[:]),
			"amount": amount.String(),
			"reason": reason,
		},
	}}
}

// NewBurnedEvent returns the canonical payload for a credit burn.
func NewBurnedEvent(symbol string, from [20]byte, amount *big.Int, reason string) tokenEvent {
	return tokenEvent{evt: &types.Event{
		Type: EventTypeBurned,
		Attributes: map[string]string{
			"symbol": symbol,
			"from":   hex.EncodeToString(from[:]),
			"amount": amount.String(),
			"reason": reason,
		},
	}}
}
