package collectible

import (
	"encoding/hex"
	"strconv"

	"givechain/core/types"
)

// EventTypeMinted is emitted for every collectible issued.
const EventTypeMinted = "collectible.minted"

type collectibleEvent struct {
	evt *types.Event
}

func (e collectibleEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e collectibleEvent) Event() *types.Event { return e.evt }

// NewMintedEvent returns the canonical payload for a collectible mint.
func NewMintedEvent(c *Collectible) collectibleEvent {
	attrs := make(map[string]string)
	if c != nil {
		attrs["id"] = strconv.FormatUint(c.ID, 10)
		attrs["owner"] = hex.EncodeToString(c.Owner[:])
		attrs["uri"] = c.URI
		attrs["digest"] = hex.EncodeToString(c.Digest[:])
	}
	return collectibleEvent{evt: &types.Event{Type: EventTypeMinted, Attributes: attrs}}
}
