package rewards

import (
	"encoding/hex"
	"strconv"

	"givechain/core/types"
)

// EventTypeDistributed is emitted exactly once per donation with the credit
// and collectible outcome.
const EventTypeDistributed = "rewards.distributed"

type rewardEvent struct {
	evt *types.Event
}

func (e rewardEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e rewardEvent) Event() *types.Event { return e.evt }

// NewDistributedEvent returns the canonical payload for a reward
// distribution.
func NewDistributedEvent(user [20]byte, projectID uint64, dist *Distribution) rewardEvent {
	attrs := make(map[string]string)
	attrs["user"] = hex.EncodeToString(user[:])
	attrs["projectId"] = strconv.FormatUint(projectID, 10)
	if dist != nil {
		attrs["creditsIssued"] = dist.Credits.String()
		attrs["collectibleId"] = strconv.FormatUint(dist.CollectibleID, 10)
		attrs["reason"] = dist.Reason
	}
	return rewardEvent{evt: &types.Event{Type: EventTypeDistributed, Attributes: attrs}}
}
