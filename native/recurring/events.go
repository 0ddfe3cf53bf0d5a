package recurring

import (
	"encoding/hex"
	"strconv"

	"givechain/core/types"
)

const (
	EventTypeIntentSet       = "recurring.intent_set"
	EventTypeIntentCancelled = "recurring.intent_cancelled"
	EventTypeReplayed        = "recurring.replayed"
	EventTypeReplayFailed    = "recurring.replay_failed"
)

type recurringEvent struct {
	evt *types.Event
}

func (e recurringEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e recurringEvent) Event() *types.Event { return e.evt }

// NewIntentSetEvent returns the canonical payload for a registered intent.
func NewIntentSetEvent(donor [20]byte, index int, intent *Intent) recurringEvent {
	attrs := baseAttributes(donor, index)
	if intent != nil {
		attrs["projectId"] = strconv.FormatUint(intent.ProjectID, 10)
		attrs["amount"] = intent.Amount.String()
		attrs["frequency"] = strconv.FormatInt(intent.Frequency, 10)
		attrs["nextDue"] = strconv.FormatInt(intent.NextDue, 10)
	}
	return recurringEvent{evt: &types.Event{Type: EventTypeIntentSet, Attributes: attrs}}
}

// NewIntentCancelledEvent returns the canonical payload for a cancellation.
// Repeated cancellation re-emits this event without any state change.
func NewIntentCancelledEvent(donor [20]byte, index int) recurringEvent {
	return recurringEvent{evt: &types.Event{Type: EventTypeIntentCancelled, Attributes: baseAttributes(donor, index)}}
}

// NewReplayedEvent returns the canonical payload for a successful replay.
func NewReplayedEvent(donor [20]byte, index int, donationID uint64) recurringEvent {
	attrs := baseAttributes(donor, index)
	attrs["donationId"] = strconv.FormatUint(donationID, 10)
	return recurringEvent{evt: &types.Event{Type: EventTypeReplayed, Attributes: attrs}}
}

// NewReplayFailedEvent returns the canonical payload for a replay that rolled
// back. The intent stays advanced so the failure does not repeat immediately.
func NewReplayFailedEvent(donor [20]byte, index int, reason string) recurringEvent {
	attrs := baseAttributes(donor, index)
	attrs["reason"] = reason
	return recurringEvent{evt: &types.Event{Type: EventTypeReplayFailed, Attributes: attrs}}
}

func baseAttributes(donor [20]byte, index int) map[string]string {
	return map[string]string{
		"donor": hex.EncodeToString(donor[:]),
		"index": strconv.Itoa(index),
	}
}
