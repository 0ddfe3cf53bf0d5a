package access

import (
	"encoding/hex"

	"givechain/core/types"
)

const (
	EventTypeRoleGranted          = "access.role_granted"
	EventTypeRoleRevoked          = "access.role_revoked"
	EventTypeOwnershipTransferred = "access.ownership_transferred"
)

type accessEvent struct {
	evt *types.Event
}

func (e accessEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e accessEvent) Event() *types.Event { return e.evt }

// NewRoleGrantedEvent returns the canonical payload for a role grant.
func NewRoleGrantedEvent(role string, addr [20]byte) accessEvent {
	return accessEvent{evt: &types.Event{
		Type: EventTypeRoleGranted,
		Attributes: map[string]string{
			"role":    role,
			"address": hex.EncodeToString(addr[:]),
		},
	}}
}

// NewRoleRevokedEvent returns the canonical payload for a role revocation.
func NewRoleRevokedEvent(role string, addr [20]byte) accessEvent {
	return accessEvent{evt: &types.Event{
		Type: EventTypeRoleRevoked,
		Attributes: map[string]string{
			"role":    role,
			"address": hex.EncodeToString(addr[:]),
		},
	}}
}

// NewOwnershipTransferredEvent returns the canonical payload for an ownership
// hand-over.
func NewOwnershipTransferredEvent(previous, next [20]byte) accessEvent {
	return accessEvent{evt: &types.Event{
		Type: EventTypeOwnershipTransferred,
		Attributes: map[string]string{
			"previousOwner": hex.EncodeToString(previous[:]),
			"newOwner":      hex.EncodeToString(next[:]),
		},
	}}
}
