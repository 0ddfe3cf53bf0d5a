package donation

import (
	"encoding/hex"
	"strconv"

	"givechain/core/types"
)

const (
	EventTypeDonationRecorded = "donation.recorded"
	EventTypeFeeUpdated       = "donation.fee_updated"
)

type donationEvent struct {
	evt *types.Event
}

func (e donationEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e donationEvent) Event() *types.Event { return e.evt }

// NewRecordedEvent returns the canonical payload for a recorded donation.
func NewRecordedEvent(d *Donation, fee string) donationEvent {
	attrs := make(map[string]string)
	if d != nil {
		attrs["donationId"] = strconv.FormatUint(d.ID, 10)
		attrs["donor"] = hex.EncodeToString(d.Donor[:])
		attrs["projectId"] = strconv.FormatUint(d.ProjectID, 10)
		attrs["netAmount"] = d.NetAmount.String()
		attrs["category"] = d.Category
		attrs["timestamp"] = strconv.FormatInt(d.Timestamp, 10)
		attrs["receipt"] = hex.EncodeToString(d.Receipt[:])
	}
	attrs["fee"] = fee
	return donationEvent{evt: &types.Event{Type: EventTypeDonationRecorded, Attributes: attrs}}
}

// NewFeeUpdatedEvent returns the canonical payload for a fee change.
func NewFeeUpdatedEvent(previous, next uint32) donationEvent {
	return donationEvent{evt: &types.Event{
		Type: EventTypeFeeUpdated,
		Attributes: map[string]string{
			"previousBps": strconv.FormatUint(uint64(previous), 10),
			"newBps":      strconv.FormatUint(uint64(next), 10),
		},
	}}
}
