package project

import (
	"encoding/hex"
	"strconv"

	"givechain/core/types"
)

const (
	EventTypeProjectCreated     = "project.created"
	EventTypeProjectFunded      = "project.funded"
	EventTypeProjectVerified    = "project.verified"
	EventTypeProjectCompleted   = "project.completed"
	EventTypeProjectCancelled   = "project.cancelled"
	EventTypeProjectPaused      = "project.paused"
	EventTypeProjectResumed     = "project.resumed"
	EventTypeMilestoneAdded     = "project.milestone_added"
	EventTypeMilestoneCompleted = "project.milestone_completed"
)

type projectEvent struct {
	evt *types.Event
}

func (e projectEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e projectEvent) Event() *types.Event { return e.evt }

// NewCreatedEvent returns the canonical payload for a newly created project.
func NewCreatedEvent(p *Project) projectEvent {
	evt := baseProjectEvent(EventTypeProjectCreated, p)
	if p != nil {
		evt.evt.Attributes["category"] = p.Category
		evt.evt.Attributes["target"] = p.TargetAmount.String()
		evt.evt.Attributes["endDate"] = strconv.FormatInt(p.EndDate, 10)
	}
	return evt
}

// NewFundedEvent returns the canonical payload for a funding application.
func NewFundedEvent(p *Project, donor [20]byte, amount string) projectEvent {
	evt := baseProjectEvent(EventTypeProjectFunded, p)
	evt.evt.Attributes["donor"] = hex.EncodeToString(donor[:])
	evt.evt.Attributes["amount"] = amount
	if p != nil {
		evt.evt.Attributes["currentAmount"] = p.CurrentAmount.String()
	}
	return evt
}

// NewVerifiedEvent returns the canonical payload for project verification.
func NewVerifiedEvent(p *Project, verifier [20]byte) projectEvent {
	evt := baseProjectEvent(EventTypeProjectVerified, p)
	evt.evt.Attributes["verifier"] = hex.EncodeToString(verifier[:])
	return evt
}

// NewStatusEvent returns the canonical payload for a lifecycle transition.
func NewStatusEvent(eventType string, p *Project) projectEvent {
	return baseProjectEvent(eventType, p)
}

// NewMilestoneAddedEvent returns the canonical payload for a new milestone.
func NewMilestoneAddedEvent(p *Project, m *Milestone) projectEvent {
	evt := baseProjectEvent(EventTypeMilestoneAdded, p)
	if m != nil {
		evt.evt.Attributes["milestoneId"] = strconv.FormatUint(m.ID, 10)
		evt.evt.Attributes["milestoneTarget"] = m.TargetAmount.String()
	}
	return evt
}

// NewMilestoneCompletedEvent returns the canonical payload for a milestone
// escrow release.
func NewMilestoneCompletedEvent(p *Project, m *Milestone) projectEvent {
	evt := baseProjectEvent(EventTypeMilestoneCompleted, p)
	if m != nil {
		evt.evt.Attributes["milestoneId"] = strconv.FormatUint(m.ID, 10)
		evt.evt.Attributes["released"] = m.ReleasedAmount.String()
		evt.evt.Attributes["completedAt"] = strconv.FormatInt(m.CompletedAt, 10)
	}
	return evt
}

func baseProjectEvent(eventType string, p *Project) projectEvent {
	attrs := make(map[string]string)
	if p != nil {
		attrs["projectId"] = strconv.FormatUint(p.ID, 10)
		attrs["creator"] = hex.EncodeToString(p.Creator[:])
		attrs["status"] = p.Status.String()
	}
	return projectEvent{evt: &types.Event{Type: eventType, Attributes: attrs}}
}
