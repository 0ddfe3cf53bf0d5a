package observability

import (
	"log/slog"
	"strconv"

	"givechain/core/events"
	"givechain/core/types"
	"givechain/native/collectible"
	"givechain/native/donation"
	"givechain/native/project"
	"givechain/native/recurring"
	"givechain/native/rewards"
	"givechain/observability/metrics"
)

// payloadCarrier is implemented by module event wrappers that expose their
// structured payload.
type payloadCarrier interface {
	Event() *types.Event
}

// MetricsEmitter feeds module events into the platform metrics registry and
// structured log before forwarding them to the next emitter in the chain.
type MetricsEmitter struct {
	next    events.Emitter
	logger  *slog.Logger
	metrics *metrics.PlatformMetrics
}

// NewMetricsEmitter wraps next with metric and log recording. A nil next
// emitter discards events after observing them.
func NewMetricsEmitter(next events.Emitter, logger *slog.Logger) *MetricsEmitter {
	if next == nil {
		next = events.NoopEmitter{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MetricsEmitter{next: next, logger: logger, metrics: metrics.Platform()}
}

// Emit implements the events.Emitter interface.
func (m *MetricsEmitter) Emit(evt events.Event) {
	if m == nil || evt == nil {
		return
	}
	attrs := map[string]string{}
	if carrier, ok := evt.(payloadCarrier); ok {
		if payload := carrier.Event(); payload != nil {
			attrs = payload.Attributes
		}
	}
	switch evt.EventType() {
	case donation.EventTypeDonationRecorded:
		m.metrics.ObserveDonation(attrs["category"])
	case project.EventTypeProjectCreated:
		m.metrics.ObserveProjectCreated(attrs["category"])
	case project.EventTypeMilestoneCompleted:
		m.metrics.ObserveMilestoneReleased()
	case recurring.EventTypeReplayed:
		m.metrics.ObserveReplay()
	case recurring.EventTypeReplayFailed:
		m.metrics.ObserveReplayFailure()
		// A failed replay is a donation that rolled back.
		m.metrics.ObserveDonationFailure(attrs["reason"])
	case rewards.EventTypeDistributed:
		if credits, err := strconv.ParseUint(attrs["creditsIssued"], 10, 64); err == nil {
			m.metrics.AddCreditsIssued(credits)
		}
	case collectible.EventTypeMinted:
		m.metrics.ObserveCollectibleMinted()
	}
	logAttrs := make([]any, 0, len(attrs)*2)
	for key, value := range attrs {
		logAttrs = append(logAttrs, slog.String(key, value))
	}
	m.logger.Info(evt.EventType(), logAttrs...)
	m.next.Emit(evt)
}
