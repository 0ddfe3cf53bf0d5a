package metrics

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type PlatformMetrics struct {
	donationsRecorded  *prometheus.CounterVec
	donationsFailed    *prometheus.CounterVec
	projectsCreated    *prometheus.CounterVec
	milestonesReleased prometheus.Counter
	replaysProcessed   prometheus.Counter
	replaysFailed      prometheus.Counter
	creditsIssued      prometheus.Counter
	collectiblesMinted prometheus.Counter
}

var (
	platformOnce     sync.Once
	platformRegistry *PlatformMetrics
)

// Platform returns the lazily-initialised metrics registry tracking ledger
// activity.
func Platform() *PlatformMetrics {
	platformOnce.Do(func() {
		platformRegistry = &PlatformMetrics{
			donationsRecorded: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "givechain_donations_recorded_total",
				Help: "Count of donations recorded by category.",
			}, []string{"category"}),
			donationsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "givechain_donations_failed_total",
				Help: "Count of rejected donations by reason.",
			}, []string{"reason"}),
			projectsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "givechain_projects_created_total",
				Help: "Count of projects created by category.",
			}, []string{"category"}),
			milestonesReleased: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "givechain_milestones_released_total",
				Help: "Count of completed milestones with escrow released.",
			}),
			replaysProcessed: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "givechain_recurring_replays_total",
				Help: "Count of recurring donation intents replayed.",
			}),
			replaysFailed: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "givechain_recurring_replay_failures_total",
				Help: "Count of recurring replays that did not produce a donation.",
			}),
			creditsIssued: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "givechain_reward_credits_issued_total",
				Help: "Total reward credits minted to donors.",
			}),
			collectiblesMinted: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "givechain_collectibles_minted_total",
				Help: "Count of milestone collectibles minted to donors.",
			}),
		}
		prometheus.MustRegister(
			platformRegistry.donationsRecorded,
			platformRegistry.donationsFailed,
			platformRegistry.projectsCreated,
			platformRegistry.milestonesReleased,
			platformRegistry.replaysProcessed,
			platformRegistry.replaysFailed,
			platformRegistry.creditsIssued,
			platformRegistry.collectiblesMinted,
		)
	})
	return platformRegistry
}

func (m *PlatformMetrics) ObserveDonation(category string) {
	if m == nil {
		return
	}
	m.donationsRecorded.WithLabelValues(normalizeLabel(category)).Inc()
}

func (m *PlatformMetrics) ObserveDonationFailure(reason string) {
	if m == nil {
		return
	}
	m.donationsFailed.WithLabelValues(normalizeLabel(reason)).Inc()
}

func (m *PlatformMetrics) ObserveProjectCreated(category string) {
	if m == nil {
		return
	}
	m.projectsCreated.WithLabelValues(normalizeLabel(category)).Inc()
}

func (m *PlatformMetrics) ObserveMilestoneReleased() {
	if m == nil {
		return
	}
	m.milestonesReleased.Inc()
}

func (m *PlatformMetrics) ObserveReplay() {
	if m == nil {
		return
	}
	m.replaysProcessed.Inc()
}

func (m *PlatformMetrics) ObserveReplayFailure() {
	if m == nil {
		return
	}
	m.replaysFailed.Inc()
}

func (m *PlatformMetrics) AddCreditsIssued(credits uint64) {
	if m == nil || credits == 0 {
		return
	}
	m.creditsIssued.Add(float64(credits))
}

func (m *PlatformMetrics) ObserveCollectibleMinted() {
	if m == nil {
		return
	}
	m.collectiblesMinted.Inc()
}

func normalizeLabel(value string) string {
	normalized := strings.TrimSpace(strings.ToLower(value))
	if normalized == "" {
		return "unknown"
	}
	return normalized
}
