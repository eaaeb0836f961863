// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LoreForge Contributors

package gacha

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the engine's Prometheus instruments.
type Metrics struct {
	PullsTotal            *prometheus.CounterVec
	PullFailuresTotal     *prometheus.CounterVec
	HardPityTotal         prometheus.Counter
	GuaranteeConversions  prometheus.Counter
	CurrencySpentTotal    *prometheus.CounterVec
	PitySnapshotHistogram prometheus.Histogram
}

// NewMetrics creates and registers the engine metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		PullsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "loreforge_pulls_total",
				Help: "Total pulls executed by rarity and featured flag",
			},
			[]string{"rarity", "featured"},
		),
		PullFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "loreforge_pull_failures_total",
				Help: "Total pull requests rejected by reason",
			},
			[]string{"reason"},
		),
		HardPityTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "loreforge_hard_pity_total",
				Help: "Total pulls won through the hard-pity force",
			},
		),
		GuaranteeConversions: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "loreforge_featured_guarantee_total",
				Help: "Total featured wins delivered by the carry-over guarantee",
			},
		),
		CurrencySpentTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "loreforge_currency_spent_total",
				Help: "Total currency debited for pulls by currency",
			},
			[]string{"currency"},
		),
		PitySnapshotHistogram: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "loreforge_top_rarity_pity_snapshot",
				Help:    "Pity counter observed when a top-rarity win landed",
				Buckets: prometheus.LinearBuckets(0, 10, 10),
			},
		),
	}
	reg.MustRegister(
		m.PullsTotal,
		m.PullFailuresTotal,
		m.HardPityTotal,
		m.GuaranteeConversions,
		m.CurrencySpentTotal,
		m.PitySnapshotHistogram,
	)
	return m
}

// recordPull updates the instruments for one resolved pull. Nil receivers are
// valid: an engine without metrics records nothing.
func (m *Metrics) recordPull(pool *Pool, out outcome, guaranteed bool) {
	if m == nil {
		return
	}
	m.PullsTotal.WithLabelValues(string(out.Rarity), strconv.FormatBool(out.Featured)).Inc()
	m.CurrencySpentTotal.WithLabelValues(pool.Currency).Add(float64(pool.CostPerPull))
	if out.UsedHardPity {
		m.HardPityTotal.Inc()
	}
	if out.Featured && guaranteed {
		m.GuaranteeConversions.Inc()
	}
	if out.Rarity == pool.Pity.TopRarity {
		m.PitySnapshotHistogram.Observe(float64(out.PitySnapshot))
	}
}

// recordFailure counts a rejected pull request. Nil-safe.
func (m *Metrics) recordFailure(reason string) {
	if m == nil {
		return
	}
	m.PullFailuresTotal.WithLabelValues(reason).Inc()
}
