// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics counts what a rank run did. A run is a batch job, so the
// counters are written once to a Prometheus textfile instead of being
// served.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors of one run on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	lookups      *prometheus.CounterVec
	entries      *prometheus.GaugeVec
	dropped      prometheus.Counter
	expired      *prometheus.CounterVec
	warnings     *prometheus.CounterVec
	lastDuration prometheus.Gauge
}

// New registers the run collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pubrank_rank_lookups_total",
			Help: "Rank resolutions by catalog and outcome (cached, resolved, miss, failed).",
		}, []string{"catalog", "outcome"}),
		entries: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pubrank_source_entries",
			Help: "Entries extracted per source in the last run.",
		}, []string{"source"}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pubrank_merge_duplicates_total",
			Help: "Secondary entries dropped as duplicates of primary entries.",
		}),
		expired: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pubrank_cache_expired_total",
			Help: "Stale unknown records dropped when loading a rank cache.",
		}, []string{"catalog"}),
		warnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pubrank_warnings_total",
			Help: "Warnings recorded in the run log by level.",
		}, []string{"level"}),
		lastDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pubrank_run_duration_seconds",
			Help: "Wall time of the last rank run.",
		}),
	}
	m.registry.MustRegister(m.lookups, m.entries, m.dropped, m.expired, m.warnings, m.lastDuration)
	return m
}

// ObserveLookup counts one resolved entry.
func (m *Metrics) ObserveLookup(catalog, outcome string) {
	if m == nil {
		return
	}
	m.lookups.WithLabelValues(catalog, outcome).Inc()
}

// SetEntries records how many entries a source yielded.
func (m *Metrics) SetEntries(source string, n int) {
	if m == nil {
		return
	}
	m.entries.WithLabelValues(source).Set(float64(n))
}

// AddDropped counts merge duplicates.
func (m *Metrics) AddDropped(n int) {
	if m == nil {
		return
	}
	m.dropped.Add(float64(n))
}

// AddExpired counts stale cache records dropped at load.
func (m *Metrics) AddExpired(catalog string, n int) {
	if m == nil {
		return
	}
	m.expired.WithLabelValues(catalog).Add(float64(n))
}

// ObserveWarning counts a warning by level.
func (m *Metrics) ObserveWarning(level string) {
	if m == nil {
		return
	}
	m.warnings.WithLabelValues(level).Inc()
}

// SetDuration records the run wall time.
func (m *Metrics) SetDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.lastDuration.Set(d.Seconds())
}

// Registry exposes the registry for tests and custom exporters.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// WriteTextfile writes every collector to path in the Prometheus text
// format, atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}
