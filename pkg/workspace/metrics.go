// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Metrics wires github.com/prometheus/client_golang into the Workspace,
// per SPEC_FULL.md §11: documents indexed, parse-error rate, refactor
// requests by kind and outcome, and reparse/scan latency, scraped from
// cmd/elmwright serve's /metrics endpoint. Grounded on the shape of the
// teacher's dependency graph anticipating this library (it ships in the
// teacher's own go.mod though nothing in pkg/ingestion exercises it
// directly) rather than on a specific teacher file.
package workspace

import "github.com/prometheus/client_golang/prometheus"

// Metrics groups every gauge/counter/histogram the workspace observes.
// All are registered against a caller-supplied prometheus.Registerer so
// cmd/elmwright serve can mount them on its own registry instead of the
// global default one.
type Metrics struct {
	FilesIndexed    prometheus.Gauge
	ParseErrorCount prometheus.Gauge
	ScanErrors      prometheus.Counter
	ScanDuration    prometheus.Histogram
	ReparseDuration prometheus.Histogram

	RefactorRequests *prometheus.CounterVec
}

// NewMetrics creates and registers every metric against reg. Passing
// prometheus.NewRegistry() (rather than the global DefaultRegisterer)
// keeps repeated test construction from panicking on duplicate
// registration.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		FilesIndexed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "elmwright_files_indexed",
			Help: "Number of source files currently held in the workspace index.",
		}),
		ParseErrorCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "elmwright_parse_errors",
			Help: "Number of indexed files whose most recent parse contained an error-recovery node.",
		}),
		ScanErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "elmwright_scan_errors_total",
			Help: "Number of files that could not be read during a scan.",
		}),
		ScanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "elmwright_scan_duration_seconds",
			Help:    "Duration of a full workspace scan.",
			Buckets: prometheus.DefBuckets,
		}),
		ReparseDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "elmwright_reparse_duration_seconds",
			Help:    "Duration of a single-file reparse triggered by didChange or a watched-file event.",
			Buckets: prometheus.DefBuckets,
		}),
		RefactorRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "elmwright_refactor_requests_total",
			Help: "Refactor engine requests by operation kind and outcome (ok/error).",
		}, []string{"operation", "outcome"}),
	}
	reg.MustRegister(
		m.FilesIndexed, m.ParseErrorCount, m.ScanErrors,
		m.ScanDuration, m.ReparseDuration, m.RefactorRequests,
	)
	return m
}

// observeRefactor records one refactor.Engine call's outcome, used by
// cmd/elmwright's command handlers right after calling into the
// engine.
func (m *Metrics) observeRefactor(operation string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.RefactorRequests.WithLabelValues(operation, outcome).Inc()
}
