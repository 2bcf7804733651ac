package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// VersionChecks records version check outcomes by state
	// (version_ok|version_warned|version_blocked|protocol_error|check_failed).
	VersionChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatgate_version_checks_total",
			Help: "Total number of server version checks",
		},
		[]string{"state"},
	)

	// FetchAttempts counts individual calls made to chat servers by operation and result (success|retry|failure).
	FetchAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatgate_fetch_attempts_total",
			Help: "Total number of chat server fetch attempts",
		},
		[]string{"operation", "result"},
	)

	// EnabledAccounts tracks the number of login providers configured on the last probe per category.
	EnabledAccounts = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "chatgate_enabled_accounts",
			Help: "Number of login providers enabled on the last probe",
		},
		[]string{"category"},
	)

	// SettingsRefreshes counts settings cache refreshes by result (success|failure).
	SettingsRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatgate_settings_refreshes_total",
			Help: "Total number of public settings refreshes",
		},
		[]string{"result"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chatgate_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
