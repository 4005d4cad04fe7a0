package goSession

import (
	internalmetrics "github.com/MrEthical07/goSession/internal/metrics"
)

// MetricID identifies one engine counter or latency histogram.
type MetricID = internalmetrics.MetricID

const (
	// MetricLoginSuccess counts accepted logins.
	MetricLoginSuccess = internalmetrics.MetricLoginSuccess
	// MetricLoginFailure counts refused or failed logins.
	MetricLoginFailure = internalmetrics.MetricLoginFailure
	// MetricLogout counts explicit logouts.
	MetricLogout = internalmetrics.MetricLogout
	// MetricRenewStarted counts renewal calls actually sent to the server.
	MetricRenewStarted = internalmetrics.MetricRenewStarted
	// MetricRenewJoined counts callers that shared a renewal already in flight.
	MetricRenewJoined = internalmetrics.MetricRenewJoined
	MetricRenewSuccess = internalmetrics.MetricRenewSuccess
	MetricRenewFailure = internalmetrics.MetricRenewFailure
	// MetricForcedLogout counts sessions ended by a rejected renewal.
	MetricForcedLogout   = internalmetrics.MetricForcedLogout
	MetricHydrateSuccess = internalmetrics.MetricHydrateSuccess
	MetricHydrateFailure = internalmetrics.MetricHydrateFailure
	// MetricRequestSuccess and MetricRequestFailure count transport exchanges,
	// renewal and probe calls included.
	MetricRequestSuccess = internalmetrics.MetricRequestSuccess
	MetricRequestFailure = internalmetrics.MetricRequestFailure
	// MetricRequestRetried counts calls resent once after a 401.
	MetricRequestRetried     = internalmetrics.MetricRequestRetried
	MetricAuthorizationLost  = internalmetrics.MetricAuthorizationLost
	MetricNavigationProceed  = internalmetrics.MetricNavigationProceed
	MetricNavigationRedirect = internalmetrics.MetricNavigationRedirect
	MetricNavigationCancel   = internalmetrics.MetricNavigationCancel
	// MetricRequestLatency and MetricRenewLatency are histograms.
	MetricRequestLatency = internalmetrics.MetricRequestLatency
	MetricRenewLatency   = internalmetrics.MetricRenewLatency
)

// Metrics holds the engine counters.
type Metrics = internalmetrics.Metrics

// MetricsSnapshot is a point-in-time copy of every counter and histogram.
type MetricsSnapshot = internalmetrics.Snapshot

// NewMetrics returns a counter set configured by cfg.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return internalmetrics.New(internalmetrics.Config{
		Enabled:                 cfg.Enabled,
		EnableLatencyHistograms: cfg.EnableLatencyHistograms,
	})
}
