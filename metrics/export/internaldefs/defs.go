package internaldefs

import (
	goSession "github.com/MrEthical07/goSession"
)

// CounterDef names one engine counter for exporters.
type CounterDef struct {
	ID   goSession.MetricID
	Name string
	Help string
}

// HistogramDef names one engine latency histogram for exporters.
type HistogramDef struct {
	ID   goSession.MetricID
	Name string
	Help string
}

// AuditDroppedName is the counter exported for [goSession.Engine.AuditDropped].
const AuditDroppedName = "gosession_audit_dropped_total"

// AuditDroppedHelp describes [AuditDroppedName].
const AuditDroppedHelp = "Dropped audit events due to dispatcher backpressure."

var CounterDefs = []CounterDef{
	{ID: goSession.MetricLoginSuccess, Name: "gosession_login_success_total", Help: "Accepted logins."},
	{ID: goSession.MetricLoginFailure, Name: "gosession_login_failure_total", Help: "Refused or failed logins."},
	{ID: goSession.MetricLogout, Name: "gosession_logout_total", Help: "Explicit logouts."},
	{ID: goSession.MetricRenewStarted, Name: "gosession_renew_started_total", Help: "Credential renewals sent to the server."},
	{ID: goSession.MetricRenewJoined, Name: "gosession_renew_joined_total", Help: "Callers that shared a renewal already in flight."},
	{ID: goSession.MetricRenewSuccess, Name: "gosession_renew_success_total", Help: "Successful credential renewals."},
	{ID: goSession.MetricRenewFailure, Name: "gosession_renew_failure_total", Help: "Failed credential renewals."},
	{ID: goSession.MetricForcedLogout, Name: "gosession_forced_logout_total", Help: "Sessions ended by a rejected renewal."},
	{ID: goSession.MetricHydrateSuccess, Name: "gosession_hydrate_success_total", Help: "Identity probes that found a session."},
	{ID: goSession.MetricHydrateFailure, Name: "gosession_hydrate_failure_total", Help: "Identity probes that found no session."},
	{ID: goSession.MetricRequestSuccess, Name: "gosession_request_success_total", Help: "Completed API exchanges."},
	{ID: goSession.MetricRequestFailure, Name: "gosession_request_failure_total", Help: "Failed API exchanges."},
	{ID: goSession.MetricRequestRetried, Name: "gosession_request_retried_total", Help: "API calls resent after a renewal."},
	{ID: goSession.MetricAuthorizationLost, Name: "gosession_authorization_lost_total", Help: "Calls that ended the session."},
	{ID: goSession.MetricNavigationProceed, Name: "gosession_navigation_proceed_total", Help: "Navigations allowed to proceed."},
	{ID: goSession.MetricNavigationRedirect, Name: "gosession_navigation_redirect_total", Help: "Navigations redirected."},
	{ID: goSession.MetricNavigationCancel, Name: "gosession_navigation_cancel_total", Help: "Navigations cancelled."},
}

var HistogramDefs = []HistogramDef{
	{ID: goSession.MetricRequestLatency, Name: "gosession_request_latency_seconds", Help: "API exchange latency histogram."},
	{ID: goSession.MetricRenewLatency, Name: "gosession_renew_latency_seconds", Help: "Credential renewal latency histogram."},
}

// HistogramUpperBounds are the finite bucket bounds in seconds. The last bucket is
// +Inf.
var HistogramUpperBounds = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5}

var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets copies raw into a fixed array, padding missing buckets with zero.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
