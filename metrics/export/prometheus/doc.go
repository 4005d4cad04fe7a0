// Package prometheus exposes goSession metrics to Prometheus.
//
// [PrometheusExporter] implements prometheus.Collector over
// [goSession.Engine.MetricsSnapshot]. Counter names are gosession_*_total; the
// latency histograms are gosession_request_latency_seconds and
// gosession_renew_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in the global Prometheus registry. Callers mount the Handler
//     or register the collector themselves.
//   - Mutate engine state.
package prometheus
