// Package metrics provides lock-free counters and latency histograms for the
// session engine.
//
// Counters are stored in cache-line-padded uint64 slots and incremented
// atomically. The two latency metrics (request and renewal) use 8 fixed
// buckets (≤5ms … +Inf). Both are allocation-free on the write path.
//
// Export (Prometheus, OTel) lives in metrics/export/ and reads Snapshot values.
// This package performs no I/O and imports no sibling package.
package metrics
