// Package monitoring provides Prometheus metrics for the preview
// pipeline, project store, relay, persistence, and HTTP surface,
// plus a gin middleware that records per-request metrics.
package monitoring
