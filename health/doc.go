// Package health reports component health as a three-state Status: healthy,
// degraded or unhealthy.
//
// A Status carries the component name, a short message, an optional Metrics
// snapshot and any sub-statuses. Aggregate folds several statuses into one,
// taking the worst state. The tcp client and the NATS client each report a
// Status, and the metrics server aggregates them on /health.
//
// Messages are passed through SanitizeErrorMessage before they are exposed,
// so addresses and credentials embedded in error text do not leak.
package health
