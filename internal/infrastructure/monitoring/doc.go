// Package monitoring provides Prometheus metrics for the backend.
//
// Metrics cover the HTTP command surface, the view lifecycle (live
// views, load outcomes, external navigations) and the event stream.
package monitoring
