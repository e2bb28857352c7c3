// Package lifecycle implements the mini-app view lifecycle service.
//
// The Service is the single owner of all view state. Views are created
// from profiles, loaded through a candidate-fallback protocol with
// generation-tagged completion events, shown and stacked by a
// monotonic z-order counter, and destroyed idempotently. Navigation
// requests from surfaces are answered against the profile's pattern
// sets, with per-view overrides and external-force patterns taking
// precedence.
package lifecycle
