// Package headless implements the surface contracts without a real
// rendering engine.
//
// Navigations are validated by probing the target URL (HTTP fetch for
// network candidates, existence plus HTML type check for file://
// candidates) and page scripts run in a sandboxed goja runtime with a
// minimal DOM stub. Each surface serializes its navigations on one
// worker goroutine so load outcomes are reported in request order.
package headless
