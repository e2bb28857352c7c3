// Package server assembles the backend: configuration, logging,
// metrics, profile registry, headless surface allocator, view
// lifecycle service, shared state, event stream, and the gin router
// exposing the command surface.
package server
