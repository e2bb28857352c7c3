// Package main is the entry point for the Hearth backend server.
//
// The server owns the mini-app view lifecycle for the Hearth desktop
// shell: the host UI talks to it over HTTP for commands and over a
// WebSocket stream for events and shared state.
//
// Configuration:
//   - Environment variables (12-factor)
//   - CLI flags (override env vars)
//   - Defaults for local development
//
// Usage:
//
//	# Default (127.0.0.1:8600)
//	./server
//
//	# Custom port with an on-disk profile store
//	./server -port 9000 -profiles ~/.config/hearth/profiles
//
//	# Development mode (colored logs, debug level)
//	./server -dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
