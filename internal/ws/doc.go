// Package ws serves the backend's event stream. Connected clients
// receive view lifecycle events and shared-state changes, and can
// drive the state protocol (state.set/get/remove/keys/clear) over the
// same connection.
package ws
