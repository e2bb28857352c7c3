// Package state implements the shared key/value store the host UI and
// backend use to exchange small pieces of session state (active app,
// sidebar collapsed, last route). Mutations notify observers so the
// event stream can broadcast changes.
package state
