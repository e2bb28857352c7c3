// Package http implements the command surface the host UI drives:
// view lifecycle operations, layout computation, and the profile
// catalog, all returning ok/error JSON envelopes.
package http
