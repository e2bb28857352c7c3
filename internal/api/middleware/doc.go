// Package middleware provides gin middleware for the command surface:
// CORS scoped to the shell's UI origins and per-IP rate limiting.
package middleware
