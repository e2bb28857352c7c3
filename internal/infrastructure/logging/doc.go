// Package logging provides structured logging built on zap.
//
// A single Logger is constructed at startup and passed to components;
// production output is JSON, development output is colored console.
package logging
