package lifecycle

import "errors"

// Sentinel errors returned by lifecycle operations. Callers match them
// with errors.Is; wrapped forms carry the view id and cause.
var (
	// ErrNotFound means no view exists under the given id.
	ErrNotFound = errors.New("view not found")

	// ErrCreateFailed means the content surface could not be allocated.
	ErrCreateFailed = errors.New("view create failed")

	// ErrLoadFailed means every candidate URL was exhausted. The view
	// stays alive in the failed state.
	ErrLoadFailed = errors.New("view load failed")

	// ErrNavigationBlocked means a navigation was denied, or routing a
	// URL to the system browser failed.
	ErrNavigationBlocked = errors.New("navigation blocked")

	// ErrSuperseded completes a load attempt that was replaced by a
	// newer reload before it settled.
	ErrSuperseded = errors.New("load superseded by newer reload")

	// ErrDestroyed completes a load attempt whose view was destroyed
	// mid-flight.
	ErrDestroyed = errors.New("view destroyed during load")
)
