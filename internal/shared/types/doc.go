// Package types provides shared data structures for the Hearth backend.
//
// This package defines core types used across all backend components,
// ensuring type safety and consistent data structures.
//
// Core Types:
//   - Bounds: Container-local view rectangle
//   - ViewSnapshot: Read-only copy of a view's runtime state
//   - ViewStats: Lifecycle manager statistics
//   - ViewEvent: Asynchronous event pushed to the host UI
//
// State Management:
//   - Visibility: View visibility enum (hidden, visible)
//   - LoadState: Load protocol state enum
//
// Example Usage:
//
//	snap := types.ViewSnapshot{
//	    ID:         "bolt.diy",
//	    Visibility: types.VisibilityVisible,
//	    LoadState:  types.LoadLoaded,
//	}
package types
