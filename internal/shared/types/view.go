package types

import "time"

// Visibility represents whether a view is currently painted on screen
type Visibility string

const (
	VisibilityHidden  Visibility = "hidden"
	VisibilityVisible Visibility = "visible"
)

// LoadState represents the load protocol state of a view
type LoadState string

const (
	LoadNotStarted LoadState = "not_started"
	LoadStaging    LoadState = "staging"
	LoadLoading    LoadState = "loading"
	LoadLoaded     LoadState = "loaded"
	LoadFailed     LoadState = "failed"
)

// Bounds is a rectangle in container-local coordinates
type Bounds struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ViewSnapshot is a read-only copy of a view's runtime state
type ViewSnapshot struct {
	ID         string     `json:"id"`
	ContentID  string     `json:"content_id"`
	CurrentURL string     `json:"current_url,omitempty"`
	Visibility Visibility `json:"visibility"`
	Bounds     Bounds     `json:"bounds"`
	LoadState  LoadState  `json:"load_state"`
	ZOrderRank uint64     `json:"z_order_rank"`
	CreatedAt  time.Time  `json:"created_at"`
}

// ViewStats contains lifecycle manager statistics
type ViewStats struct {
	TotalViews   int     `json:"total_views"`
	VisibleViews int     `json:"visible_views"`
	LoadedViews  int     `json:"loaded_views"`
	FailedViews  int     `json:"failed_views"`
	FrontmostID  *string `json:"frontmost_id,omitempty"`
}

// EventType identifies an asynchronous view lifecycle event
type EventType string

const (
	EventLoadFinished      EventType = "load_finished"
	EventLoadFailed        EventType = "load_failed"
	EventNavigationBlocked EventType = "navigation_blocked"
	EventSurfaceCrashed    EventType = "surface_crashed"
	EventStateChanged      EventType = "state_changed"
)

// ViewEvent is pushed to the host UI over the event stream
type ViewEvent struct {
	Type      EventType `json:"type"`
	ViewID    string    `json:"view_id"`
	URL       string    `json:"url,omitempty"`
	Title     string    `json:"title,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp int64     `json:"timestamp"`
}

// WSMessage is an inbound message on the event stream
type WSMessage struct {
	Type  string                 `json:"type"`
	Key   string                 `json:"key,omitempty"`
	Value interface{}            `json:"value,omitempty"`
	Data  map[string]interface{} `json:"data,omitempty"`
}
