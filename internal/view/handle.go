package view

import (
	"sync"
	"time"

	"github.com/hearthdesk/hearth/backend/internal/profile"
	"github.com/hearthdesk/hearth/backend/internal/shared/types"
	"github.com/hearthdesk/hearth/backend/internal/surface"
)

// Handle is the runtime state of one mini-app view. Fields are mutated
// only by the lifecycle service while it holds its own lock; the
// visibility pulse is the one concurrent member and carries its own
// guard.
type Handle struct {
	ID        string
	ContentID string
	Profile   profile.Profile
	Surface   surface.Surface

	CurrentURL string
	Visibility types.Visibility
	Bounds     types.Bounds
	LoadState  types.LoadState
	ZOrderRank uint64

	// Gen is the load generation. Every new load attempt bumps it;
	// completion events carrying an older generation are stale.
	Gen uint64

	// LinkOverride, when set, replaces the profile's navigation policy
	// outcome: true forces external opening, false forces in-surface.
	LinkOverride *bool

	CreatedAt time.Time

	pulseMu sync.Mutex
	pulse   chan struct{}
}

// New creates a hidden, not-yet-loaded handle.
func New(id string, p profile.Profile, s surface.Surface) *Handle {
	return &Handle{
		ID:         id,
		ContentID:  s.ID(),
		Profile:    p,
		Surface:    s,
		Visibility: types.VisibilityHidden,
		LoadState:  types.LoadNotStarted,
		CreatedAt:  time.Now(),
	}
}

// Snapshot returns a read-only copy of the handle's state.
func (h *Handle) Snapshot() types.ViewSnapshot {
	return types.ViewSnapshot{
		ID:         h.ID,
		ContentID:  h.ContentID,
		CurrentURL: h.CurrentURL,
		Visibility: h.Visibility,
		Bounds:     h.Bounds,
		LoadState:  h.LoadState,
		ZOrderRank: h.ZOrderRank,
		CreatedAt:  h.CreatedAt,
	}
}

// StartPulse runs fn on an interval until StopPulse. An already
// running pulse is restarted with the new interval.
func (h *Handle) StartPulse(interval time.Duration, fn func()) {
	h.pulseMu.Lock()
	defer h.pulseMu.Unlock()

	if h.pulse != nil {
		close(h.pulse)
	}
	stop := make(chan struct{})
	h.pulse = stop

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				fn()
			}
		}
	}()
}

// StopPulse stops the visibility pulse if one is running.
func (h *Handle) StopPulse() {
	h.pulseMu.Lock()
	defer h.pulseMu.Unlock()
	if h.pulse != nil {
		close(h.pulse)
		h.pulse = nil
	}
}

// PulseRunning reports whether a visibility pulse is active.
func (h *Handle) PulseRunning() bool {
	h.pulseMu.Lock()
	defer h.pulseMu.Unlock()
	return h.pulse != nil
}
