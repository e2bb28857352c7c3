package lifecycle

import (
	"fmt"
	"time"

	"github.com/hearthdesk/hearth/backend/internal/shared/types"
	"github.com/hearthdesk/hearth/backend/internal/view"
	"go.uber.org/zap"
)

// blankURL is the neutral staging page loaded before the real
// candidate when a profile asks for it.
const blankURL = "about:blank"

// loadAttempt tracks one generation of the load protocol for a view.
type loadAttempt struct {
	gen       uint64
	remaining []string
	lastErr   error
	started   time.Time

	doneCh   chan struct{}
	err      error
	finished bool
}

func newAttempt(gen uint64, candidates []string) *loadAttempt {
	return &loadAttempt{
		gen:       gen,
		remaining: candidates,
		started:   time.Now(),
		doneCh:    make(chan struct{}),
	}
}

// finish settles the attempt exactly once. err is published to waiters
// through doneCh.
func (a *loadAttempt) finish(err error) {
	if a.finished {
		return
	}
	a.finished = true
	a.err = err
	close(a.doneCh)
}

// navTag labels one dispatched navigation so its completion event can
// be matched back to the generation that issued it.
type navTag struct {
	gen     uint64
	url     string
	staging bool
}

// startLoad begins a new load generation for h. The caller holds the
// service lock. Any unfinished prior attempt completes with
// ErrSuperseded; its still-pending completion events become stale and
// will be discarded by generation mismatch.
func (s *Service) startLoad(h *view.Handle, override string) {
	h.Gen++
	if prev := s.loads[h.ID]; prev != nil {
		prev.finish(ErrSuperseded)
	}

	att := newAttempt(h.Gen, buildCandidates(h.Profile, override))
	s.loads[h.ID] = att

	if len(att.remaining) == 0 {
		h.LoadState = types.LoadFailed
		att.finish(fmt.Errorf("view %s: no candidate urls: %w", h.ID, ErrLoadFailed))
		return
	}

	if h.Profile.Load.LoadBlankFirst {
		h.LoadState = types.LoadStaging
		s.dispatch(h, att.gen, blankURL, true)
		return
	}
	h.LoadState = types.LoadLoading
	s.dispatchNext(h, att)
}

// dispatchNext sends the next candidate to the surface. The caller
// holds the service lock and has checked remaining is non-empty.
func (s *Service) dispatchNext(h *view.Handle, att *loadAttempt) {
	url := att.remaining[0]
	att.remaining = att.remaining[1:]
	s.dispatch(h, att.gen, url, false)
}

func (s *Service) dispatch(h *view.Handle, gen uint64, url string, staging bool) {
	s.fifos[h.ID] = append(s.fifos[h.ID], navTag{gen: gen, url: url, staging: staging})
	h.Surface.Navigate(url)
}

// onLoadFinished handles a completion event from a view's surface.
// Events arrive in dispatch order; each is matched to the oldest
// outstanding navigation and discarded if its generation is stale.
func (s *Service) onLoadFinished(viewID, url string, loadErr error) {
	s.mu.Lock()

	h, ok := s.views.Get(viewID)
	if !ok {
		s.mu.Unlock()
		return
	}

	fifo := s.fifos[viewID]
	if len(fifo) == 0 {
		s.mu.Unlock()
		s.log.Warn("Load event without outstanding navigation",
			zap.String("view_id", viewID), zap.String("url", url))
		return
	}
	tag := fifo[0]
	s.fifos[viewID] = fifo[1:]

	if tag.gen != h.Gen {
		s.mu.Unlock()
		s.log.Debug("Discarding stale load event",
			zap.String("view_id", viewID),
			zap.String("url", url),
			zap.Uint64("event_gen", tag.gen),
			zap.Uint64("current_gen", h.Gen))
		return
	}

	att := s.loads[viewID]
	if att == nil || att.gen != tag.gen {
		s.mu.Unlock()
		return
	}

	if tag.staging {
		// The staging page settled; move on to the real candidate.
		// A blank page failing to load is not a candidate failure.
		h.LoadState = types.LoadLoading
		s.dispatchNext(h, att)
		s.mu.Unlock()
		return
	}

	if loadErr != nil {
		att.lastErr = loadErr
		if len(att.remaining) > 0 {
			s.log.Info("Candidate failed, trying next",
				zap.String("view_id", viewID),
				zap.String("url", url),
				zap.Error(loadErr))
			s.dispatchNext(h, att)
			s.mu.Unlock()
			return
		}

		h.LoadState = types.LoadFailed
		err := fmt.Errorf("view %s: all candidates exhausted, last %s: %v: %w",
			viewID, url, loadErr, ErrLoadFailed)
		att.finish(err)
		duration := time.Since(att.started)
		s.mu.Unlock()

		if s.metrics != nil {
			s.metrics.RecordLoad("failure", duration)
		}
		s.log.Warn("View load failed", zap.String("view_id", viewID), zap.Error(err))
		s.events.Publish(types.ViewEvent{
			Type:      types.EventLoadFailed,
			ViewID:    viewID,
			URL:       url,
			Error:     loadErr.Error(),
			Timestamp: time.Now().UnixMilli(),
		})
		return
	}

	// Commit.
	h.CurrentURL = url
	h.LoadState = types.LoadLoaded
	att.finish(nil)
	duration := time.Since(att.started)
	surf := h.Surface
	load := h.Profile.Load
	visible := h.Visibility == types.VisibilityVisible
	s.mu.Unlock()

	if load.InjectCSS != "" {
		if err := surf.InsertCSS(load.InjectCSS); err != nil {
			s.log.Warn("CSS injection failed", zap.String("view_id", viewID), zap.Error(err))
		}
	}
	if load.VisibilityScript != "" {
		if err := surf.Eval(load.VisibilityScript); err != nil {
			s.log.Warn("Visibility script failed", zap.String("view_id", viewID), zap.Error(err))
		}
		if load.PeriodicVisibilityCheck && visible {
			s.armPulse(h)
		}
	}

	if s.metrics != nil {
		s.metrics.RecordLoad("success", duration)
	}
	s.log.Info("View loaded",
		zap.String("view_id", viewID),
		zap.String("url", url),
		zap.Duration("duration", duration))
	s.events.Publish(types.ViewEvent{
		Type:      types.EventLoadFinished,
		ViewID:    viewID,
		URL:       url,
		Timestamp: time.Now().UnixMilli(),
	})
}

// armPulse starts the periodic visibility re-assertion for h.
func (s *Service) armPulse(h *view.Handle) {
	interval := time.Duration(h.Profile.Load.VisibilityIntervalMS) * time.Millisecond
	if interval <= 0 {
		interval = defaultVisibilityInterval
	}
	id := h.ID
	h.StartPulse(interval, func() { s.pulseTick(id) })
}

// pulseTick re-runs the visibility script while the view is visible
// and loaded.
func (s *Service) pulseTick(id string) {
	s.mu.Lock()
	h, ok := s.views.Get(id)
	if !ok {
		s.mu.Unlock()
		return
	}
	if h.Visibility != types.VisibilityVisible || h.LoadState != types.LoadLoaded {
		s.mu.Unlock()
		return
	}
	surf := h.Surface
	script := h.Profile.Load.VisibilityScript
	s.mu.Unlock()

	if script == "" {
		return
	}
	if err := surf.Eval(script); err != nil {
		s.log.Debug("Visibility pulse failed", zap.String("view_id", id), zap.Error(err))
	}
}
