package lifecycle

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hearthdesk/hearth/backend/internal/infrastructure/logging"
	"github.com/hearthdesk/hearth/backend/internal/infrastructure/monitoring"
	"github.com/hearthdesk/hearth/backend/internal/profile"
	"github.com/hearthdesk/hearth/backend/internal/shared/types"
	"github.com/hearthdesk/hearth/backend/internal/surface"
	"github.com/hearthdesk/hearth/backend/internal/view"
	"go.uber.org/zap"
)

// defaultVisibilityInterval is used when a profile enables periodic
// visibility checks without naming an interval.
const defaultVisibilityInterval = 3 * time.Second

// Publisher pushes view events to the host UI.
type Publisher interface {
	Publish(event types.ViewEvent)
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(types.ViewEvent) {}

// Service owns every mini-app view. One mutex serializes all state
// mutation: public operations and surface event handlers both take it,
// so per-view transitions follow call order and async completions
// cannot interleave with commands.
type Service struct {
	mu       sync.Mutex
	views    *view.Registry
	loads    map[string]*loadAttempt
	fifos    map[string][]navTag
	zCounter uint64

	profiles *profile.Registry
	alloc    surface.Allocator
	opener   Opener
	events   Publisher
	log      *logging.Logger
	metrics  *monitoring.Metrics
}

// NewService creates the view lifecycle service. opener, events, and
// metrics may be nil; nil opener and events fall back to no-ops.
func NewService(profiles *profile.Registry, alloc surface.Allocator, opener Opener, events Publisher, log *logging.Logger, metrics *monitoring.Metrics) *Service {
	if opener == nil {
		opener = NopOpener{}
	}
	if events == nil {
		events = NopPublisher{}
	}
	if log == nil {
		log = logging.NewNop()
	}
	return &Service{
		views:    view.NewRegistry(),
		loads:    make(map[string]*loadAttempt),
		fifos:    make(map[string][]navTag),
		profiles: profiles,
		alloc:    alloc,
		opener:   opener,
		events:   events,
		log:      log.Named("lifecycle"),
		metrics:  metrics,
	}
}

// viewSink adapts surface events for one view back into the service.
type viewSink struct {
	svc    *Service
	viewID string
}

func (s *viewSink) LoadFinished(url string, err error) {
	s.svc.onLoadFinished(s.viewID, url, err)
}

func (s *viewSink) NavigationRequested(url string) surface.Decision {
	return s.svc.onNavigationRequested(s.viewID, url)
}

func (s *viewSink) Crashed(reason string) {
	s.svc.onCrashed(s.viewID, reason)
}

// Create allocates a view for id and starts its load protocol. A view
// that already exists is left untouched and Create succeeds, so the
// host UI can call it on every app activation.
func (s *Service) Create(id, url string) error {
	s.mu.Lock()
	if _, exists := s.views.Get(id); exists {
		s.mu.Unlock()
		s.log.Debug("View already exists", zap.String("view_id", id))
		return nil
	}
	prof := s.profiles.Resolve(id, url)
	s.mu.Unlock()

	// Allocation happens outside the lock: it may build runtimes.
	sink := &viewSink{svc: s, viewID: id}
	surf, err := s.alloc.Allocate(id, surfaceOptions(prof), sink)
	if err != nil {
		return fmt.Errorf("view %s: %v: %w", id, err, ErrCreateFailed)
	}
	if prof.Load.UserAgent != "" {
		surf.SetUserAgent(prof.Load.UserAgent)
	}

	s.mu.Lock()
	if _, exists := s.views.Get(id); exists {
		// Lost the race to a concurrent Create with the same id.
		s.mu.Unlock()
		surf.Close()
		return nil
	}
	h := view.New(id, prof, surf)
	s.views.Put(h)
	s.startLoad(h, url)
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.RecordViewCreated()
	}
	s.log.Info("View created",
		zap.String("view_id", id),
		zap.String("content_id", h.ContentID),
		zap.Int("candidates", len(prof.CandidateURLs)))
	s.publishState(id)
	return nil
}

// WaitLoad blocks until the view's current load attempt settles.
// Returns nil on commit, ErrLoadFailed on exhaustion, ErrSuperseded if
// a newer reload replaced the attempt, ErrDestroyed if the view went
// away, or the context error.
func (s *Service) WaitLoad(ctx context.Context, id string) error {
	s.mu.Lock()
	att := s.loads[id]
	if att == nil {
		_, exists := s.views.Get(id)
		s.mu.Unlock()
		if !exists {
			return fmt.Errorf("view %s: %w", id, ErrNotFound)
		}
		return nil
	}
	s.mu.Unlock()

	select {
	case <-att.doneCh:
		return att.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Show applies bounds, makes the view visible, and brings it to the
// front of the stacking order. The requested bounds are recorded
// as-is; the surface receives the layout-hint-adjusted rectangle.
func (s *Service) Show(id string, b types.Bounds) error {
	s.mu.Lock()
	h, ok := s.views.Get(id)
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("view %s: %w", id, ErrNotFound)
	}

	h.Bounds = b
	h.Visibility = types.VisibilityVisible
	s.zCounter++
	h.ZOrderRank = s.zCounter
	rank := h.ZOrderRank

	// The surface calls stay under the lock so the visibility the
	// handle records and the visibility the surface applies cannot
	// reorder under concurrent Show/Hide on the same id. Surfaces do
	// not call back into the service from these methods.
	content := applyLayoutHints(b, h.Profile.Layout)
	h.Surface.SetBounds(content.X, content.Y, content.Width, content.Height)
	h.Surface.Show()
	if h.Profile.Load.PeriodicVisibilityCheck &&
		h.Profile.Load.VisibilityScript != "" &&
		h.LoadState == types.LoadLoaded {
		s.armPulse(h)
	}
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.RecordShow()
	}
	s.log.Debug("View shown",
		zap.String("view_id", id),
		zap.Uint64("z_rank", rank),
		zap.Int("width", b.Width),
		zap.Int("height", b.Height))
	s.publishState(id)
	return nil
}

// Hide makes the view invisible without touching its load state.
func (s *Service) Hide(id string) error {
	s.mu.Lock()
	h, ok := s.views.Get(id)
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("view %s: %w", id, ErrNotFound)
	}
	h.Visibility = types.VisibilityHidden
	h.StopPulse()
	h.Surface.Hide()
	s.mu.Unlock()

	s.log.Debug("View hidden", zap.String("view_id", id))
	s.publishState(id)
	return nil
}

// HideAll hides every view. Safe on an empty registry.
func (s *Service) HideAll() {
	s.mu.Lock()
	handles := s.views.All()
	for _, h := range handles {
		h.Visibility = types.VisibilityHidden
		h.StopPulse()
		h.Surface.Hide()
	}
	s.mu.Unlock()

	if len(handles) > 0 {
		s.log.Debug("All views hidden", zap.Int("count", len(handles)))
	}
}

// Destroy tears a view down: pulse stopped, surface closed
// best-effort, handle removed. Destroying an absent id succeeds.
func (s *Service) Destroy(id string) error {
	s.mu.Lock()
	h, ok := s.views.Get(id)
	if !ok {
		s.mu.Unlock()
		return nil
	}
	if att := s.loads[id]; att != nil {
		att.finish(fmt.Errorf("view %s: %w", id, ErrDestroyed))
	}
	delete(s.loads, id)
	delete(s.fifos, id)
	s.views.Remove(id)
	surf := h.Surface
	s.mu.Unlock()

	h.StopPulse()
	if err := surf.Close(); err != nil {
		s.log.Warn("Surface close failed", zap.String("view_id", id), zap.Error(err))
	}

	if s.metrics != nil {
		s.metrics.RecordViewDestroyed()
	}
	s.log.Info("View destroyed", zap.String("view_id", id))
	s.events.Publish(types.ViewEvent{
		Type:      types.EventStateChanged,
		ViewID:    id,
		Timestamp: time.Now().UnixMilli(),
	})
	return nil
}

// Reload restarts the load protocol on the existing surface. An
// in-flight load completes with ErrSuperseded and its late events are
// discarded. A non-empty url overrides the profile's first candidate.
func (s *Service) Reload(id, url string) error {
	s.mu.Lock()
	h, ok := s.views.Get(id)
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("view %s: %w", id, ErrNotFound)
	}
	s.startLoad(h, url)
	gen := h.Gen
	s.mu.Unlock()

	s.log.Info("View reloading",
		zap.String("view_id", id),
		zap.String("url", url),
		zap.Uint64("generation", gen))
	s.publishState(id)
	return nil
}

// CurrentURL returns the committed URL for a loaded view. The second
// return is false whenever no commit is in effect: before the first
// commit, while a load or reload is in flight, and after a failure.
func (s *Service) CurrentURL(id string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.views.Get(id)
	if !ok {
		return "", false, fmt.Errorf("view %s: %w", id, ErrNotFound)
	}
	if h.LoadState != types.LoadLoaded {
		return "", false, nil
	}
	return h.CurrentURL, true, nil
}

// ContentID returns the stable surface identifier for the view.
func (s *Service) ContentID(id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.views.Get(id)
	if !ok {
		return "", fmt.Errorf("view %s: %w", id, ErrNotFound)
	}
	return h.ContentID, nil
}

// SetLinkPolicy overrides the profile's navigation policy for this
// view: true routes every link externally, false keeps every link in
// the surface.
func (s *Service) SetLinkPolicy(id string, openExternally bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.views.Get(id)
	if !ok {
		return fmt.Errorf("view %s: %w", id, ErrNotFound)
	}
	h.LinkOverride = &openExternally
	return nil
}

// ClearLinkPolicy restores the profile's navigation policy.
func (s *Service) ClearLinkPolicy(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.views.Get(id)
	if !ok {
		return fmt.Errorf("view %s: %w", id, ErrNotFound)
	}
	h.LinkOverride = nil
	return nil
}

// Snapshot returns a copy of one view's state.
func (s *Service) Snapshot(id string) (types.ViewSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.views.Get(id)
	if !ok {
		return types.ViewSnapshot{}, fmt.Errorf("view %s: %w", id, ErrNotFound)
	}
	return h.Snapshot(), nil
}

// List returns snapshots of every view sorted by id.
func (s *Service) List() []types.ViewSnapshot {
	s.mu.Lock()
	handles := s.views.All()
	out := make([]types.ViewSnapshot, 0, len(handles))
	for _, h := range handles {
		out = append(out, h.Snapshot())
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Stats summarizes the registry. The frontmost view is the visible one
// with the highest stacking rank.
func (s *Service) Stats() types.ViewStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := types.ViewStats{TotalViews: s.views.Len()}
	var topRank uint64
	for _, h := range s.views.All() {
		switch h.LoadState {
		case types.LoadLoaded:
			stats.LoadedViews++
		case types.LoadFailed:
			stats.FailedViews++
		}
		if h.Visibility == types.VisibilityVisible {
			stats.VisibleViews++
			if h.ZOrderRank >= topRank {
				topRank = h.ZOrderRank
				id := h.ID
				stats.FrontmostID = &id
			}
		}
	}
	return stats
}

// Shutdown destroys every view.
func (s *Service) Shutdown() {
	for _, snap := range s.List() {
		s.Destroy(snap.ID)
	}
}

// onNavigationRequested answers a surface's navigation query and
// performs the external open when the decision calls for one.
func (s *Service) onNavigationRequested(id, url string) surface.Decision {
	s.mu.Lock()
	h, ok := s.views.Get(id)
	if !ok {
		s.mu.Unlock()
		return surface.Block
	}
	decision := decideNavigation(h, url)
	s.mu.Unlock()

	if decision != surface.OpenExternally {
		return decision
	}

	if err := s.opener.OpenExternal(url); err != nil {
		s.log.Warn("External open failed",
			zap.String("view_id", id),
			zap.String("url", url),
			zap.Error(err))
		s.events.Publish(types.ViewEvent{
			Type:      types.EventNavigationBlocked,
			ViewID:    id,
			URL:       url,
			Error:     err.Error(),
			Timestamp: time.Now().UnixMilli(),
		})
		return surface.Block
	}

	if s.metrics != nil {
		s.metrics.RecordExternalNavigation()
	}
	s.log.Debug("Navigation routed externally",
		zap.String("view_id", id),
		zap.String("url", url))
	return surface.OpenExternally
}

// onCrashed handles a surface crash: the view survives in the failed
// state so the host UI can offer a reload.
func (s *Service) onCrashed(id, reason string) {
	s.mu.Lock()
	h, ok := s.views.Get(id)
	if !ok {
		s.mu.Unlock()
		return
	}
	h.LoadState = types.LoadFailed
	if att := s.loads[id]; att != nil {
		att.finish(fmt.Errorf("view %s: surface crashed: %s: %w", id, reason, ErrLoadFailed))
	}
	s.mu.Unlock()

	h.StopPulse()
	s.log.Error("Surface crashed",
		zap.String("view_id", id),
		zap.String("reason", reason))
	s.events.Publish(types.ViewEvent{
		Type:      types.EventSurfaceCrashed,
		ViewID:    id,
		Error:     reason,
		Timestamp: time.Now().UnixMilli(),
	})
}

func (s *Service) publishState(id string) {
	s.events.Publish(types.ViewEvent{
		Type:      types.EventStateChanged,
		ViewID:    id,
		Timestamp: time.Now().UnixMilli(),
	})
}

// surfaceOptions maps profile flags onto surface allocation options.
func surfaceOptions(p profile.Profile) surface.Options {
	return surface.Options{
		Sandbox:              p.Surface.Sandbox,
		ContextIsolation:     p.Surface.ContextIsolation,
		WebSecurity:          p.Surface.WebSecurity,
		AllowInsecureContent: p.Surface.AllowInsecureContent,
		BackgroundThrottling: p.Surface.BackgroundThrottling,
		Offscreen:            p.Surface.Offscreen,
		UserAgent:            p.Load.UserAgent,
		BackgroundColor:      p.Layout.BackgroundColor,
	}
}
