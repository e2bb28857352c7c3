package headless

import (
	"context"
	"sync"
	"time"

	"github.com/hearthdesk/hearth/backend/internal/infrastructure/logging"
	"github.com/hearthdesk/hearth/backend/internal/surface"
	"go.uber.org/zap"
)

// navQueueDepth bounds the in-flight navigation queue. The lifecycle
// service dispatches at most one navigation per surface at a time, so
// the queue stays shallow; overflow falls back to an async send.
const navQueueDepth = 16

// Surface is the in-process surface implementation. Navigations are
// validated by the prober on a dedicated worker goroutine, one at a
// time, so LoadFinished events arrive in Navigate call order.
type Surface struct {
	id     string
	appID  string
	opts   surface.Options
	sink   surface.EventSink
	prober *Prober
	rt     *Runtime
	log    *logging.Logger

	mu        sync.Mutex
	userAgent string
	css       []string
	visible   bool
	bounds    [4]int

	navCh     chan string
	quit      chan struct{}
	closeOnce sync.Once
}

func newSurface(id, appID string, opts surface.Options, sink surface.EventSink, prober *Prober, scriptTimeout time.Duration, log *logging.Logger) (*Surface, error) {
	rt, err := NewRuntime(scriptTimeout)
	if err != nil {
		return nil, err
	}
	s := &Surface{
		id:        id,
		appID:     appID,
		opts:      opts,
		sink:      sink,
		prober:    prober,
		rt:        rt,
		log:       log,
		userAgent: opts.UserAgent,
		navCh:     make(chan string, navQueueDepth),
		quit:      make(chan struct{}),
	}
	go s.navWorker()
	return s, nil
}

// ID returns the content identifier of this surface.
func (s *Surface) ID() string { return s.id }

// Navigate enqueues a navigation. It never blocks the caller; the
// outcome arrives through the sink's LoadFinished.
func (s *Surface) Navigate(url string) {
	select {
	case s.navCh <- url:
	case <-s.quit:
	default:
		go func() {
			select {
			case s.navCh <- url:
			case <-s.quit:
			}
		}()
	}
}

// navWorker serializes navigations so completion events keep call
// order.
func (s *Surface) navWorker() {
	for {
		select {
		case <-s.quit:
			return
		case url := <-s.navCh:
			s.mu.Lock()
			ua := s.userAgent
			s.mu.Unlock()

			ctx, cancel := context.WithTimeout(context.Background(), s.prober.timeout)
			_, err := s.prober.Probe(ctx, url, ua)
			cancel()

			select {
			case <-s.quit:
				return
			default:
			}
			s.sink.LoadFinished(url, err)
		}
	}
}

// OpenLink simulates a link activation inside the page: the owner is
// asked for a decision, and only an in-surface decision navigates.
func (s *Surface) OpenLink(url string) surface.Decision {
	d := s.sink.NavigationRequested(url)
	if d == surface.OpenInSurface {
		s.Navigate(url)
	}
	return d
}

// SetBounds records the surface rectangle.
func (s *Surface) SetBounds(x, y, width, height int) {
	s.mu.Lock()
	s.bounds = [4]int{x, y, width, height}
	s.mu.Unlock()
}

// Bounds returns the last applied rectangle.
func (s *Surface) Bounds() (x, y, width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bounds[0], s.bounds[1], s.bounds[2], s.bounds[3]
}

// Show marks the surface visible.
func (s *Surface) Show() {
	s.mu.Lock()
	s.visible = true
	s.mu.Unlock()
}

// Hide marks the surface hidden.
func (s *Surface) Hide() {
	s.mu.Lock()
	s.visible = false
	s.mu.Unlock()
}

// Visible reports whether the surface is currently shown.
func (s *Surface) Visible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visible
}

// Eval runs a script in the surface's page context.
func (s *Surface) Eval(script string) error {
	err := s.rt.Exec(script)
	for _, entry := range s.rt.Console() {
		s.log.Debug("Surface console",
			zap.String("content_id", s.id),
			zap.String("level", entry.Level),
			zap.String("message", entry.Message))
	}
	return err
}

// Runtime exposes the script runtime for inspection in tests.
func (s *Surface) Runtime() *Runtime { return s.rt }

// InsertCSS records injected CSS.
func (s *Surface) InsertCSS(css string) error {
	s.mu.Lock()
	s.css = append(s.css, css)
	s.mu.Unlock()
	return nil
}

// InjectedCSS returns all CSS inserted so far.
func (s *Surface) InjectedCSS() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.css...)
}

// SetUserAgent overrides the user agent for subsequent navigations.
func (s *Surface) SetUserAgent(ua string) {
	s.mu.Lock()
	s.userAgent = ua
	s.mu.Unlock()
}

// Close stops the nav worker. It never blocks and is safe to call
// multiple times.
func (s *Surface) Close() error {
	s.closeOnce.Do(func() { close(s.quit) })
	return nil
}
