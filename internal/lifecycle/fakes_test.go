package lifecycle

import (
	"fmt"
	"sync"
	"time"

	"github.com/hearthdesk/hearth/backend/internal/shared/types"
	"github.com/hearthdesk/hearth/backend/internal/surface"
)

// fakeSurface is a scripted surface: each navigation resolves against
// the outcomes map. In auto mode a worker goroutine fires completions
// in navigation order; in manual mode the test fires them itself.
type fakeSurface struct {
	id   string
	sink surface.EventSink

	mu        sync.Mutex
	outcomes  map[string]error
	navs      []string
	css       []string
	evals     []string
	userAgent string
	visible   bool
	bounds    types.Bounds
	closed    bool

	auto  bool
	navCh chan string
	quit  chan struct{}
	once  sync.Once
}

func newFakeSurface(id string, sink surface.EventSink, outcomes map[string]error, auto bool) *fakeSurface {
	f := &fakeSurface{
		id:       id,
		sink:     sink,
		outcomes: outcomes,
		auto:     auto,
		navCh:    make(chan string, 64),
		quit:     make(chan struct{}),
	}
	if auto {
		go f.worker()
	}
	return f
}

func (f *fakeSurface) worker() {
	for {
		select {
		case <-f.quit:
			return
		case url := <-f.navCh:
			f.mu.Lock()
			err, scripted := f.outcomes[url]
			f.mu.Unlock()
			if !scripted && url != "about:blank" {
				err = fmt.Errorf("unreachable: %s", url)
			}
			select {
			case <-f.quit:
				return
			default:
			}
			f.sink.LoadFinished(url, err)
		}
	}
}

// fire manually completes a navigation (manual mode).
func (f *fakeSurface) fire(url string, err error) {
	f.sink.LoadFinished(url, err)
}

func (f *fakeSurface) ID() string { return f.id }

func (f *fakeSurface) Navigate(url string) {
	f.mu.Lock()
	f.navs = append(f.navs, url)
	f.mu.Unlock()
	if f.auto {
		select {
		case f.navCh <- url:
		case <-f.quit:
		}
	}
}

func (f *fakeSurface) SetBounds(x, y, width, height int) {
	f.mu.Lock()
	f.bounds = types.Bounds{X: x, Y: y, Width: width, Height: height}
	f.mu.Unlock()
}

func (f *fakeSurface) Show() { f.mu.Lock(); f.visible = true; f.mu.Unlock() }
func (f *fakeSurface) Hide() { f.mu.Lock(); f.visible = false; f.mu.Unlock() }

func (f *fakeSurface) Eval(script string) error {
	f.mu.Lock()
	f.evals = append(f.evals, script)
	f.mu.Unlock()
	return nil
}

func (f *fakeSurface) InsertCSS(css string) error {
	f.mu.Lock()
	f.css = append(f.css, css)
	f.mu.Unlock()
	return nil
}

func (f *fakeSurface) SetUserAgent(ua string) {
	f.mu.Lock()
	f.userAgent = ua
	f.mu.Unlock()
}

func (f *fakeSurface) Close() error {
	f.once.Do(func() { close(f.quit) })
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

func (f *fakeSurface) navigations() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.navs...)
}

func (f *fakeSurface) evalCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.evals)
}

// fakeAllocator hands out fakeSurfaces and remembers them by app id.
type fakeAllocator struct {
	mu       sync.Mutex
	outcomes map[string]error
	auto     bool
	surfaces map[string]*fakeSurface
	seq      int
	failNext error
}

func newFakeAllocator(outcomes map[string]error, auto bool) *fakeAllocator {
	return &fakeAllocator{
		outcomes: outcomes,
		auto:     auto,
		surfaces: make(map[string]*fakeSurface),
	}
}

func (a *fakeAllocator) Allocate(appID string, opts surface.Options, sink surface.EventSink) (surface.Surface, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.failNext != nil {
		err := a.failNext
		a.failNext = nil
		return nil, err
	}
	a.seq++
	f := newFakeSurface(fmt.Sprintf("content-%d", a.seq), sink, a.outcomes, a.auto)
	a.surfaces[appID] = f
	return f, nil
}

func (a *fakeAllocator) surfaceFor(appID string) *fakeSurface {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.surfaces[appID]
}

// recordingOpener captures externally opened URLs.
type recordingOpener struct {
	mu   sync.Mutex
	urls []string
	err  error
}

func (o *recordingOpener) OpenExternal(url string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.err != nil {
		return o.err
	}
	o.urls = append(o.urls, url)
	return nil
}

func (o *recordingOpener) opened() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.urls...)
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []types.ViewEvent
}

func (p *recordingPublisher) Publish(e types.ViewEvent) {
	p.mu.Lock()
	p.events = append(p.events, e)
	p.mu.Unlock()
}

func (p *recordingPublisher) ofType(t types.EventType) []types.ViewEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []types.ViewEvent
	for _, e := range p.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func (p *recordingPublisher) waitFor(t types.EventType, timeout time.Duration) bool {
	deadline := time.After(timeout)
	for {
		if len(p.ofType(t)) > 0 {
			return true
		}
		select {
		case <-deadline:
			return false
		case <-time.After(5 * time.Millisecond):
		}
	}
}
