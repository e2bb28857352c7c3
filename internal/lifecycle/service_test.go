package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/hearthdesk/hearth/backend/internal/infrastructure/logging"
	"github.com/hearthdesk/hearth/backend/internal/profile"
	"github.com/hearthdesk/hearth/backend/internal/shared/types"
)

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func newTestService(t *testing.T, outcomes map[string]error, auto bool) (*Service, *fakeAllocator, *profile.Registry) {
	t.Helper()
	profiles := profile.NewRegistry(logging.NewNop())
	alloc := newFakeAllocator(outcomes, auto)
	svc := NewService(profiles, alloc, NopOpener{}, NopPublisher{}, logging.NewNop(), nil)
	t.Cleanup(svc.Shutdown)
	return svc, alloc, profiles
}

func registerProfile(t *testing.T, profiles *profile.Registry, p profile.Profile) {
	t.Helper()
	if err := profiles.Register(p); err != nil {
		t.Fatalf("Register profile failed: %v", err)
	}
}

func TestCreateAndLoadSingleCandidate(t *testing.T) {
	svc, alloc, _ := newTestService(t, map[string]error{
		"https://app.example.com": nil,
	}, true)

	if err := svc.Create("app", "https://app.example.com"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := svc.WaitLoad(testContext(t), "app"); err != nil {
		t.Fatalf("WaitLoad failed: %v", err)
	}

	snap, err := svc.Snapshot("app")
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if snap.LoadState != types.LoadLoaded {
		t.Errorf("Expected loaded state, got %s", snap.LoadState)
	}
	if snap.CurrentURL != "https://app.example.com" {
		t.Errorf("Expected committed URL, got %q", snap.CurrentURL)
	}
	if snap.Visibility != types.VisibilityHidden {
		t.Error("New view should stay hidden until shown")
	}
	if got := alloc.surfaceFor("app").navigations(); len(got) != 1 {
		t.Errorf("Expected exactly one navigation, got %v", got)
	}
}

func TestCreateIsIdempotent(t *testing.T) {
	svc, _, _ := newTestService(t, map[string]error{
		"https://app.example.com": nil,
	}, true)

	if err := svc.Create("app", "https://app.example.com"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := svc.WaitLoad(testContext(t), "app"); err != nil {
		t.Fatalf("WaitLoad failed: %v", err)
	}
	before, _ := svc.ContentID("app")

	if err := svc.Create("app", "https://other.example.com"); err != nil {
		t.Fatalf("Second Create should succeed: %v", err)
	}
	after, _ := svc.ContentID("app")
	if before != after {
		t.Error("Second Create must not replace the existing view")
	}
	if len(svc.List()) != 1 {
		t.Errorf("Expected one view, got %d", len(svc.List()))
	}
}

func TestCreateAllocationFailure(t *testing.T) {
	svc, alloc, _ := newTestService(t, nil, true)
	alloc.failNext = fmt.Errorf("no render process")

	err := svc.Create("app", "https://app.example.com")
	if !errors.Is(err, ErrCreateFailed) {
		t.Fatalf("Expected ErrCreateFailed, got %v", err)
	}
	if _, serr := svc.Snapshot("app"); !errors.Is(serr, ErrNotFound) {
		t.Error("Failed create must not leave a handle behind")
	}
}

func TestCandidateFallback(t *testing.T) {
	svc, alloc, profiles := newTestService(t, map[string]error{
		"https://one.example.com":   fmt.Errorf("refused"),
		"https://two.example.com":   fmt.Errorf("refused"),
		"https://three.example.com": nil,
	}, true)

	p := profile.New()
	p.ID = "app"
	p.CandidateURLs = []string{
		"https://one.example.com",
		"https://two.example.com",
		"https://three.example.com",
	}
	registerProfile(t, profiles, p)

	if err := svc.Create("app", ""); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := svc.WaitLoad(testContext(t), "app"); err != nil {
		t.Fatalf("WaitLoad failed: %v", err)
	}

	snap, _ := svc.Snapshot("app")
	if snap.CurrentURL != "https://three.example.com" {
		t.Errorf("Expected third candidate committed, got %q", snap.CurrentURL)
	}
	navs := alloc.surfaceFor("app").navigations()
	if len(navs) != 3 {
		t.Errorf("Expected all three candidates tried in order, got %v", navs)
	}
}

func TestCandidateExhaustionKeepsHandleAlive(t *testing.T) {
	svc, _, profiles := newTestService(t, map[string]error{
		"https://one.example.com": fmt.Errorf("refused"),
		"https://two.example.com": fmt.Errorf("refused"),
	}, true)

	p := profile.New()
	p.ID = "app"
	p.CandidateURLs = []string{"https://one.example.com", "https://two.example.com"}
	registerProfile(t, profiles, p)

	if err := svc.Create("app", ""); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	err := svc.WaitLoad(testContext(t), "app")
	if !errors.Is(err, ErrLoadFailed) {
		t.Fatalf("Expected ErrLoadFailed, got %v", err)
	}

	snap, serr := svc.Snapshot("app")
	if serr != nil {
		t.Fatal("Handle must survive load failure")
	}
	if snap.LoadState != types.LoadFailed {
		t.Errorf("Expected failed state, got %s", snap.LoadState)
	}
	if snap.CurrentURL != "" {
		t.Errorf("No commit should have happened, got %q", snap.CurrentURL)
	}

	// The failed view can still be reloaded.
	if err := svc.Reload("app", "https://recovery.example.com"); err != nil {
		t.Fatalf("Reload after failure should start: %v", err)
	}
}

func TestStagingBlankFirst(t *testing.T) {
	svc, alloc, profiles := newTestService(t, map[string]error{
		"https://app.example.com": nil,
	}, true)

	p := profile.New()
	p.ID = "app"
	p.CandidateURLs = []string{"https://app.example.com"}
	p.Load.LoadBlankFirst = true
	registerProfile(t, profiles, p)

	if err := svc.Create("app", ""); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := svc.WaitLoad(testContext(t), "app"); err != nil {
		t.Fatalf("WaitLoad failed: %v", err)
	}

	navs := alloc.surfaceFor("app").navigations()
	if len(navs) != 2 || navs[0] != "about:blank" || navs[1] != "https://app.example.com" {
		t.Errorf("Expected blank staging then candidate, got %v", navs)
	}
	snap, _ := svc.Snapshot("app")
	if snap.CurrentURL != "https://app.example.com" {
		t.Error("Staging page must not be committed as current URL")
	}
}

func TestLocalFilePreferenceWithNetworkFallback(t *testing.T) {
	svc, alloc, profiles := newTestService(t, map[string]error{
		"file:///apps/bolt/index.html": fmt.Errorf("no such file"),
		"http://localhost:5173":        nil,
	}, true)

	p := profile.New()
	p.ID = "bolt.diy"
	p.CandidateURLs = []string{
		"file:///apps/bolt/index.html",
		"http://localhost:5173",
	}
	p.Load.PreferFileURLs = true
	registerProfile(t, profiles, p)

	// The caller supplies the network URL, but the profile prefers the
	// local file, so it is still tried first.
	if err := svc.Create("bolt.diy", "http://localhost:5173"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := svc.WaitLoad(testContext(t), "bolt.diy"); err != nil {
		t.Fatalf("WaitLoad failed: %v", err)
	}

	navs := alloc.surfaceFor("bolt.diy").navigations()
	if len(navs) != 2 || navs[0] != "file:///apps/bolt/index.html" {
		t.Errorf("Local file should be probed first, got %v", navs)
	}
	snap, _ := svc.Snapshot("bolt.diy")
	if snap.CurrentURL != "http://localhost:5173" {
		t.Errorf("Network fallback should be committed, got %q", snap.CurrentURL)
	}
	if snap.LoadState != types.LoadLoaded {
		t.Errorf("Expected loaded, got %s", snap.LoadState)
	}
}

func TestReloadSupersedesInFlightLoad(t *testing.T) {
	svc, alloc, profiles := newTestService(t, nil, false)

	p := profile.New()
	p.ID = "app"
	p.CandidateURLs = []string{"https://old.example.com"}
	registerProfile(t, profiles, p)

	if err := svc.Create("app", ""); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	fs := alloc.surfaceFor("app")

	firstWait := make(chan error, 1)
	go func() { firstWait <- svc.WaitLoad(testContext(t), "app") }()

	if err := svc.Reload("app", "https://new.example.com"); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}

	select {
	case err := <-firstWait:
		if !errors.Is(err, ErrSuperseded) {
			t.Fatalf("First attempt should complete superseded, got %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Superseded attempt never completed")
	}

	// The stale completion for the old generation arrives late and
	// must be discarded.
	fs.fire("https://old.example.com", nil)
	snap, _ := svc.Snapshot("app")
	if snap.CurrentURL == "https://old.example.com" {
		t.Fatal("Stale completion must not commit")
	}

	// The new generation commits normally.
	fs.fire("https://new.example.com", nil)
	if err := svc.WaitLoad(testContext(t), "app"); err != nil {
		t.Fatalf("New attempt should commit: %v", err)
	}
	snap, _ = svc.Snapshot("app")
	if snap.CurrentURL != "https://new.example.com" {
		t.Errorf("Expected new URL committed, got %q", snap.CurrentURL)
	}
}

func TestReloadKeepsContentID(t *testing.T) {
	svc, _, _ := newTestService(t, map[string]error{
		"https://app.example.com": nil,
	}, true)

	if err := svc.Create("app", "https://app.example.com"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := svc.WaitLoad(testContext(t), "app"); err != nil {
		t.Fatalf("WaitLoad failed: %v", err)
	}
	before, _ := svc.ContentID("app")

	if err := svc.Reload("app", ""); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if err := svc.WaitLoad(testContext(t), "app"); err != nil {
		t.Fatalf("WaitLoad after reload failed: %v", err)
	}
	after, _ := svc.ContentID("app")
	if before != after {
		t.Error("Reload must reuse the same surface")
	}
}

func TestShowRoundTripsBoundsAndAppliesHints(t *testing.T) {
	svc, alloc, profiles := newTestService(t, map[string]error{
		"https://app.example.com": nil,
	}, true)

	p := profile.New()
	p.ID = "app"
	p.CandidateURLs = []string{"https://app.example.com"}
	p.Layout.CenterContent = true
	p.Layout.MaxContentWidth = 1000
	p.Layout.Padding = profile.Padding{Top: 10, Right: 20, Bottom: 10, Left: 20}
	registerProfile(t, profiles, p)

	if err := svc.Create("app", ""); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := svc.WaitLoad(testContext(t), "app"); err != nil {
		t.Fatalf("WaitLoad failed: %v", err)
	}

	requested := types.Bounds{X: 200, Y: 50, Width: 1600, Height: 900}
	if err := svc.Show("app", requested); err != nil {
		t.Fatalf("Show failed: %v", err)
	}

	snap, _ := svc.Snapshot("app")
	if snap.Bounds != requested {
		t.Errorf("Requested bounds must round-trip, got %+v", snap.Bounds)
	}
	if snap.Visibility != types.VisibilityVisible {
		t.Error("Show should mark view visible")
	}

	// Surface rect: padding shrinks to 1560 wide at x=220, then the
	// 1000px cap centers with 280 on each side.
	fs := alloc.surfaceFor("app")
	fs.mu.Lock()
	got := fs.bounds
	fs.mu.Unlock()
	want := types.Bounds{X: 500, Y: 60, Width: 1000, Height: 880}
	if got != want {
		t.Errorf("Surface rect mismatch: got %+v want %+v", got, want)
	}
}

func TestShowMissingViewFails(t *testing.T) {
	svc, _, _ := newTestService(t, nil, true)
	err := svc.Show("ghost", types.Bounds{Width: 100, Height: 100})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestZOrderMonotonic(t *testing.T) {
	svc, _, _ := newTestService(t, map[string]error{
		"https://a.example.com": nil,
		"https://b.example.com": nil,
	}, true)

	for _, id := range []string{"a", "b"} {
		if err := svc.Create(id, "https://"+id+".example.com"); err != nil {
			t.Fatalf("Create %s failed: %v", id, err)
		}
		if err := svc.WaitLoad(testContext(t), id); err != nil {
			t.Fatalf("WaitLoad %s failed: %v", id, err)
		}
	}

	b := types.Bounds{Width: 800, Height: 600}
	svc.Show("a", b)
	svc.Show("b", b)

	snapA, _ := svc.Snapshot("a")
	snapB, _ := svc.Snapshot("b")
	if snapB.ZOrderRank <= snapA.ZOrderRank {
		t.Error("Later show must rank above earlier show")
	}

	// Re-showing A brings it back to the front.
	svc.Show("a", b)
	snapA, _ = svc.Snapshot("a")
	if snapA.ZOrderRank <= snapB.ZOrderRank {
		t.Error("Re-show must bring the view frontmost")
	}

	stats := svc.Stats()
	if stats.FrontmostID == nil || *stats.FrontmostID != "a" {
		t.Errorf("Frontmost should be a, got %v", stats.FrontmostID)
	}
	if stats.VisibleViews != 2 {
		t.Errorf("Expected 2 visible views, got %d", stats.VisibleViews)
	}
}

func TestConcurrentShowHideConverges(t *testing.T) {
	svc, alloc, _ := newTestService(t, map[string]error{
		"https://app.example.com": nil,
	}, true)

	if err := svc.Create("app", "https://app.example.com"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := svc.WaitLoad(testContext(t), "app"); err != nil {
		t.Fatalf("WaitLoad failed: %v", err)
	}
	fs := alloc.surfaceFor("app")
	b := types.Bounds{Width: 800, Height: 600}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if err := svc.Show("app", b); err != nil {
				t.Errorf("Show failed: %v", err)
			}
		}()
		go func() {
			defer wg.Done()
			if err := svc.Hide("app"); err != nil {
				t.Errorf("Hide failed: %v", err)
			}
		}()
	}
	wg.Wait()

	// Whichever call won, the handle and the surface must agree.
	snap, err := svc.Snapshot("app")
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	fs.mu.Lock()
	visible := fs.visible
	fs.mu.Unlock()
	if (snap.Visibility == types.VisibilityVisible) != visible {
		t.Errorf("Handle reports %s but surface visible=%v", snap.Visibility, visible)
	}
}

func TestHideAndHideAll(t *testing.T) {
	svc, _, _ := newTestService(t, map[string]error{
		"https://a.example.com": nil,
		"https://b.example.com": nil,
	}, true)

	// HideAll on an empty registry is a no-op.
	svc.HideAll()

	for _, id := range []string{"a", "b"} {
		if err := svc.Create(id, "https://"+id+".example.com"); err != nil {
			t.Fatalf("Create %s failed: %v", id, err)
		}
		if err := svc.WaitLoad(testContext(t), id); err != nil {
			t.Fatalf("WaitLoad %s failed: %v", id, err)
		}
		svc.Show(id, types.Bounds{Width: 800, Height: 600})
	}

	if err := svc.Hide("a"); err != nil {
		t.Fatalf("Hide failed: %v", err)
	}
	snapA, _ := svc.Snapshot("a")
	if snapA.Visibility != types.VisibilityHidden {
		t.Error("Hide should mark view hidden")
	}
	if snapA.LoadState != types.LoadLoaded {
		t.Error("Hide must not disturb load state")
	}

	svc.HideAll()
	for _, snap := range svc.List() {
		if snap.Visibility != types.VisibilityHidden {
			t.Errorf("View %s should be hidden after HideAll", snap.ID)
		}
	}

	if err := svc.Hide("ghost"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Hide on missing view should be ErrNotFound, got %v", err)
	}
}

func TestDestroyIsIdempotent(t *testing.T) {
	svc, alloc, _ := newTestService(t, map[string]error{
		"https://app.example.com": nil,
	}, true)

	if err := svc.Create("app", "https://app.example.com"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := svc.WaitLoad(testContext(t), "app"); err != nil {
		t.Fatalf("WaitLoad failed: %v", err)
	}

	if err := svc.Destroy("app"); err != nil {
		t.Fatalf("Destroy failed: %v", err)
	}
	fs := alloc.surfaceFor("app")
	fs.mu.Lock()
	closed := fs.closed
	fs.mu.Unlock()
	if !closed {
		t.Error("Destroy should close the surface")
	}

	if err := svc.Destroy("app"); err != nil {
		t.Fatalf("Second Destroy must succeed: %v", err)
	}
	if err := svc.Destroy("never-existed"); err != nil {
		t.Fatalf("Destroy of unknown id must succeed: %v", err)
	}

	// Every other operation now reports NotFound.
	if _, _, err := svc.CurrentURL("app"); !errors.Is(err, ErrNotFound) {
		t.Errorf("CurrentURL after destroy: %v", err)
	}
	if _, err := svc.ContentID("app"); !errors.Is(err, ErrNotFound) {
		t.Errorf("ContentID after destroy: %v", err)
	}
	if err := svc.Reload("app", ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("Reload after destroy: %v", err)
	}
	if err := svc.SetLinkPolicy("app", true); !errors.Is(err, ErrNotFound) {
		t.Errorf("SetLinkPolicy after destroy: %v", err)
	}
}

func TestDestroyDuringLoad(t *testing.T) {
	svc, _, _ := newTestService(t, nil, false)

	if err := svc.Create("app", "https://slow.example.com"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	wait := make(chan error, 1)
	go func() { wait <- svc.WaitLoad(testContext(t), "app") }()

	if err := svc.Destroy("app"); err != nil {
		t.Fatalf("Destroy failed: %v", err)
	}

	select {
	case err := <-wait:
		if !errors.Is(err, ErrDestroyed) {
			t.Fatalf("Expected ErrDestroyed, got %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("WaitLoad never completed after destroy")
	}
}

func TestCurrentURLAbsentBeforeCommit(t *testing.T) {
	svc, _, _ := newTestService(t, nil, false)

	if err := svc.Create("app", "https://app.example.com"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	url, loaded, err := svc.CurrentURL("app")
	if err != nil {
		t.Fatalf("CurrentURL failed: %v", err)
	}
	if loaded || url != "" {
		t.Errorf("No commit yet, expected absent URL, got %q (loaded=%v)", url, loaded)
	}

	if _, _, err := svc.CurrentURL("ghost"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestCurrentURLAbsentDuringReload(t *testing.T) {
	svc, alloc, profiles := newTestService(t, nil, false)

	p := profile.New()
	p.ID = "app"
	p.CandidateURLs = []string{"https://old.example.com"}
	registerProfile(t, profiles, p)

	if err := svc.Create("app", ""); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	fs := alloc.surfaceFor("app")

	fs.fire("https://old.example.com", nil)
	if err := svc.WaitLoad(testContext(t), "app"); err != nil {
		t.Fatalf("WaitLoad failed: %v", err)
	}
	url, loaded, err := svc.CurrentURL("app")
	if err != nil || !loaded || url != "https://old.example.com" {
		t.Fatalf("Expected committed URL, got %q (loaded=%v, err=%v)", url, loaded, err)
	}

	// While a reload is in flight the old URL must not be reported.
	if err := svc.Reload("app", "https://new.example.com"); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	url, loaded, err = svc.CurrentURL("app")
	if err != nil {
		t.Fatalf("CurrentURL failed: %v", err)
	}
	if loaded || url != "" {
		t.Errorf("Reload in flight, expected absent URL, got %q (loaded=%v)", url, loaded)
	}

	// The new commit restores it.
	fs.fire("https://new.example.com", nil)
	if err := svc.WaitLoad(testContext(t), "app"); err != nil {
		t.Fatalf("WaitLoad failed: %v", err)
	}
	url, loaded, _ = svc.CurrentURL("app")
	if !loaded || url != "https://new.example.com" {
		t.Errorf("Expected new URL committed, got %q (loaded=%v)", url, loaded)
	}
}

func TestCurrentURLAbsentAfterFailure(t *testing.T) {
	svc, _, _ := newTestService(t, map[string]error{
		"https://app.example.com": errors.New("connection refused"),
	}, true)

	if err := svc.Create("app", "https://app.example.com"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := svc.WaitLoad(testContext(t), "app"); !errors.Is(err, ErrLoadFailed) {
		t.Fatalf("Expected ErrLoadFailed, got %v", err)
	}

	url, loaded, err := svc.CurrentURL("app")
	if err != nil {
		t.Fatalf("CurrentURL failed: %v", err)
	}
	if loaded || url != "" {
		t.Errorf("Failed view, expected absent URL, got %q (loaded=%v)", url, loaded)
	}
}

func TestPostCommitInjection(t *testing.T) {
	svc, alloc, profiles := newTestService(t, map[string]error{
		"https://app.example.com": nil,
	}, true)

	p := profile.New()
	p.ID = "app"
	p.CandidateURLs = []string{"https://app.example.com"}
	p.Load.InjectCSS = "body { margin: 0; }"
	p.Load.VisibilityScript = "document.body.style.visibility = 'visible';"
	p.Load.UserAgent = "custom-ua/1.0"
	registerProfile(t, profiles, p)

	if err := svc.Create("app", ""); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := svc.WaitLoad(testContext(t), "app"); err != nil {
		t.Fatalf("WaitLoad failed: %v", err)
	}

	fs := alloc.surfaceFor("app")
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if len(fs.css) != 1 || fs.css[0] != "body { margin: 0; }" {
		t.Errorf("Expected CSS injected after commit, got %v", fs.css)
	}
	if len(fs.evals) != 1 {
		t.Errorf("Expected visibility script run after commit, got %v", fs.evals)
	}
	if fs.userAgent != "custom-ua/1.0" {
		t.Errorf("Expected user agent applied, got %q", fs.userAgent)
	}
}

func TestVisibilityPulseLifecycle(t *testing.T) {
	svc, alloc, profiles := newTestService(t, map[string]error{
		"https://app.example.com": nil,
	}, true)

	p := profile.New()
	p.ID = "app"
	p.CandidateURLs = []string{"https://app.example.com"}
	p.Load.VisibilityScript = "1"
	p.Load.PeriodicVisibilityCheck = true
	p.Load.VisibilityIntervalMS = 10
	registerProfile(t, profiles, p)

	if err := svc.Create("app", ""); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := svc.WaitLoad(testContext(t), "app"); err != nil {
		t.Fatalf("WaitLoad failed: %v", err)
	}

	if err := svc.Show("app", types.Bounds{Width: 800, Height: 600}); err != nil {
		t.Fatalf("Show failed: %v", err)
	}

	fs := alloc.surfaceFor("app")
	base := fs.evalCount()
	deadline := time.After(5 * time.Second)
	for fs.evalCount() <= base {
		select {
		case <-deadline:
			t.Fatal("Pulse never re-ran the visibility script")
		case <-time.After(5 * time.Millisecond):
		}
	}

	if err := svc.Hide("app"); err != nil {
		t.Fatalf("Hide failed: %v", err)
	}
	settled := fs.evalCount()
	time.Sleep(50 * time.Millisecond)
	if fs.evalCount() > settled+1 {
		t.Error("Pulse should stop after hide")
	}
}

func TestLoadFailureEventPublished(t *testing.T) {
	profiles := profile.NewRegistry(logging.NewNop())
	alloc := newFakeAllocator(map[string]error{
		"https://down.example.com": fmt.Errorf("refused"),
	}, true)
	pub := &recordingPublisher{}
	svc := NewService(profiles, alloc, NopOpener{}, pub, logging.NewNop(), nil)
	t.Cleanup(svc.Shutdown)

	if err := svc.Create("app", "https://down.example.com"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := svc.WaitLoad(testContext(t), "app"); !errors.Is(err, ErrLoadFailed) {
		t.Fatalf("Expected ErrLoadFailed, got %v", err)
	}

	if !pub.waitFor(types.EventLoadFailed, 5*time.Second) {
		t.Fatal("load_failed event should be published")
	}
	events := pub.ofType(types.EventLoadFailed)
	if events[0].ViewID != "app" || events[0].Error == "" {
		t.Errorf("Unexpected failure event: %+v", events[0])
	}
}
