package surface

// Decision is the lifecycle service's answer to a navigation request
// originating inside a surface.
type Decision int

const (
	// OpenInSurface lets the surface perform the navigation itself.
	OpenInSurface Decision = iota
	// OpenExternally routes the URL to the system browser; the surface
	// must not navigate.
	OpenExternally
	// Block denies the navigation entirely.
	Block
)

func (d Decision) String() string {
	switch d {
	case OpenInSurface:
		return "in_surface"
	case OpenExternally:
		return "external"
	case Block:
		return "blocked"
	default:
		return "unknown"
	}
}

// Options are the capability flags applied when a surface is allocated.
type Options struct {
	Sandbox              bool
	ContextIsolation     bool
	WebSecurity          bool
	AllowInsecureContent bool
	BackgroundThrottling bool
	Offscreen            bool
	UserAgent            string
	BackgroundColor      string
}

// EventSink receives asynchronous surface events. LoadFinished and
// Crashed are delivered from surface goroutines; NavigationRequested
// is a synchronous policy query answered by the owner.
type EventSink interface {
	// LoadFinished reports the outcome of a navigation. err is nil on
	// success.
	LoadFinished(url string, err error)
	// NavigationRequested asks the owner what to do with a navigation
	// originating inside the surface.
	NavigationRequested(url string) Decision
	// Crashed reports that the surface process died.
	Crashed(reason string)
}

// Surface is one embedded content surface. Navigate is asynchronous:
// it enqueues the navigation and the outcome arrives later through the
// sink's LoadFinished. All other methods are synchronous.
type Surface interface {
	ID() string
	Navigate(url string)
	SetBounds(x, y, width, height int)
	Show()
	Hide()
	Eval(script string) error
	InsertCSS(css string) error
	SetUserAgent(ua string)
	Close() error
}

// Allocator creates surfaces. Implementations own the underlying
// rendering resources; the lifecycle service owns the returned Surface.
type Allocator interface {
	Allocate(appID string, opts Options, sink EventSink) (Surface, error)
}
