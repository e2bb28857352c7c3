package profile

import "fmt"

// Profile is the immutable configuration for one mini-app. Profiles are
// loaded once at startup and never mutated; the lifecycle service reads
// them when creating views and deciding navigations.
type Profile struct {
	ID            string   `json:"id" yaml:"id" toml:"id"`
	Name          string   `json:"name" yaml:"name" toml:"name"`
	Icon          string   `json:"icon,omitempty" yaml:"icon" toml:"icon"`
	CandidateURLs []string `json:"candidate_urls" yaml:"candidate_urls" toml:"candidate_urls"`

	Surface    SurfaceOptions      `json:"surface" yaml:"surface" toml:"surface"`
	Load       LoadPolicy          `json:"load" yaml:"load" toml:"load"`
	Navigation NavigationPolicy    `json:"navigation" yaml:"navigation" toml:"navigation"`
	Layout     LayoutHints         `json:"layout" yaml:"layout" toml:"layout"`
	Storage    StorageCapabilities `json:"storage" yaml:"storage" toml:"storage"`
}

// SurfaceOptions are capability flags applied when the content surface
// is allocated. Defaults follow a standard security posture: isolation
// on, mixed content off.
type SurfaceOptions struct {
	Sandbox              bool `json:"sandbox" yaml:"sandbox" toml:"sandbox"`
	ContextIsolation     bool `json:"context_isolation" yaml:"context_isolation" toml:"context_isolation"`
	WebSecurity          bool `json:"web_security" yaml:"web_security" toml:"web_security"`
	AllowInsecureContent bool `json:"allow_insecure_content" yaml:"allow_insecure_content" toml:"allow_insecure_content"`
	BackgroundThrottling bool `json:"background_throttling" yaml:"background_throttling" toml:"background_throttling"`
	Offscreen            bool `json:"offscreen" yaml:"offscreen" toml:"offscreen"`
}

// LoadPolicy controls how the load protocol runs for a mini-app.
type LoadPolicy struct {
	// PreferFileURLs sorts file:// candidates ahead of network URLs.
	PreferFileURLs bool `json:"prefer_file_urls" yaml:"prefer_file_urls" toml:"prefer_file_urls"`
	// UserAgent overrides the surface user agent when non-empty.
	UserAgent string `json:"user_agent,omitempty" yaml:"user_agent" toml:"user_agent"`
	// LoadBlankFirst stages a neutral blank page before the real URL to
	// avoid a flash of unstyled or invisible content.
	LoadBlankFirst bool `json:"load_blank_first" yaml:"load_blank_first" toml:"load_blank_first"`
	// VisibilityScript runs inside the surface after a successful load
	// to defeat invisible or zero-size initial rendering.
	VisibilityScript string `json:"visibility_script,omitempty" yaml:"visibility_script" toml:"visibility_script"`
	// InjectCSS is inserted into the page after a successful load.
	InjectCSS string `json:"inject_css,omitempty" yaml:"inject_css" toml:"inject_css"`
	// PeriodicVisibilityCheck re-runs VisibilityScript on an interval
	// while the view is visible and loaded.
	PeriodicVisibilityCheck bool `json:"periodic_visibility_check" yaml:"periodic_visibility_check" toml:"periodic_visibility_check"`
	// VisibilityIntervalMS is the re-assertion period; 0 means default.
	VisibilityIntervalMS int `json:"visibility_interval_ms,omitempty" yaml:"visibility_interval_ms" toml:"visibility_interval_ms"`
}

// NavigationPolicy controls in-surface navigation handling. The two
// pattern sets may overlap; external patterns are consulted first and
// win on conflict.
type NavigationPolicy struct {
	HandleNavigation bool     `json:"handle_navigation" yaml:"handle_navigation" toml:"handle_navigation"`
	ExternalPatterns []string `json:"external_patterns,omitempty" yaml:"external_patterns" toml:"external_patterns"`
	InternalPatterns []string `json:"internal_patterns,omitempty" yaml:"internal_patterns" toml:"internal_patterns"`
}

// Padding is edge padding applied inside the view bounds.
type Padding struct {
	Top    int `json:"top" yaml:"top" toml:"top"`
	Right  int `json:"right" yaml:"right" toml:"right"`
	Bottom int `json:"bottom" yaml:"bottom" toml:"bottom"`
	Left   int `json:"left" yaml:"left" toml:"left"`
}

// LayoutHints are presentation adjustments applied at show time.
type LayoutHints struct {
	CenterContent   bool    `json:"center_content" yaml:"center_content" toml:"center_content"`
	MaxContentWidth int     `json:"max_content_width,omitempty" yaml:"max_content_width" toml:"max_content_width"`
	Padding         Padding `json:"padding" yaml:"padding" toml:"padding"`
	// BackgroundColor is painted before first paint of the real page.
	BackgroundColor string `json:"background_color" yaml:"background_color" toml:"background_color"`
}

// StorageCapabilities gates persistent storage APIs for the surface.
type StorageCapabilities struct {
	AllowLocalStorage bool `json:"allow_local_storage" yaml:"allow_local_storage" toml:"allow_local_storage"`
	AllowIndexedDB    bool `json:"allow_indexed_db" yaml:"allow_indexed_db" toml:"allow_indexed_db"`
}

// New returns a profile template with standard defaults. File decoding
// unmarshals over this template so omitted fields keep their defaults.
func New() Profile {
	return Profile{
		Surface: SurfaceOptions{
			ContextIsolation:     true,
			WebSecurity:          true,
			BackgroundThrottling: true,
		},
		Layout: LayoutHints{
			BackgroundColor: "#ffffff",
		},
		Storage: StorageCapabilities{
			AllowLocalStorage: true,
			AllowIndexedDB:    true,
		},
	}
}

// Default builds the fallback profile for an id with no registered
// entry: single candidate URL, no special loading behavior, standard
// security posture.
func Default(id, url string) Profile {
	p := New()
	p.ID = id
	p.Name = id
	if url != "" {
		p.CandidateURLs = []string{url}
	}
	return p
}

// Validate checks profile invariants.
func (p Profile) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("profile id is required")
	}
	if len(p.CandidateURLs) == 0 {
		return fmt.Errorf("profile %s: candidate_urls must not be empty", p.ID)
	}
	return nil
}
