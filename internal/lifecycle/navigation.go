package lifecycle

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hearthdesk/hearth/backend/internal/profile"
	"github.com/hearthdesk/hearth/backend/internal/surface"
	"github.com/hearthdesk/hearth/backend/internal/view"
)

// decideNavigation resolves what to do with a navigation request. The
// per-view override wins outright; otherwise external patterns are
// consulted before internal ones, so a URL matching both sets opens
// externally. With no match, interception-enabled profiles send the
// URL outside and everything else stays in the surface.
func decideNavigation(h *view.Handle, url string) surface.Decision {
	if h.LinkOverride != nil {
		if *h.LinkOverride {
			return surface.OpenExternally
		}
		return surface.OpenInSurface
	}

	nav := h.Profile.Navigation
	if matchAny(nav.ExternalPatterns, url) {
		return surface.OpenExternally
	}
	if matchAny(nav.InternalPatterns, url) {
		return surface.OpenInSurface
	}
	if nav.HandleNavigation {
		return surface.OpenExternally
	}
	return surface.OpenInSurface
}

func matchAny(patterns []string, url string) bool {
	for _, p := range patterns {
		if matchURL(p, url) {
			return true
		}
	}
	return false
}

// matchURL glob-matches a URL. A pattern ending in "/**" also matches
// the bare prefix itself, so "https://x.com/**" covers "https://x.com".
func matchURL(pattern, url string) bool {
	if ok, err := doublestar.Match(pattern, url); err == nil && ok {
		return true
	}
	if base, found := strings.CutSuffix(pattern, "/**"); found {
		if ok, err := doublestar.Match(base, url); err == nil && ok {
			return true
		}
	}
	return false
}

// buildCandidates assembles the candidate URL list for a load attempt.
// An explicit URL overrides the profile's first preference by going to
// the head of the list; duplicates collapse to their first position.
// Profiles preferring local files get file:// candidates sorted first.
func buildCandidates(p profile.Profile, override string) []string {
	urls := make([]string, 0, len(p.CandidateURLs)+1)
	seen := make(map[string]struct{})
	add := func(u string) {
		if u == "" {
			return
		}
		if _, dup := seen[u]; dup {
			return
		}
		seen[u] = struct{}{}
		urls = append(urls, u)
	}

	add(override)
	for _, u := range p.CandidateURLs {
		add(u)
	}

	if p.Load.PreferFileURLs {
		files := make([]string, 0, len(urls))
		rest := make([]string, 0, len(urls))
		for _, u := range urls {
			if strings.HasPrefix(u, "file://") {
				files = append(files, u)
			} else {
				rest = append(rest, u)
			}
		}
		urls = append(files, rest...)
	}
	return urls
}
