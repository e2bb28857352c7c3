package profile

import (
	"fmt"
	"sort"
	"sync"

	"github.com/hearthdesk/hearth/backend/internal/infrastructure/logging"
	"go.uber.org/zap"
)

// Registry holds the mini-app profiles known to the service. Profiles
// are registered during startup (seeder, then loader) and only read
// afterwards.
type Registry struct {
	mu       sync.RWMutex
	profiles map[string]Profile
	log      *logging.Logger
}

// NewRegistry creates an empty profile registry.
func NewRegistry(log *logging.Logger) *Registry {
	if log == nil {
		log = logging.NewNop()
	}
	return &Registry{
		profiles: make(map[string]Profile),
		log:      log.Named("profiles"),
	}
}

// Register validates and stores a profile. A later registration with
// the same id replaces the earlier one, so on-disk profiles can
// override built-ins.
func (r *Registry) Register(p Profile) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("register profile: %w", err)
	}

	r.mu.Lock()
	_, replaced := r.profiles[p.ID]
	r.profiles[p.ID] = p
	r.mu.Unlock()

	r.log.Debug("Profile registered",
		zap.String("id", p.ID),
		zap.Int("candidates", len(p.CandidateURLs)),
		zap.Bool("replaced", replaced))
	return nil
}

// Lookup returns the profile for id if one is registered.
func (r *Registry) Lookup(id string) (Profile, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.profiles[id]
	return p, ok
}

// Resolve returns the registered profile for id, or the fallback
// default profile built around url when none is registered.
func (r *Registry) Resolve(id, url string) Profile {
	if p, ok := r.Lookup(id); ok {
		return p
	}
	r.log.Debug("No profile registered, using default", zap.String("id", id))
	return Default(id, url)
}

// All returns every registered profile sorted by id.
func (r *Registry) All() []Profile {
	r.mu.RLock()
	out := make([]Profile, 0, len(r.profiles))
	for _, p := range r.profiles {
		out = append(out, p)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Count returns the number of registered profiles.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.profiles)
}
