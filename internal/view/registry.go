package view

// Registry maps view ids to handles. It carries no lock of its own:
// the lifecycle service serializes all access, holding at most one
// handle per id.
type Registry struct {
	handles map[string]*Handle
}

// NewRegistry creates an empty view registry.
func NewRegistry() *Registry {
	return &Registry{handles: make(map[string]*Handle)}
}

// Put stores a handle under its id.
func (r *Registry) Put(h *Handle) {
	r.handles[h.ID] = h
}

// Get returns the handle for id if present.
func (r *Registry) Get(id string) (*Handle, bool) {
	h, ok := r.handles[id]
	return h, ok
}

// Remove deletes the handle for id.
func (r *Registry) Remove(id string) {
	delete(r.handles, id)
}

// All returns every handle in unspecified order.
func (r *Registry) All() []*Handle {
	out := make([]*Handle, 0, len(r.handles))
	for _, h := range r.handles {
		out = append(out, h)
	}
	return out
}

// Len returns the number of live handles.
func (r *Registry) Len() int {
	return len(r.handles)
}
