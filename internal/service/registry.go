package service

import (
	"sync"

	"github.com/roach88/assay/internal/errs"
)

// Registry maps canonical names to access points. Reads may run while
// administrative changes happen.
type Registry struct {
	mu     sync.RWMutex
	points map[string]*DataAccessPoint
	order  []string
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{points: make(map[string]*DataAccessPoint)}
}

// Register adds ap. A name that is already registered fails with
// DUPLICATE_NAME.
func (r *Registry) Register(ap *DataAccessPoint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.points[ap.Name()]; exists {
		return errs.Config(errs.CodeDuplicateName, ap.Name(), "access point already registered")
	}
	r.points[ap.Name()] = ap
	r.order = append(r.order, ap.Name())
	return nil
}

// Get returns the access point for name, which is canonicalized first.
func (r *Registry) Get(name string) (*DataAccessPoint, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ap, ok := r.points[Canonical(name)]
	return ap, ok
}

// Remove unregisters name and returns what was registered.
func (r *Registry) Remove(name string) (*DataAccessPoint, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name = Canonical(name)
	ap, ok := r.points[name]
	if !ok {
		return nil, false
	}
	delete(r.points, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return ap, true
}

// List returns the access points in registration order.
func (r *Registry) List() []*DataAccessPoint {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*DataAccessPoint, 0, len(r.order))
	for _, n := range r.order {
		out = append(out, r.points[n])
	}
	return out
}

// Len returns the number of registered access points.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
