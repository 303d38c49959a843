// Package initializer maps the ja:loadClass values of a server resource to
// Go callbacks.
//
// Components that need one-time setup register an Initializer under a name.
// A configuration then asks for it either by literal name or by an IRI of
// the form "init:<name>".
package initializer

import (
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/roach88/assay/internal/errs"
	"github.com/roach88/assay/internal/rdf"
)

// Scheme is the IRI scheme that names an initializer.
const Scheme = "init:"

// Initializer runs once when a configuration asks for it.
type Initializer func() error

// Module is implemented by packages that contribute initializers.
type Module interface {
	Register(r *Registry)
}

// Registry holds named initializers.
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]Initializer
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{funcs: make(map[string]Initializer)}
}

// Register adds fn under name, replacing any earlier registration.
func (r *Registry) Register(name string, fn Initializer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[name] = fn
}

// Install lets each module register its initializers.
func (r *Registry) Install(modules ...Module) {
	for _, m := range modules {
		m.Register(r)
	}
}

// Lookup returns the initializer registered under name.
func (r *Registry) Lookup(name string) (Initializer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.funcs[name]
	return fn, ok
}

// Names lists the registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.funcs))
	for n := range r.funcs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// NameOf extracts the initializer name a ja:loadClass value refers to.
// ok is false for blank nodes and IRIs outside the init: scheme.
func NameOf(n rdf.Node) (string, bool) {
	switch {
	case n.IsLiteral():
		return n.Value, n.Value != ""
	case n.IsIRI() && strings.HasPrefix(n.Value, Scheme):
		name := strings.TrimPrefix(n.Value, Scheme)
		return name, name != ""
	default:
		return "", false
	}
}

// Run looks up and invokes the initializer each value names, in order.
// Unusable values and unregistered names are logged and skipped; an
// initializer that fails stops the run with INIT_FAILED.
func (r *Registry) Run(values []rdf.Node, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	for _, v := range values {
		name, ok := NameOf(v)
		if !ok {
			logger.Warn("ignoring load class value", "value", v.String())
			continue
		}
		fn, ok := r.Lookup(name)
		if !ok {
			logger.Warn("initializer not registered", "name", name)
			continue
		}
		logger.Debug("running initializer", "name", name)
		if err := fn(); err != nil {
			return errs.Config(errs.CodeInitFailed, name, "initializer failed: %v", err)
		}
	}
	return nil
}
