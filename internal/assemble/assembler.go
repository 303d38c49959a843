// Package assemble turns configuration graphs into data access points.
//
// An Assembler runs the assembly passes: it processes the server resource,
// finds the service descriptors, resolves each service's dataset through a
// per-pass dataset.Registry, wires endpoints and attaches access control.
// Passes are sequential; an Assembler is not meant to be shared between
// goroutines while a pass is running.
package assemble

import (
	"log/slog"

	"github.com/roach88/assay/internal/access"
	"github.com/roach88/assay/internal/dataset"
	"github.com/roach88/assay/internal/formats"
	"github.com/roach88/assay/internal/initializer"
	"github.com/roach88/assay/internal/storage"
)

// Assembler builds access points from configuration graphs.
type Assembler struct {
	manager      *storage.Manager
	builders     *dataset.Builders
	initializers *initializer.Registry
	formats      *formats.Registry
	policy       access.Policy
	logger       *slog.Logger
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithBuilders sets the dataset builders. The default is
// dataset.DefaultBuilders.
func WithBuilders(b *dataset.Builders) Option {
	return func(a *Assembler) {
		a.builders = b
	}
}

// WithInitializers sets the registry consulted for ja:loadClass values.
func WithInitializers(r *initializer.Registry) Option {
	return func(a *Assembler) {
		a.initializers = r
	}
}

// WithFormats sets the configuration format registry. The default is
// formats.Default.
func WithFormats(r *formats.Registry) Option {
	return func(a *Assembler) {
		a.formats = r
	}
}

// WithPolicy sets a server-wide access policy that every service's gate
// combines with its own allow-list.
func WithPolicy(p access.Policy) Option {
	return func(a *Assembler) {
		a.policy = p
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Assembler) {
		a.logger = logger
	}
}

// New creates an Assembler that opens storage through m.
func New(m *storage.Manager, opts ...Option) *Assembler {
	a := &Assembler{manager: m}
	for _, opt := range opts {
		opt(a)
	}
	if a.builders == nil {
		a.builders = dataset.DefaultBuilders()
	}
	if a.initializers == nil {
		a.initializers = initializer.New()
	}
	if a.formats == nil {
		a.formats = formats.Default()
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	return a
}

// Manager returns the storage manager datasets are opened through.
func (a *Assembler) Manager() *storage.Manager {
	return a.manager
}

// Formats returns the configuration format registry.
func (a *Assembler) Formats() *formats.Registry {
	return a.formats
}
