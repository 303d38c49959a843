package dataset

import (
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/roach88/assay/internal/confgraph"
	"github.com/roach88/assay/internal/errs"
	"github.com/roach88/assay/internal/rdf"
	"github.com/roach88/assay/internal/storage"
)

// Builder opens the storage a dataset descriptor describes.
type Builder interface {
	Build(descriptor rdf.Resource, m *storage.Manager) (*Dataset, error)
}

// BuilderFunc adapts a function to Builder.
type BuilderFunc func(descriptor rdf.Resource, m *storage.Manager) (*Dataset, error)

// Build calls f.
func (f BuilderFunc) Build(descriptor rdf.Resource, m *storage.Manager) (*Dataset, error) {
	return f(descriptor, m)
}

// Builders maps dataset type IRIs to builders.
type Builders struct {
	mu       sync.RWMutex
	builders map[rdf.Node]Builder
}

// NewBuilders creates an empty set of builders.
func NewBuilders() *Builders {
	return &Builders{builders: make(map[rdf.Node]Builder)}
}

// DefaultBuilders returns builders for tdb:DatasetTDB, ja:MemoryDataset and
// ja:RDFDataset.
func DefaultBuilders() *Builders {
	b := NewBuilders()
	b.Register(rdf.TDBDataset, BuilderFunc(buildTDB))
	b.Register(rdf.JAMemoryDataset, BuilderFunc(buildMemory))
	b.Register(rdf.JARDFDataset, BuilderFunc(buildMemory))
	return b
}

// Register sets the builder for a type, replacing any previous one.
func (b *Builders) Register(typ rdf.Node, builder Builder) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.builders[typ] = builder
}

// Lookup returns the builder for a type.
func (b *Builders) Lookup(typ rdf.Node) (Builder, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	builder, ok := b.builders[typ]
	return builder, ok
}

// buildTDB opens a persistent dataset. tdb:location is required; store:*
// properties become creation parameters.
func buildTDB(r rdf.Resource, m *storage.Manager) (*Dataset, error) {
	locStr, err := confgraph.GetString(r, rdf.TDBLocation)
	if err != nil {
		return nil, err
	}
	loc, err := storage.ParseLocation(locStr)
	if err != nil {
		return nil, err
	}
	params, err := ReadParams(r)
	if err != nil {
		return nil, err
	}
	h, err := m.Open(loc, params)
	if err != nil {
		return nil, err
	}
	return &Dataset{Location: loc, Handle: h}, nil
}

// buildMemory opens an in-memory dataset: private unless tdb:location names
// a shared area.
func buildMemory(r rdf.Resource, m *storage.Manager) (*Dataset, error) {
	loc := storage.UniqueMem()
	if r.Has(rdf.TDBLocation) {
		locStr, err := confgraph.GetString(r, rdf.TDBLocation)
		if err != nil {
			return nil, err
		}
		loc, err = storage.ParseLocation(locStr)
		if err != nil {
			return nil, err
		}
		if loc.IsDirectory() {
			return nil, errs.Config(errs.CodeBadLocation, r.String(),
				"memory dataset location %q must start with %s", locStr, storage.MemPrefix)
		}
	}
	h, err := m.Open(loc, nil)
	if err != nil {
		return nil, err
	}
	return &Dataset{Location: loc, Handle: h}, nil
}

// ReadParams reads the store:* creation parameters of a descriptor. It
// returns nil when none are present.
func ReadParams(r rdf.Resource) (*storage.Params, error) {
	var p storage.Params
	found := false

	if r.Has(rdf.StoreJournalMode) {
		v, err := confgraph.GetString(r, rdf.StoreJournalMode)
		if err != nil {
			return nil, err
		}
		p.JournalMode, found = v, true
	}
	if r.Has(rdf.StoreSynchronous) {
		v, err := confgraph.GetString(r, rdf.StoreSynchronous)
		if err != nil {
			return nil, err
		}
		p.Synchronous, found = v, true
	}
	if r.Has(rdf.StoreBusyTimeout) {
		ms, err := intParam(r, rdf.StoreBusyTimeout)
		if err != nil {
			return nil, err
		}
		// SQLite takes busy_timeout as a C int of milliseconds.
		if ms < 0 || ms > math.MaxInt32 {
			return nil, errs.Config(errs.CodeBadLocation, r.String(),
				"%s must be between 0 and %d milliseconds, got %d", rdf.Compact(rdf.StoreBusyTimeout.Value), math.MaxInt32, ms)
		}
		p.BusyTimeout, found = time.Duration(ms)*time.Millisecond, true
	}
	if r.Has(rdf.StoreCacheSize) {
		n, err := intParam(r, rdf.StoreCacheSize)
		if err != nil {
			return nil, err
		}
		p.CacheSize, found = n, true
	}

	if !found {
		return nil, nil
	}
	if err := p.Validate(); err != nil {
		return nil, errs.Config(errs.CodeBadLocation, r.String(), "%v", err)
	}
	return &p, nil
}

func intParam(r rdf.Resource, property rdf.Node) (int, error) {
	v, err := confgraph.GetString(r, property)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errs.Config(errs.CodeBadLocation, r.String(),
			"%s must be an integer, got %q", rdf.Compact(property.Value), v)
	}
	return n, nil
}
