package testutil

import (
	"sync"

	"github.com/roach88/assay/internal/dataset"
	"github.com/roach88/assay/internal/rdf"
	"github.com/roach88/assay/internal/storage"
)

// Counter counts calls for tests.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type Counter struct {
	mu sync.Mutex
	n  int
}

// Inc increments the count and returns the new value.
func (c *Counter) Inc() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
	return c.n
}

// Count returns the current count.
func (c *Counter) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

// Reset sets the count back to 0.
func (c *Counter) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n = 0
}

// CountingBuilder wraps inner so every build is counted.
//
// Used to check that a dataset shared by several services is opened once:
//
//	counter := &testutil.Counter{}
//	builders.Register(rdf.TDBDataset, testutil.CountingBuilder(counter, inner))
func CountingBuilder(c *Counter, inner dataset.Builder) dataset.Builder {
	return dataset.BuilderFunc(func(r rdf.Resource, m *storage.Manager) (*dataset.Dataset, error) {
		c.Inc()
		return inner.Build(r, m)
	})
}

// CountingOpener wraps storage.OpenHandle so every handle creation is
// counted.
func CountingOpener(c *Counter) storage.Opener {
	return func(loc storage.Location, params storage.Params) (*storage.Handle, error) {
		c.Inc()
		return storage.OpenHandle(loc, params)
	}
}
