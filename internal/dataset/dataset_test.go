package dataset

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/assay/internal/errs"
	"github.com/roach88/assay/internal/rdf"
	"github.com/roach88/assay/internal/storage"
)

var (
	dsNode   = rdf.IRI("http://example.org/#ds")
	fakeType = rdf.IRI("http://example.org/#FakeDataset")
)

func newManager(t *testing.T) *storage.Manager {
	t.Helper()
	m := storage.NewManager(storage.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	t.Cleanup(func() { _ = m.Close() })
	return m
}

// countingBuilders registers a builder for fakeType that counts calls and
// opens unique memory.
func countingBuilders(calls *int) *Builders {
	b := DefaultBuilders()
	b.Register(fakeType, BuilderFunc(func(r rdf.Resource, m *storage.Manager) (*Dataset, error) {
		*calls++
		loc := storage.UniqueMem()
		h, err := m.Open(loc, nil)
		if err != nil {
			return nil, err
		}
		return &Dataset{Location: loc, Handle: h}, nil
	}))
	return b
}

func TestResolve_SameResourceBuiltOnce(t *testing.T) {
	calls := 0
	builders := countingBuilders(&calls)
	g := rdf.NewGraph(rdf.Triple{Subject: dsNode, Predicate: rdf.Type, Object: fakeType})
	reg := NewRegistry()
	m := newManager(t)

	first, err := Resolve(g.Resource(dsNode), reg, builders, m)
	require.NoError(t, err)
	second, err := Resolve(g.Resource(dsNode), reg, builders, m)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, reg.Len())
	assert.Equal(t, fakeType, first.Type)
	assert.Equal(t, g.Resource(dsNode), first.Descriptor)
}

func TestResolve_EqualDescriptorsInDifferentGraphsAreDistinct(t *testing.T) {
	calls := 0
	builders := countingBuilders(&calls)
	triple := rdf.Triple{Subject: dsNode, Predicate: rdf.Type, Object: fakeType}
	g1, g2 := rdf.NewGraph(triple), rdf.NewGraph(triple)
	reg := NewRegistry()
	m := newManager(t)

	a, err := Resolve(g1.Resource(dsNode), reg, builders, m)
	require.NoError(t, err)
	b, err := Resolve(g2.Resource(dsNode), reg, builders, m)
	require.NoError(t, err)

	assert.NotSame(t, a, b)
	assert.Equal(t, 2, calls)
}

func TestResolve_MissingType(t *testing.T) {
	g := rdf.NewGraph(rdf.Triple{Subject: dsNode, Predicate: rdf.TDBLocation, Object: rdf.Literal("--mem--")})

	_, err := Resolve(g.Resource(dsNode), NewRegistry(), DefaultBuilders(), newManager(t))
	assert.True(t, errs.IsConfigCode(err, errs.CodeMissingProperty), "got %v", err)
}

func TestResolve_UnknownType(t *testing.T) {
	g := rdf.NewGraph(rdf.Triple{Subject: dsNode, Predicate: rdf.Type, Object: rdf.IRI("urn:nope")})

	_, err := Resolve(g.Resource(dsNode), NewRegistry(), DefaultBuilders(), newManager(t))
	assert.True(t, errs.IsConfigCode(err, errs.CodeUnknownDatasetType), "got %v", err)
}

func TestResolve_FirstKnownTypeWins(t *testing.T) {
	calls := 0
	g := rdf.NewGraph(
		rdf.Triple{Subject: dsNode, Predicate: rdf.Type, Object: rdf.IRI("urn:unknown")},
		rdf.Triple{Subject: dsNode, Predicate: rdf.Type, Object: fakeType},
	)

	ds, err := Resolve(g.Resource(dsNode), NewRegistry(), countingBuilders(&calls), newManager(t))
	require.NoError(t, err)
	assert.Equal(t, fakeType, ds.Type)
}

func TestBuildTDB_DirectoryWithParams(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "books")
	g := rdf.NewGraph(
		rdf.Triple{Subject: dsNode, Predicate: rdf.Type, Object: rdf.TDBDataset},
		rdf.Triple{Subject: dsNode, Predicate: rdf.TDBLocation, Object: rdf.Literal(dir)},
		rdf.Triple{Subject: dsNode, Predicate: rdf.StoreCacheSize, Object: rdf.TypedLiteral("-2000", rdf.XSDInteger)},
		rdf.Triple{Subject: dsNode, Predicate: rdf.StoreBusyTimeout, Object: rdf.TypedLiteral("250", rdf.XSDInteger)},
	)
	m := newManager(t)

	ds, err := Resolve(g.Resource(dsNode), NewRegistry(), DefaultBuilders(), m)
	require.NoError(t, err)
	assert.True(t, ds.Location.IsDirectory())
	assert.Equal(t, dir, ds.Location.Path())
	assert.FileExists(t, filepath.Join(dir, storage.DataFile))
	assert.True(t, m.IsInUse(ds.Location))
}

func TestBuildTDB_ParamsOnActiveLocationFail(t *testing.T) {
	dir := t.TempDir()
	m := newManager(t)
	loc, err := storage.Dir(dir)
	require.NoError(t, err)
	_, err = m.Open(loc, nil)
	require.NoError(t, err)

	g := rdf.NewGraph(
		rdf.Triple{Subject: dsNode, Predicate: rdf.Type, Object: rdf.TDBDataset},
		rdf.Triple{Subject: dsNode, Predicate: rdf.TDBLocation, Object: rdf.Literal(dir)},
		rdf.Triple{Subject: dsNode, Predicate: rdf.StoreSynchronous, Object: rdf.Literal("FULL")},
	)
	_, err = Resolve(g.Resource(dsNode), NewRegistry(), DefaultBuilders(), m)
	assert.True(t, errs.IsConfigCode(err, errs.CodeAlreadyActive), "got %v", err)
}

func TestBuildTDB_MissingLocation(t *testing.T) {
	g := rdf.NewGraph(rdf.Triple{Subject: dsNode, Predicate: rdf.Type, Object: rdf.TDBDataset})

	_, err := Resolve(g.Resource(dsNode), NewRegistry(), DefaultBuilders(), newManager(t))
	assert.True(t, errs.IsConfigCode(err, errs.CodeMissingProperty))
}

func TestBuildMemory(t *testing.T) {
	m := newManager(t)

	t.Run("private by default", func(t *testing.T) {
		g := rdf.NewGraph(rdf.Triple{Subject: dsNode, Predicate: rdf.Type, Object: rdf.JAMemoryDataset})
		ds, err := Resolve(g.Resource(dsNode), NewRegistry(), DefaultBuilders(), m)
		require.NoError(t, err)
		assert.True(t, ds.Location.IsUniqueMem())
	})

	t.Run("shared by name", func(t *testing.T) {
		g := rdf.NewGraph(
			rdf.Triple{Subject: dsNode, Predicate: rdf.Type, Object: rdf.JAMemoryDataset},
			rdf.Triple{Subject: dsNode, Predicate: rdf.TDBLocation, Object: rdf.Literal("--mem--/shared-test")},
		)
		ds, err := Resolve(g.Resource(dsNode), NewRegistry(), DefaultBuilders(), m)
		require.NoError(t, err)
		assert.True(t, ds.Location.IsSharedMem())
	})

	t.Run("directory rejected", func(t *testing.T) {
		g := rdf.NewGraph(
			rdf.Triple{Subject: dsNode, Predicate: rdf.Type, Object: rdf.JAMemoryDataset},
			rdf.Triple{Subject: dsNode, Predicate: rdf.TDBLocation, Object: rdf.Literal(t.TempDir())},
		)
		_, err := Resolve(g.Resource(dsNode), NewRegistry(), DefaultBuilders(), m)
		assert.True(t, errs.IsConfigCode(err, errs.CodeBadLocation))
	})
}

func TestReadParams(t *testing.T) {
	g := rdf.NewGraph(
		rdf.Triple{Subject: dsNode, Predicate: rdf.StoreJournalMode, Object: rdf.Literal("DELETE")},
		rdf.Triple{Subject: dsNode, Predicate: rdf.StoreBusyTimeout, Object: rdf.TypedLiteral("100", rdf.XSDInteger)},
	)
	p, err := ReadParams(g.Resource(dsNode))
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "DELETE", p.JournalMode)
	assert.Equal(t, 100*time.Millisecond, p.BusyTimeout)

	none, err := ReadParams(rdf.NewGraph().Resource(dsNode))
	require.NoError(t, err)
	assert.Nil(t, none)

	bad := rdf.NewGraph(rdf.Triple{Subject: dsNode, Predicate: rdf.StoreCacheSize, Object: rdf.Literal("lots")})
	_, err = ReadParams(bad.Resource(dsNode))
	assert.True(t, errs.IsConfigCode(err, errs.CodeBadLocation))
}

func TestReadParams_BusyTimeoutRange(t *testing.T) {
	tests := []struct {
		value   string
		want    time.Duration
		wantErr bool
	}{
		{"0", 0, false},
		{"2147483647", 2147483647 * time.Millisecond, false},
		{"-1", 0, true},
		{"2147483648", 0, true},
		{"9223372036854775807", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			g := rdf.NewGraph(rdf.Triple{Subject: dsNode, Predicate: rdf.StoreBusyTimeout, Object: rdf.TypedLiteral(tt.value, rdf.XSDInteger)})
			p, err := ReadParams(g.Resource(dsNode))
			if tt.wantErr {
				assert.True(t, errs.IsConfigCode(err, errs.CodeBadLocation), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.BusyTimeout)
		})
	}
}
