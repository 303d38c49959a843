package confgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/assay/internal/errs"
	"github.com/roach88/assay/internal/rdf"
)

var (
	svc    = rdf.IRI("http://example.org/#svc")
	ds     = rdf.IRI("http://example.org/#ds")
	server = rdf.IRI("http://example.org/#server")
)

func TestGetOne(t *testing.T) {
	g := rdf.NewGraph(
		rdf.Triple{Subject: svc, Predicate: rdf.FuName, Object: rdf.Literal("books")},
		rdf.Triple{Subject: svc, Predicate: rdf.FuServiceQuery, Object: rdf.Literal("query")},
		rdf.Triple{Subject: svc, Predicate: rdf.FuServiceQuery, Object: rdf.Literal("sparql")},
	)
	r := g.Resource(svc)

	got, err := GetOne(r, rdf.FuName)
	require.NoError(t, err)
	assert.Equal(t, rdf.Literal("books"), got)

	_, err = GetOne(r, rdf.FuDataset)
	assert.True(t, errs.IsConfigCode(err, errs.CodeMissingProperty))

	_, err = GetOne(r, rdf.FuServiceQuery)
	assert.True(t, errs.IsConfigCode(err, errs.CodeAmbiguousProperty))
}

func TestGetOne_Deterministic(t *testing.T) {
	g := rdf.NewGraph(
		rdf.Triple{Subject: svc, Predicate: rdf.FuDataset, Object: ds},
	)
	r := g.Resource(svc)

	first, err := GetOne(r, rdf.FuDataset)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := GetOne(r, rdf.FuDataset)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestGetAll(t *testing.T) {
	g := rdf.NewGraph(
		rdf.Triple{Subject: svc, Predicate: rdf.FuAllowedUsers, Object: rdf.Literal("alice")},
		rdf.Triple{Subject: svc, Predicate: rdf.FuAllowedUsers, Object: rdf.Literal("bob")},
	)
	r := g.Resource(svc)

	assert.ElementsMatch(t, []rdf.Node{rdf.Literal("alice"), rdf.Literal("bob")}, GetAll(r, rdf.FuAllowedUsers))
	assert.Empty(t, GetAll(r, rdf.FuName))
}

func TestGetString(t *testing.T) {
	g := rdf.NewGraph(
		rdf.Triple{Subject: ds, Predicate: rdf.TDBLocation, Object: rdf.Literal("/var/db")},
		rdf.Triple{Subject: svc, Predicate: rdf.FuName, Object: ds},
	)

	loc, err := GetString(g.Resource(ds), rdf.TDBLocation)
	require.NoError(t, err)
	assert.Equal(t, "/var/db", loc)

	_, err = GetString(g.Resource(svc), rdf.FuName)
	assert.True(t, errs.IsConfigCode(err, errs.CodeMissingProperty))
}

func TestListByRole(t *testing.T) {
	other := rdf.IRI("http://example.org/#svc2")
	g := rdf.NewGraph(
		rdf.Triple{Subject: svc, Predicate: rdf.Type, Object: rdf.FuService},
		rdf.Triple{Subject: ds, Predicate: rdf.Type, Object: rdf.TDBDataset},
		rdf.Triple{Subject: other, Predicate: rdf.Type, Object: rdf.FuService},
	)

	got := ListByRole(g, rdf.FuService)
	require.Len(t, got, 2)
	assert.Equal(t, g.Resource(svc), got[0])
	assert.Equal(t, g.Resource(other), got[1])
	assert.Empty(t, ListByRole(g, rdf.FuServer))
}

func TestSingleByRole(t *testing.T) {
	t.Run("none", func(t *testing.T) {
		_, ok, err := SingleByRole(rdf.NewGraph(), rdf.FuServer)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("one", func(t *testing.T) {
		g := rdf.NewGraph(rdf.Triple{Subject: server, Predicate: rdf.Type, Object: rdf.FuServer})
		r, ok, err := SingleByRole(g, rdf.FuServer)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, server, r.Node)
	})

	t.Run("two", func(t *testing.T) {
		g := rdf.NewGraph(
			rdf.Triple{Subject: server, Predicate: rdf.Type, Object: rdf.FuServer},
			rdf.Triple{Subject: rdf.Blank("s2"), Predicate: rdf.Type, Object: rdf.FuServer},
		)
		_, _, err := SingleByRole(g, rdf.FuServer)
		assert.True(t, errs.IsConfigCode(err, errs.CodeMultipleServers))
	})
}

func listGraph(cells ...rdf.Triple) *rdf.Graph {
	return rdf.NewGraph(cells...)
}

func TestListMembers(t *testing.T) {
	c1, c2 := rdf.Blank("c1"), rdf.Blank("c2")
	g := listGraph(
		rdf.Triple{Subject: c1, Predicate: rdf.First, Object: svc},
		rdf.Triple{Subject: c1, Predicate: rdf.Rest, Object: c2},
		rdf.Triple{Subject: c2, Predicate: rdf.First, Object: ds},
		rdf.Triple{Subject: c2, Predicate: rdf.Rest, Object: rdf.Nil},
	)

	got, err := ListMembers(g, c1)
	require.NoError(t, err)
	assert.Equal(t, []rdf.Node{svc, ds}, got)

	empty, err := ListMembers(g, rdf.Nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestListMembers_Malformed(t *testing.T) {
	c1, c2 := rdf.Blank("c1"), rdf.Blank("c2")

	tests := []struct {
		name string
		g    *rdf.Graph
	}{
		{"missing rest", listGraph(
			rdf.Triple{Subject: c1, Predicate: rdf.First, Object: svc},
		)},
		{"two firsts", listGraph(
			rdf.Triple{Subject: c1, Predicate: rdf.First, Object: svc},
			rdf.Triple{Subject: c1, Predicate: rdf.First, Object: ds},
			rdf.Triple{Subject: c1, Predicate: rdf.Rest, Object: rdf.Nil},
		)},
		{"cycle", listGraph(
			rdf.Triple{Subject: c1, Predicate: rdf.First, Object: svc},
			rdf.Triple{Subject: c1, Predicate: rdf.Rest, Object: c2},
			rdf.Triple{Subject: c2, Predicate: rdf.First, Object: ds},
			rdf.Triple{Subject: c2, Predicate: rdf.Rest, Object: c1},
		)},
		{"literal rest", listGraph(
			rdf.Triple{Subject: c1, Predicate: rdf.First, Object: svc},
			rdf.Triple{Subject: c1, Predicate: rdf.Rest, Object: rdf.Literal("nil")},
		)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ListMembers(tt.g, c1)
			assert.True(t, errs.IsConfigCode(err, errs.CodeMalformedList), "got %v", err)
		})
	}
}
