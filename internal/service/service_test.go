package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/assay/internal/access"
	"github.com/roach88/assay/internal/dataset"
	"github.com/roach88/assay/internal/errs"
	"github.com/roach88/assay/internal/pattern"
	"github.com/roach88/assay/internal/rdf"
	"github.com/roach88/assay/internal/storage"
)

func memDataset(t *testing.T) *dataset.Dataset {
	t.Helper()
	m := storage.NewManager(storage.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	t.Cleanup(func() { _ = m.Close() })
	loc := storage.UniqueMem()
	h, err := m.Open(loc, nil)
	require.NoError(t, err)
	return &dataset.Dataset{Location: loc, Handle: h}
}

func TestCanonical(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"ds", "/ds"},
		{"/ds", "/ds"},
		{"/ds/", "/ds"},
		{"  books//  ", "/books"},
		{"/", "/"},
		{"", "/"},
		{"café", "/café"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Canonical(tt.in), "Canonical(%q)", tt.in)
	}
}

func TestStatusIRIRoundTrip(t *testing.T) {
	for _, st := range []Status{StatusUninitialized, StatusStarting, StatusActive, StatusOffline, StatusClosing, StatusClosed} {
		got, ok := StatusFromIRI(st.IRI())
		require.True(t, ok, st)
		assert.Equal(t, st, got)
	}
	_, ok := StatusFromIRI(rdf.IRI("urn:unknown"))
	assert.False(t, ok)
}

func TestDataService_Endpoints(t *testing.T) {
	s := NewDataService(nil)
	s.AddEndpoint(Query, "query")
	s.AddEndpoint(Query, "sparql")
	s.AddEndpoint(Query, "query")
	s.AddEndpoint(GSPRead, "get")

	assert.Equal(t, []string{"query", "sparql"}, s.Endpoints(Query))
	assert.Equal(t, []OperationKind{Query, GSPRead}, s.Operations())
	assert.True(t, s.HasOperation(GSPRead))
	assert.False(t, s.HasOperation(Update))
	assert.Equal(t, StatusUninitialized, s.Status())
}

func TestDataService_AbsentAllowListIsUnrestricted(t *testing.T) {
	s := NewDataService(nil)
	s.SetAccess(nil, nil)

	_, ok := s.AllowedUsers()
	assert.False(t, ok)
	for _, op := range access.Operations() {
		assert.NoError(t, s.Gate().Check(op, "/ds", "anyone"))
	}
}

func TestDataService_AllowListAndServerPolicy(t *testing.T) {
	s := NewDataService(nil)
	readOnly := access.PolicyFunc(func(op access.Operation, _, _ string) bool { return op == access.OpQuery })
	s.SetAccess([]string{"alice"}, readOnly)

	users, ok := s.AllowedUsers()
	require.True(t, ok)
	assert.Equal(t, []string{"alice"}, users)

	assert.NoError(t, s.Gate().Check(access.OpQuery, "/ds", "alice"))
	assert.Error(t, s.Gate().Check(access.OpUpdate, "/ds", "alice"))
	assert.Error(t, s.Gate().Check(access.OpQuery, "/ds", "bob"))
}

func TestDataAccessPoint_DenialHasNoEffect(t *testing.T) {
	ctx := context.Background()
	ds := memDataset(t)
	svc := NewDataService(ds)
	svc.SetAccess([]string{"alice"}, nil)
	ap := NewDataAccessPoint("books", svc, rdf.Resource{})

	quad := rdf.Quad{Subject: rdf.IRI("urn:b1"), Predicate: rdf.IRI("urn:title"), Object: rdf.Literal("Dune")}

	err := ap.InsertData(ctx, "mallory", quad)
	require.True(t, errs.IsAccessDenied(err))
	var denied *errs.AccessDeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, "/books", denied.Dataset)
	assert.Equal(t, "insertData", denied.Operation)

	all, err := ds.Handle.Find(ctx, rdf.Node{}, rdf.Node{}, rdf.Node{}, rdf.Node{})
	require.NoError(t, err)
	assert.Empty(t, all, "denied insert must not reach storage")

	require.NoError(t, ap.InsertData(ctx, "alice", quad))
	rows, err := ap.Query(ctx, "alice", pattern.Query{
		Where: []pattern.TriplePattern{pattern.T(pattern.Var("b"), pattern.C(rdf.IRI("urn:title")), pattern.Var("title"))},
	})
	require.NoError(t, err)
	assert.Equal(t, []pattern.Binding{{"b": rdf.IRI("urn:b1"), "title": rdf.Literal("Dune")}}, rows)
}

func TestDataAccessPoint_EveryOperationIsGated(t *testing.T) {
	ctx := context.Background()
	svc := NewDataService(memDataset(t))
	svc.SetAccess([]string{}, nil) // empty list: nobody
	ap := NewDataAccessPoint("/locked", svc, rdf.Resource{})
	g := rdf.IRI("urn:g")

	calls := map[string]error{
		"query": func() error {
			_, err := ap.Query(ctx, "alice", pattern.Query{Where: []pattern.TriplePattern{pattern.T(pattern.Var("s"), pattern.Var("p"), pattern.Var("o"))}})
			return err
		}(),
		"insertData": ap.InsertData(ctx, "alice"),
		"deleteData": ap.DeleteData(ctx, "alice"),
		"update":     ap.Update(ctx, "alice", storage.Update{}),
		"create":     ap.CreateGraph(ctx, "alice", g),
		"clear":      ap.ClearGraph(ctx, "alice", g),
		"drop":       ap.DropGraph(ctx, "alice", g),
	}
	for op, err := range calls {
		var denied *errs.AccessDeniedError
		require.ErrorAs(t, err, &denied, op)
		assert.Equal(t, op, denied.Operation)
	}
}

func TestDataAccessPoint_GraphOperations(t *testing.T) {
	ctx := context.Background()
	ds := memDataset(t)
	ap := NewDataAccessPoint("/open", NewDataService(ds), rdf.Resource{})
	g := rdf.IRI("urn:g")

	require.NoError(t, ap.CreateGraph(ctx, "", g))
	require.NoError(t, ap.Update(ctx, "", storage.Update{Insert: []rdf.Quad{
		{Graph: g, Subject: rdf.IRI("urn:s"), Predicate: rdf.IRI("urn:p"), Object: rdf.Literal("v")},
	}}))
	require.NoError(t, ap.ClearGraph(ctx, "", g))
	graphs, err := ds.Handle.Graphs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []rdf.Node{g}, graphs)

	require.NoError(t, ap.DropGraph(ctx, "", g))
	graphs, err = ds.Handle.Graphs(ctx)
	require.NoError(t, err)
	assert.Empty(t, graphs)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	a := NewDataAccessPoint("a", NewDataService(nil), rdf.Resource{})
	b := NewDataAccessPoint("/b/", NewDataService(nil), rdf.Resource{})

	require.NoError(t, r.Register(a))
	require.NoError(t, r.Register(b))

	err := r.Register(NewDataAccessPoint("/a", NewDataService(nil), rdf.Resource{}))
	assert.True(t, errs.IsConfigCode(err, errs.CodeDuplicateName))

	got, ok := r.Get("b")
	require.True(t, ok)
	assert.Same(t, b, got)
	assert.Equal(t, []*DataAccessPoint{a, b}, r.List())

	removed, ok := r.Remove("/a/")
	require.True(t, ok)
	assert.Same(t, a, removed)
	assert.Equal(t, 1, r.Len())
	_, ok = r.Remove("/a")
	assert.False(t, ok)

	require.NoError(t, r.Register(NewDataAccessPoint("a", NewDataService(nil), rdf.Resource{})))
}

func TestRegistry_ConcurrentReaders(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_ = r.Register(NewDataAccessPoint(string(rune('a'+i)), NewDataService(nil), rdf.Resource{}))
		}(i)
		go func() {
			defer wg.Done()
			_ = r.List()
			_, _ = r.Get("a")
		}()
	}
	wg.Wait()
	assert.Equal(t, 8, r.Len())
}
