package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/assay/internal/rdf"
)

var (
	svcA = rdf.IRI("urn:svc:a")
	svcB = rdf.IRI("urn:svc:b")
	dsA  = rdf.IRI("urn:ds:a")
)

func serviceGraph() *rdf.Graph {
	return rdf.NewGraph(
		rdf.Triple{Subject: svcA, Predicate: rdf.Type, Object: rdf.FuService},
		rdf.Triple{Subject: svcA, Predicate: rdf.FuName, Object: rdf.Literal("a")},
		rdf.Triple{Subject: svcA, Predicate: rdf.FuDataset, Object: dsA},
		rdf.Triple{Subject: svcB, Predicate: rdf.Type, Object: rdf.FuService},
		rdf.Triple{Subject: svcB, Predicate: rdf.FuName, Object: rdf.Literal("b")},
		rdf.Triple{Subject: dsA, Predicate: rdf.Type, Object: rdf.TDBDataset},
	)
}

func TestValidate_ValidQuery(t *testing.T) {
	q := Query{
		Where:  []TriplePattern{T(Var("s"), C(rdf.FuName), Var("name"))},
		Select: []Var{"name"},
	}
	assert.NoError(t, Validate(q))
}

func TestValidate_ReportsAllProblems(t *testing.T) {
	q := Query{
		Graph: C(rdf.Literal("not an iri")),
		Where: []TriplePattern{
			{Subject: Var(""), Predicate: nil, Object: C(rdf.Node{})},
		},
		Select: []Var{"missing"},
	}

	err := Validate(q)
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "graph constant must be an IRI")
	assert.Contains(t, msg, "empty variable name")
	assert.Contains(t, msg, "missing term")
	assert.Contains(t, msg, "constant has no value")
	assert.Contains(t, msg, "?missing does not occur")
}

func TestValidate_EmptyQuery(t *testing.T) {
	err := Validate(Query{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no triple patterns")
}

func TestQuery_VarsInFirstAppearanceOrder(t *testing.T) {
	q := Query{
		Graph: Var("g"),
		Where: []TriplePattern{
			T(Var("s"), C(rdf.FuName), Var("name")),
			T(Var("s"), C(rdf.FuStatus), Var("status")),
		},
	}
	assert.Equal(t, []Var{"g", "s", "name", "status"}, q.Vars())
	assert.Equal(t, q.Vars(), q.Projection())
}

func TestQuery_String(t *testing.T) {
	q := Query{
		Graph:  Var("g"),
		Where:  []TriplePattern{T(Var("s"), C(rdf.FuName), Var("name"))},
		Select: []Var{"g", "name"},
	}
	assert.Equal(t,
		"SELECT ?g ?name WHERE { GRAPH ?g { ?s <http://jena.apache.org/fuseki#name> ?name . } }",
		q.String())
}

func TestMatch_SinglePattern(t *testing.T) {
	q := Query{
		Where: []TriplePattern{T(Var("s"), C(rdf.Type), C(rdf.FuService))},
	}

	got, err := Match(serviceGraph(), q)
	require.NoError(t, err)
	assert.Equal(t, []Binding{{"s": svcA}, {"s": svcB}}, got)
}

func TestMatch_JoinAndProjection(t *testing.T) {
	q := Query{
		Where: []TriplePattern{
			T(Var("s"), C(rdf.FuDataset), Var("ds")),
			T(Var("ds"), C(rdf.Type), Var("type")),
			T(Var("s"), C(rdf.FuName), Var("name")),
		},
		Select: []Var{"name", "type"},
	}

	got, err := Match(serviceGraph(), q)
	require.NoError(t, err)
	assert.Equal(t, []Binding{{"name": rdf.Literal("a"), "type": rdf.TDBDataset}}, got)
}

func TestMatch_RepeatedVariableInOnePattern(t *testing.T) {
	loop := rdf.IRI("urn:loop")
	g := rdf.NewGraph(
		rdf.Triple{Subject: loop, Predicate: rdf.FuDataset, Object: loop},
		rdf.Triple{Subject: svcA, Predicate: rdf.FuDataset, Object: dsA},
	)
	q := Query{Where: []TriplePattern{T(Var("x"), C(rdf.FuDataset), Var("x"))}}

	got, err := Match(g, q)
	require.NoError(t, err)
	assert.Equal(t, []Binding{{"x": loop}}, got)
}

func TestMatch_NoSolutions(t *testing.T) {
	q := Query{Where: []TriplePattern{T(Var("s"), C(rdf.FuStatus), Var("o"))}}

	got, err := Match(serviceGraph(), q)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMatch_NamedGraphRejected(t *testing.T) {
	q := Query{
		Graph: Var("g"),
		Where: []TriplePattern{T(Var("s"), Var("p"), Var("o"))},
	}

	_, err := Match(serviceGraph(), q)
	assert.ErrorIs(t, err, ErrNamedGraph)
}

func TestMatch_InvalidQuery(t *testing.T) {
	_, err := Match(serviceGraph(), Query{})
	assert.Error(t, err)
}
