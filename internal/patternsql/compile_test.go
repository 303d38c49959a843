package patternsql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/assay/internal/pattern"
	"github.com/roach88/assay/internal/rdf"
)

func TestCompile_SinglePatternDefaultGraph(t *testing.T) {
	q := pattern.Query{
		Where: []pattern.TriplePattern{
			pattern.T(pattern.Var("s"), pattern.C(rdf.Type), pattern.C(rdf.FuService)),
		},
	}

	got, err := NewCompiler().Compile(q)
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT q0.s FROM quads AS q0 WHERE q0.g = ? AND q0.p = ? AND q0.o = ? ORDER BY q0.id ASC",
		got.SQL)
	assert.Equal(t, []any{"", "<" + rdf.NSRDF + "type>", "<" + rdf.NSFU + "Service>"}, got.Params)
	assert.Equal(t, []pattern.Var{"s"}, got.Columns)
}

func TestCompile_NoInterpolation(t *testing.T) {
	q := pattern.Query{
		Where: []pattern.TriplePattern{
			pattern.T(pattern.Var("s"), pattern.C(rdf.FuName), pattern.C(rdf.Literal("'; DROP TABLE quads; --"))),
		},
	}

	got, err := NewCompiler().Compile(q)
	require.NoError(t, err)
	assert.NotContains(t, got.SQL, "DROP")
	assert.Contains(t, got.Params, `"'; DROP TABLE quads; --"`)
}

func TestCompile_GraphVariableJoin(t *testing.T) {
	q := pattern.Query{
		Graph: pattern.Var("g"),
		Where: []pattern.TriplePattern{
			pattern.T(pattern.Var("s"), pattern.C(rdf.FuName), pattern.Var("name")),
			pattern.T(pattern.Var("s"), pattern.C(rdf.FuStatus), pattern.Var("status")),
		},
		Select: []pattern.Var{"g", "name", "status"},
	}

	got, err := NewCompiler().Compile(q)
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT q0.g, q0.o, q1.o FROM quads AS q0, quads AS q1 "+
			"WHERE q0.g <> ? AND q0.p = ? AND q1.g = q0.g AND q1.s = q0.s AND q1.p = ? "+
			"ORDER BY q0.id ASC, q1.id ASC",
		got.SQL)
	assert.Equal(t, []any{"", "<" + rdf.NSFU + "name>", "<" + rdf.NSFU + "status>"}, got.Params)
	assert.Equal(t, []pattern.Var{"g", "name", "status"}, got.Columns)
}

func TestCompile_ConstantGraph(t *testing.T) {
	graph := rdf.IRI("urn:graph")
	q := pattern.Query{
		Graph: pattern.C(graph),
		Where: []pattern.TriplePattern{
			pattern.T(pattern.Var("s"), pattern.Var("p"), pattern.Var("o")),
		},
	}

	got, err := NewCompiler().Compile(q)
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT q0.s, q0.p, q0.o FROM quads AS q0 WHERE q0.g = ? ORDER BY q0.id ASC",
		got.SQL)
	assert.Equal(t, []any{"<urn:graph>"}, got.Params)
}

func TestCompile_RepeatedVariableInPattern(t *testing.T) {
	q := pattern.Query{
		Where: []pattern.TriplePattern{
			pattern.T(pattern.Var("x"), pattern.C(rdf.FuDataset), pattern.Var("x")),
		},
	}

	got, err := NewCompiler().Compile(q)
	require.NoError(t, err)
	assert.Contains(t, got.SQL, "q0.o = q0.s")
}

func TestCompile_CustomTable(t *testing.T) {
	c := &Compiler{Table: "staging"}
	q := pattern.Query{
		Where: []pattern.TriplePattern{
			pattern.T(pattern.Var("s"), pattern.Var("p"), pattern.Var("o")),
		},
	}

	got, err := c.Compile(q)
	require.NoError(t, err)
	assert.Contains(t, got.SQL, "FROM staging AS q0")
}

func TestCompile_InvalidQuery(t *testing.T) {
	_, err := NewCompiler().Compile(pattern.Query{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid query")
}
