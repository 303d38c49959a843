// Package patternsql compiles pattern queries to parameterized SQL over the
// quad table of a storage handle.
package patternsql

import (
	"fmt"
	"strings"

	"github.com/roach88/assay/internal/pattern"
	"github.com/roach88/assay/internal/rdf"
)

// DefaultGraph is the value of the graph column for default-graph quads.
const DefaultGraph = ""

// Compiled is the output of Compile.
type Compiled struct {
	SQL     string
	Params  []any
	Columns []pattern.Var // one per selected column, in order
}

// Compiler compiles pattern queries against a quad table with columns
// id, g, s, p, o. Terms are compared in their N-Triples encoding.
//
// CRITICAL: every query ends with ORDER BY on the row ids of the patterns, in
// pattern order, so results match pattern.Match ordering.
// CRITICAL: constants are always parameterized, never interpolated.
type Compiler struct {
	// Table is the quad table name. Defaults to "quads".
	Table string
}

// NewCompiler creates a Compiler for the default quad table.
func NewCompiler() *Compiler {
	return &Compiler{Table: "quads"}
}

// Compile converts q to SQL. Each triple pattern becomes one alias of the
// quad table (q0, q1, ...) and shared variables become join conditions.
func (c *Compiler) Compile(q pattern.Query) (Compiled, error) {
	if err := pattern.Validate(q); err != nil {
		return Compiled{}, fmt.Errorf("invalid query: %w", err)
	}

	table := c.Table
	if table == "" {
		table = "quads"
	}

	cc := &compilation{first: make(map[pattern.Var]string)}

	for i, tp := range q.Where {
		alias := fmt.Sprintf("q%d", i)
		cc.from = append(cc.from, table+" AS "+alias)
		cc.order = append(cc.order, alias+".id ASC")

		switch g := q.Graph.(type) {
		case nil:
			cc.where = append(cc.where, alias+".g = ?")
			cc.params = append(cc.params, DefaultGraph)
		case pattern.Var:
			if i == 0 {
				cc.where = append(cc.where, alias+".g <> ?")
				cc.params = append(cc.params, DefaultGraph)
			}
			cc.bind(g, alias+".g")
		case pattern.Const:
			cc.constant(alias+".g", g.Node)
		}

		cc.term(alias+".s", tp.Subject)
		cc.term(alias+".p", tp.Predicate)
		cc.term(alias+".o", tp.Object)
	}

	cols := q.Projection()
	selects := make([]string, len(cols))
	for i, v := range cols {
		selects[i] = cc.first[v]
	}

	sql := "SELECT " + strings.Join(selects, ", ") +
		" FROM " + strings.Join(cc.from, ", ") +
		" WHERE " + strings.Join(cc.where, " AND ") +
		" ORDER BY " + strings.Join(cc.order, ", ")

	return Compiled{SQL: sql, Params: cc.params, Columns: cols}, nil
}

// compilation accumulates clauses while walking the patterns.
type compilation struct {
	from   []string
	where  []string
	order  []string
	params []any
	first  map[pattern.Var]string // variable → column of its first occurrence
}

func (cc *compilation) term(column string, t pattern.Term) {
	switch term := t.(type) {
	case pattern.Var:
		cc.bind(term, column)
	case pattern.Const:
		cc.constant(column, term.Node)
	}
}

func (cc *compilation) constant(column string, n rdf.Node) {
	cc.where = append(cc.where, column+" = ?")
	cc.params = append(cc.params, rdf.EncodeTerm(n))
}

func (cc *compilation) bind(v pattern.Var, column string) {
	if prev, ok := cc.first[v]; ok {
		cc.where = append(cc.where, column+" = "+prev)
		return
	}
	cc.first[v] = column
}
