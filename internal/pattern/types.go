package pattern

import (
	"strings"

	"github.com/roach88/assay/internal/rdf"
)

// Term is one position of a triple pattern.
//
// This is a sealed interface - only Var and Const implement it.
type Term interface {
	term() // Marker method - seals interface to this package
}

// Var is a named variable. Occurrences of the same Var must bind the same
// node.
type Var string

func (Var) term() {}

// String renders the variable with its "?" sigil.
func (v Var) String() string {
	return "?" + string(v)
}

// Const matches exactly one node.
type Const struct {
	Node rdf.Node
}

func (Const) term() {}

// C wraps a node as a constant term.
func C(n rdf.Node) Const {
	return Const{Node: n}
}

// TriplePattern is a statement with variables allowed in any position.
type TriplePattern struct {
	Subject   Term
	Predicate Term
	Object    Term
}

// T builds a triple pattern.
func T(s, p, o Term) TriplePattern {
	return TriplePattern{Subject: s, Predicate: p, Object: o}
}

// Query is a basic graph pattern.
//
// Graph selects the graph the patterns are matched in:
//   - nil: the default graph
//   - Const: one named graph
//   - Var: every named graph, binding the graph name (all patterns share it)
//
// Select lists the projected variables in output order. When empty, every
// variable is projected in order of first appearance.
type Query struct {
	Graph  Term
	Where  []TriplePattern
	Select []Var
}

// Binding maps variables to the nodes they matched.
type Binding map[Var]rdf.Node

// Vars returns the variables of q in order of first appearance, graph
// variable first.
func (q Query) Vars() []Var {
	var vars []Var
	seen := make(map[Var]bool)
	add := func(t Term) {
		if v, ok := t.(Var); ok && !seen[v] {
			seen[v] = true
			vars = append(vars, v)
		}
	}
	add(q.Graph)
	for _, tp := range q.Where {
		add(tp.Subject)
		add(tp.Predicate)
		add(tp.Object)
	}
	return vars
}

// Projection returns the variables the query outputs.
func (q Query) Projection() []Var {
	if len(q.Select) > 0 {
		return q.Select
	}
	return q.Vars()
}

// String renders q in a SPARQL-like syntax for logs and error messages.
func (q Query) String() string {
	var sb strings.Builder
	sb.WriteString("SELECT")
	for _, v := range q.Projection() {
		sb.WriteByte(' ')
		sb.WriteString(v.String())
	}
	sb.WriteString(" WHERE { ")
	if q.Graph != nil {
		sb.WriteString("GRAPH ")
		sb.WriteString(termString(q.Graph))
		sb.WriteString(" { ")
	}
	for _, tp := range q.Where {
		sb.WriteString(termString(tp.Subject))
		sb.WriteByte(' ')
		sb.WriteString(termString(tp.Predicate))
		sb.WriteByte(' ')
		sb.WriteString(termString(tp.Object))
		sb.WriteString(" . ")
	}
	if q.Graph != nil {
		sb.WriteString("} ")
	}
	sb.WriteString("}")
	return sb.String()
}

func termString(t Term) string {
	switch tt := t.(type) {
	case Var:
		return tt.String()
	case Const:
		return rdf.EncodeTerm(tt.Node)
	default:
		return "<nil>"
	}
}
