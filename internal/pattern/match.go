package pattern

import (
	"errors"

	"github.com/roach88/assay/internal/rdf"
)

// ErrNamedGraph is returned by Match for queries scoped to a named graph.
var ErrNamedGraph = errors.New("in-memory graphs have only a default graph")

// Match evaluates q against g with a nested-loop join in pattern order.
//
// Solutions are ordered by the insertion position of the triple matched by
// the first pattern, then the second, and so on. Only projected variables
// appear in the returned bindings.
func Match(g *rdf.Graph, q Query) ([]Binding, error) {
	if err := Validate(q); err != nil {
		return nil, err
	}
	if q.Graph != nil {
		return nil, ErrNamedGraph
	}

	var solutions []Binding
	var walk func(i int, b Binding)
	walk = func(i int, b Binding) {
		if i == len(q.Where) {
			solutions = append(solutions, project(b, q.Projection()))
			return
		}
		tp := q.Where[i]
		s, p, o := resolve(tp.Subject, b), resolve(tp.Predicate, b), resolve(tp.Object, b)
		for _, t := range g.Find(s, p, o) {
			next, ok := extend(b, tp, t)
			if ok {
				walk(i+1, next)
			}
		}
	}
	walk(0, Binding{})
	return solutions, nil
}

// resolve returns the node a term is fixed to under b, or the zero node when
// it is still free.
func resolve(t Term, b Binding) rdf.Node {
	switch term := t.(type) {
	case Const:
		return term.Node
	case Var:
		return b[term]
	}
	return rdf.Node{}
}

// extend binds the variables of tp to the matching triple. It fails when a
// variable occurs twice in tp with different values.
func extend(b Binding, tp TriplePattern, t rdf.Triple) (Binding, bool) {
	next := make(Binding, len(b)+3)
	for k, v := range b {
		next[k] = v
	}
	pairs := [3]struct {
		term Term
		node rdf.Node
	}{
		{tp.Subject, t.Subject},
		{tp.Predicate, t.Predicate},
		{tp.Object, t.Object},
	}
	for _, pr := range pairs {
		v, ok := pr.term.(Var)
		if !ok {
			continue
		}
		if bound, exists := next[v]; exists && bound != pr.node {
			return nil, false
		}
		next[v] = pr.node
	}
	return next, true
}

func project(b Binding, vars []Var) Binding {
	out := make(Binding, len(vars))
	for _, v := range vars {
		out[v] = b[v]
	}
	return out
}
