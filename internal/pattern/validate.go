package pattern

import (
	"errors"
	"fmt"
)

// Validate checks that q can be evaluated by every backend.
//
// Rules:
//  1. At least one triple pattern
//  2. No nil terms and no empty variable names
//  3. Constants are never the zero node
//  4. A constant graph is an IRI
//  5. Every selected variable occurs in the query
//
// All violations are reported together.
func Validate(q Query) error {
	v := &validator{}
	v.validate(q)
	return errors.Join(v.errs...)
}

// validator accumulates problems during traversal.
type validator struct {
	errs []error
}

func (v *validator) addf(format string, args ...any) {
	v.errs = append(v.errs, fmt.Errorf(format, args...))
}

func (v *validator) validate(q Query) {
	if len(q.Where) == 0 {
		v.addf("query has no triple patterns")
	}

	if q.Graph != nil {
		v.validateTerm("graph", q.Graph)
		if c, ok := q.Graph.(Const); ok && !c.Node.IsIRI() {
			v.addf("graph constant must be an IRI, got %s", c.Node)
		}
	}

	for i, tp := range q.Where {
		v.validateTerm(fmt.Sprintf("pattern %d subject", i), tp.Subject)
		v.validateTerm(fmt.Sprintf("pattern %d predicate", i), tp.Predicate)
		v.validateTerm(fmt.Sprintf("pattern %d object", i), tp.Object)
	}

	known := make(map[Var]bool)
	for _, vr := range q.Vars() {
		known[vr] = true
	}
	for _, vr := range q.Select {
		if !known[vr] {
			v.addf("selected variable %s does not occur in the query", vr)
		}
	}
}

func (v *validator) validateTerm(where string, t Term) {
	switch term := t.(type) {
	case nil:
		v.addf("%s: missing term", where)
	case Var:
		if term == "" {
			v.addf("%s: empty variable name", where)
		}
	case Const:
		if term.Node.IsZero() {
			v.addf("%s: constant has no value", where)
		}
	default:
		v.addf("%s: unknown term type %T", where, t)
	}
}
