// Package confgraph provides the read primitives the assembly pipeline uses
// to pull service and dataset descriptors out of a configuration graph.
//
// Every function is a pure read: the graph is never modified, and repeated
// calls on the same graph return the same answer.
package confgraph

import (
	"github.com/roach88/assay/internal/errs"
	"github.com/roach88/assay/internal/pattern"
	"github.com/roach88/assay/internal/rdf"
)

// GetOne returns the single value of property on r.
// Zero values is MissingProperty, more than one is AmbiguousProperty.
func GetOne(r rdf.Resource, property rdf.Node) (rdf.Node, error) {
	values := r.Objects(property)
	switch len(values) {
	case 0:
		return rdf.Node{}, errs.Config(errs.CodeMissingProperty, r.String(),
			"no value for %s", rdf.Compact(property.Value))
	case 1:
		return values[0], nil
	default:
		return rdf.Node{}, errs.Config(errs.CodeAmbiguousProperty, r.String(),
			"%d values for %s", len(values), rdf.Compact(property.Value))
	}
}

// GetAll returns every value of property on r. Callers must not rely on the
// order.
func GetAll(r rdf.Resource, property rdf.Node) []rdf.Node {
	return r.Objects(property)
}

// GetString is GetOne restricted to literal values. The lexical form is
// returned.
func GetString(r rdf.Resource, property rdf.Node) (string, error) {
	n, err := GetOne(r, property)
	if err != nil {
		return "", err
	}
	if !n.IsLiteral() {
		return "", errs.Config(errs.CodeMissingProperty, r.String(),
			"%s must be a literal, got %s", rdf.Compact(property.Value), n)
	}
	return n.Value, nil
}

// ListByRole returns every subject typed as role, in graph order.
func ListByRole(g *rdf.Graph, role rdf.Node) []rdf.Resource {
	q := pattern.Query{
		Where:  []pattern.TriplePattern{pattern.T(pattern.Var("s"), pattern.C(rdf.Type), pattern.C(role))},
		Select: []pattern.Var{"s"},
	}
	rows, err := pattern.Match(g, q)
	if err != nil {
		// The query is fixed and valid; Match cannot fail on it.
		panic(err)
	}

	out := make([]rdf.Resource, 0, len(rows))
	for _, row := range rows {
		out = append(out, g.Resource(row["s"]))
	}
	return out
}

// SingleByRole returns the only subject typed as role. ok is false when there
// is none; more than one is MultipleServers.
func SingleByRole(g *rdf.Graph, role rdf.Node) (r rdf.Resource, ok bool, err error) {
	all := ListByRole(g, role)
	switch len(all) {
	case 0:
		return rdf.Resource{}, false, nil
	case 1:
		return all[0], true, nil
	default:
		return rdf.Resource{}, false, errs.Config(errs.CodeMultipleServers, rdf.Compact(role.Value),
			"%d resources of type %s, expected at most one", len(all), rdf.Compact(role.Value))
	}
}

// ListMembers walks the RDF collection starting at head. Every cell must
// have exactly one rdf:first and one rdf:rest; the chain ends at rdf:nil
// and may not revisit a cell.
func ListMembers(g *rdf.Graph, head rdf.Node) ([]rdf.Node, error) {
	var members []rdf.Node
	seen := make(map[rdf.Node]bool)

	for cell := head; cell != rdf.Nil; {
		if !cell.IsResource() {
			return nil, errs.Config(errs.CodeMalformedList, head.String(),
				"list cell %s is not a resource", cell)
		}
		if seen[cell] {
			return nil, errs.Config(errs.CodeMalformedList, head.String(), "list is cyclic at %s", cell)
		}
		seen[cell] = true

		r := g.Resource(cell)
		first, err := GetOne(r, rdf.First)
		if err != nil {
			return nil, errs.Config(errs.CodeMalformedList, head.String(), "cell %s: %v", cell, err)
		}
		rest, err := GetOne(r, rdf.Rest)
		if err != nil {
			return nil, errs.Config(errs.CodeMalformedList, head.String(), "cell %s: %v", cell, err)
		}
		members = append(members, first)
		cell = rest
	}
	return members, nil
}
