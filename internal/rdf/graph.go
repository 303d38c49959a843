package rdf

// Triple is one (subject, predicate, object) statement.
type Triple struct {
	Subject   Node
	Predicate Node
	Object    Node
}

// InGraph places the triple in a named graph. A zero graph node means the
// default graph.
func (t Triple) InGraph(graph Node) Quad {
	return Quad{Graph: graph, Subject: t.Subject, Predicate: t.Predicate, Object: t.Object}
}

// Quad is a statement inside a named graph.
type Quad struct {
	Graph     Node
	Subject   Node
	Predicate Node
	Object    Node
}

// Triple drops the graph component.
func (q Quad) Triple() Triple {
	return Triple{Subject: q.Subject, Predicate: q.Predicate, Object: q.Object}
}

// Graph is an immutable set of triples.
//
// Triples keep their insertion order; duplicates collapse to the first
// occurrence. Lookups by subject and by object are indexed.
type Graph struct {
	triples   []Triple
	bySubject map[Node][]int
	byObject  map[Node][]int
}

// NewGraph builds a graph from triples.
func NewGraph(triples ...Triple) *Graph {
	b := NewBuilder()
	for _, t := range triples {
		b.AddTriple(t)
	}
	return b.Graph()
}

// Len returns the number of distinct triples.
func (g *Graph) Len() int {
	return len(g.triples)
}

// Triples returns a copy of all triples in insertion order.
func (g *Graph) Triples() []Triple {
	out := make([]Triple, len(g.triples))
	copy(out, g.triples)
	return out
}

// Find returns the triples matching the pattern. A zero Node in any
// position matches everything.
func (g *Graph) Find(subject, predicate, object Node) []Triple {
	var candidates []int
	switch {
	case !subject.IsZero():
		candidates = g.bySubject[subject]
	case !object.IsZero():
		candidates = g.byObject[object]
	default:
		out := make([]Triple, 0, len(g.triples))
		for _, t := range g.triples {
			if predicate.IsZero() || t.Predicate == predicate {
				out = append(out, t)
			}
		}
		return out
	}

	var out []Triple
	for _, idx := range candidates {
		t := g.triples[idx]
		if !subject.IsZero() && t.Subject != subject {
			continue
		}
		if !predicate.IsZero() && t.Predicate != predicate {
			continue
		}
		if !object.IsZero() && t.Object != object {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Has reports whether the exact triple is present.
func (g *Graph) Has(subject, predicate, object Node) bool {
	for _, idx := range g.bySubject[subject] {
		t := g.triples[idx]
		if t.Predicate == predicate && t.Object == object {
			return true
		}
	}
	return false
}

// Objects returns the objects of (subject, predicate, *).
func (g *Graph) Objects(subject, predicate Node) []Node {
	matches := g.Find(subject, predicate, Node{})
	out := make([]Node, len(matches))
	for i, t := range matches {
		out[i] = t.Object
	}
	return out
}

// Subjects returns the distinct subjects of (*, predicate, object).
func (g *Graph) Subjects(predicate, object Node) []Node {
	matches := g.Find(Node{}, predicate, object)
	seen := make(map[Node]struct{}, len(matches))
	var out []Node
	for _, t := range matches {
		if _, ok := seen[t.Subject]; ok {
			continue
		}
		seen[t.Subject] = struct{}{}
		out = append(out, t.Subject)
	}
	return out
}

// Resource binds a node of this graph.
func (g *Graph) Resource(n Node) Resource {
	return Resource{Graph: g, Node: n}
}

// Closure returns the subgraph reachable from root: every triple whose
// subject is root, plus recursively the triples of every IRI or blank node
// reached as an object.
func (g *Graph) Closure(root Node) *Graph {
	b := NewBuilder()
	visited := map[Node]struct{}{root: {}}
	queue := []Node{root}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, idx := range g.bySubject[n] {
			t := g.triples[idx]
			b.AddTriple(t)
			if !t.Object.IsResource() {
				continue
			}
			if _, ok := visited[t.Object]; ok {
				continue
			}
			visited[t.Object] = struct{}{}
			queue = append(queue, t.Object)
		}
	}
	return b.Graph()
}

// Resource is a node together with the graph it was read from.
type Resource struct {
	Graph *Graph
	Node  Node
}

// Objects returns the values of a property of this resource.
func (r Resource) Objects(predicate Node) []Node {
	if r.Graph == nil {
		return nil
	}
	return r.Graph.Objects(r.Node, predicate)
}

// Has reports whether the resource has at least one value for predicate.
func (r Resource) Has(predicate Node) bool {
	return len(r.Objects(predicate)) > 0
}

// Rebase binds the same node to another graph.
func (r Resource) Rebase(g *Graph) Resource {
	return Resource{Graph: g, Node: r.Node}
}

// String returns the N-Triples form of the node.
func (r Resource) String() string {
	return r.Node.String()
}

// Builder accumulates triples for a Graph.
type Builder struct {
	triples []Triple
	seen    map[Triple]struct{}
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{seen: make(map[Triple]struct{})}
}

// Add appends a statement unless it is already present.
func (b *Builder) Add(subject, predicate, object Node) *Builder {
	return b.AddTriple(Triple{Subject: subject, Predicate: predicate, Object: object})
}

// AddTriple appends a triple unless it is already present.
func (b *Builder) AddTriple(t Triple) *Builder {
	if _, ok := b.seen[t]; ok {
		return b
	}
	b.seen[t] = struct{}{}
	b.triples = append(b.triples, t)
	return b
}

// AddGraph appends every triple of g.
func (b *Builder) AddGraph(g *Graph) *Builder {
	for _, t := range g.triples {
		b.AddTriple(t)
	}
	return b
}

// Len returns the number of distinct triples added so far.
func (b *Builder) Len() int {
	return len(b.triples)
}

// Graph freezes the accumulated triples. The builder may keep being used;
// later additions do not affect graphs already returned.
func (b *Builder) Graph() *Graph {
	g := &Graph{
		triples:   make([]Triple, len(b.triples)),
		bySubject: make(map[Node][]int),
		byObject:  make(map[Node][]int),
	}
	copy(g.triples, b.triples)
	for i, t := range g.triples {
		g.bySubject[t.Subject] = append(g.bySubject[t.Subject], i)
		g.byObject[t.Object] = append(g.byObject[t.Object], i)
	}
	return g
}
