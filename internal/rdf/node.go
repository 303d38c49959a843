package rdf

import "strings"

// Kind distinguishes the three node kinds.
type Kind uint8

const (
	// KindIRI is a node named by an IRI.
	KindIRI Kind = iota + 1
	// KindBlank is an anonymous node, scoped to the graph it appears in.
	KindBlank
	// KindLiteral is a data value with a lexical form.
	KindLiteral
)

// String returns a short kind label.
func (k Kind) String() string {
	switch k {
	case KindIRI:
		return "iri"
	case KindBlank:
		return "blank"
	case KindLiteral:
		return "literal"
	default:
		return "none"
	}
}

// Node is a single term of a statement.
//
// For IRIs Value holds the IRI, for blank nodes the label, and for literals
// the lexical form. Datatype is empty for simple strings; Lang is only set on
// language-tagged strings.
//
// The zero Node is used as a wildcard by Graph.Find.
type Node struct {
	Kind     Kind
	Value    string
	Datatype string
	Lang     string
}

// IRI creates an IRI node.
func IRI(iri string) Node {
	return Node{Kind: KindIRI, Value: iri}
}

// Blank creates a blank node with the given label.
func Blank(label string) Node {
	return Node{Kind: KindBlank, Value: label}
}

// Literal creates a simple string literal.
func Literal(lexical string) Node {
	return Node{Kind: KindLiteral, Value: lexical}
}

// TypedLiteral creates a literal with a datatype IRI.
// An xsd:string datatype collapses to a simple literal.
func TypedLiteral(lexical, datatype string) Node {
	if datatype == XSDString {
		datatype = ""
	}
	return Node{Kind: KindLiteral, Value: lexical, Datatype: datatype}
}

// LangLiteral creates a language-tagged string. Tags are stored lower case.
func LangLiteral(lexical, lang string) Node {
	return Node{Kind: KindLiteral, Value: lexical, Lang: strings.ToLower(lang)}
}

// IsZero reports whether n is the zero (wildcard) node.
func (n Node) IsZero() bool {
	return n.Kind == 0
}

// IsIRI reports whether n is an IRI.
func (n Node) IsIRI() bool {
	return n.Kind == KindIRI
}

// IsBlank reports whether n is a blank node.
func (n Node) IsBlank() bool {
	return n.Kind == KindBlank
}

// IsLiteral reports whether n is a literal.
func (n Node) IsLiteral() bool {
	return n.Kind == KindLiteral
}

// IsResource reports whether n can be the subject of a statement.
func (n Node) IsResource() bool {
	return n.Kind == KindIRI || n.Kind == KindBlank
}

// IsSimpleString reports whether n is a plain string literal: no language
// tag and no datatype other than xsd:string.
func (n Node) IsSimpleString() bool {
	return n.Kind == KindLiteral && n.Lang == "" && n.Datatype == ""
}

// String returns the N-Triples form of the node.
func (n Node) String() string {
	if n.IsZero() {
		return "ANY"
	}
	return EncodeTerm(n)
}
