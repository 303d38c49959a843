package formats

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/assay/internal/errs"
	"github.com/roach88/assay/internal/rdf"
)

func canonical(t *testing.T, g *rdf.Graph) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, rdf.WriteCanonical(&buf, g))
	return buf.Bytes()
}

func TestParseFile_AllFormatsAgree(t *testing.T) {
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	reg := Default()

	for _, file := range []string{"service.nt", "service.yaml", "service.json", "service.toml", "service.cue"} {
		t.Run(file, func(t *testing.T) {
			graph, err := reg.ParseFile(filepath.Join("testdata", file))
			require.NoError(t, err)
			g.Assert(t, "service", canonical(t, graph))
		})
	}
}

func TestRegistry_Extensions(t *testing.T) {
	reg := Default()
	assert.Equal(t, []string{".cue", ".json", ".nt", ".toml", ".yaml", ".yml"}, reg.Extensions())

	assert.True(t, reg.Recognized("config/books.TTL.yaml"))
	assert.True(t, reg.Recognized("BOOKS.NT"))
	assert.False(t, reg.Recognized("README.md"))
	assert.False(t, reg.Recognized("noext"))

	reg.Register("ttl", ParserFunc(ParseNTriples))
	assert.True(t, reg.Recognized("a.ttl"))
}

func TestParseFile_Errors(t *testing.T) {
	dir := t.TempDir()
	reg := Default()

	_, err := reg.ParseFile(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.False(t, errs.IsConfigError(err), "read failures are not syntax errors")
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = reg.ParseFile(filepath.Join(dir, "notes.txt"))
	assert.True(t, errs.IsConfigCode(err, errs.CodeSyntax))

	bad := filepath.Join(dir, "bad.nt")
	require.NoError(t, os.WriteFile(bad, []byte("<urn:s> <urn:p> \"ok\" .\n<urn:s> \"p\" <urn:o> .\n"), 0o644))
	_, err = reg.ParseFile(bad)
	require.Error(t, err)
	assert.True(t, errs.IsConfigCode(err, errs.CodeSyntax))
	assert.Contains(t, err.Error(), "line 2")
}

func TestParseYAML_ListsAndNestedNodes(t *testing.T) {
	doc := `
prefixes:
  ex: "http://example.org/"
nodes:
  - "@id": "ex:server"
    "@type": "fu:Server"
    "fu:services":
      "@list":
        - "@id": "ex:a"
        - "@id": "ex:b"
    "ex:nested":
      "@type": "ex:Thing"
      "ex:label": { "@value": "chose", "@lang": "FR" }
    "ex:empty": { "@list": [] }
`
	graph, err := ParseYAML("inline.yaml", []byte(doc))
	require.NoError(t, err)

	server := rdf.IRI("http://example.org/server")
	heads := graph.Objects(server, rdf.FuServices)
	require.Len(t, heads, 1)
	head := heads[0]
	assert.True(t, head.IsBlank())
	assert.Equal(t, []rdf.Node{rdf.IRI("http://example.org/a")}, graph.Objects(head, rdf.First))
	next := graph.Objects(head, rdf.Rest)
	require.Len(t, next, 1)
	assert.Equal(t, []rdf.Node{rdf.IRI("http://example.org/b")}, graph.Objects(next[0], rdf.First))
	assert.Equal(t, []rdf.Node{rdf.Nil}, graph.Objects(next[0], rdf.Rest))

	assert.Equal(t, []rdf.Node{rdf.Nil}, graph.Objects(server, rdf.IRI("http://example.org/empty")))

	nested := graph.Objects(server, rdf.IRI("http://example.org/nested"))
	require.Len(t, nested, 1)
	assert.True(t, graph.Has(nested[0], rdf.Type, rdf.IRI("http://example.org/Thing")))
	assert.Equal(t, []rdf.Node{rdf.LangLiteral("chose", "fr")},
		graph.Objects(nested[0], rdf.IRI("http://example.org/label")))
}

func TestParseYAML_ScalarTypes(t *testing.T) {
	doc := `
nodes:
  - "@id": "urn:x"
    "urn:flag": true
    "urn:count": 3
    "urn:ratio": 0.5
    "urn:blank": { "@id": "_:b1" }
`
	graph, err := ParseYAML("scalars.yaml", []byte(doc))
	require.NoError(t, err)

	x := rdf.IRI("urn:x")
	assert.Equal(t, []rdf.Node{rdf.TypedLiteral("true", rdf.XSDBoolean)}, graph.Objects(x, rdf.IRI("urn:flag")))
	assert.Equal(t, []rdf.Node{rdf.TypedLiteral("3", rdf.XSDInteger)}, graph.Objects(x, rdf.IRI("urn:count")))
	assert.Equal(t, []rdf.Node{rdf.TypedLiteral("0.5", rdf.XSDDouble)}, graph.Objects(x, rdf.IRI("urn:ratio")))
	assert.Equal(t, []rdf.Node{rdf.Blank("b1")}, graph.Objects(x, rdf.IRI("urn:blank")))
}

func TestParseDocument_StructuralErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown top-level key", "services: []"},
		{"nodes not a list", "nodes: {}"},
		{"subject not an IRI", `nodes: [{"@id": "local", "urn:p": "v"}]`},
		{"relative predicate", `nodes: [{"@id": "urn:x", "name": "v"}]`},
		{"null value", `nodes: [{"@id": "urn:x", "urn:p": null}]`},
		{"nested list", `nodes: [{"@id": "urn:x", "urn:p": [["a"]]}]`},
		{"datatype and language", `nodes: [{"@id": "urn:x", "urn:p": {"@value": "a", "@lang": "en", "@datatype": "xsd:string"}}]`},
		{"unknown keyword", `nodes: [{"@id": "urn:x", "@graph": []}]`},
		{"bad yaml", "nodes: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseYAML("doc.yaml", []byte(tt.doc))
			require.Error(t, err)
			assert.True(t, errs.IsConfigCode(err, errs.CodeSyntax), err.Error())
		})
	}
}

func TestParseCUE_NonConcrete(t *testing.T) {
	_, err := ParseCUE("open.cue", []byte(`nodes: [{"@id": string}]`))
	require.Error(t, err)
	assert.True(t, errs.IsConfigCode(err, errs.CodeSyntax))
}

func TestParseTOML_Syntax(t *testing.T) {
	_, err := ParseTOML("bad.toml", []byte("[[nodes]\n"))
	require.Error(t, err)
	assert.True(t, errs.IsConfigCode(err, errs.CodeSyntax))
}

func TestParseNTriples_CommentsAndDuplicates(t *testing.T) {
	data := "# header\n\n<urn:s> <urn:p> \"v\" . # trailing\n<urn:s> <urn:p> \"v\" .\n"
	graph, err := ParseNTriples("dup.nt", []byte(data))
	require.NoError(t, err)
	assert.Equal(t, 1, graph.Len())
}
