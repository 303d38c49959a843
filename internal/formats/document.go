package formats

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/roach88/assay/internal/rdf"
)

// Keywords of the node-document shape.
const (
	keyPrefixes = "prefixes"
	keyNodes    = "nodes"
	keyID       = "@id"
	keyType     = "@type"
	keyValue    = "@value"
	keyDatatype = "@datatype"
	keyLang     = "@lang"
	keyList     = "@list"
)

// blankPrefix labels blank nodes created for nodes without an @id.
const blankPrefix = "genid"

// documentConverter turns a decoded node document into triples. The decoded
// form is the one the YAML, TOML and CUE decoders share: maps with string
// keys, slices, strings, booleans and numbers.
type documentConverter struct {
	name     string
	prefixes map[string]string
	builder  *rdf.Builder
	blanks   int
}

// convertDocument builds a graph from a decoded node document.
func convertDocument(name string, doc map[string]any) (*rdf.Graph, error) {
	c := &documentConverter{
		name:     name,
		prefixes: make(map[string]string, len(rdf.Prefixes)),
		builder:  rdf.NewBuilder(),
	}
	for p, ns := range rdf.Prefixes {
		c.prefixes[p] = ns
	}

	for _, key := range sortedKeys(doc) {
		if key != keyPrefixes && key != keyNodes {
			return nil, syntaxError(name, "unknown top-level key %q", key)
		}
	}

	if raw, ok := doc[keyPrefixes]; ok {
		prefixes, ok := raw.(map[string]any)
		if !ok {
			return nil, syntaxError(name, "%s must be a map, got %T", keyPrefixes, raw)
		}
		for _, p := range sortedKeys(prefixes) {
			ns, ok := prefixes[p].(string)
			if !ok || ns == "" {
				return nil, syntaxError(name, "prefix %q must map to a namespace string", p)
			}
			c.prefixes[p] = ns
		}
	}

	raw, ok := doc[keyNodes]
	if !ok {
		return c.builder.Graph(), nil
	}
	nodes, ok := raw.([]any)
	if !ok {
		return nil, syntaxError(name, "%s must be a list, got %T", keyNodes, raw)
	}
	for i, n := range nodes {
		obj, ok := n.(map[string]any)
		if !ok {
			return nil, syntaxError(name, "%s[%d] must be a map, got %T", keyNodes, i, n)
		}
		if _, err := c.node(obj); err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", keyNodes, i, err)
		}
	}
	return c.builder.Graph(), nil
}

// node emits the statements of one node description and returns its
// subject.
func (c *documentConverter) node(obj map[string]any) (rdf.Node, error) {
	subject, err := c.subject(obj)
	if err != nil {
		return rdf.Node{}, err
	}

	if raw, ok := obj[keyType]; ok {
		types, err := c.types(raw)
		if err != nil {
			return rdf.Node{}, err
		}
		for _, t := range types {
			c.builder.Add(subject, rdf.Type, t)
		}
	}

	for _, key := range sortedKeys(obj) {
		if strings.HasPrefix(key, "@") {
			if key != keyID && key != keyType {
				return rdf.Node{}, syntaxError(c.name, "keyword %q is not allowed on a node", key)
			}
			continue
		}
		predicate, err := c.iri(key)
		if err != nil {
			return rdf.Node{}, err
		}
		objects, err := c.values(key, obj[key])
		if err != nil {
			return rdf.Node{}, err
		}
		for _, o := range objects {
			c.builder.Add(subject, predicate, o)
		}
	}
	return subject, nil
}

func (c *documentConverter) subject(obj map[string]any) (rdf.Node, error) {
	raw, ok := obj[keyID]
	if !ok {
		return c.fresh(), nil
	}
	id, ok := raw.(string)
	if !ok {
		return rdf.Node{}, syntaxError(c.name, "%s must be a string, got %T", keyID, raw)
	}
	return c.ref(id)
}

func (c *documentConverter) types(raw any) ([]rdf.Node, error) {
	var names []any
	switch v := raw.(type) {
	case string:
		names = []any{v}
	case []any:
		names = v
	default:
		return nil, syntaxError(c.name, "%s must be a string or a list, got %T", keyType, raw)
	}
	out := make([]rdf.Node, 0, len(names))
	for _, n := range names {
		s, ok := n.(string)
		if !ok {
			return nil, syntaxError(c.name, "%s entries must be strings, got %T", keyType, n)
		}
		t, err := c.iri(s)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// values converts a property value. A list gives one object per element.
func (c *documentConverter) values(key string, raw any) ([]rdf.Node, error) {
	list, ok := raw.([]any)
	if !ok {
		n, err := c.value(key, raw)
		if err != nil {
			return nil, err
		}
		return []rdf.Node{n}, nil
	}
	out := make([]rdf.Node, 0, len(list))
	for _, item := range list {
		if _, nested := item.([]any); nested {
			return nil, syntaxError(c.name, "%s: nested lists need %s", key, keyList)
		}
		n, err := c.value(key, item)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func (c *documentConverter) value(key string, raw any) (rdf.Node, error) {
	switch v := raw.(type) {
	case nil:
		return rdf.Node{}, syntaxError(c.name, "%s: null value", key)
	case map[string]any:
		return c.object(key, v)
	default:
		return c.scalar(key, v)
	}
}

// object converts a map value: a reference, a literal, a list or a nested
// node.
func (c *documentConverter) object(key string, obj map[string]any) (rdf.Node, error) {
	if raw, ok := obj[keyValue]; ok {
		return c.literal(key, raw, obj)
	}
	if raw, ok := obj[keyList]; ok {
		if len(obj) != 1 {
			return rdf.Node{}, syntaxError(c.name, "%s: %s cannot be combined with other keys", key, keyList)
		}
		return c.list(key, raw)
	}
	if id, ok := obj[keyID]; ok && len(obj) == 1 {
		s, ok := id.(string)
		if !ok {
			return rdf.Node{}, syntaxError(c.name, "%s must be a string, got %T", keyID, id)
		}
		return c.ref(s)
	}
	return c.node(obj)
}

func (c *documentConverter) literal(key string, raw any, obj map[string]any) (rdf.Node, error) {
	for k := range obj {
		if k != keyValue && k != keyDatatype && k != keyLang {
			return rdf.Node{}, syntaxError(c.name, "%s: unexpected key %q in a literal", key, k)
		}
	}
	lexical, err := lexicalForm(raw)
	if err != nil {
		return rdf.Node{}, syntaxError(c.name, "%s: %v", key, err)
	}

	dt, hasDT := obj[keyDatatype]
	lang, hasLang := obj[keyLang]
	switch {
	case hasDT && hasLang:
		return rdf.Node{}, syntaxError(c.name, "%s: a literal has a datatype or a language, not both", key)
	case hasDT:
		s, ok := dt.(string)
		if !ok {
			return rdf.Node{}, syntaxError(c.name, "%s: %s must be a string", key, keyDatatype)
		}
		iri, err := c.iri(s)
		if err != nil {
			return rdf.Node{}, err
		}
		return rdf.TypedLiteral(lexical, iri.Value), nil
	case hasLang:
		s, ok := lang.(string)
		if !ok || s == "" {
			return rdf.Node{}, syntaxError(c.name, "%s: %s must be a non-empty string", key, keyLang)
		}
		return rdf.LangLiteral(lexical, s), nil
	default:
		return rdf.Literal(lexical), nil
	}
}

// list emits an rdf:first/rdf:rest chain and returns its head.
func (c *documentConverter) list(key string, raw any) (rdf.Node, error) {
	items, ok := raw.([]any)
	if !ok {
		return rdf.Node{}, syntaxError(c.name, "%s: %s must be a list, got %T", key, keyList, raw)
	}
	if len(items) == 0 {
		return rdf.Nil, nil
	}

	members := make([]rdf.Node, 0, len(items))
	for _, item := range items {
		n, err := c.value(key, item)
		if err != nil {
			return rdf.Node{}, err
		}
		members = append(members, n)
	}

	head := c.fresh()
	cell := head
	for i, m := range members {
		c.builder.Add(cell, rdf.First, m)
		next := rdf.Nil
		if i < len(members)-1 {
			next = c.fresh()
		}
		c.builder.Add(cell, rdf.Rest, next)
		cell = next
	}
	return head, nil
}

func (c *documentConverter) scalar(key string, raw any) (rdf.Node, error) {
	switch v := raw.(type) {
	case string:
		return rdf.Literal(v), nil
	case bool:
		return rdf.TypedLiteral(strconv.FormatBool(v), rdf.XSDBoolean), nil
	case int:
		return rdf.TypedLiteral(strconv.Itoa(v), rdf.XSDInteger), nil
	case int64:
		return rdf.TypedLiteral(strconv.FormatInt(v, 10), rdf.XSDInteger), nil
	case uint64:
		return rdf.TypedLiteral(strconv.FormatUint(v, 10), rdf.XSDInteger), nil
	case float64:
		if v == math.Trunc(v) && !math.IsInf(v, 0) && math.Abs(v) < 1<<53 {
			return rdf.TypedLiteral(strconv.FormatInt(int64(v), 10), rdf.XSDInteger), nil
		}
		return rdf.TypedLiteral(strconv.FormatFloat(v, 'g', -1, 64), rdf.XSDDouble), nil
	case time.Time:
		return rdf.TypedLiteral(v.Format(time.RFC3339Nano), rdf.NSXSD+"dateTime"), nil
	default:
		return rdf.Node{}, syntaxError(c.name, "%s: unsupported value of type %T", key, raw)
	}
}

// ref resolves an @id: "_:label" is a blank node, anything else an IRI.
func (c *documentConverter) ref(id string) (rdf.Node, error) {
	if label, ok := strings.CutPrefix(id, "_:"); ok {
		if label == "" {
			return rdf.Node{}, syntaxError(c.name, "empty blank node label")
		}
		return rdf.Blank(label), nil
	}
	return c.iri(id)
}

// iri expands a compact name, or accepts an absolute IRI.
func (c *documentConverter) iri(name string) (rdf.Node, error) {
	if expanded, ok := rdf.Expand(name, c.prefixes); ok {
		return rdf.IRI(expanded), nil
	}
	scheme, _, found := strings.Cut(name, ":")
	if !found || scheme == "" || strings.ContainsAny(name, " <>\"{}|\\^`") {
		return rdf.Node{}, syntaxError(c.name, "%q is not an IRI or a known prefixed name", name)
	}
	return rdf.IRI(name), nil
}

func (c *documentConverter) fresh() rdf.Node {
	c.blanks++
	return rdf.Blank(fmt.Sprintf("%s%d", blankPrefix, c.blanks))
}

func lexicalForm(raw any) (string, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case bool:
		return strconv.FormatBool(v), nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case uint64:
		return strconv.FormatUint(v, 10), nil
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), nil
	default:
		return "", fmt.Errorf("%s must be a scalar, got %T", keyValue, raw)
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
