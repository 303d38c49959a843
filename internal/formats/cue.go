package formats

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/assay/internal/rdf"
)

// ParseCUE evaluates a CUE node document. The value must be concrete:
// definitions and constraints may be used, but every field that ends up in
// the document needs a final value.
func ParseCUE(name string, data []byte) (*rdf.Graph, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(name))
	if err := v.Err(); err != nil {
		return nil, syntaxError(name, "compile: %v", err)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, syntaxError(name, "validate: %v", err)
	}

	decoded, err := cueValue(v)
	if err != nil {
		return nil, syntaxError(name, "%v", err)
	}
	doc, ok := decoded.(map[string]any)
	if !ok {
		return nil, syntaxError(name, "top level must be a struct, got %s", v.Kind())
	}
	return convertDocument(name, doc)
}

// cueValue converts a concrete CUE value into the shared decoded form.
func cueValue(v cue.Value) (any, error) {
	switch v.Kind() {
	case cue.StructKind:
		iter, err := v.Fields()
		if err != nil {
			return nil, fmt.Errorf("iterating fields: %w", err)
		}
		out := make(map[string]any)
		for iter.Next() {
			field, err := cueValue(iter.Value())
			if err != nil {
				return nil, fmt.Errorf("%s: %w", iter.Selector(), err)
			}
			out[iter.Selector().Unquoted()] = field
		}
		return out, nil

	case cue.ListKind:
		iter, err := v.List()
		if err != nil {
			return nil, fmt.Errorf("iterating list: %w", err)
		}
		var out []any
		for iter.Next() {
			item, err := cueValue(iter.Value())
			if err != nil {
				return nil, err
			}
			out = append(out, item)
		}
		if out == nil {
			out = []any{}
		}
		return out, nil

	case cue.StringKind:
		return v.String()

	case cue.BoolKind:
		return v.Bool()

	case cue.IntKind:
		return v.Int64()

	case cue.FloatKind, cue.NumberKind:
		return v.Float64()

	case cue.NullKind:
		return nil, nil

	default:
		return nil, fmt.Errorf("unsupported value of kind %s", v.Kind())
	}
}
