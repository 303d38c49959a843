package formats

import (
	"gopkg.in/yaml.v3"

	"github.com/roach88/assay/internal/rdf"
)

// ParseYAML decodes a YAML node document. JSON documents are valid YAML and
// use the same parser.
func ParseYAML(name string, data []byte) (*rdf.Graph, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, syntaxError(name, "%v", err)
	}
	return convertDocument(name, doc)
}
