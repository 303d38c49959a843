package formats

import (
	"github.com/pelletier/go-toml/v2"

	"github.com/roach88/assay/internal/rdf"
)

// ParseTOML decodes a TOML node document. Nodes are written as an array of
// tables:
//
//	[[nodes]]
//	"@id" = "ex:service"
//	"fu:name" = "ds"
func ParseTOML(name string, data []byte) (*rdf.Graph, error) {
	var doc map[string]any
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, syntaxError(name, "%v", err)
	}
	return convertDocument(name, doc)
}
