package formats

import (
	"bufio"
	"bytes"

	"github.com/roach88/assay/internal/rdf"
)

// ParseNTriples decodes an N-Triples document.
func ParseNTriples(name string, data []byte) (*rdf.Graph, error) {
	b := rdf.NewBuilder()
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	line := 0
	for scanner.Scan() {
		line++
		t, ok, err := rdf.ParseTriple(scanner.Text())
		if err != nil {
			return nil, syntaxError(name, "line %d: %v", line, err)
		}
		if ok {
			b.AddTriple(t)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, syntaxError(name, "line %d: %v", line+1, err)
	}
	return b.Graph(), nil
}
