// Package formats turns configuration files into graphs.
//
// A Registry maps file extensions to parsers. The default registry knows
// N-Triples (.nt) and the structured node-document formats: YAML (.yaml,
// .yml), JSON (.json), TOML (.toml) and CUE (.cue). Directory scans use the
// same registry to decide which files are configuration at all.
//
// Parse failures are reported as ConfigError with code SYNTAX. Failures to
// read a file are returned as wrapped I/O errors so callers can tell the two
// apart.
package formats

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/roach88/assay/internal/errs"
	"github.com/roach88/assay/internal/rdf"
)

// Parser decodes the contents of one configuration file. name is used only
// in error messages.
type Parser interface {
	Parse(name string, data []byte) (*rdf.Graph, error)
}

// ParserFunc adapts a function to Parser.
type ParserFunc func(name string, data []byte) (*rdf.Graph, error)

// Parse calls f.
func (f ParserFunc) Parse(name string, data []byte) (*rdf.Graph, error) {
	return f(name, data)
}

// Registry maps lower-case extensions, including the leading dot, to parsers.
type Registry struct {
	mu      sync.RWMutex
	parsers map[string]Parser
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]Parser)}
}

// Default returns a Registry with every built-in format registered.
func Default() *Registry {
	r := NewRegistry()
	r.Register(".nt", ParserFunc(ParseNTriples))
	r.Register(".yaml", ParserFunc(ParseYAML))
	r.Register(".yml", ParserFunc(ParseYAML))
	r.Register(".json", ParserFunc(ParseYAML))
	r.Register(".toml", ParserFunc(ParseTOML))
	r.Register(".cue", ParserFunc(ParseCUE))
	return r
}

// Register adds p for ext, replacing any earlier parser.
func (r *Registry) Register(ext string, p Parser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.parsers[normalizeExt(ext)] = p
}

// Lookup returns the parser for path's extension.
func (r *Registry) Lookup(path string) (Parser, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.parsers[normalizeExt(filepath.Ext(path))]
	return p, ok
}

// Recognized reports whether path has a registered extension.
func (r *Registry) Recognized(path string) bool {
	_, ok := r.Lookup(path)
	return ok
}

// Extensions lists the registered extensions, sorted.
func (r *Registry) Extensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exts := make([]string, 0, len(r.parsers))
	for ext := range r.parsers {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// ParseFile reads and parses path.
func (r *Registry) ParseFile(path string) (*rdf.Graph, error) {
	p, ok := r.Lookup(path)
	if !ok {
		return nil, errs.Config(errs.CodeSyntax, path, "unrecognized configuration format %q", filepath.Ext(path))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return p.Parse(path, data)
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

func syntaxError(name string, format string, args ...any) error {
	return errs.Config(errs.CodeSyntax, name, format, args...)
}
