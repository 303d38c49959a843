// Package service holds the assembled form of a configuration: data
// services with their endpoints, and the named access points that expose
// them.
package service

import (
	"strings"
	"sync"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/assay/internal/access"
	"github.com/roach88/assay/internal/dataset"
	"github.com/roach88/assay/internal/rdf"
)

// OperationKind is the kind of request an endpoint serves.
type OperationKind string

const (
	Query            OperationKind = "query"
	Update           OperationKind = "update"
	Upload           OperationKind = "upload"
	GSPRead          OperationKind = "gsp-r"
	GSPReadWrite     OperationKind = "gsp-rw"
	QuadsRead        OperationKind = "quads-r"
	QuadsReadWrite   OperationKind = "quads-rw"
	DatasetRead      OperationKind = "dataset-r"
	DatasetReadWrite OperationKind = "dataset-rw"
)

// kindOrder is the order Operations reports kinds in.
var kindOrder = []OperationKind{
	Query, Update, Upload,
	GSPRead, GSPReadWrite,
	QuadsRead, QuadsReadWrite,
	DatasetRead, DatasetReadWrite,
}

// Status is the lifecycle state of a data service.
type Status string

const (
	StatusUninitialized Status = "Uninitialized"
	StatusStarting      Status = "Starting"
	StatusActive        Status = "Active"
	StatusOffline       Status = "Offline"
	StatusClosing       Status = "Closing"
	StatusClosed        Status = "Closed"
)

var statusIRIs = map[Status]rdf.Node{
	StatusUninitialized: rdf.FuUninitialized,
	StatusStarting:      rdf.FuStarting,
	StatusActive:        rdf.FuActive,
	StatusOffline:       rdf.FuOffline,
	StatusClosing:       rdf.FuClosing,
	StatusClosed:        rdf.FuClosed,
}

// IRI returns the vocabulary term for s.
func (s Status) IRI() rdf.Node {
	return statusIRIs[s]
}

// StatusFromIRI maps a vocabulary term back to a Status.
func StatusFromIRI(n rdf.Node) (Status, bool) {
	for s, iri := range statusIRIs {
		if iri == n {
			return s, true
		}
	}
	return "", false
}

// Canonical returns the registry form of an access point name: trimmed,
// NFC normalized, with a leading "/" and no trailing "/".
func Canonical(name string) string {
	name = norm.NFC.String(strings.TrimSpace(name))
	if !strings.HasPrefix(name, "/") {
		name = "/" + name
	}
	for len(name) > 1 && strings.HasSuffix(name, "/") {
		name = strings.TrimSuffix(name, "/")
	}
	return name
}

// DataService is a dataset plus the endpoints declared for it.
type DataService struct {
	Dataset *dataset.Dataset

	mu        sync.RWMutex
	endpoints map[OperationKind][]string
	allowed   []string
	hasAllow  bool
	gate      access.Gate
	status    Status
}

// NewDataService creates a service over ds with no endpoints, in state
// Uninitialized.
func NewDataService(ds *dataset.Dataset) *DataService {
	return &DataService{
		Dataset:   ds,
		endpoints: make(map[OperationKind][]string),
		status:    StatusUninitialized,
	}
}

// AddEndpoint declares path for kind. A path already declared for the kind
// is ignored.
func (s *DataService) AddEndpoint(kind OperationKind, path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.endpoints[kind] {
		if p == path {
			return
		}
	}
	s.endpoints[kind] = append(s.endpoints[kind], path)
}

// Endpoints returns the paths declared for kind, in declaration order.
func (s *DataService) Endpoints(kind OperationKind) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.endpoints[kind]...)
}

// HasOperation reports whether kind has at least one endpoint.
func (s *DataService) HasOperation(kind OperationKind) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.endpoints[kind]) > 0
}

// Operations returns the kinds that have endpoints.
func (s *DataService) Operations() []OperationKind {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []OperationKind
	for _, k := range kindOrder {
		if len(s.endpoints[k]) > 0 {
			out = append(out, k)
		}
	}
	return out
}

// SetAccess attaches an allow-list and an optional server-wide policy.
// A nil users slice leaves the service unrestricted by user.
func (s *DataService) SetAccess(users []string, server access.Policy) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hasAllow = users != nil
	s.allowed = append([]string(nil), users...)

	var list access.Policy
	if s.hasAllow {
		list = access.NewAllowList(users...)
	}
	s.gate = access.NewGate(access.All(list, server))
}

// AllowedUsers returns the allow-list; ok is false when there is none.
func (s *DataService) AllowedUsers() (users []string, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.hasAllow {
		return nil, false
	}
	return append([]string(nil), s.allowed...), true
}

// Gate returns the access gate protecting the service.
func (s *DataService) Gate() access.Gate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gate
}

// Status returns the current lifecycle state.
func (s *DataService) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// SetStatus changes the lifecycle state.
func (s *DataService) SetStatus(st Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = st
}
