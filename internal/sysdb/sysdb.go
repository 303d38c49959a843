// Package sysdb keeps the system database: the access points added while
// the server runs, persisted so they come back after a restart.
//
// Each access point is stored as its own named graph. The graph holds the
// descriptor closure of the service resource plus one fu:status statement,
// and its name is derived from the access point's canonical name so
// persisting again replaces the previous snapshot.
package sysdb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/assay/internal/assemble"
	"github.com/roach88/assay/internal/dataset"
	"github.com/roach88/assay/internal/pattern"
	"github.com/roach88/assay/internal/rdf"
	"github.com/roach88/assay/internal/service"
	"github.com/roach88/assay/internal/storage"
)

// ErrNotFound is returned when no entry exists for a name.
var ErrNotFound = errors.New("system database entry not found")

// entriesQuery is GRAPH ?g { ?s fu:name ?name . ?s fu:status ?status }.
var entriesQuery = pattern.Query{
	Graph: pattern.Var("g"),
	Where: []pattern.TriplePattern{
		pattern.T(pattern.Var("s"), pattern.C(rdf.FuName), pattern.Var("name")),
		pattern.T(pattern.Var("s"), pattern.C(rdf.FuStatus), pattern.Var("status")),
	},
	Select: []pattern.Var{"g", "s", "name", "status"},
}

// Entry is one persisted access point, rebuilt.
type Entry struct {
	// Name is the canonical access point name.
	Name string

	// Status is the persisted status. Entries are returned whatever their
	// status; callers decide what to do with inactive ones.
	Status service.Status

	// Graph is the named graph holding the snapshot.
	Graph rdf.Node

	// AccessPoint is the rebuilt access point.
	AccessPoint *service.DataAccessPoint
}

// Database is a system database stored in a storage handle.
type Database struct {
	handle    *storage.Handle
	assembler *assemble.Assembler
	logger    *slog.Logger
}

// Option configures a Database.
type Option func(*Database)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Database) {
		d.logger = logger
	}
}

// New creates a Database over h. Entries are rebuilt with a.
func New(h *storage.Handle, a *assemble.Assembler, opts ...Option) *Database {
	d := &Database{handle: h, assembler: a}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	return d
}

// Handle returns the storage handle the database lives in.
func (d *Database) Handle() *storage.Handle {
	return d.handle
}

// Load rebuilds every persisted access point.
//
// The scan and all rebuilds run inside one write transaction that is
// always closed before Load returns. Datasets are deduplicated across the
// whole load.
func (d *Database) Load(ctx context.Context) ([]Entry, error) {
	txn, err := d.handle.Begin(ctx, storage.TxnWrite)
	if err != nil {
		return nil, fmt.Errorf("begin load: %w", err)
	}
	defer txn.End()

	rows, err := txn.Select(ctx, entriesQuery)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}

	reg := dataset.NewRegistry()
	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		g := row["g"]
		status, ok := service.StatusFromIRI(row["status"])
		if !ok {
			d.logger.Warn("unknown service status, treating as offline",
				"graph", g.String(),
				"status", row["status"].String(),
			)
			status = service.StatusOffline
		}

		graph, err := txn.Graph(ctx, g)
		if err != nil {
			return nil, fmt.Errorf("load graph %s: %w", g, err)
		}
		svc := graph.Resource(row["s"])

		ap, err := d.assembler.BuildDataAccessPoint(svc, reg)
		if err != nil {
			return nil, fmt.Errorf("rebuild %s: %w", g, err)
		}
		ap.Service().SetStatus(status)

		d.logger.Debug("loaded system database entry",
			"name", ap.Name(),
			"status", string(status),
			"graph", g.String(),
		)
		entries = append(entries, Entry{
			Name:        ap.Name(),
			Status:      status,
			Graph:       g,
			AccessPoint: ap,
		})
	}

	if err := txn.Commit(); err != nil {
		return nil, err
	}
	return entries, nil
}

// Persist stores ap with status, replacing any earlier snapshot under the
// same name.
func (d *Database) Persist(ctx context.Context, ap *service.DataAccessPoint, status service.Status) error {
	desc := ap.Descriptor()
	if desc.Graph == nil || !desc.Node.IsResource() {
		return fmt.Errorf("persist %s: access point has no descriptor", ap.Name())
	}

	b := rdf.NewBuilder()
	for _, t := range desc.Graph.Closure(desc.Node).Triples() {
		if t.Subject == desc.Node && t.Predicate == rdf.FuStatus {
			continue
		}
		b.AddTriple(t)
	}
	b.Add(desc.Node, rdf.FuStatus, status.IRI())

	return d.write(ctx, func(txn *storage.Txn) error {
		return txn.ReplaceGraph(ctx, rdf.ServiceGraphName(ap.Name()), b.Graph())
	})
}

// SetStatus changes the persisted status of name.
func (d *Database) SetStatus(ctx context.Context, name string, status service.Status) error {
	g := rdf.ServiceGraphName(service.Canonical(name))
	return d.write(ctx, func(txn *storage.Txn) error {
		graph, err := txn.Graph(ctx, g)
		if err != nil {
			return err
		}
		current := graph.Find(rdf.Node{}, rdf.FuStatus, rdf.Node{})
		if len(current) == 0 {
			return fmt.Errorf("%s: %w", name, ErrNotFound)
		}

		b := rdf.NewBuilder()
		for _, t := range graph.Triples() {
			if t.Predicate != rdf.FuStatus {
				b.AddTriple(t)
			}
		}
		b.Add(current[0].Subject, rdf.FuStatus, status.IRI())
		return txn.ReplaceGraph(ctx, g, b.Graph())
	})
}

// Remove deletes the entry for name.
func (d *Database) Remove(ctx context.Context, name string) error {
	g := rdf.ServiceGraphName(service.Canonical(name))
	return d.write(ctx, func(txn *storage.Txn) error {
		graph, err := txn.Graph(ctx, g)
		if err != nil {
			return err
		}
		if graph.Len() == 0 {
			return fmt.Errorf("%s: %w", name, ErrNotFound)
		}
		return txn.DropGraph(ctx, g)
	})
}

// write runs fn in a write transaction, committing when fn succeeds.
func (d *Database) write(ctx context.Context, fn func(txn *storage.Txn) error) error {
	txn, err := d.handle.Begin(ctx, storage.TxnWrite)
	if err != nil {
		return err
	}
	defer txn.End()

	if err := fn(txn); err != nil {
		return err
	}
	return txn.Commit()
}
