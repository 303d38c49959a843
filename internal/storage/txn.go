package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/assay/internal/errs"
	"github.com/roach88/assay/internal/pattern"
	"github.com/roach88/assay/internal/rdf"
)

// TxnMode selects what a transaction may do.
type TxnMode uint8

const (
	// TxnRead permits reads only.
	TxnRead TxnMode = iota + 1
	// TxnWrite permits reads and writes.
	TxnWrite
)

// ErrReadOnly is returned by writes inside a TxnRead transaction.
var ErrReadOnly = errors.New("write in read transaction")

// Txn is a transaction on a Handle. While a Txn is open every other use of
// the handle waits, so all reads inside it must go through the Txn.
//
// End is always safe to call: after Commit it does nothing, otherwise it
// rolls back. The usual shape is
//
//	txn, err := h.Begin(ctx, storage.TxnWrite)
//	if err != nil { ... }
//	defer txn.End()
//	...
//	return txn.Commit()
type Txn struct {
	h    *Handle
	tx   *sql.Tx
	mode TxnMode
	done bool
}

// Begin starts a transaction.
func (h *Handle) Begin(ctx context.Context, mode TxnMode) (*Txn, error) {
	if err := h.live(); err != nil {
		return nil, err
	}
	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errs.Storage(errs.CodeIO, h.loc.String(), fmt.Errorf("begin: %w", err))
	}
	return &Txn{h: h, tx: tx, mode: mode}, nil
}

// Commit makes the transaction's writes durable and closes it.
func (t *Txn) Commit() error {
	if t.done {
		return fmt.Errorf("transaction already finished")
	}
	t.done = true
	if err := t.tx.Commit(); err != nil {
		return errs.Storage(errs.CodeIO, t.h.loc.String(), fmt.Errorf("commit: %w", err))
	}
	return nil
}

// End rolls back an unfinished transaction.
func (t *Txn) End() {
	if t.done {
		return
	}
	t.done = true
	_ = t.tx.Rollback()
}

func (t *Txn) writable() error {
	if t.done {
		return fmt.Errorf("transaction already finished")
	}
	if t.mode != TxnWrite {
		return ErrReadOnly
	}
	return nil
}

// Select evaluates a pattern query inside the transaction.
func (t *Txn) Select(ctx context.Context, q pattern.Query) ([]pattern.Binding, error) {
	if t.done {
		return nil, fmt.Errorf("transaction already finished")
	}
	rows, err := selectBindings(ctx, t.tx, q)
	if err != nil {
		return nil, errs.Storage(errs.CodeIO, t.h.loc.String(), err)
	}
	return rows, nil
}

// Add inserts quads.
func (t *Txn) Add(ctx context.Context, quads ...rdf.Quad) error {
	if err := t.writable(); err != nil {
		return err
	}
	if err := addQuads(ctx, t.tx, quads); err != nil {
		return errs.Storage(errs.CodeIO, t.h.loc.String(), err)
	}
	return nil
}

// Delete removes quads.
func (t *Txn) Delete(ctx context.Context, quads ...rdf.Quad) error {
	if err := t.writable(); err != nil {
		return err
	}
	if err := deleteQuads(ctx, t.tx, quads); err != nil {
		return errs.Storage(errs.CodeIO, t.h.loc.String(), err)
	}
	return nil
}

// Graph loads the triples of graph g. A zero g loads the default graph.
func (t *Txn) Graph(ctx context.Context, g rdf.Node) (*rdf.Graph, error) {
	if t.done {
		return nil, fmt.Errorf("transaction already finished")
	}
	quads, err := findQuads(ctx, t.tx, g, rdf.Node{}, rdf.Node{}, rdf.Node{})
	if err != nil {
		return nil, errs.Storage(errs.CodeIO, t.h.loc.String(), err)
	}
	b := rdf.NewBuilder()
	for _, q := range quads {
		b.AddTriple(q.Triple())
	}
	return b.Graph(), nil
}

// ReplaceGraph sets the content of named graph g to graph.
func (t *Txn) ReplaceGraph(ctx context.Context, g rdf.Node, graph *rdf.Graph) error {
	if err := t.writable(); err != nil {
		return err
	}
	if !g.IsIRI() {
		return fmt.Errorf("graph name must be an IRI, got %s", g)
	}
	if err := dropGraph(ctx, t.tx, g); err != nil {
		return errs.Storage(errs.CodeIO, t.h.loc.String(), err)
	}
	if _, err := t.tx.ExecContext(ctx, `INSERT OR IGNORE INTO graphs (name) VALUES (?)`, graphKey(g)); err != nil {
		return errs.Storage(errs.CodeIO, t.h.loc.String(), err)
	}
	quads := make([]rdf.Quad, 0, graph.Len())
	for _, tr := range graph.Triples() {
		quads = append(quads, tr.InGraph(g))
	}
	if err := addQuads(ctx, t.tx, quads); err != nil {
		return errs.Storage(errs.CodeIO, t.h.loc.String(), err)
	}
	return nil
}

// DropGraph removes named graph g and its quads.
func (t *Txn) DropGraph(ctx context.Context, g rdf.Node) error {
	if err := t.writable(); err != nil {
		return err
	}
	if err := dropGraph(ctx, t.tx, g); err != nil {
		return errs.Storage(errs.CodeIO, t.h.loc.String(), err)
	}
	return nil
}
