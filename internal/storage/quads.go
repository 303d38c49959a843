package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/roach88/assay/internal/errs"
	"github.com/roach88/assay/internal/pattern"
	"github.com/roach88/assay/internal/patternsql"
	"github.com/roach88/assay/internal/rdf"
)

// Update is a set of deletions followed by insertions, applied atomically.
type Update struct {
	Delete []rdf.Quad
	Insert []rdf.Quad
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// graphKey encodes a graph name for the g column. The zero node is the
// default graph.
func graphKey(g rdf.Node) string {
	if g.IsZero() {
		return patternsql.DefaultGraph
	}
	return rdf.EncodeTerm(g)
}

func decodeColumn(s string) (rdf.Node, error) {
	if s == patternsql.DefaultGraph {
		return rdf.Node{}, nil
	}
	return rdf.ParseTerm(s)
}

// Add inserts quads. Existing quads are left alone.
func (h *Handle) Add(ctx context.Context, quads ...rdf.Quad) error {
	if err := h.live(); err != nil {
		return err
	}
	return h.inTx(ctx, func(tx *sql.Tx) error { return addQuads(ctx, tx, quads) })
}

// Delete removes quads. Missing quads are ignored.
func (h *Handle) Delete(ctx context.Context, quads ...rdf.Quad) error {
	if err := h.live(); err != nil {
		return err
	}
	return h.inTx(ctx, func(tx *sql.Tx) error { return deleteQuads(ctx, tx, quads) })
}

// Apply runs u in one transaction.
func (h *Handle) Apply(ctx context.Context, u Update) error {
	if err := h.live(); err != nil {
		return err
	}
	return h.inTx(ctx, func(tx *sql.Tx) error {
		if err := deleteQuads(ctx, tx, u.Delete); err != nil {
			return err
		}
		return addQuads(ctx, tx, u.Insert)
	})
}

// Find returns the quads of graph g matching s, p, o, in insertion order.
// Zero s, p or o match anything; a zero g is the default graph.
func (h *Handle) Find(ctx context.Context, g, s, p, o rdf.Node) ([]rdf.Quad, error) {
	if err := h.live(); err != nil {
		return nil, err
	}
	quads, err := findQuads(ctx, h.db, g, s, p, o)
	if err != nil {
		return nil, errs.Storage(errs.CodeIO, h.loc.String(), err)
	}
	return quads, nil
}

// Graphs lists the named graphs, sorted by name.
func (h *Handle) Graphs(ctx context.Context) ([]rdf.Node, error) {
	if err := h.live(); err != nil {
		return nil, err
	}
	rows, err := h.db.QueryContext(ctx, `SELECT name FROM graphs ORDER BY name ASC COLLATE BINARY`)
	if err != nil {
		return nil, errs.Storage(errs.CodeIO, h.loc.String(), err)
	}
	defer rows.Close()

	var out []rdf.Node
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errs.Storage(errs.CodeIO, h.loc.String(), err)
		}
		n, err := rdf.ParseTerm(name)
		if err != nil {
			return nil, errs.Storage(errs.CodeIO, h.loc.String(), fmt.Errorf("graph name %q: %w", name, err))
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Storage(errs.CodeIO, h.loc.String(), err)
	}
	return out, nil
}

// CreateGraph records an empty named graph. Creating an existing graph is
// a no-op.
func (h *Handle) CreateGraph(ctx context.Context, g rdf.Node) error {
	if err := h.live(); err != nil {
		return err
	}
	if !g.IsIRI() {
		return fmt.Errorf("graph name must be an IRI, got %s", g)
	}
	if _, err := h.db.ExecContext(ctx, `INSERT OR IGNORE INTO graphs (name) VALUES (?)`, graphKey(g)); err != nil {
		return errs.Storage(errs.CodeIO, h.loc.String(), err)
	}
	return nil
}

// ClearGraph removes every quad of g but keeps the graph. A zero g clears
// the default graph.
func (h *Handle) ClearGraph(ctx context.Context, g rdf.Node) error {
	if err := h.live(); err != nil {
		return err
	}
	if _, err := h.db.ExecContext(ctx, `DELETE FROM quads WHERE g = ?`, graphKey(g)); err != nil {
		return errs.Storage(errs.CodeIO, h.loc.String(), err)
	}
	return nil
}

// DropGraph removes g and its quads.
func (h *Handle) DropGraph(ctx context.Context, g rdf.Node) error {
	if err := h.live(); err != nil {
		return err
	}
	return h.inTx(ctx, func(tx *sql.Tx) error { return dropGraph(ctx, tx, g) })
}

// Select evaluates a pattern query over the stored quads.
func (h *Handle) Select(ctx context.Context, q pattern.Query) ([]pattern.Binding, error) {
	if err := h.live(); err != nil {
		return nil, err
	}
	rows, err := selectBindings(ctx, h.db, q)
	if err != nil {
		return nil, errs.Storage(errs.CodeIO, h.loc.String(), err)
	}
	return rows, nil
}

// inTx runs fn in a write transaction on the handle's database.
func (h *Handle) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return errs.Storage(errs.CodeIO, h.loc.String(), fmt.Errorf("begin: %w", err))
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return errs.Storage(errs.CodeIO, h.loc.String(), err)
	}
	if err := tx.Commit(); err != nil {
		return errs.Storage(errs.CodeIO, h.loc.String(), fmt.Errorf("commit: %w", err))
	}
	return nil
}

func addQuads(ctx context.Context, q querier, quads []rdf.Quad) error {
	for _, quad := range quads {
		if err := validQuad(quad); err != nil {
			return err
		}
		g := graphKey(quad.Graph)
		if g != patternsql.DefaultGraph {
			if _, err := q.ExecContext(ctx, `INSERT OR IGNORE INTO graphs (name) VALUES (?)`, g); err != nil {
				return fmt.Errorf("add graph: %w", err)
			}
		}
		_, err := q.ExecContext(ctx, `
			INSERT INTO quads (g, s, p, o) VALUES (?, ?, ?, ?)
			ON CONFLICT DO NOTHING
		`, g, rdf.EncodeTerm(quad.Subject), rdf.EncodeTerm(quad.Predicate), rdf.EncodeTerm(quad.Object))
		if err != nil {
			return fmt.Errorf("add quad: %w", err)
		}
	}
	return nil
}

func deleteQuads(ctx context.Context, q querier, quads []rdf.Quad) error {
	for _, quad := range quads {
		_, err := q.ExecContext(ctx, `DELETE FROM quads WHERE g = ? AND s = ? AND p = ? AND o = ?`,
			graphKey(quad.Graph), rdf.EncodeTerm(quad.Subject), rdf.EncodeTerm(quad.Predicate), rdf.EncodeTerm(quad.Object))
		if err != nil {
			return fmt.Errorf("delete quad: %w", err)
		}
	}
	return nil
}

func dropGraph(ctx context.Context, q querier, g rdf.Node) error {
	key := graphKey(g)
	if _, err := q.ExecContext(ctx, `DELETE FROM quads WHERE g = ?`, key); err != nil {
		return fmt.Errorf("drop graph quads: %w", err)
	}
	if _, err := q.ExecContext(ctx, `DELETE FROM graphs WHERE name = ?`, key); err != nil {
		return fmt.Errorf("drop graph: %w", err)
	}
	return nil
}

func validQuad(q rdf.Quad) error {
	switch {
	case !q.Subject.IsResource():
		return fmt.Errorf("subject must be an IRI or blank node, got %s", q.Subject)
	case !q.Predicate.IsIRI():
		return fmt.Errorf("predicate must be an IRI, got %s", q.Predicate)
	case q.Object.IsZero():
		return fmt.Errorf("object is missing")
	case !q.Graph.IsZero() && !q.Graph.IsIRI():
		return fmt.Errorf("graph name must be an IRI, got %s", q.Graph)
	}
	return nil
}

func findQuads(ctx context.Context, q querier, g, s, p, o rdf.Node) ([]rdf.Quad, error) {
	where := []string{"g = ?"}
	args := []any{graphKey(g)}
	for _, c := range []struct {
		col  string
		node rdf.Node
	}{{"s", s}, {"p", p}, {"o", o}} {
		if !c.node.IsZero() {
			where = append(where, c.col+" = ?")
			args = append(args, rdf.EncodeTerm(c.node))
		}
	}

	rows, err := q.QueryContext(ctx,
		"SELECT s, p, o FROM quads WHERE "+strings.Join(where, " AND ")+" ORDER BY id ASC", args...)
	if err != nil {
		return nil, fmt.Errorf("find quads: %w", err)
	}
	defer rows.Close()

	var out []rdf.Quad
	for rows.Next() {
		var cols [3]string
		if err := rows.Scan(&cols[0], &cols[1], &cols[2]); err != nil {
			return nil, fmt.Errorf("scan quad: %w", err)
		}
		var terms [3]rdf.Node
		for i, c := range cols {
			n, err := rdf.ParseTerm(c)
			if err != nil {
				return nil, fmt.Errorf("decode term %q: %w", c, err)
			}
			terms[i] = n
		}
		out = append(out, rdf.Quad{Graph: g, Subject: terms[0], Predicate: terms[1], Object: terms[2]})
	}
	return out, rows.Err()
}

func selectBindings(ctx context.Context, q querier, query pattern.Query) ([]pattern.Binding, error) {
	compiled, err := patternsql.NewCompiler().Compile(query)
	if err != nil {
		return nil, err
	}

	rows, err := q.QueryContext(ctx, compiled.SQL, compiled.Params...)
	if err != nil {
		return nil, fmt.Errorf("select: %w", err)
	}
	defer rows.Close()

	var out []pattern.Binding
	values := make([]string, len(compiled.Columns))
	dest := make([]any, len(values))
	for i := range values {
		dest[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan binding: %w", err)
		}
		b := make(pattern.Binding, len(values))
		for i, v := range values {
			n, err := decodeColumn(v)
			if err != nil {
				return nil, fmt.Errorf("decode %s: %w", compiled.Columns[i], err)
			}
			b[compiled.Columns[i]] = n
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
