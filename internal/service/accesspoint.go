package service

import (
	"context"
	"fmt"

	"github.com/roach88/assay/internal/access"
	"github.com/roach88/assay/internal/pattern"
	"github.com/roach88/assay/internal/rdf"
	"github.com/roach88/assay/internal/storage"
)

// DataAccessPoint is a data service registered under a name.
//
// Every data operation first asks the service's gate; a denial returns
// before storage is touched.
type DataAccessPoint struct {
	name       string
	service    *DataService
	descriptor rdf.Resource
}

// NewDataAccessPoint creates an access point. name is canonicalized.
func NewDataAccessPoint(name string, svc *DataService, descriptor rdf.Resource) *DataAccessPoint {
	return &DataAccessPoint{
		name:       Canonical(name),
		service:    svc,
		descriptor: descriptor,
	}
}

// Name returns the canonical name.
func (a *DataAccessPoint) Name() string {
	return a.name
}

// Service returns the data service.
func (a *DataAccessPoint) Service() *DataService {
	return a.service
}

// Descriptor returns the service resource the access point was built from.
func (a *DataAccessPoint) Descriptor() rdf.Resource {
	return a.descriptor
}

func (a *DataAccessPoint) String() string {
	return a.name
}

func (a *DataAccessPoint) handle(op access.Operation, principal string) (*storage.Handle, error) {
	if err := a.service.Gate().Check(op, a.name, principal); err != nil {
		return nil, err
	}
	ds := a.service.Dataset
	if ds == nil || ds.Handle == nil {
		return nil, fmt.Errorf("%s: no dataset attached", a.name)
	}
	return ds.Handle, nil
}

// Query evaluates q for principal.
func (a *DataAccessPoint) Query(ctx context.Context, principal string, q pattern.Query) ([]pattern.Binding, error) {
	h, err := a.handle(access.OpQuery, principal)
	if err != nil {
		return nil, err
	}
	return h.Select(ctx, q)
}

// InsertData adds quads for principal.
func (a *DataAccessPoint) InsertData(ctx context.Context, principal string, quads ...rdf.Quad) error {
	h, err := a.handle(access.OpInsertData, principal)
	if err != nil {
		return err
	}
	return h.Add(ctx, quads...)
}

// DeleteData removes quads for principal.
func (a *DataAccessPoint) DeleteData(ctx context.Context, principal string, quads ...rdf.Quad) error {
	h, err := a.handle(access.OpDeleteData, principal)
	if err != nil {
		return err
	}
	return h.Delete(ctx, quads...)
}

// Update applies u atomically for principal.
func (a *DataAccessPoint) Update(ctx context.Context, principal string, u storage.Update) error {
	h, err := a.handle(access.OpUpdate, principal)
	if err != nil {
		return err
	}
	return h.Apply(ctx, u)
}

// CreateGraph creates named graph g for principal.
func (a *DataAccessPoint) CreateGraph(ctx context.Context, principal string, g rdf.Node) error {
	h, err := a.handle(access.OpCreate, principal)
	if err != nil {
		return err
	}
	return h.CreateGraph(ctx, g)
}

// ClearGraph empties graph g for principal.
func (a *DataAccessPoint) ClearGraph(ctx context.Context, principal string, g rdf.Node) error {
	h, err := a.handle(access.OpClear, principal)
	if err != nil {
		return err
	}
	return h.ClearGraph(ctx, g)
}

// DropGraph removes graph g for principal.
func (a *DataAccessPoint) DropGraph(ctx context.Context, principal string, g rdf.Node) error {
	h, err := a.handle(access.OpDrop, principal)
	if err != nil {
		return err
	}
	return h.DropGraph(ctx, g)
}
