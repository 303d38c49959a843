// Package dataset resolves dataset descriptors to open storage.
//
// Resolution is deduplicated per assembly pass by descriptor identity: two
// services pointing at the same node of the same graph share one Dataset,
// and its storage is opened once. Descriptors with equal content in
// different graphs are distinct.
package dataset

import (
	"fmt"

	"github.com/roach88/assay/internal/confgraph"
	"github.com/roach88/assay/internal/errs"
	"github.com/roach88/assay/internal/rdf"
	"github.com/roach88/assay/internal/storage"
)

// Dataset is a resolved dataset descriptor.
type Dataset struct {
	// Descriptor is the resource the dataset was built from.
	Descriptor rdf.Resource

	// Type is the rdf:type that selected the builder.
	Type rdf.Node

	// Location is where the storage lives.
	Location storage.Location

	// Handle is the open storage.
	Handle *storage.Handle
}

// Registry records the datasets resolved during one assembly pass.
// It is not safe for concurrent use; passes are sequential.
type Registry struct {
	byResource map[rdf.Resource]*Dataset
	order      []*Dataset
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{byResource: make(map[rdf.Resource]*Dataset)}
}

// Get returns the dataset previously resolved for exactly r.
func (r *Registry) Get(descriptor rdf.Resource) (*Dataset, bool) {
	ds, ok := r.byResource[descriptor]
	return ds, ok
}

// Register records ds for descriptor. Registering the same descriptor again
// keeps the first dataset.
func (r *Registry) Register(descriptor rdf.Resource, ds *Dataset) {
	if _, ok := r.byResource[descriptor]; ok {
		return
	}
	r.byResource[descriptor] = ds
	r.order = append(r.order, ds)
}

// Len returns the number of resolved datasets.
func (r *Registry) Len() int {
	return len(r.order)
}

// All returns the resolved datasets in resolution order.
func (r *Registry) All() []*Dataset {
	return append([]*Dataset(nil), r.order...)
}

// Resolve returns the dataset for descriptor, building it on first use in
// this pass.
//
// The descriptor must carry rdf:type; the first type with a registered
// builder is used.
func Resolve(descriptor rdf.Resource, reg *Registry, builders *Builders, m *storage.Manager) (*Dataset, error) {
	if ds, ok := reg.Get(descriptor); ok {
		return ds, nil
	}

	types := confgraph.GetAll(descriptor, rdf.Type)
	if len(types) == 0 {
		return nil, errs.Config(errs.CodeMissingProperty, descriptor.String(),
			"dataset has no rdf:type")
	}

	for _, typ := range types {
		build, ok := builders.Lookup(typ)
		if !ok {
			continue
		}
		ds, err := build.Build(descriptor, m)
		if err != nil {
			return nil, fmt.Errorf("build %s dataset %s: %w", rdf.Compact(typ.Value), descriptor, err)
		}
		ds.Descriptor = descriptor
		ds.Type = typ
		reg.Register(descriptor, ds)
		return ds, nil
	}

	return nil, errs.Config(errs.CodeUnknownDatasetType, descriptor.String(),
		"no builder for types %v", types)
}
