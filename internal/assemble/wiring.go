package assemble

import (
	"fmt"
	"strings"

	"github.com/roach88/assay/internal/confgraph"
	"github.com/roach88/assay/internal/dataset"
	"github.com/roach88/assay/internal/errs"
	"github.com/roach88/assay/internal/rdf"
	"github.com/roach88/assay/internal/service"
)

// endpointProperties lists, in declaration order, the property that names
// the endpoints of each operation kind.
var endpointProperties = []struct {
	kind     service.OperationKind
	property rdf.Node
}{
	{service.Query, rdf.FuServiceQuery},
	{service.Update, rdf.FuServiceUpdate},
	{service.Upload, rdf.FuServiceUpload},
	{service.GSPRead, rdf.FuServiceReadGraphStore},
	{service.GSPReadWrite, rdf.FuServiceReadWriteGraphStore},
	{service.QuadsRead, rdf.FuServiceReadQuads},
	{service.QuadsReadWrite, rdf.FuServiceReadWriteQuads},
}

// BuildDataAccessPoint builds the access point described by svc.
//
// fu:name must be a single simple string literal. The dataset is resolved
// through reg, so services sharing a dataset node in this pass share its
// storage.
func (a *Assembler) BuildDataAccessPoint(svc rdf.Resource, reg *dataset.Registry) (*service.DataAccessPoint, error) {
	nameNode, err := confgraph.GetOne(svc, rdf.FuName)
	if err != nil {
		return nil, err
	}
	if !nameNode.IsSimpleString() {
		return nil, errs.Config(errs.CodeBadServiceName, svc.String(),
			"service name %s is not a simple string", nameNode)
	}
	if strings.TrimSpace(nameNode.Value) == "" {
		return nil, errs.Config(errs.CodeBadServiceName, svc.String(), "service name is empty")
	}

	ds, err := a.BuildDataService(svc, reg)
	if err != nil {
		return nil, err
	}
	ap := service.NewDataAccessPoint(nameNode.Value, ds, svc)
	a.logger.Debug("built access point",
		"name", ap.Name(),
		"operations", ds.Operations(),
	)
	return ap, nil
}

// BuildDataService resolves the dataset of svc, wires its endpoints and
// attaches access control.
//
// A synthetic whole-dataset endpoint at "" is added when the service
// declares graph-store or quads endpoints: read-write if any of those is
// read-write, otherwise read-only.
func (a *Assembler) BuildDataService(svc rdf.Resource, reg *dataset.Registry) (*service.DataService, error) {
	users, _, err := AllowedUsers(svc)
	if err != nil {
		return nil, err
	}

	dsNode, err := confgraph.GetOne(svc, rdf.FuDataset)
	switch {
	case errs.IsConfigCode(err, errs.CodeMissingProperty):
		return nil, errs.Config(errs.CodeMissingDataset, svc.String(), "service has no fu:dataset")
	case err != nil:
		return nil, err
	case !dsNode.IsResource():
		return nil, errs.Config(errs.CodeMissingDataset, svc.String(),
			"fu:dataset must be a resource, got %s", dsNode)
	}

	ds, err := dataset.Resolve(svc.Graph.Resource(dsNode), reg, a.builders, a.manager)
	if err != nil {
		return nil, fmt.Errorf("service %s: %w", svc, err)
	}

	out := service.NewDataService(ds)
	for _, ep := range endpointProperties {
		for _, v := range confgraph.GetAll(svc, ep.property) {
			if !v.IsLiteral() {
				a.logger.Warn("ignoring endpoint that is not a literal",
					"service", svc.String(),
					"property", rdf.Compact(ep.property.Value),
					"value", v.String(),
				)
				continue
			}
			out.AddEndpoint(ep.kind, v.Value)
		}
	}

	switch {
	case out.HasOperation(service.GSPReadWrite) || out.HasOperation(service.QuadsReadWrite):
		out.AddEndpoint(service.DatasetReadWrite, "")
	case out.HasOperation(service.GSPRead) || out.HasOperation(service.QuadsRead):
		out.AddEndpoint(service.DatasetRead, "")
	}

	out.SetAccess(users, a.policy)
	return out, nil
}

// AllowedUsers reads the fu:allowedUsers values of r. ok is false when the
// property is absent, which means access is unrestricted. Any value that is
// not a simple string fails with BAD_USER_NAME naming every such value.
func AllowedUsers(r rdf.Resource) (users []string, ok bool, err error) {
	values := confgraph.GetAll(r, rdf.FuAllowedUsers)
	if len(values) == 0 {
		return nil, false, nil
	}

	var bad []string
	users = make([]string, 0, len(values))
	for _, v := range values {
		if !v.IsSimpleString() {
			bad = append(bad, v.String())
			continue
		}
		users = append(users, v.Value)
	}
	if len(bad) > 0 {
		return nil, false, errs.Config(errs.CodeBadUserName, r.String(),
			"user names must be simple strings: bad = [%s]", strings.Join(bad, ", "))
	}
	return users, true, nil
}
