package assemble

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/roach88/assay/internal/confgraph"
	"github.com/roach88/assay/internal/dataset"
	"github.com/roach88/assay/internal/errs"
	"github.com/roach88/assay/internal/pattern"
	"github.com/roach88/assay/internal/rdf"
	"github.com/roach88/assay/internal/service"
)

// servicesListQuery finds the heads of fu:services lists.
var servicesListQuery = pattern.Query{
	Where: []pattern.TriplePattern{
		pattern.T(pattern.Var("server"), pattern.C(rdf.FuServices), pattern.Var("list")),
	},
	Select: []pattern.Var{"server", "list"},
}

// ProcessServerConfig handles the server resource of g, if there is one, by
// running its ja:loadClass initializers. More than one server resource is
// MULTIPLE_SERVERS.
func (a *Assembler) ProcessServerConfig(g *rdf.Graph) error {
	server, ok, err := confgraph.SingleByRole(g, rdf.FuServer)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	a.logger.Debug("processing server resource", "server", server.String())
	return a.initializers.Run(confgraph.GetAll(server, rdf.JALoadClass), a.logger)
}

// ServicesAndDatasets builds every service of g.
//
// Services named by a server's fu:services list are used when such a list
// exists; otherwise every fu:Service resource is. Datasets are deduplicated
// across the services of this call only.
func (a *Assembler) ServicesAndDatasets(g *rdf.Graph) ([]*service.DataAccessPoint, error) {
	services, err := serviceResources(g)
	if err != nil {
		return nil, err
	}
	return a.build(services, dataset.NewRegistry())
}

// ReadConfiguration builds every fu:Service resource of g. A graph without
// services is NO_SERVICES_FOUND.
func (a *Assembler) ReadConfiguration(g *rdf.Graph) ([]*service.DataAccessPoint, error) {
	services := confgraph.ListByRole(g, rdf.FuService)
	if len(services) == 0 {
		return nil, errs.Config(errs.CodeNoServicesFound, "", "no fu:Service resources")
	}
	return a.build(services, dataset.NewRegistry())
}

// ReadConfigurationFile parses path, processes its server resource and
// builds its services.
func (a *Assembler) ReadConfigurationFile(path string) ([]*service.DataAccessPoint, error) {
	a.logger.Info("load configuration", "file", path)
	g, err := a.formats.ParseFile(path)
	if err != nil {
		return nil, err
	}
	if err := a.ProcessServerConfig(g); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	aps, err := a.ServicesAndDatasets(g)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(aps) == 0 {
		return nil, errs.Config(errs.CodeNoServicesFound, path, "configuration declares no services")
	}
	return aps, nil
}

// ReadConfigurationDirectory builds the services of every configuration
// file in dir.
//
// Only non-hidden regular files with a recognized extension are read, in
// name order, each with its own dataset registry. A missing directory is
// logged and yields nothing. A file that cannot be read is logged and
// skipped. A file with a structural error contributes nothing and stops the
// scan with that error.
func (a *Assembler) ReadConfigurationDirectory(dir string) ([]*service.DataAccessPoint, error) {
	info, err := os.Stat(dir)
	if err != nil {
		a.logger.Warn("configuration directory not found", "dir", dir, "error", err)
		return nil, nil
	}
	if !info.IsDir() {
		a.logger.Warn("configuration path is not a directory", "dir", dir)
		return nil, nil
	}

	files, err := a.configFiles(dir)
	if err != nil {
		a.logger.Warn("cannot list configuration directory", "dir", dir, "error", err)
		return nil, nil
	}

	before := a.Snapshot()
	var out []*service.DataAccessPoint
	abort := func(err error) ([]*service.DataAccessPoint, error) {
		a.ReleaseSince(before, Datasets(out), nil)
		return nil, err
	}
	for _, path := range files {
		a.logger.Info("load configuration", "file", path)
		g, err := a.formats.ParseFile(path)
		if err != nil {
			if errs.IsConfigError(err) {
				return abort(err)
			}
			a.logger.Warn("skipping unreadable configuration file", "file", path, "error", err)
			continue
		}
		aps, err := a.ReadConfiguration(g)
		if err != nil {
			return abort(fmt.Errorf("%s: %w", path, err))
		}
		out = append(out, aps...)
	}
	return out, nil
}

// configFiles lists the candidate files of dir, sorted by name.
func (a *Assembler) configFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") || !e.Type().IsRegular() {
			continue
		}
		if !a.formats.Recognized(name) {
			a.logger.Debug("ignoring file with unrecognized format", "file", name)
			continue
		}
		files = append(files, filepath.Join(dir, name))
	}
	sort.Strings(files)
	return files, nil
}

// build builds an access point per service with one dataset registry. The
// result is all or nothing: on error, storage opened by this call is
// released again.
func (a *Assembler) build(services []rdf.Resource, reg *dataset.Registry) ([]*service.DataAccessPoint, error) {
	before := a.Snapshot()
	out := make([]*service.DataAccessPoint, 0, len(services))
	for _, svc := range services {
		ap, err := a.BuildDataAccessPoint(svc, reg)
		if err != nil {
			a.ReleaseSince(before, reg.All(), nil)
			return nil, err
		}
		out = append(out, ap)
	}
	return out, nil
}

// serviceResources returns the members of every fu:services list in g, or
// every fu:Service when there are no such lists.
func serviceResources(g *rdf.Graph) ([]rdf.Resource, error) {
	rows, err := pattern.Match(g, servicesListQuery)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return confgraph.ListByRole(g, rdf.FuService), nil
	}

	var out []rdf.Resource
	for _, row := range rows {
		members, err := confgraph.ListMembers(g, row["list"])
		if err != nil {
			return nil, err
		}
		for _, m := range members {
			if !m.IsResource() {
				return nil, errs.Config(errs.CodeMalformedList, row["server"].String(),
					"fu:services member %s is not a resource", m)
			}
			out = append(out, g.Resource(m))
		}
	}
	return out, nil
}
