// Package server runs the assembly passes at startup and keeps the
// registry of access points while serving.
//
// Startup is sequential on the calling goroutine: the configuration file,
// then the configuration directory, then the system database. Once started,
// AddDataset and RemoveDataset may run concurrently with readers of the
// registry; administrative changes are serialized among themselves.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/roach88/assay/internal/access"
	"github.com/roach88/assay/internal/assemble"
	"github.com/roach88/assay/internal/dataset"
	"github.com/roach88/assay/internal/errs"
	"github.com/roach88/assay/internal/formats"
	"github.com/roach88/assay/internal/initializer"
	"github.com/roach88/assay/internal/rdf"
	"github.com/roach88/assay/internal/service"
	"github.com/roach88/assay/internal/storage"
	"github.com/roach88/assay/internal/sysdb"
)

// ErrUnknownDataset is returned when removing a name that is not registered.
var ErrUnknownDataset = errors.New("no access point with that name")

// Config configures a Server.
type Config struct {
	// ConfigFile is a configuration file read at startup (optional).
	ConfigFile string

	// ConfigDir is a directory of configuration files read at startup
	// (optional).
	ConfigDir string

	// SystemDB is the storage location of the system database (optional).
	// Without one, datasets added at runtime are not persisted.
	SystemDB string

	// Policy is a server-wide access policy combined with every service's
	// allow-list (optional).
	Policy access.Policy

	// Builders, Initializers and Formats override the assembler defaults.
	Builders     *dataset.Builders
	Initializers *initializer.Registry
	Formats      *formats.Registry

	// Logger defaults to slog.Default.
	Logger *slog.Logger
}

// Validate checks the configuration before anything is opened.
func (c Config) Validate() error {
	var problems []error
	if c.ConfigFile != "" {
		info, err := os.Stat(c.ConfigFile)
		switch {
		case err != nil:
			problems = append(problems, fmt.Errorf("config file: %w", err))
		case info.IsDir():
			problems = append(problems, fmt.Errorf("config file %s is a directory", c.ConfigFile))
		}
	}
	if c.SystemDB != "" {
		if _, err := storage.ParseLocation(c.SystemDB); err != nil {
			problems = append(problems, fmt.Errorf("system database: %w", err))
		}
	}
	return errors.Join(problems...)
}

// Server holds the running set of access points.
type Server struct {
	cfg       Config
	logger    *slog.Logger
	manager   *storage.Manager
	assembler *assemble.Assembler
	registry  *service.Registry
	sysdb     *sysdb.Database
	sysdbLoc  storage.Location

	// admin serializes AddDataset and RemoveDataset.
	admin sync.Mutex
}

// New validates cfg and prepares a Server. The system database, if
// configured, is opened here; everything else happens in Start.
func New(cfg Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	m := storage.NewManager(storage.WithLogger(logger))
	opts := []assemble.Option{assemble.WithLogger(logger)}
	if cfg.Builders != nil {
		opts = append(opts, assemble.WithBuilders(cfg.Builders))
	}
	if cfg.Initializers != nil {
		opts = append(opts, assemble.WithInitializers(cfg.Initializers))
	}
	if cfg.Formats != nil {
		opts = append(opts, assemble.WithFormats(cfg.Formats))
	}
	if cfg.Policy != nil {
		opts = append(opts, assemble.WithPolicy(cfg.Policy))
	}

	s := &Server{
		cfg:       cfg,
		logger:    logger,
		manager:   m,
		assembler: assemble.New(m, opts...),
		registry:  service.NewRegistry(),
	}

	if cfg.SystemDB != "" {
		loc, err := storage.ParseLocation(cfg.SystemDB)
		if err != nil {
			return nil, err
		}
		h, err := m.Open(loc, nil)
		if err != nil {
			return nil, fmt.Errorf("open system database: %w", err)
		}
		s.sysdbLoc = loc
		s.sysdb = sysdb.New(h, s.assembler, sysdb.WithLogger(logger))
	}
	return s, nil
}

// Registry returns the access point registry.
func (s *Server) Registry() *service.Registry {
	return s.registry
}

// Manager returns the storage manager.
func (s *Server) Manager() *storage.Manager {
	return s.manager
}

// SystemDatabase returns the system database, or nil if none is configured.
func (s *Server) SystemDatabase() *sysdb.Database {
	return s.sysdb
}

// Start runs the startup passes. Any registration conflict aborts startup.
func (s *Server) Start(ctx context.Context) error {
	if s.cfg.ConfigFile != "" {
		aps, err := s.assembler.ReadConfigurationFile(s.cfg.ConfigFile)
		if err != nil {
			return fmt.Errorf("configuration file: %w", err)
		}
		if err := s.registerAll(aps, service.StatusActive); err != nil {
			return err
		}
	}

	if s.cfg.ConfigDir != "" {
		aps, err := s.assembler.ReadConfigurationDirectory(s.cfg.ConfigDir)
		if err != nil {
			return fmt.Errorf("configuration directory: %w", err)
		}
		if err := s.registerAll(aps, service.StatusActive); err != nil {
			return err
		}
	}

	if s.sysdb != nil {
		entries, err := s.sysdb.Load(ctx)
		if err != nil {
			return fmt.Errorf("system database: %w", err)
		}
		for _, e := range entries {
			if e.Status != service.StatusActive {
				s.logger.Warn("system database entry is not active",
					"name", e.Name,
					"status", string(e.Status),
				)
			}
			if err := s.register(e.AccessPoint, e.Status); err != nil {
				return err
			}
		}
	}

	s.logger.Info("server started", "access_points", s.registry.Len())
	return nil
}

func (s *Server) registerAll(aps []*service.DataAccessPoint, status service.Status) error {
	for _, ap := range aps {
		if err := s.register(ap, status); err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) register(ap *service.DataAccessPoint, status service.Status) error {
	ap.Service().SetStatus(service.StatusStarting)
	if err := s.registry.Register(ap); err != nil {
		return err
	}
	ap.Service().SetStatus(status)
	s.logger.Info("registered access point",
		"name", ap.Name(),
		"status", string(status),
		"operations", ap.Service().Operations(),
	)
	return nil
}

// AddDataset registers the single service described by g and persists it
// as active. If persisting fails the registration is rolled back.
func (s *Server) AddDataset(ctx context.Context, g *rdf.Graph) (*service.DataAccessPoint, error) {
	aps, err := s.add(ctx, g, true)
	if err != nil {
		return nil, err
	}
	return aps[0], nil
}

// AddDatasets is AddDataset for a graph describing any number of services.
// Either every service is added or none is.
func (s *Server) AddDatasets(ctx context.Context, g *rdf.Graph) ([]*service.DataAccessPoint, error) {
	return s.add(ctx, g, false)
}

func (s *Server) add(ctx context.Context, g *rdf.Graph, single bool) ([]*service.DataAccessPoint, error) {
	s.admin.Lock()
	defer s.admin.Unlock()

	before := s.assembler.Snapshot()
	aps, err := s.assembler.ReadConfiguration(g)
	if err != nil {
		return nil, err
	}

	var done []*service.DataAccessPoint
	rollback := func() {
		for _, ap := range done {
			s.registry.Remove(ap.Name())
			if s.sysdb != nil {
				_ = s.sysdb.Remove(ctx, ap.Name())
			}
		}
		for _, ap := range aps {
			ap.Service().SetStatus(service.StatusClosed)
		}
		s.assembler.ReleaseSince(before, assemble.Datasets(aps), s.locationInUse)
	}

	if single && len(aps) != 1 {
		rollback()
		return nil, errs.Config(errs.CodeAmbiguousProperty, "",
			"%d services described, expected exactly one", len(aps))
	}

	for _, ap := range aps {
		if err := s.register(ap, service.StatusActive); err != nil {
			rollback()
			return nil, err
		}
		done = append(done, ap)
		if s.sysdb == nil {
			s.logger.Warn("no system database, added dataset will not survive a restart", "name", ap.Name())
			continue
		}
		if err := s.sysdb.Persist(ctx, ap, service.StatusActive); err != nil {
			rollback()
			return nil, fmt.Errorf("persist %s: %w", ap.Name(), err)
		}
	}
	return aps, nil
}

// RemoveDataset unregisters name, deletes it from the system database and
// releases its storage unless another access point still uses it.
func (s *Server) RemoveDataset(ctx context.Context, name string) error {
	s.admin.Lock()
	defer s.admin.Unlock()

	ap, ok := s.registry.Remove(name)
	if !ok {
		return fmt.Errorf("%s: %w", service.Canonical(name), ErrUnknownDataset)
	}
	ap.Service().SetStatus(service.StatusClosing)

	if s.sysdb != nil {
		if err := s.sysdb.Remove(ctx, ap.Name()); err != nil && !errors.Is(err, sysdb.ErrNotFound) {
			return fmt.Errorf("remove %s from system database: %w", ap.Name(), err)
		}
	}

	ds := ap.Service().Dataset
	if ds != nil && !s.locationInUse(ds.Location) {
		if err := s.manager.Release(ds.Location); err != nil {
			return fmt.Errorf("release %s: %w", ds.Location, err)
		}
		s.logger.Info("released storage", "location", ds.Location.String())
	}
	ap.Service().SetStatus(service.StatusClosed)
	s.logger.Info("removed access point", "name", ap.Name())
	return nil
}

// locationInUse reports whether loc backs the system database or any
// registered access point.
func (s *Server) locationInUse(loc storage.Location) bool {
	if !s.sysdbLoc.IsZero() && s.sysdbLoc.Key() == loc.Key() {
		return true
	}
	for _, ap := range s.registry.List() {
		ds := ap.Service().Dataset
		if ds != nil && ds.Location.Key() == loc.Key() {
			return true
		}
	}
	return false
}

// Close marks every access point closed and releases all storage.
func (s *Server) Close() error {
	for _, ap := range s.registry.List() {
		ap.Service().SetStatus(service.StatusClosed)
	}
	return s.manager.Close()
}
