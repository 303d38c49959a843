package storage

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/roach88/assay/internal/errs"
)

// Manager owns the table of live handles, at most one per location.
// Every operation holds one mutex for its whole duration, so concurrent
// opens of a location observe a single creation.
type Manager struct {
	id      string
	mu      sync.Mutex
	handles map[string]*Handle
	unique  map[*Handle]struct{}
	pending map[string]Params
	opener  Opener
	logger  *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithOpener replaces the function that creates handles.
func WithOpener(open Opener) Option {
	return func(m *Manager) {
		m.opener = open
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates an empty Manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		id:      uuid.NewString(),
		handles: make(map[string]*Handle),
		unique:  make(map[*Handle]struct{}),
		pending: make(map[string]Params),
		opener:  OpenHandle,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Open returns the handle for loc, creating it on first use.
//
// Unique in-memory locations always get a fresh handle that is never
// reused. For other locations an existing handle is returned when params
// is nil; supplying params for a location that already has a handle fails
// with ALREADY_ACTIVE, since params only apply at creation.
func (m *Manager) Open(loc Location, params *Params) (*Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if loc.IsUniqueMem() {
		p := Params{}
		if params != nil {
			p = *params
		}
		h, err := m.opener(loc, p)
		if err != nil {
			return nil, err
		}
		// Tracked only so Release and Close can free it.
		m.unique[h] = struct{}{}
		m.logger.Debug("opened unique memory storage")
		return h, nil
	}

	key := loc.Key()
	if h, ok := m.handles[key]; ok {
		if params != nil {
			return nil, errs.Config(errs.CodeAlreadyActive, loc.String(),
				"location is already active, parameters cannot be applied")
		}
		return h, nil
	}

	p, hasPending := m.pending[key]
	if params != nil {
		p = *params
	}
	h, err := m.opener(loc.scoped(m.id), p)
	if err != nil {
		return nil, err
	}
	delete(m.pending, key)
	m.handles[key] = h

	m.logger.Debug("opened storage",
		"location", loc.String(),
		"pending_params", hasPending && params == nil,
	)
	return h, nil
}

// IsInUse reports whether loc already holds data or a live handle.
//
// For a directory without a handle this is true only when the storage file
// already exists, so a fresh or missing directory is not in use.
func (m *Manager) IsInUse(loc Location) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if loc.IsUniqueMem() {
		return false
	}
	if _, ok := m.handles[loc.Key()]; ok {
		return true
	}
	if !loc.IsDirectory() {
		return false
	}
	info, err := os.Stat(filepath.Join(loc.Path(), DataFile))
	return err == nil && info.Mode().IsRegular()
}

// Release closes the handle for loc and forgets it. The next Open creates
// a new handle. Releasing a location with no handle does nothing.
func (m *Manager) Release(loc Location) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.releaseLocked(loc.Key(), loc.String())
}

func (m *Manager) releaseLocked(key, name string) error {
	var all []error
	for h := range m.unique {
		if h.Location().Key() == key {
			delete(m.unique, h)
			if err := h.close(); err != nil {
				all = append(all, errs.Storage(errs.CodeIO, name, fmt.Errorf("close: %w", err)))
			}
		}
	}
	if len(all) > 0 {
		return errors.Join(all...)
	}

	h, ok := m.handles[key]
	if !ok {
		return nil
	}
	delete(m.handles, key)
	if err := h.close(); err != nil {
		return errs.Storage(errs.CodeIO, name, fmt.Errorf("close: %w", err))
	}
	m.logger.Debug("released storage", "location", name)
	return nil
}

// SetParams records params for the next creation of loc's handle. It fails
// with ALREADY_ACTIVE when a handle already exists.
func (m *Manager) SetParams(loc Location, params Params) error {
	if err := params.Validate(); err != nil {
		return errs.Config(errs.CodeBadLocation, loc.String(), "invalid parameters: %v", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if loc.IsUniqueMem() {
		return errs.Config(errs.CodeBadLocation, loc.String(),
			"unique memory locations cannot carry pending parameters")
	}
	key := loc.Key()
	if _, ok := m.handles[key]; ok {
		return errs.Config(errs.CodeAlreadyActive, loc.String(),
			"location is already active, parameters cannot be applied")
	}
	m.pending[key] = params
	return nil
}

// Active lists the locations with live handles, sorted by key.
func (m *Manager) Active() []Location {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := make([]string, 0, len(m.handles))
	for k := range m.handles {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]Location, 0, len(keys))
	for _, k := range keys {
		out = append(out, m.handles[k].Location())
	}
	return out
}

// Close releases every handle.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var all []error
	for key, h := range m.handles {
		if err := m.releaseLocked(key, h.Location().String()); err != nil {
			all = append(all, err)
		}
	}
	for h := range m.unique {
		if err := h.close(); err != nil {
			all = append(all, errs.Storage(errs.CodeIO, h.Location().String(), fmt.Errorf("close: %w", err)))
		}
	}
	m.unique = make(map[*Handle]struct{})
	m.pending = make(map[string]Params)
	return errors.Join(all...)
}
