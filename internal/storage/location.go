package storage

import (
	"net/url"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/roach88/assay/internal/errs"
)

// MemPrefix marks an in-memory location string.
const MemPrefix = "--mem--"

// DataFile is the storage file created inside a directory location.
const DataFile = "store.db"

type locationKind uint8

const (
	kindDirectory locationKind = iota + 1
	kindSharedMem
	kindUniqueMem
)

// Location identifies where a dataset's storage lives.
//
// Directory locations are keyed by their absolute cleaned path and shared
// in-memory locations by name. Every unique in-memory location carries a
// fresh identity, so two of them never compare equal.
type Location struct {
	kind  locationKind
	path  string // directory path
	name  string // shared name or unique identity
	scope string // owning Manager for shared memory, set only while opening
}

// Dir returns a directory location. The path is made absolute.
func Dir(path string) (Location, error) {
	if strings.TrimSpace(path) == "" {
		return Location{}, errs.Config(errs.CodeBadLocation, path, "empty directory path")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return Location{}, errs.Config(errs.CodeBadLocation, path, "resolve path: %v", err)
	}
	return Location{kind: kindDirectory, path: filepath.Clean(abs)}, nil
}

// SharedMem returns the in-memory location called name. All opens of the
// same name see the same storage until it is released.
func SharedMem(name string) (Location, error) {
	if name == "" {
		return Location{}, errs.Config(errs.CodeBadLocation, MemPrefix+"/", "empty shared memory name")
	}
	return Location{kind: kindSharedMem, name: name}, nil
}

// UniqueMem returns a new private in-memory location.
func UniqueMem() Location {
	return Location{kind: kindUniqueMem, name: uuid.NewString()}
}

// ParseLocation interprets a location string:
//
//	--mem--          unique in-memory
//	--mem--/<name>   shared in-memory
//	anything else    directory path
func ParseLocation(s string) (Location, error) {
	switch {
	case s == MemPrefix:
		return UniqueMem(), nil
	case strings.HasPrefix(s, MemPrefix+"/"):
		return SharedMem(strings.TrimPrefix(s, MemPrefix+"/"))
	default:
		return Dir(s)
	}
}

// IsZero reports whether l is the zero Location.
func (l Location) IsZero() bool {
	return l.kind == 0
}

// IsUniqueMem reports whether l is a private in-memory location.
func (l Location) IsUniqueMem() bool {
	return l.kind == kindUniqueMem
}

// IsSharedMem reports whether l is a named in-memory location.
func (l Location) IsSharedMem() bool {
	return l.kind == kindSharedMem
}

// IsDirectory reports whether l is on disk.
func (l Location) IsDirectory() bool {
	return l.kind == kindDirectory
}

// Path returns the directory of a directory location.
func (l Location) Path() string {
	return l.path
}

// Key is the handle-table key of l.
func (l Location) Key() string {
	switch l.kind {
	case kindDirectory:
		return "dir:" + l.path
	case kindSharedMem:
		return "mem:" + l.name
	case kindUniqueMem:
		return "unique:" + l.name
	default:
		return ""
	}
}

// String returns the location in the form ParseLocation accepts.
func (l Location) String() string {
	switch l.kind {
	case kindDirectory:
		return l.path
	case kindSharedMem:
		return MemPrefix + "/" + l.name
	case kindUniqueMem:
		return MemPrefix
	default:
		return ""
	}
}

// scoped returns l bound to the Manager identified by id. Shared memory
// databases are named per Manager, so two Managers opening the same name
// never see each other's data.
func (l Location) scoped(id string) Location {
	if l.kind == kindSharedMem {
		l.scope = id
	}
	return l
}

// unscoped drops the Manager binding so handles report the location as it
// was parsed.
func (l Location) unscoped() Location {
	l.scope = ""
	return l
}

// dsn returns the sqlite3 data source name for l. Unique locations get a
// new database name on every call so repeated opens stay isolated.
func (l Location) dsn() string {
	switch l.kind {
	case kindDirectory:
		return filepath.Join(l.path, DataFile)
	case kindSharedMem:
		prefix := "file:assay-shared-"
		if l.scope != "" {
			prefix = "file:assay-" + l.scope + "-shared-"
		}
		return prefix + url.PathEscape(l.name) + "?mode=memory&cache=shared"
	default:
		return "file:assay-" + l.name + "-" + uuid.NewString() + "?mode=memory&cache=shared"
	}
}
