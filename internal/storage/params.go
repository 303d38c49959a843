package storage

import (
	"fmt"
	"strings"
	"time"
)

// Params are creation-time settings of a storage area. They only take
// effect when a handle is first created for a location.
type Params struct {
	// JournalMode is the SQLite journal mode (WAL, DELETE, TRUNCATE,
	// PERSIST, MEMORY, OFF). Empty selects WAL for directories and MEMORY
	// for in-memory locations.
	JournalMode string

	// Synchronous is the SQLite synchronous level (OFF, NORMAL, FULL,
	// EXTRA). Empty selects NORMAL.
	Synchronous string

	// BusyTimeout bounds waits on a locked database. Zero selects 5s.
	BusyTimeout time.Duration

	// CacheSize is passed to PRAGMA cache_size when non-zero. Negative
	// values are KiB, positive values pages.
	CacheSize int
}

var (
	journalModes = []string{"WAL", "DELETE", "TRUNCATE", "PERSIST", "MEMORY", "OFF"}
	syncLevels   = []string{"OFF", "NORMAL", "FULL", "EXTRA"}
)

// Validate checks enumerated settings. Pragma values cannot be bound as
// parameters, so only known words are accepted.
func (p Params) Validate() error {
	if p.JournalMode != "" && !oneOf(p.JournalMode, journalModes) {
		return fmt.Errorf("journal mode %q not one of %s", p.JournalMode, strings.Join(journalModes, ", "))
	}
	if p.Synchronous != "" && !oneOf(p.Synchronous, syncLevels) {
		return fmt.Errorf("synchronous %q not one of %s", p.Synchronous, strings.Join(syncLevels, ", "))
	}
	if p.BusyTimeout < 0 {
		return fmt.Errorf("busy timeout must not be negative")
	}
	return nil
}

func oneOf(s string, allowed []string) bool {
	for _, a := range allowed {
		if strings.EqualFold(s, a) {
			return true
		}
	}
	return false
}

// withDefaults fills empty settings for loc.
func (p Params) withDefaults(loc Location) Params {
	if p.JournalMode == "" {
		if loc.IsDirectory() {
			p.JournalMode = "WAL"
		} else {
			p.JournalMode = "MEMORY"
		}
	}
	if p.Synchronous == "" {
		p.Synchronous = "NORMAL"
	}
	if p.BusyTimeout == 0 {
		p.BusyTimeout = 5 * time.Second
	}
	return p
}

// pragmas returns the statements applied to a new connection.
func (p Params) pragmas() []string {
	out := []string{
		"PRAGMA journal_mode = " + strings.ToUpper(p.JournalMode),
		"PRAGMA synchronous = " + strings.ToUpper(p.Synchronous),
		fmt.Sprintf("PRAGMA busy_timeout = %d", p.BusyTimeout.Milliseconds()),
		"PRAGMA foreign_keys = ON",
	}
	if p.CacheSize != 0 {
		out = append(out, fmt.Sprintf("PRAGMA cache_size = %d", p.CacheSize))
	}
	return out
}
