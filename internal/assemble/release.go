package assemble

import (
	"github.com/roach88/assay/internal/dataset"
	"github.com/roach88/assay/internal/service"
	"github.com/roach88/assay/internal/storage"
)

// Snapshot is the set of locations that had live handles at some point,
// keyed by Location.Key.
type Snapshot map[string]bool

// Snapshot records the locations that currently have live handles.
func (a *Assembler) Snapshot() Snapshot {
	snap := make(Snapshot)
	for _, loc := range a.manager.Active() {
		snap[loc.Key()] = true
	}
	return snap
}

// ReleaseSince releases the storage of every dataset in datasets whose
// location had no live handle when before was taken. Locations for which
// keep reports true are left open. Release errors are logged.
func (a *Assembler) ReleaseSince(before Snapshot, datasets []*dataset.Dataset, keep func(storage.Location) bool) {
	seen := make(map[string]bool)
	for _, ds := range datasets {
		if ds == nil || ds.Location.IsZero() {
			continue
		}
		key := ds.Location.Key()
		if seen[key] || before[key] {
			continue
		}
		seen[key] = true
		if keep != nil && keep(ds.Location) {
			continue
		}
		if err := a.manager.Release(ds.Location); err != nil {
			a.logger.Warn("release storage after failed assembly",
				"location", ds.Location.String(),
				"error", err,
			)
			continue
		}
		a.logger.Debug("released storage after failed assembly", "location", ds.Location.String())
	}
}

// Datasets returns the datasets behind aps, in order.
func Datasets(aps []*service.DataAccessPoint) []*dataset.Dataset {
	out := make([]*dataset.Dataset, 0, len(aps))
	for _, ap := range aps {
		out = append(out, ap.Service().Dataset)
	}
	return out
}
