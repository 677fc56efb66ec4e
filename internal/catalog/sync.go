package catalog

import (
	"log/slog"

	"github.com/starford/folio/internal/logfields"
)

// SyncStats counts what a Sync changed.
type SyncStats struct {
	Upserted  int
	Unchanged int
	Deleted   int
}

// Sync brings the catalogue in line with entries:
//   - new or changed entries are upserted
//   - catalogued slugs missing from entries are deleted
func Sync(db *DB, entries []Entry, logger *slog.Logger) (SyncStats, error) {
	var stats SyncStats

	checksums, err := db.AllChecksums()
	if err != nil {
		return stats, err
	}

	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		seen[e.Slug] = struct{}{}
		if checksums[e.Slug] == e.Checksum {
			stats.Unchanged++
			continue
		}
		if err := db.UpsertPost(e); err != nil {
			logger.Warn("catalog: upsert failed", logfields.Slug(e.Slug), logfields.Error(err))
			continue
		}
		stats.Upserted++
	}

	for slug := range checksums {
		if _, ok := seen[slug]; ok {
			continue
		}
		if err := db.DeletePost(slug); err != nil {
			logger.Warn("catalog: delete failed", logfields.Slug(slug), logfields.Error(err))
			continue
		}
		stats.Deleted++
	}

	logger.Debug("catalog: synced",
		slog.Int("upserted", stats.Upserted),
		slog.Int("unchanged", stats.Unchanged),
		slog.Int("deleted", stats.Deleted))
	return stats, nil
}
