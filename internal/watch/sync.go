// Package watch keeps the search catalogue in step with the content
// directory and reports post changes.
package watch

import (
	"context"
	"log/slog"

	"github.com/starford/folio/internal/catalog"
	"github.com/starford/folio/internal/content"
	"github.com/starford/folio/internal/logfields"
)

// Sync collects every document and mirrors the ones that build into db.
// Documents that fail are logged and dropped from the catalogue.
func Sync(ctx context.Context, svc *content.Service, db *catalog.DB, logger *slog.Logger) (catalog.SyncStats, error) {
	results, err := svc.Collect(ctx)
	if err != nil {
		return catalog.SyncStats{}, err
	}

	entries := make([]catalog.Entry, 0, len(results))
	for _, r := range results {
		if r.Err != nil {
			logger.Warn("sync: document skipped", logfields.Slug(r.Slug), logfields.Error(r.Err))
			continue
		}
		entries = append(entries, catalog.EntryFor(*r.Post, r.Body))
	}
	return catalog.Sync(db, entries, logger)
}
