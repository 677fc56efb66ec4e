package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/folio/internal/catalog"
	"github.com/starford/folio/internal/content"
	"github.com/starford/folio/internal/logfields"
)

// Change kinds passed to EventCallback.
const (
	KindCreated = "created"
	KindUpdated = "updated"
	KindDeleted = "deleted"
)

// DefaultDebounce is how long the watcher waits for a burst of events to
// settle before resyncing.
const DefaultDebounce = 200 * time.Millisecond

// EventCallback is called once per changed slug after the resync that
// follows it.
type EventCallback func(kind, slug string)

// Watch watches the content root until ctx is cancelled. File events are
// batched; after each quiet period the catalogue (if db is non-nil) is
// resynced and cb is called for every slug that changed.
func Watch(ctx context.Context, svc *content.Service, db *catalog.DB, root string, debounce time.Duration, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(root); err != nil {
		return err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	logger.Info("watcher: started", logfields.Path(root))

	pending := make(map[string]string)
	var timer *time.Timer
	var timerCh <-chan time.Time

	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(debounce)
			timerCh = timer.C
		} else {
			timer.Reset(debounce)
		}
	}

	flush := func() {
		if db != nil {
			if _, err := Sync(ctx, svc, db, logger); err != nil {
				logger.Warn("watcher: resync failed", logfields.Error(err))
			}
		}
		for slug, kind := range pending {
			logger.Debug("watcher: changed", logfields.Slug(slug), slog.String("op", kind))
			if cb != nil {
				cb(kind, slug)
			}
		}
		clear(pending)
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-timerCh:
			flush()

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			name := filepath.Base(ev.Name)
			if filepath.Ext(name) != svc.Extension() {
				continue
			}
			slug := strings.TrimSuffix(name, svc.Extension())
			kind := classifyEvent(ev, pending[slug])
			if kind == "" {
				delete(pending, slug)
				continue
			}
			pending[slug] = kind
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", logfields.Error(watchErr))
		}
	}
}

// classifyEvent maps an fsnotify event onto a change kind, merging it with
// an earlier unflushed kind for the same slug.
func classifyEvent(ev fsnotify.Event, prev string) string {
	switch {
	case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		// A rename fires on the old name; the new name arrives as Create.
		// Editors that save by rename-over produce Remove then Create.
		if _, err := os.Stat(ev.Name); err == nil {
			return merge(prev, KindUpdated)
		}
		if prev == KindCreated {
			return ""
		}
		return KindDeleted
	case ev.Op&fsnotify.Create != 0:
		if prev == KindDeleted {
			return KindUpdated
		}
		return merge(prev, KindCreated)
	case ev.Op&fsnotify.Write != 0:
		return merge(prev, KindUpdated)
	}
	return prev
}

func merge(prev, next string) string {
	if prev == KindCreated {
		return KindCreated
	}
	return next
}
