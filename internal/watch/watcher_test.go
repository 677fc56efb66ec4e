package watch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/catalog"
	"github.com/starford/folio/internal/content"
	"github.com/starford/folio/internal/testutil"
	"github.com/starford/folio/internal/transform"
)

func watchTestEnv(t *testing.T) (string, *content.Service, *catalog.DB) {
	t.Helper()
	dir, store := testutil.TestContent(t)
	stages, err := transform.DefaultStages(transform.HighlightOptions{})
	if err != nil {
		t.Fatal(err)
	}
	p, err := transform.New(stages)
	if err != nil {
		t.Fatal(err)
	}
	return dir, content.NewService(store, p, content.WithLogger(quietLogger())), testutil.TestCatalog(t)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) record(kind, slug string) {
	r.mu.Lock()
	r.events = append(r.events, kind+":"+slug)
	r.mu.Unlock()
}

func (r *recorder) has(event string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e == event {
			return true
		}
	}
	return false
}

func TestSync_SkipsBrokenDocuments(t *testing.T) {
	dir, svc, db := watchTestEnv(t)
	testutil.WritePost(t, dir, "good", testutil.DefaultMeta("Good", "2024-01-01"), "fine")
	testutil.WriteFile(t, dir, "broken.mdx", "no frontmatter")

	stats, err := Sync(context.Background(), svc, db, quietLogger())
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if stats.Upserted != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if _, err := db.GetPost("broken"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("broken post should not be catalogued: %v", err)
	}
}

func TestWatcher_CreateUpdateDelete(t *testing.T) {
	dir, svc, db := watchTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rec := &recorder{}
	go Watch(ctx, svc, db, dir, 50*time.Millisecond, quietLogger(), rec.record)
	time.Sleep(100 * time.Millisecond)

	testutil.WritePost(t, dir, "fresh", testutil.DefaultMeta("Fresh", "2024-02-01"), "hello")
	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		_, err := db.GetPost("fresh")
		return err == nil && rec.has("created:fresh")
	}, "new post should be catalogued and reported")

	testutil.WritePost(t, dir, "fresh", testutil.DefaultMeta("Fresh v2", "2024-02-01"), "hello again")
	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		e, err := db.GetPost("fresh")
		return err == nil && e.Title == "Fresh v2"
	}, "updated title should reach the catalogue")

	if err := os.Remove(filepath.Join(dir, "fresh.mdx")); err != nil {
		t.Fatal(err)
	}
	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		_, err := db.GetPost("fresh")
		return errors.Is(err, apperr.ErrNotFound) && rec.has("deleted:fresh")
	}, "deleted post should leave the catalogue")
}

func TestWatcher_IgnoresOtherExtensions(t *testing.T) {
	dir, svc, _ := watchTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rec := &recorder{}
	go Watch(ctx, svc, nil, dir, 20*time.Millisecond, quietLogger(), rec.record)
	time.Sleep(100 * time.Millisecond)

	testutil.WriteFile(t, dir, "notes.txt", "x")
	time.Sleep(300 * time.Millisecond)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.events) != 0 {
		t.Errorf("events = %v, want none", rec.events)
	}
}

func TestClassifyEvent(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "gone.mdx")

	tests := []struct {
		name string
		op   fsnotify.Op
		prev string
		want string
	}{
		{"create", fsnotify.Create, "", KindCreated},
		{"write", fsnotify.Write, "", KindUpdated},
		{"write after create", fsnotify.Write, KindCreated, KindCreated},
		{"remove", fsnotify.Remove, "", KindDeleted},
		{"remove after create", fsnotify.Remove, KindCreated, ""},
		{"create after remove", fsnotify.Create, KindDeleted, KindUpdated},
		{"chmod", fsnotify.Chmod, KindUpdated, KindUpdated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyEvent(fsnotify.Event{Name: missing, Op: tt.op}, tt.prev)
			if got != tt.want {
				t.Errorf("classifyEvent = %q, want %q", got, tt.want)
			}
		})
	}
}
