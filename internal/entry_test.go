package internal

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/starford/folio/internal/sse"
	"github.com/starford/folio/internal/testutil"
	"github.com/starford/folio/internal/watch"
)

func TestReadyHandler(t *testing.T) {
	dir := t.TempDir()
	db := testutil.TestCatalog(t)

	w := httptest.NewRecorder()
	readyHandler(dir, db)(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if w.Code != http.StatusOK || w.Body.String() != `{"status":"ok"}` {
		t.Errorf("ready = %d %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	readyHandler(filepath.Join(dir, "gone"), nil)(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("missing dir: status = %d", w.Code)
	}
}

func TestNewContentService(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Content.Dir = t.TempDir()
	testutil.WritePost(t, cfg.Content.Dir, "hello", testutil.DefaultMeta("Hello", "2024-01-01"), "hi\n")

	svc, err := NewContentService(cfg, NewLogger(os.Stderr, cfg.App.LogLevel))
	if err != nil {
		t.Fatal(err)
	}
	slugs, err := svc.ListSlugs(context.Background(), cfg.Build.Mode)
	if err != nil || len(slugs) != 1 || slugs[0] != "hello" {
		t.Errorf("ListSlugs = %v, %v", slugs, err)
	}

	cfg.Content.Dir = filepath.Join(cfg.Content.Dir, "missing")
	if _, err := NewContentService(cfg, NewLogger(os.Stderr, cfg.App.LogLevel)); err == nil {
		t.Error("missing content dir should fail")
	}
}

func TestOpenCatalog_Disabled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Catalog.Enabled = false
	db, err := OpenCatalog(cfg)
	if err != nil || db != nil {
		t.Errorf("OpenCatalog = %v, %v; want nil, nil", db, err)
	}
}

func TestPostNotifier(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Content.Dir = t.TempDir()
	testutil.WritePost(t, cfg.Content.Dir, "tour", testutil.DefaultMeta("Tour", "2024-01-01"), "## !!steps Go\n\nx\n")
	svc, err := NewContentService(cfg, NewLogger(os.Stderr, cfg.App.LogLevel))
	if err != nil {
		t.Fatal(err)
	}

	broker := sse.NewBroker(time.Hour)
	defer broker.Close()
	ch := broker.Subscribe()

	notify := postNotifier(svc, broker)
	notify(watch.KindUpdated, "tour")
	notify(watch.KindDeleted, "tour")

	var frames []string
	timeout := time.After(time.Second)
	for len(frames) < 3 {
		select {
		case msg := <-ch:
			frames = append(frames, string(msg))
		case <-timeout:
			t.Fatalf("got %d frames, want 3: %q", len(frames), frames)
		}
	}
	if !strings.Contains(frames[0], "event: post.updated") || !strings.Contains(frames[0], `"scrolly":true`) {
		t.Errorf("first frame = %q", frames[0])
	}
	if !strings.Contains(frames[1], "event: listing.updated") {
		t.Errorf("second frame = %q", frames[1])
	}
	if !strings.Contains(frames[2], "event: post.deleted") || !strings.Contains(frames[2], `"scrolly":false`) {
		t.Errorf("third frame = %q", frames[2])
	}
}
