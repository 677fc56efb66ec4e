// Package testutil provides shared test helpers for content directories and catalogues.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/folio/internal/catalog"
	"github.com/starford/folio/internal/storage"
)

// Meta is the frontmatter written by WritePost. Zero fields are omitted.
type Meta struct {
	Title       string
	Description string
	Date        string
	Topic       string
	Image       string
	Draft       bool
	Kind        string
}

// DefaultMeta returns complete frontmatter for the given title and date.
func DefaultMeta(title, date string) Meta {
	return Meta{
		Title:       title,
		Description: "About " + title,
		Date:        date,
		Topic:       "testing",
		Image:       "/img/" + strings.ToLower(strings.ReplaceAll(title, " ", "-")) + ".png",
	}
}

// Source renders meta and body as a post source.
func Source(meta Meta, body string) string {
	var b strings.Builder
	b.WriteString("---\n")
	for _, kv := range [][2]string{
		{"title", meta.Title},
		{"description", meta.Description},
		{"date", meta.Date},
		{"topic", meta.Topic},
		{"image", meta.Image},
		{"kind", meta.Kind},
	} {
		if kv[1] != "" {
			fmt.Fprintf(&b, "%s: %q\n", kv[0], kv[1])
		}
	}
	if meta.Draft {
		b.WriteString("draft: true\n")
	}
	b.WriteString("---\n")
	b.WriteString(body)
	return b.String()
}

// TestContent creates a temporary content directory with a storage.Provider.
func TestContent(t *testing.T) (string, storage.Provider) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}

// WriteFile writes raw content to dir/name.
func WriteFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// WritePost writes dir/<slug>.mdx.
func WritePost(t *testing.T, dir, slug string, meta Meta, body string) {
	t.Helper()
	WriteFile(t, dir, slug+".mdx", Source(meta, body))
}

// TestCatalog creates a temporary SQLite catalogue that is automatically cleaned up.
func TestCatalog(t *testing.T) *catalog.DB {
	t.Helper()
	db, err := catalog.Open(filepath.Join(t.TempDir(), "folio-test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}
