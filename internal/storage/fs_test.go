package storage

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/starford/folio/internal/apperr"
)

func tempContent(t *testing.T) (string, *FS) {
	t.Helper()
	dir := t.TempDir()
	s, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return dir, s
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestNewFS_MissingDirectory(t *testing.T) {
	_, err := NewFS(filepath.Join(t.TempDir(), "nope"))
	if !errors.Is(err, apperr.ErrDirectoryNotFound) {
		t.Fatalf("err = %v, want ErrDirectoryNotFound", err)
	}
}

func TestNewFS_RootIsFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "file.mdx", "x")
	_, err := NewFS(filepath.Join(dir, "file.mdx"))
	if !errors.Is(err, apperr.ErrDirectoryNotFound) {
		t.Fatalf("err = %v, want ErrDirectoryNotFound", err)
	}
}

func TestDiscover_FiltersByExtension(t *testing.T) {
	dir, s := tempContent(t)
	writeFile(t, dir, "a.mdx", "a")
	writeFile(t, dir, "b.mdx", "b")
	writeFile(t, dir, "notes.md", "c")
	writeFile(t, dir, "README", "d")
	if err := os.Mkdir(filepath.Join(dir, "nested.mdx"), 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := s.Discover(".mdx")
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	slices.Sort(got)
	if want := []string{"a.mdx", "b.mdx"}; !slices.Equal(got, want) {
		t.Errorf("Discover = %v, want %v", got, want)
	}
}

func TestDiscover_SkipsBareExtension(t *testing.T) {
	dir, s := tempContent(t)
	writeFile(t, dir, ".mdx", "no slug")
	writeFile(t, dir, "post.mdx", "x")

	got, err := s.Discover(".mdx")
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if want := []string{"post.mdx"}; !slices.Equal(got, want) {
		t.Errorf("Discover = %v, want %v", got, want)
	}
}

func TestDiscover_EmptyDirectory(t *testing.T) {
	_, s := tempContent(t)
	got, err := s.Discover(".mdx")
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Discover = %v, want empty", got)
	}
}

func TestDiscover_RootRemovedAfterOpen(t *testing.T) {
	dir, s := tempContent(t)
	if err := os.RemoveAll(dir); err != nil {
		t.Fatal(err)
	}
	_, err := s.Discover(".mdx")
	if !errors.Is(err, apperr.ErrDirectoryNotFound) {
		t.Fatalf("err = %v, want ErrDirectoryNotFound", err)
	}
}

func TestRead(t *testing.T) {
	dir, s := tempContent(t)
	writeFile(t, dir, "hello.mdx", "---\ntitle: Hi\n---\nbody")
	got, err := s.Read("hello.mdx")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "---\ntitle: Hi\n---\nbody" {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestRead_Missing(t *testing.T) {
	_, s := tempContent(t)
	_, err := s.Read("ghost.mdx")
	if !errors.Is(err, apperr.ErrUnreadableFile) {
		t.Errorf("err = %v, want ErrUnreadableFile", err)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("err = %v, want fs.ErrNotExist preserved", err)
	}
}

func TestRead_PathTraversal(t *testing.T) {
	_, s := tempContent(t)
	for _, name := range []string{"../secret.mdx", "/etc/passwd", "a/../../b.mdx"} {
		if _, err := s.Read(name); err == nil {
			t.Errorf("Read(%q) should be rejected", name)
		}
	}
}
