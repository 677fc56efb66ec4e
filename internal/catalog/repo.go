package catalog

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/models"
)

// Entry is one catalogued post.
type Entry struct {
	Slug        string
	Title       string
	Description string
	Topic       string
	Published   time.Time
	Draft       bool
	Kind        models.DocumentKind
	Checksum    string
	Body        string
}

// SearchResult represents one search hit.
type SearchResult struct {
	Slug    string `json:"slug"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// EntryFor builds the catalogue row for a listed post and its body.
func EntryFor(p models.Post, body string) Entry {
	return Entry{
		Slug:        p.Slug,
		Title:       p.Frontmatter.Title,
		Description: p.Frontmatter.Description,
		Topic:       p.Frontmatter.Topic,
		Published:   p.Frontmatter.Published,
		Draft:       p.Frontmatter.Draft,
		Kind:        p.Kind,
		Checksum:    checksum(p, body),
		Body:        body,
	}
}

// checksum covers everything stored, so an unchanged checksum means an
// unchanged row.
func checksum(p models.Post, body string) string {
	meta, _ := json.Marshal(struct {
		models.Frontmatter
		Kind models.DocumentKind
	}{p.Frontmatter, p.Kind})
	h := sha256.New()
	h.Write(meta)
	h.Write([]byte{0})
	h.Write([]byte(body))
	return hex.EncodeToString(h.Sum(nil))
}

// UpsertPost inserts or replaces a post and its FTS entry within a transaction.
func (db *DB) UpsertPost(e Entry) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("catalog: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.Exec(`
		INSERT INTO posts (slug, title, description, topic, published, draft, kind, checksum, body, indexed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(slug) DO UPDATE SET
			title       = excluded.title,
			description = excluded.description,
			topic       = excluded.topic,
			published   = excluded.published,
			draft       = excluded.draft,
			kind        = excluded.kind,
			checksum    = excluded.checksum,
			body        = excluded.body,
			indexed_at  = excluded.indexed_at
	`, e.Slug, e.Title, e.Description, e.Topic, e.Published.UTC(), e.Draft, string(e.Kind), e.Checksum, e.Body, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("catalog: upsert post: %w", err)
	}

	if err := ftsUpsert(tx, e); err != nil {
		return err
	}
	return tx.Commit()
}

// DeletePost removes a post and its FTS entry.
func (db *DB) DeletePost(slug string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("catalog: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, slug)
	if _, err := tx.Exec(`DELETE FROM posts WHERE slug = ?`, slug); err != nil {
		return fmt.Errorf("catalog: delete post: %w", err)
	}
	return tx.Commit()
}

// GetPost returns the catalogued entry for slug.
func (db *DB) GetPost(slug string) (*Entry, error) {
	var e Entry
	var kind string
	err := db.conn.QueryRow(`
		SELECT slug, title, description, topic, published, draft, kind, checksum, body
		FROM posts WHERE slug = ?
	`, slug).Scan(&e.Slug, &e.Title, &e.Description, &e.Topic, &e.Published, &e.Draft, &kind, &e.Checksum, &e.Body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("catalog: %s: %w", slug, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: get post: %w", err)
	}
	e.Kind = models.DocumentKind(kind)
	return &e, nil
}

// AllChecksums returns slug -> checksum for every catalogued post.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT slug, checksum FROM posts`)
	if err != nil {
		return nil, fmt.Errorf("catalog: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var slug, cs string
		if err := rows.Scan(&slug, &cs); err != nil {
			return nil, err
		}
		out[slug] = cs
	}
	return out, rows.Err()
}

// Count returns the number of catalogued posts.
func (db *DB) Count() (int, error) {
	var n int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM posts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("catalog: count: %w", err)
	}
	return n, nil
}
