//go:build sqlite_fts5

package catalog

import (
	"database/sql"
	"fmt"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS posts_fts USING fts5(
			slug UNINDEXED,
			title,
			description,
			topic,
			body,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(tx *sql.Tx, e Entry) error {
	_, _ = tx.Exec(`DELETE FROM posts_fts WHERE slug = ?`, e.Slug)
	_, err := tx.Exec(`INSERT INTO posts_fts (slug, title, description, topic, body) VALUES (?, ?, ?, ?, ?)`,
		e.Slug, e.Title, e.Description, e.Topic, e.Body)
	if err != nil {
		return fmt.Errorf("catalog: upsert fts: %w", err)
	}
	return nil
}

func ftsDelete(tx *sql.Tx, slug string) {
	_, _ = tx.Exec(`DELETE FROM posts_fts WHERE slug = ?`, slug)
}

// Search performs an FTS5 full-text search. Drafts are left out unless
// includeDrafts is set.
func (db *DB) Search(query string, limit int, includeDrafts bool) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT f.slug,
		       f.title,
		       snippet(posts_fts, 4, '<b>', '</b>', '...', 32)
		FROM posts_fts f
		JOIN posts p ON p.slug = f.slug
		WHERE posts_fts MATCH ? AND (? OR p.draft = 0)
		ORDER BY rank
		LIMIT ?
	`, query, includeDrafts, limit)
	if err != nil {
		return nil, fmt.Errorf("catalog: search: %w", err)
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.Slug, &r.Title, &r.Snippet); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
