//go:build !sqlite_fts5

package catalog

import (
	"database/sql"
	"fmt"
)

func initFTS(_ *sql.DB) error {
	// FTS5 not available; search uses LIKE over the posts table.
	return nil
}

func ftsUpsert(_ *sql.Tx, _ Entry) error { return nil }

func ftsDelete(_ *sql.Tx, _ string) {}

// Search performs a LIKE-based search (fallback when FTS5 is not compiled in).
// Drafts are left out unless includeDrafts is set.
func (db *DB) Search(query string, limit int, includeDrafts bool) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	like := "%" + query + "%"
	rows, err := db.conn.Query(`
		SELECT slug, title, substr(description, 1, 200)
		FROM posts
		WHERE (title LIKE ? OR description LIKE ? OR topic LIKE ? OR body LIKE ?)
		  AND (? OR draft = 0)
		ORDER BY published DESC
		LIMIT ?
	`, like, like, like, like, includeDrafts, limit)
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
