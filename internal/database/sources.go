package database

import (
	"database/sql"
	"fmt"
)

// UpsertSource registers a feed by URL and returns its ID. A non-nil title
// replaces the stored one; an existing source keeps its active flag.
func (db *DB) UpsertSource(url string, title *string) (int64, error) {
	if _, err := db.conn.Exec(
		"INSERT OR IGNORE INTO sources (url, title) VALUES (?, ?)", url, title,
	); err != nil {
		return 0, fmt.Errorf("inserting source %s: %w", url, err)
	}
	if title != nil {
		if _, err := db.conn.Exec("UPDATE sources SET title = ? WHERE url = ?", *title, url); err != nil {
			return 0, fmt.Errorf("updating source title: %w", err)
		}
	}

	var id int64
	if err := db.conn.QueryRow("SELECT id FROM sources WHERE url = ?", url).Scan(&id); err != nil {
		return 0, fmt.Errorf("looking up source %s: %w", url, err)
	}
	return id, nil
}

// GetSources returns all sources ordered by ID.
func (db *DB) GetSources() ([]Source, error) {
	rows, err := db.conn.Query(
		"SELECT id, url, title, is_active, created_at FROM sources ORDER BY id",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sources []Source
	for rows.Next() {
		var s Source
		var active int
		if err := rows.Scan(&s.ID, &s.URL, &s.Title, &active, &s.CreatedAt); err != nil {
			return nil, err
		}
		s.IsActive = active != 0
		sources = append(sources, s)
	}
	return sources, rows.Err()
}

// GetSourceByURL returns a source by its feed URL.
func (db *DB) GetSourceByURL(url string) (*Source, error) {
	var s Source
	var active int
	err := db.conn.QueryRow(
		"SELECT id, url, title, is_active, created_at FROM sources WHERE url = ?", url,
	).Scan(&s.ID, &s.URL, &s.Title, &active, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s.IsActive = active != 0
	return &s, nil
}

// SetSourceActive toggles whether a source counts as subscribed.
func (db *DB) SetSourceActive(sourceID int64, active bool) error {
	return db.exec("UPDATE sources SET is_active = ? WHERE id = ?", boolInt(active), sourceID)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
