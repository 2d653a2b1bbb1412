package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

const articleColumns = `id, source_id, link, title, published_date, collected_at,
	is_read, is_bookmarked, topics, sentiment_score, cluster_id`

// ErrNotFound is returned by updates that match no row.
var ErrNotFound = errors.New("not found")

// InsertArticle inserts an article. Returns the ID on success, 0 if the link
// is already stored.
func (db *DB) InsertArticle(sourceID int64, link, title string, publishedDate *string, topics []string) (int64, error) {
	topicsJSON, err := encodeTopics(topics)
	if err != nil {
		return 0, err
	}

	result, err := db.conn.Exec(
		`INSERT OR IGNORE INTO articles (source_id, link, title, published_date, topics)
		VALUES (?, ?, ?, ?, ?)`,
		sourceID, link, title, publishedDate, topicsJSON,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting article %s: %w", link, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, nil
	}
	return result.LastInsertId()
}

// GetArticles returns every stored article in insertion order.
func (db *DB) GetArticles() ([]Article, error) {
	rows, err := db.conn.Query("SELECT " + articleColumns + " FROM articles ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanArticles(rows)
}

// GetClusterMemberIDs returns the IDs of articles assigned to a cluster.
func (db *DB) GetClusterMemberIDs(clusterID int64) ([]int64, error) {
	rows, err := db.conn.Query("SELECT id FROM articles WHERE cluster_id = ? ORDER BY id", clusterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// GetArticleByID returns a single article by ID.
func (db *DB) GetArticleByID(articleID int64) (*Article, error) {
	row := db.conn.QueryRow("SELECT "+articleColumns+" FROM articles WHERE id = ?", articleID)
	a, err := scanArticle(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// SetRead marks an article read or unread.
func (db *DB) SetRead(articleID int64, read bool) error {
	return db.exec("UPDATE articles SET is_read = ? WHERE id = ?", boolInt(read), articleID)
}

// SetBookmarked adds or removes an article bookmark.
func (db *DB) SetBookmarked(articleID int64, bookmarked bool) error {
	return db.exec("UPDATE articles SET is_bookmarked = ? WHERE id = ?", boolInt(bookmarked), articleID)
}

// SetArticleNLP stores enrichment results. A nil topics slice clears the tags.
func (db *DB) SetArticleNLP(articleID int64, topics []string, sentiment *float64, clusterID *int64) error {
	topicsJSON, err := encodeTopics(topics)
	if err != nil {
		return err
	}
	return db.exec(
		"UPDATE articles SET topics = ?, sentiment_score = ?, cluster_id = ? WHERE id = ?",
		topicsJSON, sentiment, clusterID, articleID,
	)
}

// exec runs an update and reports ErrNotFound when no row matched.
func (db *DB) exec(query string, args ...any) error {
	result, err := db.conn.Exec(query, args...)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func encodeTopics(topics []string) (*string, error) {
	if topics == nil {
		return nil, nil
	}
	data, err := json.Marshal(topics)
	if err != nil {
		return nil, fmt.Errorf("encoding topics: %w", err)
	}
	s := string(data)
	return &s, nil
}

func decodeTopics(raw *string, a *Article) error {
	if raw == nil {
		return nil
	}
	if err := json.Unmarshal([]byte(*raw), &a.Topics); err != nil {
		return fmt.Errorf("decoding topics for article %d: %w", a.ID, err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanInto(s scanner) (*Article, error) {
	var a Article
	var read, bookmarked int
	var topicsJSON *string
	if err := s.Scan(&a.ID, &a.SourceID, &a.Link, &a.Title, &a.PublishedDate, &a.CollectedAt,
		&read, &bookmarked, &topicsJSON, &a.SentimentScore, &a.ClusterID); err != nil {
		return nil, err
	}
	a.IsRead = read != 0
	a.IsBookmarked = bookmarked != 0
	if err := decodeTopics(topicsJSON, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func scanArticles(rows *sql.Rows) ([]Article, error) {
	var articles []Article
	for rows.Next() {
		a, err := scanInto(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, *a)
	}
	return articles, rows.Err()
}

func scanArticle(row *sql.Row) (*Article, error) {
	return scanInto(row)
}
