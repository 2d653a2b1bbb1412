package database

import (
	"database/sql"
	"fmt"
	"math"
	"strings"
)

// GetUnscoredArticles returns articles without a sentiment score, oldest
// first. A limit of zero or less returns all of them.
func (db *DB) GetUnscoredArticles(limit int) ([]Article, error) {
	query := "SELECT " + articleColumns + " FROM articles WHERE sentiment_score IS NULL ORDER BY id"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanArticles(rows)
}

// SetSentiment stores a sentiment score, leaving topics and cluster alone.
func (db *DB) SetSentiment(articleID int64, score float64) error {
	return db.exec("UPDATE articles SET sentiment_score = ? WHERE id = ?", score, articleID)
}

// MaxClusterID returns the highest assigned cluster ID, or 0 when none is set.
func (db *DB) MaxClusterID() (int64, error) {
	var maxID sql.NullInt64
	if err := db.conn.QueryRow("SELECT MAX(cluster_id) FROM articles").Scan(&maxID); err != nil {
		return 0, err
	}
	return maxID.Int64, nil
}

// AssignClusters writes cluster IDs for the given articles in one
// transaction. A nil value clears the assignment.
func (db *DB) AssignClusters(assignments map[int64]*int64) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare("UPDATE articles SET cluster_id = ? WHERE id = ?")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for id, clusterID := range assignments {
		if _, err := stmt.Exec(clusterID, id); err != nil {
			return fmt.Errorf("assigning cluster for article %d: %w", id, err)
		}
	}
	return tx.Commit()
}

// Enrichment is a partial NLP update for one article. Nil fields are left
// unchanged; a non-nil empty Topics stores an empty list.
type Enrichment struct {
	Topics    *[]string
	Sentiment *float64
	ClusterID *int64
}

// ApplyEnrichment writes the fields set in e. Sentiment is clamped to
// [-1, 1]. It returns ErrNotFound for unknown articles, even when e is empty.
func (db *DB) ApplyEnrichment(articleID int64, e Enrichment) error {
	var sets []string
	var args []any

	if e.Topics != nil {
		topics := *e.Topics
		if topics == nil {
			topics = []string{}
		}
		topicsJSON, err := encodeTopics(topics)
		if err != nil {
			return err
		}
		sets = append(sets, "topics = ?")
		args = append(args, topicsJSON)
	}
	if e.Sentiment != nil {
		sets = append(sets, "sentiment_score = ?")
		args = append(args, math.Max(-1, math.Min(1, *e.Sentiment)))
	}
	if e.ClusterID != nil {
		sets = append(sets, "cluster_id = ?")
		args = append(args, *e.ClusterID)
	}

	if len(sets) == 0 {
		a, err := db.GetArticleByID(articleID)
		if err != nil {
			return err
		}
		if a == nil {
			return ErrNotFound
		}
		return nil
	}

	args = append(args, articleID)
	return db.exec("UPDATE articles SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
}
