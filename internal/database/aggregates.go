package database

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/TobiSchelling/FeedLens/internal/analytics"
)

const (
	// trendTopicsPerArticle caps how many of an article's topics feed the trend.
	trendTopicsPerArticle = 5
	trendRecentDays       = 3
	trendLimit            = 20
)

// articleDate is the SQL expression for an article's effective date.
const articleDate = "COALESCE(published_date, collected_at)"

// SentimentAggregate buckets every scored article and breaks the scores down
// per publication day. Articles without a publication date count in the
// totals but not in the daily breakdown.
func (db *DB) SentimentAggregate() (*analytics.ExternalSentiment, error) {
	row := db.conn.QueryRow(
		`SELECT
			COUNT(*) as total,
			SUM(CASE WHEN sentiment_score >= 0.5 THEN 1 ELSE 0 END),
			SUM(CASE WHEN sentiment_score >= 0.05 AND sentiment_score < 0.5 THEN 1 ELSE 0 END),
			SUM(CASE WHEN sentiment_score > -0.05 AND sentiment_score < 0.05 THEN 1 ELSE 0 END),
			SUM(CASE WHEN sentiment_score > -0.5 AND sentiment_score <= -0.05 THEN 1 ELSE 0 END),
			SUM(CASE WHEN sentiment_score <= -0.5 THEN 1 ELSE 0 END)
		FROM articles WHERE sentiment_score IS NOT NULL`,
	)

	s := &analytics.ExternalSentiment{DailyTrends: map[string]analytics.DailySentiment{}}
	var pos, slightPos, neutral, slightNeg, neg *int
	if err := row.Scan(&s.Total, &pos, &slightPos, &neutral, &slightNeg, &neg); err != nil {
		return nil, fmt.Errorf("sentiment totals: %w", err)
	}
	s.Positive = deref(pos)
	s.SlightlyPositive = deref(slightPos)
	s.Neutral = deref(neutral)
	s.SlightlyNegative = deref(slightNeg)
	s.Negative = deref(neg)

	rows, err := db.conn.Query(
		`SELECT substr(published_date, 1, 10) as day,
			SUM(CASE WHEN sentiment_score >= 0.05 THEN 1 ELSE 0 END),
			SUM(CASE WHEN sentiment_score > -0.05 AND sentiment_score < 0.05 THEN 1 ELSE 0 END),
			SUM(CASE WHEN sentiment_score <= -0.05 THEN 1 ELSE 0 END)
		FROM articles
		WHERE sentiment_score IS NOT NULL AND published_date IS NOT NULL
		GROUP BY day`,
	)
	if err != nil {
		return nil, fmt.Errorf("sentiment by day: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var day string
		var d analytics.DailySentiment
		if err := rows.Scan(&day, &d.Positive, &d.Neutral, &d.Negative); err != nil {
			return nil, err
		}
		s.DailyTrends[day] = d
	}
	return s, rows.Err()
}

// TopicTrends counts topic occurrences among articles dated within the last
// days (all time when days <= 0) and ranks them by how many fall in the most
// recent three days.
func (db *DB) TopicTrends(days int, now time.Time) (*analytics.ExternalTopicTrend, error) {
	now = now.UTC()
	recentCutoff := now.AddDate(0, 0, -trendRecentDays).Format(time.RFC3339)

	query := `SELECT topics, IFNULL(` + articleDate + ` >= ?, 0) FROM articles WHERE topics IS NOT NULL`
	args := []any{recentCutoff}
	if days > 0 {
		query += ` AND ` + articleDate + ` >= ?`
		args = append(args, now.AddDate(0, 0, -days).Format(time.RFC3339))
	}
	query += ` ORDER BY id`

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("topic trends: %w", err)
	}
	defer rows.Close()

	type tally struct {
		topic         string
		count, recent int
	}
	var tallies []tally
	index := map[string]int{}

	for rows.Next() {
		var raw string
		var recent int
		if err := rows.Scan(&raw, &recent); err != nil {
			return nil, err
		}
		var topics []string
		if err := json.Unmarshal([]byte(raw), &topics); err != nil {
			return nil, fmt.Errorf("decoding topics: %w", err)
		}
		if len(topics) > trendTopicsPerArticle {
			topics = topics[:trendTopicsPerArticle]
		}
		for _, topic := range topics {
			i, ok := index[topic]
			if !ok {
				i = len(tallies)
				index[topic] = i
				tallies = append(tallies, tally{topic: topic})
			}
			tallies[i].count++
			if recent != 0 {
				tallies[i].recent++
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(tallies, func(i, j int) bool { return tallies[i].recent > tallies[j].recent })
	if len(tallies) > trendLimit {
		tallies = tallies[:trendLimit]
	}

	out := &analytics.ExternalTopicTrend{TrendingTopics: make([]analytics.TopicTrend, 0, len(tallies))}
	for _, t := range tallies {
		growth := math.Round(float64(t.recent) / float64(t.count) * 100)
		out.TrendingTopics = append(out.TrendingTopics, analytics.TopicTrend{
			Topic:         t.topic,
			Count:         t.count,
			GrowthPercent: &growth,
		})
	}
	return out, nil
}

// GetStats returns aggregate database statistics.
func (db *DB) GetStats() (*Stats, error) {
	s := &Stats{}

	queries := []struct {
		sql  string
		dest *int
	}{
		{"SELECT COUNT(*) FROM sources", &s.TotalSources},
		{"SELECT COUNT(*) FROM sources WHERE is_active = 1", &s.ActiveSources},
		{"SELECT COUNT(*) FROM articles", &s.TotalArticles},
		{"SELECT COUNT(*) FROM articles WHERE is_read = 1", &s.ReadArticles},
		{"SELECT COUNT(*) FROM articles WHERE is_bookmarked = 1", &s.BookmarkedArticles},
		{"SELECT COUNT(*) FROM articles WHERE topics IS NOT NULL AND topics != '[]'", &s.TaggedArticles},
		{"SELECT COUNT(*) FROM articles WHERE sentiment_score IS NOT NULL", &s.ScoredArticles},
		{"SELECT COUNT(DISTINCT cluster_id) FROM articles", &s.Clusters},
	}

	for _, q := range queries {
		if err := db.conn.QueryRow(q.sql).Scan(q.dest); err != nil {
			return nil, err
		}
	}

	return s, nil
}

func deref(n *int) int {
	if n == nil {
		return 0
	}
	return *n
}
