package database

import (
	"fmt"

	"github.com/TobiSchelling/FeedLens/internal/analytics"
)

// Snapshot loads every source and article in the shape the analytics engine
// consumes.
func (db *DB) Snapshot() ([]analytics.Article, []analytics.Source, error) {
	rows, err := db.GetArticles()
	if err != nil {
		return nil, nil, fmt.Errorf("loading articles: %w", err)
	}
	srcs, err := db.GetSources()
	if err != nil {
		return nil, nil, fmt.Errorf("loading sources: %w", err)
	}

	articles := make([]analytics.Article, 0, len(rows))
	for _, a := range rows {
		articles = append(articles, analytics.Article{
			ID:             a.ID,
			SourceID:       a.SourceID,
			PublishedDate:  str(a.PublishedDate),
			CollectedAt:    str(a.CollectedAt),
			IsRead:         a.IsRead,
			IsBookmarked:   a.IsBookmarked,
			Topics:         a.Topics,
			SentimentScore: a.SentimentScore,
			ClusterID:      a.ClusterID,
			Link:           a.Link,
		})
	}

	sources := make([]analytics.Source, 0, len(srcs))
	for _, s := range srcs {
		sources = append(sources, analytics.Source{ID: s.ID, Title: s.Title, IsActive: s.IsActive})
	}
	return articles, sources, nil
}

func str(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
