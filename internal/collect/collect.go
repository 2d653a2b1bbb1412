// Package collect ingests configured feeds into the article store.
package collect

import (
	"context"
	"fmt"
	"log"

	"github.com/mmcdole/gofeed"

	"github.com/TobiSchelling/FeedLens/internal/config"
	"github.com/TobiSchelling/FeedLens/internal/database"
)

// Result holds the results of a collection run.
type Result struct {
	TotalFound  int
	NewArticles int
	Duplicates  int
	FailedFeeds int
	Sources     map[string]int
}

// Collector pulls RSS/Atom feeds into the database.
type Collector struct {
	db     *database.DB
	feeds  []config.Feed
	parser *gofeed.Parser
}

// NewCollector creates a new article collector.
func NewCollector(feeds []config.Feed, db *database.DB) *Collector {
	return &Collector{db: db, feeds: feeds, parser: gofeed.NewParser()}
}

// Collect registers every configured feed and stores new entries from the
// active ones. A feed that fails to download is logged and skipped; store
// errors abort the run.
func (c *Collector) Collect(ctx context.Context) (*Result, error) {
	r := &Result{Sources: make(map[string]int)}

	for _, f := range c.feeds {
		if err := ctx.Err(); err != nil {
			return r, err
		}

		var name *string
		if f.Name != "" {
			name = &f.Name
		}
		sourceID, err := c.db.UpsertSource(f.URL, name)
		if err != nil {
			return r, err
		}
		if err := c.db.SetSourceActive(sourceID, f.IsActive()); err != nil {
			return r, fmt.Errorf("updating source %s: %w", f.URL, err)
		}
		if !f.IsActive() {
			continue
		}

		feedTitle, entries, err := parseFeed(ctx, c.parser, f.URL)
		if err != nil {
			log.Printf("Failed to parse feed %s: %v", f.URL, err)
			r.FailedFeeds++
			continue
		}

		label := f.Name
		if label == "" {
			label = feedTitle
			if label == "" {
				label = sourceName(f.URL)
			}
			if _, err := c.db.UpsertSource(f.URL, &label); err != nil {
				return r, err
			}
		}

		r.TotalFound += len(entries)
		for _, entry := range entries {
			var published *string
			if entry.PublishedDate != "" {
				published = &entry.PublishedDate
			}
			topics := Tag(entry.Title, entry.Description)

			id, err := c.db.InsertArticle(sourceID, entry.Link, entry.Title, published, topics)
			if err != nil {
				return r, err
			}
			if id > 0 {
				r.NewArticles++
				r.Sources[label]++
			} else {
				r.Duplicates++
			}
		}
		log.Printf("Parsed %d entries from %s", len(entries), label)
	}

	log.Printf("Collection complete: %d found, %d new, %d duplicates", r.TotalFound, r.NewArticles, r.Duplicates)
	return r, nil
}
