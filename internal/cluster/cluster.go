// Package cluster groups related articles into story clusters using Ward
// linkage over hashed bag-of-words vectors of titles and topics.
package cluster

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/cespare/xxhash/v2"

	"github.com/TobiSchelling/FeedLens/internal/analytics"
	"github.com/TobiSchelling/FeedLens/internal/database"
)

const (
	// DefaultDistanceThreshold is the Ward merge distance at which clusters
	// stop joining. Vectors are unit length, so 1.0 pairs articles whose
	// cosine similarity is at least 0.5.
	DefaultDistanceThreshold = 1.0

	// MaxArticles caps how many of the most recent articles are clustered
	// per run.
	MaxArticles = 500

	dimensions  = 512
	topicWeight = 2.0
)

// Summary describes one cluster created by a run.
type Summary struct {
	ID         int64
	Label      string
	ArticleIDs []int64
}

// Result holds the results of a clustering run.
type Result struct {
	ArticleCount int
	Clusters     []Summary
	Unclustered  int
}

// Clusterer assigns cluster IDs to articles inside a time window.
type Clusterer struct {
	db        *database.DB
	threshold float64
}

// NewClusterer creates a new article clusterer.
func NewClusterer(db *database.DB, threshold float64) *Clusterer {
	if threshold <= 0 {
		threshold = DefaultDistanceThreshold
	}
	return &Clusterer{db: db, threshold: threshold}
}

// ClusterArticles reclusters the articles whose effective date falls in the
// window ending at now. Groups of two or more get fresh cluster IDs above the
// current maximum; singletons are cleared. Articles outside the window keep
// their assignment.
func (c *Clusterer) ClusterArticles(ctx context.Context, rng analytics.TimeRange, now time.Time) (*Result, error) {
	all, err := c.db.GetArticles()
	if err != nil {
		return nil, err
	}
	articles := inWindow(all, analytics.ResolveWindow(rng, now), now.Location())
	if len(articles) > MaxArticles {
		log.Printf("Clustering the %d most recent of %d articles", MaxArticles, len(articles))
		articles = articles[len(articles)-MaxArticles:]
	}

	if len(articles) == 0 {
		log.Println("No articles to cluster")
		return &Result{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vectors := make([][]float64, len(articles))
	for i, a := range articles {
		vectors[i] = vectorize(a.Title, a.Topics)
	}
	labels := cutTree(ward(squaredDistances(vectors)), len(articles), c.threshold)

	groups := make([][]database.Article, 0)
	for i, label := range labels {
		for len(groups) <= label {
			groups = append(groups, nil)
		}
		groups[label] = append(groups[label], articles[i])
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	next, err := c.db.MaxClusterID()
	if err != nil {
		return nil, fmt.Errorf("reading cluster ids: %w", err)
	}

	r := &Result{ArticleCount: len(articles)}
	assignments := make(map[int64]*int64, len(articles))
	for _, group := range groups {
		if len(group) < 2 {
			assignments[group[0].ID] = nil
			r.Unclustered++
			continue
		}
		next++
		id := next
		s := Summary{ID: id, Label: generateLabel(group)}
		for _, a := range group {
			assignments[a.ID] = &id
			s.ArticleIDs = append(s.ArticleIDs, a.ID)
		}
		r.Clusters = append(r.Clusters, s)
		log.Printf("Cluster %d (%d articles): %s", id, len(group), s.Label)
	}

	if err := c.db.AssignClusters(assignments); err != nil {
		return nil, err
	}

	log.Printf("Clustering complete: %d clusters, %d unclustered from %d articles",
		len(r.Clusters), r.Unclustered, r.ArticleCount)
	return r, nil
}

func inWindow(articles []database.Article, w analytics.Window, loc *time.Location) []database.Article {
	views := make([]analytics.Article, len(articles))
	for i, a := range articles {
		views[i] = analytics.Article{ID: a.ID, PublishedDate: deref(a.PublishedDate), CollectedAt: deref(a.CollectedAt)}
	}
	keep := make(map[int64]bool)
	for _, a := range analytics.FilterArticles(views, w, loc) {
		keep[a.ID] = true
	}

	out := make([]database.Article, 0, len(keep))
	for _, a := range articles {
		if keep[a.ID] {
			out = append(out, a)
		}
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// vectorize hashes title words and topics into a fixed-width unit vector.
func vectorize(title string, topics []string) []float64 {
	v := make([]float64, dimensions)
	for _, w := range words(title) {
		v[xxhash.Sum64String(w)%dimensions]++
	}
	for _, t := range topics {
		v[xxhash.Sum64String("topic:"+strings.ToLower(t))%dimensions] += topicWeight
	}

	var norm float64
	for _, x := range v {
		norm += x * x
	}
	if norm == 0 {
		return v
	}
	norm = math.Sqrt(norm)
	for i := range v {
		v[i] /= norm
	}
	return v
}

// words returns the lowercased title words worth comparing.
func words(title string) []string {
	fields := strings.FieldsFunc(strings.ToLower(title), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if len(f) > 2 && !stopWords[f] {
			out = append(out, f)
		}
	}
	return out
}

var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "is": true, "are": true, "was": true,
	"were": true, "be": true, "been": true, "being": true, "have": true, "has": true,
	"had": true, "do": true, "does": true, "did": true, "will": true, "would": true,
	"could": true, "should": true, "may": true, "might": true, "can": true, "shall": true,
	"to": true, "of": true, "in": true, "for": true, "on": true, "with": true, "at": true,
	"by": true, "from": true, "as": true, "into": true, "through": true, "during": true,
	"before": true, "after": true, "above": true, "below": true, "and": true, "but": true,
	"or": true, "nor": true, "not": true, "so": true, "yet": true, "both": true,
	"either": true, "neither": true, "each": true, "every": true, "all": true, "any": true,
	"few": true, "more": true, "most": true, "other": true, "some": true, "such": true,
	"no": true, "only": true, "own": true, "same": true, "than": true, "too": true,
	"very": true, "just": true, "how": true, "what": true, "which": true, "who": true,
	"whom": true, "this": true, "that": true, "these": true, "those": true, "it": true,
	"its": true, "new": true, "about": true, "up": true, "out": true, "one": true,
	"two": true, "also": true, "like": true, "get": true, "use": true, "says": true,
}

// generateLabel names a cluster after its three most frequent title words,
// falling back to the first title.
func generateLabel(articles []database.Article) string {
	counts := make(map[string]int)
	for _, a := range articles {
		for _, w := range words(a.Title) {
			counts[w]++
		}
	}

	ranked := make([]string, 0, len(counts))
	for w := range counts {
		ranked = append(ranked, w)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if counts[ranked[i]] != counts[ranked[j]] {
			return counts[ranked[i]] > counts[ranked[j]]
		}
		return ranked[i] < ranked[j]
	})
	if len(ranked) > 3 {
		ranked = ranked[:3]
	}

	if len(ranked) > 0 {
		for i, w := range ranked {
			r := []rune(w)
			r[0] = unicode.ToUpper(r[0])
			ranked[i] = string(r)
		}
		return strings.Join(ranked, " ")
	}

	title := []rune(articles[0].Title)
	if len(title) > 50 {
		title = title[:50]
	}
	return string(title)
}
