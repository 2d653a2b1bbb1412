package database

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"
)

var fixedNow = time.Date(2026, 2, 10, 15, 0, 0, 0, time.UTC)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func ptr[T any](v T) *T { return &v }

// seedSource registers a source and fails the test on error.
func seedSource(t *testing.T, db *DB, url string) int64 {
	t.Helper()
	id, err := db.UpsertSource(url, ptr("Feed "+url))
	if err != nil {
		t.Fatalf("UpsertSource: %v", err)
	}
	return id
}

func seedArticle(t *testing.T, db *DB, sourceID int64, link string, published *string, topics []string) int64 {
	t.Helper()
	id, err := db.InsertArticle(sourceID, link, "Title "+link, published, topics)
	if err != nil {
		t.Fatalf("InsertArticle: %v", err)
	}
	if id == 0 {
		t.Fatalf("expected non-zero id for %s", link)
	}
	return id
}

func TestInsertArticle(t *testing.T) {
	db := openTestDB(t)
	src := seedSource(t, db, "https://feed.example.com/rss")

	id, err := db.InsertArticle(src, "https://example.com/test", "Test Article", ptr("2026-02-09T12:00:00Z"), []string{"AI"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id == 0 {
		t.Error("expected non-zero article ID")
	}

	a, err := db.GetArticleByID(id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a == nil {
		t.Fatal("expected article, got nil")
	}
	if a.SourceID != src || a.Title != "Test Article" {
		t.Errorf("unexpected article: %+v", a)
	}
	if a.PublishedDate == nil || *a.PublishedDate != "2026-02-09T12:00:00Z" {
		t.Errorf("expected published date to round-trip, got %v", a.PublishedDate)
	}
	if a.CollectedAt == nil {
		t.Error("expected collected_at default")
	}
	if fmt.Sprint(a.Topics) != "[AI]" {
		t.Errorf("expected [AI], got %v", a.Topics)
	}
	if a.IsRead || a.IsBookmarked || a.SentimentScore != nil || a.ClusterID != nil {
		t.Errorf("expected fresh article flags, got %+v", a)
	}
}

func TestInsertDuplicateArticle(t *testing.T) {
	db := openTestDB(t)
	src := seedSource(t, db, "https://feed.example.com/rss")

	_, _ = db.InsertArticle(src, "https://example.com/dup", "First", nil, nil)
	id, err := db.InsertArticle(src, "https://example.com/dup", "Duplicate", nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 0 {
		t.Error("expected 0 for duplicate article")
	}
}

func TestInsertArticleUnknownSource(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.InsertArticle(999, "https://example.com/orphan", "Orphan", nil, nil); err == nil {
		t.Error("expected foreign key error for unknown source")
	}
}

func TestGetArticlesOrder(t *testing.T) {
	db := openTestDB(t)
	src := seedSource(t, db, "https://feed.example.com/rss")
	seedArticle(t, db, src, "https://a.com", nil, nil)
	seedArticle(t, db, src, "https://b.com", nil, nil)
	seedArticle(t, db, src, "https://c.com", nil, nil)

	articles, err := db.GetArticles()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(articles) != 3 {
		t.Fatalf("expected 3 articles, got %d", len(articles))
	}
	for i, want := range []string{"https://a.com", "https://b.com", "https://c.com"} {
		if articles[i].Link != want {
			t.Errorf("article %d: expected %s, got %s", i, want, articles[i].Link)
		}
	}
}

func TestGetArticleByIDNotFound(t *testing.T) {
	db := openTestDB(t)
	a, err := db.GetArticleByID(42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a != nil {
		t.Errorf("expected nil, got %+v", a)
	}
}

func TestSetReadAndBookmarked(t *testing.T) {
	db := openTestDB(t)
	src := seedSource(t, db, "https://feed.example.com/rss")
	id := seedArticle(t, db, src, "https://a.com", nil, nil)

	if err := db.SetRead(id, true); err != nil {
		t.Fatalf("SetRead: %v", err)
	}
	if err := db.SetBookmarked(id, true); err != nil {
		t.Fatalf("SetBookmarked: %v", err)
	}
	a, _ := db.GetArticleByID(id)
	if !a.IsRead || !a.IsBookmarked {
		t.Errorf("expected read and bookmarked, got %+v", a)
	}

	if err := db.SetRead(id, false); err != nil {
		t.Fatalf("SetRead: %v", err)
	}
	a, _ = db.GetArticleByID(id)
	if a.IsRead {
		t.Error("expected article to be unread")
	}

	if err := db.SetRead(999, true); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSetArticleNLP(t *testing.T) {
	db := openTestDB(t)
	src := seedSource(t, db, "https://feed.example.com/rss")
	id := seedArticle(t, db, src, "https://a.com", nil, []string{"Tech"})

	if err := db.SetArticleNLP(id, []string{"AI", "Climate"}, ptr(0.4), ptr(int64(7))); err != nil {
		t.Fatalf("SetArticleNLP: %v", err)
	}
	a, _ := db.GetArticleByID(id)
	if fmt.Sprint(a.Topics) != "[AI Climate]" {
		t.Errorf("expected [AI Climate], got %v", a.Topics)
	}
	if a.SentimentScore == nil || *a.SentimentScore != 0.4 {
		t.Errorf("expected sentiment 0.4, got %v", a.SentimentScore)
	}
	if a.ClusterID == nil || *a.ClusterID != 7 {
		t.Errorf("expected cluster 7, got %v", a.ClusterID)
	}

	ids, err := db.GetClusterMemberIDs(7)
	if err != nil {
		t.Fatalf("GetClusterMemberIDs: %v", err)
	}
	if fmt.Sprint(ids) != fmt.Sprint([]int64{id}) {
		t.Errorf("expected [%d], got %v", id, ids)
	}

	if err := db.SetArticleNLP(id, nil, nil, nil); err != nil {
		t.Fatalf("SetArticleNLP clear: %v", err)
	}
	a, _ = db.GetArticleByID(id)
	if a.Topics != nil || a.SentimentScore != nil || a.ClusterID != nil {
		t.Errorf("expected cleared enrichment, got %+v", a)
	}
}

func TestUpsertSource(t *testing.T) {
	db := openTestDB(t)

	id1, err := db.UpsertSource("https://feed.example.com/rss", nil)
	if err != nil {
		t.Fatalf("UpsertSource: %v", err)
	}
	id2, err := db.UpsertSource("https://feed.example.com/rss", ptr("Example"))
	if err != nil {
		t.Fatalf("UpsertSource: %v", err)
	}
	if id1 != id2 {
		t.Errorf("expected same id, got %d and %d", id1, id2)
	}

	// A nil title keeps the stored one.
	if _, err := db.UpsertSource("https://feed.example.com/rss", nil); err != nil {
		t.Fatalf("UpsertSource: %v", err)
	}
	s, err := db.GetSourceByURL("https://feed.example.com/rss")
	if err != nil {
		t.Fatalf("GetSourceByURL: %v", err)
	}
	if s.Title == nil || *s.Title != "Example" {
		t.Errorf("expected title Example, got %v", s.Title)
	}
	if !s.IsActive {
		t.Error("expected new source to be active")
	}

	missing, err := db.GetSourceByURL("https://nowhere.example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil, got %+v", missing)
	}
}

func TestSetSourceActive(t *testing.T) {
	db := openTestDB(t)
	a := seedSource(t, db, "https://a.example.com/rss")
	seedSource(t, db, "https://b.example.com/rss")

	if err := db.SetSourceActive(a, false); err != nil {
		t.Fatalf("SetSourceActive: %v", err)
	}
	sources, err := db.GetSources()
	if err != nil {
		t.Fatalf("GetSources: %v", err)
	}
	if len(sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(sources))
	}
	if sources[0].IsActive || !sources[1].IsActive {
		t.Errorf("expected only the second source active, got %+v", sources)
	}
	if err := db.SetSourceActive(999, true); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGetStats(t *testing.T) {
	db := openTestDB(t)
	src := seedSource(t, db, "https://feed.example.com/rss")
	a := seedArticle(t, db, src, "https://a.com", nil, []string{"AI"})
	b := seedArticle(t, db, src, "https://b.com", nil, []string{})
	seedArticle(t, db, src, "https://c.com", nil, nil)
	db.SetRead(a, true)
	db.SetBookmarked(b, true)
	db.SetArticleNLP(b, []string{"Tech"}, ptr(0.2), ptr(int64(1)))

	stats, err := db.GetStats()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.TotalSources != 1 || stats.ActiveSources != 1 {
		t.Errorf("unexpected source stats: %+v", stats)
	}
	if stats.TotalArticles != 3 || stats.ReadArticles != 1 || stats.BookmarkedArticles != 1 {
		t.Errorf("unexpected article stats: %+v", stats)
	}
	if stats.TaggedArticles != 2 || stats.ScoredArticles != 1 || stats.Clusters != 1 {
		t.Errorf("unexpected enrichment stats: %+v", stats)
	}
}

func TestSentimentAggregate(t *testing.T) {
	db := openTestDB(t)
	src := seedSource(t, db, "https://feed.example.com/rss")

	scored := []struct {
		published *string
		score     float64
	}{
		{ptr("2026-02-09T08:00:00Z"), 0.6},
		{ptr("2026-02-09T20:00:00Z"), 0.1},
		{ptr("2026-02-08T09:00:00Z"), 0},
		{ptr("2026-02-08T10:00:00Z"), -0.2},
		{ptr("2026-02-07T10:00:00Z"), -0.7},
	}
	for i, s := range scored {
		id := seedArticle(t, db, src, fmt.Sprintf("https://example.com/%d", i), s.published, nil)
		if err := db.SetArticleNLP(id, nil, ptr(s.score), nil); err != nil {
			t.Fatalf("SetArticleNLP: %v", err)
		}
	}
	seedArticle(t, db, src, "https://example.com/unscored", ptr("2026-02-09T00:00:00Z"), nil)

	agg, err := db.SentimentAggregate()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if agg.Total != 5 {
		t.Errorf("expected total 5, got %d", agg.Total)
	}
	if agg.Positive != 1 || agg.SlightlyPositive != 1 || agg.Neutral != 1 || agg.SlightlyNegative != 1 || agg.Negative != 1 {
		t.Errorf("expected one article per bucket, got %+v", agg)
	}
	if len(agg.DailyTrends) != 3 {
		t.Fatalf("expected 3 days, got %v", agg.DailyTrends)
	}
	if d := agg.DailyTrends["2026-02-09"]; d.Positive != 2 || d.Neutral != 0 || d.Negative != 0 {
		t.Errorf("unexpected 2026-02-09 breakdown: %+v", d)
	}
	if d := agg.DailyTrends["2026-02-08"]; d.Positive != 0 || d.Neutral != 1 || d.Negative != 1 {
		t.Errorf("unexpected 2026-02-08 breakdown: %+v", d)
	}
}

func TestSentimentAggregateDailySkipsUndated(t *testing.T) {
	db := openTestDB(t)
	src := seedSource(t, db, "https://feed.example.com/rss")

	undated := seedArticle(t, db, src, "https://example.com/undated", nil, nil)
	if err := db.SetArticleNLP(undated, nil, ptr(0.8), nil); err != nil {
		t.Fatalf("SetArticleNLP: %v", err)
	}
	dated := seedArticle(t, db, src, "https://example.com/dated", ptr("2026-02-09T08:00:00Z"), nil)
	if err := db.SetArticleNLP(dated, nil, ptr(-0.8), nil); err != nil {
		t.Fatalf("SetArticleNLP: %v", err)
	}

	agg, err := db.SentimentAggregate()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if agg.Total != 2 || agg.Positive != 1 || agg.Negative != 1 {
		t.Errorf("expected both articles in the totals, got %+v", agg)
	}
	if len(agg.DailyTrends) != 1 {
		t.Fatalf("expected only the publication day, got %v", agg.DailyTrends)
	}
	if d := agg.DailyTrends["2026-02-09"]; d.Negative != 1 || d.Positive != 0 {
		t.Errorf("unexpected 2026-02-09 breakdown: %+v", d)
	}
}

func TestSentimentAggregateEmpty(t *testing.T) {
	db := openTestDB(t)
	agg, err := db.SentimentAggregate()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if agg.Total != 0 || agg.Positive != 0 || len(agg.DailyTrends) != 0 {
		t.Errorf("expected empty aggregate, got %+v", agg)
	}
}

func TestTopicTrends(t *testing.T) {
	db := openTestDB(t)
	src := seedSource(t, db, "https://feed.example.com/rss")
	seedArticle(t, db, src, "https://example.com/1", ptr("2026-02-09T12:00:00Z"), []string{"AI", "Climate"})
	seedArticle(t, db, src, "https://example.com/2", ptr("2026-02-01T12:00:00Z"), []string{"AI", "Space"})
	seedArticle(t, db, src, "https://example.com/3", ptr("2025-12-01T12:00:00Z"), []string{"Old"})
	seedArticle(t, db, src, "https://example.com/4", ptr("2026-02-10T10:00:00Z"), []string{"Climate", "A", "B", "C", "D", "E"})
	seedArticle(t, db, src, "https://example.com/5", ptr("2026-02-10T11:00:00Z"), nil)

	trend, err := db.TopicTrends(30, fixedNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	topics := trend.TrendingTopics

	var names []string
	for _, tt := range topics {
		names = append(names, tt.Topic)
	}
	if fmt.Sprint(names) != "[Climate AI A B C D Space]" {
		t.Fatalf("unexpected ranking: %v", names)
	}
	if topics[0].Count != 2 || *topics[0].GrowthPercent != 100 {
		t.Errorf("expected Climate 2/100%%, got %d/%v", topics[0].Count, *topics[0].GrowthPercent)
	}
	if topics[1].Count != 2 || *topics[1].GrowthPercent != 50 {
		t.Errorf("expected AI 2/50%%, got %d/%v", topics[1].Count, *topics[1].GrowthPercent)
	}
	if last := topics[len(topics)-1]; *last.GrowthPercent != 0 {
		t.Errorf("expected Space growth 0, got %v", *last.GrowthPercent)
	}

	all, err := db.TopicTrends(0, fixedNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all.TrendingTopics) != 8 {
		t.Errorf("expected 8 topics across all time, got %d", len(all.TrendingTopics))
	}
}

func TestTopicTrendsLimit(t *testing.T) {
	db := openTestDB(t)
	src := seedSource(t, db, "https://feed.example.com/rss")
	for i := 0; i < 6; i++ {
		var topics []string
		for j := 0; j < 5; j++ {
			topics = append(topics, fmt.Sprintf("t%d-%d", i, j))
		}
		seedArticle(t, db, src, fmt.Sprintf("https://example.com/%d", i), ptr("2026-02-10T00:00:00Z"), topics)
	}

	trend, err := db.TopicTrends(7, fixedNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(trend.TrendingTopics) != 20 {
		t.Errorf("expected 20 topics, got %d", len(trend.TrendingTopics))
	}
}

func TestSnapshot(t *testing.T) {
	db := openTestDB(t)
	src := seedSource(t, db, "https://feed.example.com/rss")
	id := seedArticle(t, db, src, "https://example.com/1", ptr("2026-02-09T12:00:00Z"), []string{"AI"})
	seedArticle(t, db, src, "https://example.com/2", nil, nil)
	db.SetRead(id, true)

	articles, sources, err := db.Snapshot()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(articles) != 2 || len(sources) != 1 {
		t.Fatalf("expected 2 articles and 1 source, got %d/%d", len(articles), len(sources))
	}
	first := articles[0]
	if first.ID != id || first.SourceID != src || !first.IsRead || first.PublishedDate != "2026-02-09T12:00:00Z" {
		t.Errorf("unexpected converted article: %+v", first)
	}
	if articles[1].PublishedDate != "" || articles[1].CollectedAt == "" {
		t.Errorf("expected empty published date and a collected date, got %+v", articles[1])
	}
	if sources[0].ID != src || !sources[0].IsActive || sources[0].Title == nil {
		t.Errorf("unexpected converted source: %+v", sources[0])
	}
}
