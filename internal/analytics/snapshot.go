// Package analytics derives reading-activity dashboards from article and
// source snapshots. Every function is pure: inputs are never mutated and no
// I/O is performed.
package analytics

import "time"

// Input is everything a snapshot is computed from. Sentiment and TopicTrend
// are optional server aggregates; nil selects the local fallbacks. A zero Now
// means time.Now(), and its location defines the calendar.
type Input struct {
	Articles   []Article
	Sources    []Source
	Range      TimeRange
	Sentiment  *ExternalSentiment
	TopicTrend *ExternalTopicTrend
	Now        time.Time
}

// Snapshot is the derived dashboard. It is replaced wholesale on recompute
// and must not be mutated by callers.
type Snapshot struct {
	Range            TimeRange             `json:"range"`
	Window           Window                `json:"window"`
	Engagement       Engagement            `json:"engagement"`
	DailyActivity    []DayPoint            `json:"dailyActivity"`
	LongestStreak    int                   `json:"longestStreak"`
	Sentiment        []SentimentBucket     `json:"sentiment"`
	SentimentTotal   int                   `json:"sentimentTotal"`
	SentimentSource  Provenance            `json:"sentimentSource"`
	SentimentTrend   []SentimentTrendPoint `json:"sentimentTrend"`
	TopicTrends      []TopicTrend          `json:"topicTrends"`
	TopicTrendSource Provenance            `json:"topicTrendSource"`
	FeedPerformance  []FeedPerformance     `json:"feedPerformance"`
	FeedChart        []FeedPerformance     `json:"feedChart"`
	Clusters         []ClusterSummary      `json:"clusters"`
}

// Compute runs the full pipeline over in.
func Compute(in Input) Snapshot {
	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}
	loc := now.Location()

	w := ResolveWindow(in.Range, now)
	filtered := FilterArticles(in.Articles, w, loc)
	eng := Aggregate(filtered, in.Sources, w, loc)
	daily := BuildDailyActivity(filtered, w, now)
	buckets, sentimentTotal, sentimentSource := ResolveSentiment(in.Sentiment, eng.FallbackSentiment)
	trends, topicSource := ResolveTopicTrends(in.TopicTrend, eng.TopTopics)
	ranked := RankFeeds(eng.Sources, in.Sources)

	return Snapshot{
		Range:            in.Range,
		Window:           w,
		Engagement:       eng,
		DailyActivity:    daily,
		LongestStreak:    LongestReadStreak(daily),
		Sentiment:        buckets,
		SentimentTotal:   sentimentTotal,
		SentimentSource:  sentimentSource,
		SentimentTrend:   SentimentTrend(in.Sentiment, w, loc),
		TopicTrends:      trends,
		TopicTrendSource: topicSource,
		FeedPerformance:  topFeeds(ranked, FeedDetailLimit),
		FeedChart:        topFeeds(ranked, FeedChartLimit),
		Clusters:         SummarizeClusters(in.Articles),
	}
}
