package analytics

import "time"

// Article is the read-only view of a collected article the engine consumes.
type Article struct {
	ID             int64    `json:"id"`
	SourceID       int64    `json:"sourceId"`
	PublishedDate  string   `json:"publishedDate,omitempty"`
	CollectedAt    string   `json:"collectedAt,omitempty"`
	IsRead         bool     `json:"isRead"`
	IsBookmarked   bool     `json:"isBookmarked"`
	Topics         []string `json:"topics,omitempty"`
	SentimentScore *float64 `json:"sentimentScore,omitempty"`
	ClusterID      *int64   `json:"clusterId,omitempty"`
	Link           string   `json:"link"`
}

// EffectiveDate returns the publication date, falling back to the ingestion
// date. The second result is false when neither parses.
func (a Article) EffectiveDate(loc *time.Location) (time.Time, bool) {
	if t, ok := parseDate(a.PublishedDate, loc); ok {
		return t, true
	}
	return parseDate(a.CollectedAt, loc)
}

// Source is a subscribed feed.
type Source struct {
	ID       int64   `json:"id"`
	Title    *string `json:"title"`
	IsActive bool    `json:"isActive"`
}

// DailySentiment holds the collapsed per-day sentiment counts of a server aggregate.
type DailySentiment struct {
	Positive int `json:"positive"`
	Neutral  int `json:"neutral"`
	Negative int `json:"negative"`
}

// ExternalSentiment is a server-computed sentiment distribution.
type ExternalSentiment struct {
	Positive         int                       `json:"positive"`
	SlightlyPositive int                       `json:"slightlyPositive"`
	Neutral          int                       `json:"neutral"`
	SlightlyNegative int                       `json:"slightlyNegative"`
	Negative         int                       `json:"negative"`
	Total            int                       `json:"total"`
	DailyTrends      map[string]DailySentiment `json:"dailyTrends"`
}

// TopicTrend is one entry of a trending-topics list. GrowthPercent is nil
// when the list was derived locally.
type TopicTrend struct {
	Topic         string   `json:"topic"`
	Count         int      `json:"count"`
	GrowthPercent *float64 `json:"growthPercent"`
}

// ExternalTopicTrend is a server-computed trending-topics list.
type ExternalTopicTrend struct {
	TrendingTopics []TopicTrend `json:"trendingTopics"`
}

// Provenance names which branch a resolver took.
type Provenance string

const (
	ProvenanceExternal Provenance = "external"
	ProvenanceLocal    Provenance = "local"
)
