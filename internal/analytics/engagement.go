package analytics

import (
	"math"
	"sort"
	"time"
)

// TopTopicLimit caps Engagement.TopTopics.
const TopTopicLimit = 15

// TopicCount is a topic and how many articles carried it.
type TopicCount struct {
	Topic string `json:"topic"`
	Count int    `json:"count"`
}

// SourceActivity is the per-source split of the filtered articles.
type SourceActivity struct {
	SourceID int64 `json:"sourceId"`
	Total    int   `json:"total"`
	Read     int   `json:"read"`
	Unread   int   `json:"unread"`
}

// SentimentCounts tallies articles per sentiment bucket.
type SentimentCounts struct {
	Positive         int `json:"positive"`
	SlightlyPositive int `json:"slightlyPositive"`
	Neutral          int `json:"neutral"`
	SlightlyNegative int `json:"slightlyNegative"`
	Negative         int `json:"negative"`
}

// Sum returns the number of articles across all buckets.
func (c SentimentCounts) Sum() int {
	return c.Positive + c.SlightlyPositive + c.Neutral + c.SlightlyNegative + c.Negative
}

func (c *SentimentCounts) add(score float64) {
	switch ClassifySentiment(score) {
	case BucketPositive:
		c.Positive++
	case BucketSlightlyPositive:
		c.SlightlyPositive++
	case BucketNeutral:
		c.Neutral++
	case BucketSlightlyNegative:
		c.SlightlyNegative++
	default:
		c.Negative++
	}
}

// Engagement is the result of the single aggregation pass.
type Engagement struct {
	Total             int          `json:"total"`
	ReadCount         int          `json:"readCount"`
	UnreadCount       int          `json:"unreadCount"`
	BookmarkCount     int          `json:"bookmarkCount"`
	ReadRate          int          `json:"readRate"`
	ActiveSourceCount int          `json:"activeSourceCount"`
	UniqueDays        int          `json:"uniqueDays"`
	AveragePerDay     int          `json:"averagePerDay"`
	TopTopics         []TopicCount `json:"topTopics"`

	// Topics holds every topic in first-seen order.
	Topics            []TopicCount     `json:"-"`
	Sources           []SourceActivity `json:"-"`
	FallbackSentiment SentimentCounts  `json:"fallbackSentiment"`
}

// Aggregate walks the filtered articles once. Sources is the full, unfiltered
// source list.
func Aggregate(filtered []Article, sources []Source, w Window, loc *time.Location) Engagement {
	e := Engagement{Total: len(filtered)}

	days := make(map[string]struct{})
	topicIndex := make(map[string]int)
	sourceIndex := make(map[int64]int)
	topics := make([]TopicCount, 0)
	perSource := make([]SourceActivity, 0)

	for _, a := range filtered {
		i, ok := sourceIndex[a.SourceID]
		if !ok {
			i = len(perSource)
			sourceIndex[a.SourceID] = i
			perSource = append(perSource, SourceActivity{SourceID: a.SourceID})
		}
		perSource[i].Total++

		if a.IsRead {
			e.ReadCount++
			perSource[i].Read++
		} else {
			e.UnreadCount++
			perSource[i].Unread++
		}
		if a.IsBookmarked {
			e.BookmarkCount++
		}

		if d, ok := a.EffectiveDate(loc); ok {
			days[dayKey(d)] = struct{}{}
		}

		for _, t := range a.Topics {
			j, ok := topicIndex[t]
			if !ok {
				j = len(topics)
				topicIndex[t] = j
				topics = append(topics, TopicCount{Topic: t})
			}
			topics[j].Count++
		}

		if a.SentimentScore != nil && !math.IsNaN(*a.SentimentScore) {
			e.FallbackSentiment.add(*a.SentimentScore)
		}
	}

	for _, s := range sources {
		if s.IsActive {
			e.ActiveSourceCount++
		}
	}

	e.ReadRate = percent(e.ReadCount, e.Total)

	e.UniqueDays = len(days)
	if e.UniqueDays == 0 {
		e.UniqueDays = w.Days
	}
	if e.UniqueDays > 0 {
		e.AveragePerDay = int(math.Round(float64(e.Total) / float64(e.UniqueDays)))
	} else {
		e.AveragePerDay = e.Total
	}

	e.Topics = topics
	e.Sources = perSource
	e.TopTopics = rankTopics(topics, TopTopicLimit)
	return e
}

// rankTopics sorts a copy by count descending, keeping first-seen order on ties.
func rankTopics(topics []TopicCount, limit int) []TopicCount {
	ranked := make([]TopicCount, len(topics))
	copy(ranked, topics)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// percent returns round(n/d*100) clamped to [0,100], or 0 when d is not positive.
func percent(n, d int) int {
	if d <= 0 {
		return 0
	}
	p := int(math.Round(float64(n) / float64(d) * 100))
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
