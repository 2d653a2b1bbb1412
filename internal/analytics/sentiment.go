package analytics

import (
	"sort"
	"time"
)

// Bucket identifies one of the five sentiment classes.
type Bucket string

const (
	BucketPositive         Bucket = "positive"
	BucketSlightlyPositive Bucket = "slightly_positive"
	BucketNeutral          Bucket = "neutral"
	BucketSlightlyNegative Bucket = "slightly_negative"
	BucketNegative         Bucket = "negative"
)

// ClassifySentiment maps a score in [-1,1] to its bucket.
func ClassifySentiment(score float64) Bucket {
	switch {
	case score >= 0.5:
		return BucketPositive
	case score >= 0.05:
		return BucketSlightlyPositive
	case score <= -0.5:
		return BucketNegative
	case score <= -0.05:
		return BucketSlightlyNegative
	default:
		return BucketNeutral
	}
}

// SentimentBucket is a labeled slice of the sentiment distribution.
type SentimentBucket struct {
	ID          Bucket `json:"id"`
	Label       string `json:"label"`
	Value       int    `json:"value"`
	Description string `json:"description"`
	Percent     int    `json:"percent"`
}

// SentimentTrendPoint is one day of the server-side sentiment trend.
type SentimentTrendPoint struct {
	DayKey   string    `json:"dayKey"`
	Date     time.Time `json:"date"`
	Positive int       `json:"positive"`
	Neutral  int       `json:"neutral"`
	Negative int       `json:"negative"`
}

var bucketMeta = []struct {
	id          Bucket
	label       string
	description string
}{
	{BucketPositive, "Positive", "Score of 0.5 or higher"},
	{BucketSlightlyPositive, "Slightly Positive", "Score from 0.05 up to 0.5"},
	{BucketNeutral, "Neutral", "Score between -0.05 and 0.05"},
	{BucketSlightlyNegative, "Slightly Negative", "Score from -0.5 up to -0.05"},
	{BucketNegative, "Negative", "Score of -0.5 or lower"},
}

// hasSentimentAggregate reports whether the server aggregate is authoritative.
func hasSentimentAggregate(ext *ExternalSentiment) bool {
	return ext != nil && ext.Total > 0
}

// externalSentiment takes the server counts verbatim.
func externalSentiment(ext *ExternalSentiment) (SentimentCounts, int) {
	return SentimentCounts{
		Positive:         ext.Positive,
		SlightlyPositive: ext.SlightlyPositive,
		Neutral:          ext.Neutral,
		SlightlyNegative: ext.SlightlyNegative,
		Negative:         ext.Negative,
	}, ext.Total
}

// localSentiment uses the locally tallied buckets; total is their sum.
func localSentiment(fallback SentimentCounts) (SentimentCounts, int) {
	return fallback, fallback.Sum()
}

// ResolveSentiment picks the server aggregate when it has data, otherwise
// the local fallback, and formats the five buckets in fixed order.
func ResolveSentiment(ext *ExternalSentiment, fallback SentimentCounts) ([]SentimentBucket, int, Provenance) {
	counts, total := localSentiment(fallback)
	source := ProvenanceLocal
	if hasSentimentAggregate(ext) {
		counts, total = externalSentiment(ext)
		source = ProvenanceExternal
	}

	values := []int{counts.Positive, counts.SlightlyPositive, counts.Neutral, counts.SlightlyNegative, counts.Negative}
	buckets := make([]SentimentBucket, len(bucketMeta))
	for i, m := range bucketMeta {
		buckets[i] = SentimentBucket{
			ID:          m.id,
			Label:       m.label,
			Value:       values[i],
			Description: m.description,
			Percent:     percent(values[i], total),
		}
	}
	return buckets, total, source
}

// SentimentTrend returns the server aggregate's per-day trend inside the
// window, ascending. There is no local fallback: without an aggregate the
// trend is empty.
func SentimentTrend(ext *ExternalSentiment, w Window, loc *time.Location) []SentimentTrendPoint {
	points := make([]SentimentTrendPoint, 0)
	if ext == nil {
		return points
	}
	for key, counts := range ext.DailyTrends {
		d, ok := parseDate(key, loc)
		if !ok {
			continue
		}
		if w.Bounded() && d.Before(*w.Cutoff) {
			continue
		}
		points = append(points, SentimentTrendPoint{
			DayKey:   key,
			Date:     d,
			Positive: counts.Positive,
			Neutral:  counts.Neutral,
			Negative: counts.Negative,
		})
	}
	sort.Slice(points, func(i, j int) bool {
		if points[i].Date.Equal(points[j].Date) {
			return points[i].DayKey < points[j].DayKey
		}
		return points[i].Date.Before(points[j].Date)
	})
	return points
}
