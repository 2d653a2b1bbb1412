// Package report renders analytics snapshots as markdown.
package report

import (
	"fmt"
	"strings"

	"github.com/TobiSchelling/FeedLens/internal/analytics"
)

const maxClusters = 10

// Markdown renders the full dashboard for a snapshot.
func Markdown(s analytics.Snapshot) string {
	sections := []string{
		"# " + Title(s.Range),
		engagementSection(s),
		dailySection(s.DailyActivity),
		sentimentSection(s),
	}
	if len(s.SentimentTrend) > 0 {
		sections = append(sections, sentimentTrendSection(s.SentimentTrend))
	}
	sections = append(sections,
		topicSection(s.TopicTrends, s.TopicTrendSource),
		feedSection(s.FeedPerformance),
	)
	if len(s.Clusters) > 0 {
		sections = append(sections, clusterSection(s.Clusters))
	}
	return strings.Join(sections, "\n\n") + "\n"
}

// Title describes the window a snapshot covers.
func Title(r analytics.TimeRange) string {
	if r == analytics.RangeAll {
		return "Reading activity (all time)"
	}
	return fmt.Sprintf("Reading activity (last %d days)", int(r))
}

func engagementSection(s analytics.Snapshot) string {
	e := s.Engagement
	rows := [][2]string{
		{"Articles", fmt.Sprint(e.Total)},
		{"Read", fmt.Sprintf("%d (%d%%)", e.ReadCount, e.ReadRate)},
		{"Unread", fmt.Sprint(e.UnreadCount)},
		{"Bookmarked", fmt.Sprint(e.BookmarkCount)},
		{"Active feeds", fmt.Sprint(e.ActiveSourceCount)},
		{"Days with articles", fmt.Sprint(e.UniqueDays)},
		{"Average per day", fmt.Sprint(e.AveragePerDay)},
		{"Longest read streak", pluralDays(s.LongestStreak)},
	}

	var b strings.Builder
	b.WriteString("## Engagement\n\n| Metric | Value |\n| --- | ---: |")
	for _, r := range rows {
		fmt.Fprintf(&b, "\n| %s | %s |", r[0], r[1])
	}
	return b.String()
}

func dailySection(points []analytics.DayPoint) string {
	if len(points) == 0 {
		return "## Daily activity\n\n_No dated articles._"
	}
	var b strings.Builder
	b.WriteString("## Daily activity\n\n| Day | Read | Unread | Total |\n| --- | ---: | ---: | ---: |")
	for _, p := range points {
		fmt.Fprintf(&b, "\n| %s | %d | %d | %d |", cell(p.Label), p.Read, p.Unread, p.Total)
	}
	return b.String()
}

func sentimentSection(s analytics.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Sentiment\n\n%d scored articles (%s).\n", s.SentimentTotal, s.SentimentSource)
	for _, bucket := range s.Sentiment {
		fmt.Fprintf(&b, "\n- **%s**: %d (%d%%)", bucket.Label, bucket.Value, bucket.Percent)
	}
	return b.String()
}

func sentimentTrendSection(points []analytics.SentimentTrendPoint) string {
	var b strings.Builder
	b.WriteString("### Sentiment by day\n\n| Day | Positive | Neutral | Negative |\n| --- | ---: | ---: | ---: |")
	for _, p := range points {
		fmt.Fprintf(&b, "\n| %s | %d | %d | %d |", cell(p.DayKey), p.Positive, p.Neutral, p.Negative)
	}
	return b.String()
}

func topicSection(trends []analytics.TopicTrend, source analytics.Provenance) string {
	if len(trends) == 0 {
		return "## Trending topics\n\n_No topics yet._"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "## Trending topics\n\nSource: %s.\n", source)
	for _, t := range trends {
		fmt.Fprintf(&b, "\n- %s: %d", cell(t.Topic), t.Count)
		if t.GrowthPercent != nil {
			fmt.Fprintf(&b, " (%+.0f%%)", *t.GrowthPercent)
		}
	}
	return b.String()
}

func feedSection(feeds []analytics.FeedPerformance) string {
	if len(feeds) == 0 {
		return "## Feeds\n\n_No articles in this window._"
	}
	var b strings.Builder
	b.WriteString("## Feeds\n\n| Feed | Articles | Read | Unread | Read rate |\n| --- | ---: | ---: | ---: | ---: |")
	for _, f := range feeds {
		name := cell(f.Name)
		if !f.Active {
			name += " (inactive)"
		}
		fmt.Fprintf(&b, "\n| %s | %d | %d | %d | %d%% |", name, f.Total, f.Read, f.Unread, f.ReadRate)
	}
	return b.String()
}

func clusterSection(clusters []analytics.ClusterSummary) string {
	var b strings.Builder
	b.WriteString("## Story clusters\n")
	for i, c := range clusters {
		if i == maxClusters {
			fmt.Fprintf(&b, "\n- %d more", len(clusters)-maxClusters)
			break
		}
		fmt.Fprintf(&b, "\n- Cluster %d: %d articles", c.ClusterID, c.ArticleCount)
		if len(c.Topics) > 0 {
			fmt.Fprintf(&b, ". Topics: %s", cell(strings.Join(c.Topics, ", ")))
		}
		if len(c.Domains) > 0 {
			fmt.Fprintf(&b, ". Domains: %s", strings.Join(c.Domains, ", "))
		}
	}
	return b.String()
}

var cellReplacer = strings.NewReplacer("|", `\|`, "\r\n", " ", "\n", " ", "\r", " ")

// cell makes free text safe inside a single markdown table row.
func cell(s string) string {
	return cellReplacer.Replace(s)
}

func pluralDays(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}
