package analytics

import "sort"

const (
	FeedDetailLimit = 10
	FeedChartLimit  = 8

	untitledSource = "Untitled"
)

// FeedPerformance is a source's share of the filtered articles.
type FeedPerformance struct {
	SourceID int64  `json:"sourceId"`
	Name     string `json:"name"`
	Active   bool   `json:"active"`
	Total    int    `json:"total"`
	Read     int    `json:"read"`
	Unread   int    `json:"unread"`
	ReadRate int    `json:"readRate"`
}

// RankFeeds orders sources by article volume, descending. Sources without
// articles are omitted; ties keep first-seen order.
func RankFeeds(activity []SourceActivity, sources []Source) []FeedPerformance {
	byID := make(map[int64]Source, len(sources))
	for _, s := range sources {
		if _, ok := byID[s.ID]; !ok {
			byID[s.ID] = s
		}
	}

	ranked := make([]FeedPerformance, 0, len(activity))
	for _, a := range activity {
		if a.Total <= 0 {
			continue
		}
		fp := FeedPerformance{
			SourceID: a.SourceID,
			Name:     untitledSource,
			Total:    a.Total,
			Read:     a.Read,
			Unread:   a.Unread,
			ReadRate: percent(a.Read, a.Total),
		}
		if s, ok := byID[a.SourceID]; ok {
			if s.Title != nil {
				fp.Name = *s.Title
			}
			fp.Active = s.IsActive
		}
		ranked = append(ranked, fp)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Total > ranked[j].Total
	})
	return ranked
}

func topFeeds(ranked []FeedPerformance, n int) []FeedPerformance {
	n = min(n, len(ranked))
	out := make([]FeedPerformance, n)
	copy(out, ranked[:n])
	return out
}
