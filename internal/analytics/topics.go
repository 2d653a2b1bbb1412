package analytics

// TopicTrendLimit caps a locally derived trend list.
const TopicTrendLimit = 8

func hasTopicTrend(ext *ExternalTopicTrend) bool {
	return ext != nil && len(ext.TrendingTopics) > 0
}

// localTopicTrends derives trends from the ranked topic counts. Growth is
// unknown without history, so GrowthPercent stays nil.
func localTopicTrends(top []TopicCount) []TopicTrend {
	n := min(len(top), TopicTrendLimit)
	trends := make([]TopicTrend, n)
	for i := 0; i < n; i++ {
		trends[i] = TopicTrend{Topic: top[i].Topic, Count: top[i].Count}
	}
	return trends
}

// ResolveTopicTrends uses the server list verbatim when it is non-empty,
// otherwise derives up to TopicTrendLimit entries from top.
func ResolveTopicTrends(ext *ExternalTopicTrend, top []TopicCount) ([]TopicTrend, Provenance) {
	if !hasTopicTrend(ext) {
		return localTopicTrends(top), ProvenanceLocal
	}
	trends := make([]TopicTrend, len(ext.TrendingTopics))
	for i, t := range ext.TrendingTopics {
		trends[i] = t
		if t.GrowthPercent != nil {
			g := *t.GrowthPercent
			trends[i].GrowthPercent = &g
		}
	}
	return trends, ProvenanceExternal
}
