package analytics

import (
	"net/url"
	"sort"
	"strings"
)

const (
	ClusterTopicLimit     = 3
	ClusterArticleIDLimit = 10
)

// ClusterSummary describes one cluster of related articles.
type ClusterSummary struct {
	ClusterID    int64    `json:"clusterId"`
	ArticleCount int      `json:"articleCount"`
	ArticleIDs   []int64  `json:"articleIds"`
	Topics       []string `json:"topics"`
	Domains      []string `json:"domains"`
}

// ClusterTopics returns the three most frequent topics among the articles
// whose IDs are in memberIDs. IDs without a matching article are skipped.
func ClusterTopics(memberIDs []int64, articles []Article) []string {
	members := make(map[int64]struct{}, len(memberIDs))
	for _, id := range memberIDs {
		members[id] = struct{}{}
	}

	index := make(map[string]int)
	counts := make([]TopicCount, 0)
	for _, a := range articles {
		if _, ok := members[a.ID]; !ok {
			continue
		}
		for _, t := range a.Topics {
			i, ok := index[t]
			if !ok {
				i = len(counts)
				index[t] = i
				counts = append(counts, TopicCount{Topic: t})
			}
			counts[i].Count++
		}
	}

	ranked := rankTopics(counts, ClusterTopicLimit)
	topics := make([]string, len(ranked))
	for i, tc := range ranked {
		topics[i] = tc.Topic
	}
	return topics
}

// SummarizeClusters groups the full article set by cluster, largest first.
func SummarizeClusters(articles []Article) []ClusterSummary {
	index := make(map[int64]int)
	groups := make([]ClusterSummary, 0)
	members := make([][]int64, 0)
	for _, a := range articles {
		if a.ClusterID == nil {
			continue
		}
		i, ok := index[*a.ClusterID]
		if !ok {
			i = len(groups)
			index[*a.ClusterID] = i
			groups = append(groups, ClusterSummary{ClusterID: *a.ClusterID})
			members = append(members, nil)
		}
		members[i] = append(members[i], a.ID)
	}

	for i := range groups {
		ids := members[i]
		groups[i].ArticleCount = len(ids)
		groups[i].ArticleIDs = append([]int64(nil), ids[:min(len(ids), ClusterArticleIDLimit)]...)
		groups[i].Topics = ClusterTopics(ids, articles)
		groups[i].Domains = clusterDomains(ids, articles)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].ArticleCount > groups[j].ArticleCount
	})
	return groups
}

func clusterDomains(ids []int64, articles []Article) []string {
	members := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		members[id] = struct{}{}
	}
	seen := make(map[string]struct{})
	domains := make([]string, 0)
	for _, a := range articles {
		if _, ok := members[a.ID]; !ok {
			continue
		}
		d := DisplayDomain(a.Link)
		if d == "" {
			continue
		}
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		domains = append(domains, d)
	}
	return domains
}

// DisplayDomain returns the host of link without a leading "www.", or "" if
// the link has no resolvable host.
func DisplayDomain(link string) string {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil || u.Hostname() == "" {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}
