package database

// Source is a subscribed feed.
type Source struct {
	ID        int64
	URL       string
	Title     *string
	IsActive  bool
	CreatedAt *string
}

// Article represents a collected article.
type Article struct {
	ID             int64
	SourceID       int64
	Link           string
	Title          string
	PublishedDate  *string
	CollectedAt    *string
	IsRead         bool
	IsBookmarked   bool
	Topics         []string
	SentimentScore *float64
	ClusterID      *int64
}

// Stats contains aggregate database statistics.
type Stats struct {
	TotalSources       int
	ActiveSources      int
	TotalArticles      int
	ReadArticles       int
	BookmarkedArticles int
	TaggedArticles     int
	ScoredArticles     int
	Clusters           int
}
