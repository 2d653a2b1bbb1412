// Package score rates article sentiment with an LLM provider.
package score

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"

	"github.com/TobiSchelling/FeedLens/internal/database"
	"github.com/TobiSchelling/FeedLens/internal/llm"
)

const scorePrompt = `You are rating the tone of news headlines for a personal reading dashboard.

Score the overall sentiment of this article from -1.0 (very negative) to 1.0 (very positive).
Use 0 for neutral, factual reporting. Judge the events described, not the writing quality.

Article Title: %s
Source: %s
Topics: %s

Respond with ONLY this JSON:
{
    "sentiment": a number between -1.0 and 1.0
}`

const maxTokens = 64

// Result holds the results of a scoring run.
type Result struct {
	Processed int
	Errors    int
}

// Scorer fills in missing article sentiment scores.
type Scorer struct {
	db       *database.DB
	provider llm.Provider
}

// NewScorer creates a new sentiment scorer.
func NewScorer(db *database.DB, provider llm.Provider) *Scorer {
	return &Scorer{db: db, provider: provider}
}

// ScoreArticles scores up to limit unscored articles. A limit of zero or
// less scores all of them. Replies that cannot be parsed count as errors and
// leave the article unscored for the next run.
func (s *Scorer) ScoreArticles(ctx context.Context, limit int) (*Result, error) {
	if s.provider == nil {
		return nil, fmt.Errorf("no LLM provider available for scoring")
	}

	articles, err := s.db.GetUnscoredArticles(limit)
	if err != nil {
		return nil, fmt.Errorf("getting unscored articles: %w", err)
	}
	if len(articles) == 0 {
		log.Println("No articles pending scoring")
		return &Result{}, nil
	}

	sources, err := s.db.GetSources()
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(sources))
	for _, src := range sources {
		if src.Title != nil {
			names[src.ID] = *src.Title
		}
	}

	r := &Result{}
	for _, a := range articles {
		if err := ctx.Err(); err != nil {
			return r, err
		}

		value, err := s.scoreArticle(ctx, a, names[a.SourceID])
		if err != nil {
			log.Printf("Error scoring article %d: %v", a.ID, err)
			r.Errors++
			continue
		}
		if err := s.db.SetSentiment(a.ID, value); err != nil {
			return r, fmt.Errorf("storing score for article %d: %w", a.ID, err)
		}
		r.Processed++
		log.Printf("Scored [%+.2f]: %s", value, a.Title)
	}

	log.Printf("Scoring complete: %d processed, %d errors", r.Processed, r.Errors)
	return r, nil
}

func (s *Scorer) scoreArticle(ctx context.Context, a database.Article, source string) (float64, error) {
	if source == "" {
		source = "Unknown"
	}
	topics := "None"
	if len(a.Topics) > 0 {
		topics = strings.Join(a.Topics, ", ")
	}

	reply, err := s.provider.Generate(ctx, fmt.Sprintf(scorePrompt, a.Title, source, topics), maxTokens)
	if err != nil {
		return 0, err
	}

	parsed := llm.ParseJSONResponse(reply)
	if parsed == nil {
		return 0, fmt.Errorf("unparseable reply %q", reply)
	}
	value, ok := llm.Float(parsed, "sentiment")
	if !ok || math.IsNaN(value) {
		return 0, fmt.Errorf("reply has no numeric sentiment: %q", reply)
	}
	return clamp(value), nil
}

func clamp(v float64) float64 {
	return math.Max(-1, math.Min(1, v))
}
