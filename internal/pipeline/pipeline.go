// Package pipeline runs collection and enrichment as one pass.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/TobiSchelling/FeedLens/internal/cluster"
	"github.com/TobiSchelling/FeedLens/internal/collect"
	"github.com/TobiSchelling/FeedLens/internal/config"
	"github.com/TobiSchelling/FeedLens/internal/database"
	"github.com/TobiSchelling/FeedLens/internal/llm"
	"github.com/TobiSchelling/FeedLens/internal/score"
)

// StepResult holds the result of a single pipeline step.
type StepResult struct {
	Name    string
	Summary string
	Err     error
}

// Result holds the results of a full pipeline run.
type Result struct {
	Steps []StepResult
}

// Failed reports whether any step returned an error.
func (r *Result) Failed() bool {
	for _, s := range r.Steps {
		if s.Err != nil {
			return true
		}
	}
	return false
}

// Pipeline orchestrates collect, score and cluster.
type Pipeline struct {
	cfg      *config.Config
	db       *database.DB
	provider llm.Provider
}

// New creates a new pipeline. A nil provider skips the scoring step.
func New(cfg *config.Config, db *database.DB, provider llm.Provider) *Pipeline {
	return &Pipeline{cfg: cfg, db: db, provider: provider}
}

// Run executes every step. A collect failure stops the run; scoring and
// clustering errors are recorded and the next step still runs.
func (p *Pipeline) Run(ctx context.Context, now time.Time) *Result {
	r := &Result{}

	step := p.runCollect(ctx)
	r.Steps = append(r.Steps, step)
	if step.Err != nil {
		return r
	}

	r.Steps = append(r.Steps, p.runScore(ctx))
	if ctx.Err() != nil {
		return r
	}
	r.Steps = append(r.Steps, p.runCluster(ctx, now))
	return r
}

// DryRun reports what Run would work on without touching feeds or the store.
func (p *Pipeline) DryRun() *Result {
	r := &Result{}

	active := 0
	for _, f := range p.cfg.Feeds {
		if f.IsActive() {
			active++
		}
	}
	r.Steps = append(r.Steps, StepResult{
		Name:    "Collect",
		Summary: fmt.Sprintf("[dry-run] %d of %d configured feeds are active", active, len(p.cfg.Feeds)),
	})

	unscored, err := p.db.GetUnscoredArticles(p.cfg.Scoring.BatchSize)
	provider := "no LLM provider, step would be skipped"
	if p.provider != nil {
		provider = "LLM provider ready"
	}
	r.Steps = append(r.Steps, StepResult{
		Name:    "Score",
		Summary: fmt.Sprintf("[dry-run] %d articles need scoring (%s)", len(unscored), provider),
		Err:     err,
	})

	r.Steps = append(r.Steps, StepResult{
		Name: "Cluster",
		Summary: fmt.Sprintf("[dry-run] Would cluster articles from the last %s at threshold %.2f",
			p.cfg.ClusterRange(), p.cfg.Cluster.DistanceThreshold),
	})
	return r
}

func (p *Pipeline) runCollect(ctx context.Context) StepResult {
	log.Println("Step 1/3: Collecting articles...")
	result, err := collect.NewCollector(p.cfg.Feeds, p.db).Collect(ctx)
	if err != nil {
		return StepResult{Name: "Collect", Err: err}
	}
	summary := fmt.Sprintf("Found %d new articles (%d total, %d duplicates)", result.NewArticles, result.TotalFound, result.Duplicates)
	if result.FailedFeeds > 0 {
		summary += fmt.Sprintf(", %d feeds failed", result.FailedFeeds)
	}
	return StepResult{Name: "Collect", Summary: summary}
}

func (p *Pipeline) runScore(ctx context.Context) StepResult {
	log.Println("Step 2/3: Scoring sentiment...")
	if p.provider == nil {
		return StepResult{Name: "Score", Summary: "Skipped: no LLM provider available"}
	}
	result, err := score.NewScorer(p.db, p.provider).ScoreArticles(ctx, p.cfg.Scoring.BatchSize)
	if err != nil {
		return StepResult{Name: "Score", Err: err}
	}
	return StepResult{
		Name:    "Score",
		Summary: fmt.Sprintf("Scored %d articles, %d errors", result.Processed, result.Errors),
	}
}

func (p *Pipeline) runCluster(ctx context.Context, now time.Time) StepResult {
	log.Println("Step 3/3: Clustering stories...")
	c := cluster.NewClusterer(p.db, p.cfg.Cluster.DistanceThreshold)
	result, err := c.ClusterArticles(ctx, p.cfg.ClusterRange(), now)
	if err != nil {
		return StepResult{Name: "Cluster", Err: err}
	}
	return StepResult{
		Name:    "Cluster",
		Summary: fmt.Sprintf("Created %d clusters from %d articles", len(result.Clusters), result.ArticleCount),
	}
}
