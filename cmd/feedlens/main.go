package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/TobiSchelling/FeedLens/internal/analytics"
	"github.com/TobiSchelling/FeedLens/internal/cluster"
	"github.com/TobiSchelling/FeedLens/internal/collect"
	"github.com/TobiSchelling/FeedLens/internal/config"
	"github.com/TobiSchelling/FeedLens/internal/database"
	"github.com/TobiSchelling/FeedLens/internal/llm"
	"github.com/TobiSchelling/FeedLens/internal/pipeline"
	"github.com/TobiSchelling/FeedLens/internal/report"
	"github.com/TobiSchelling/FeedLens/internal/score"
	"github.com/TobiSchelling/FeedLens/internal/server"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "feedlens",
	Short:   "Reading analytics for your feeds",
	Long:    "FeedLens collects RSS/Atom feeds and reports on what you read: engagement, streaks, sentiment, topics and feed performance.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setLogFlags(verbose)

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if strings.EqualFold(cfg.Logging.Level, "DEBUG") {
			setLogFlags(true)
		}
		return nil
	},
}

func setLogFlags(debug bool) {
	if debug {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	} else {
		log.SetFlags(log.LstdFlags)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(collectCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(markCmd)
	rootCmd.AddCommand(enrichCmd)
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(clusterCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("feedlens", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in the XDG config directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to configure your feeds and default range.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database status",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		fmt.Printf("Database: %s\n\n", db.Path())
		fmt.Println("Feeds:")
		fmt.Printf("  Configured: %d\n", len(cfg.Feeds))
		fmt.Printf("  Stored: %d\n", stats.TotalSources)
		fmt.Printf("  Active: %d\n", stats.ActiveSources)
		fmt.Println("\nArticles:")
		fmt.Printf("  Total collected: %d\n", stats.TotalArticles)
		fmt.Printf("  Read: %d\n", stats.ReadArticles)
		fmt.Printf("  Bookmarked: %d\n", stats.BookmarkedArticles)
		fmt.Println("\nEnrichment:")
		fmt.Printf("  Tagged: %d\n", stats.TaggedArticles)
		fmt.Printf("  Sentiment scored: %d\n", stats.ScoredArticles)
		fmt.Printf("  Clusters: %d\n", stats.Clusters)
		return nil
	},
}

// --- collect command ---

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Collect articles from configured feeds",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		fmt.Println("Collecting articles from feeds...")
		result, err := collect.NewCollector(cfg.Feeds, db).Collect(cmd.Context())
		if err != nil {
			return fmt.Errorf("collecting: %w", err)
		}

		fmt.Println("\nCollection complete:")
		fmt.Printf("  Total found: %d\n", result.TotalFound)
		fmt.Printf("  New articles: %d\n", result.NewArticles)
		fmt.Printf("  Duplicates skipped: %d\n", result.Duplicates)
		if result.FailedFeeds > 0 {
			fmt.Printf("  Feeds failed: %d\n", result.FailedFeeds)
		}

		if len(result.Sources) > 0 {
			fmt.Println("\nArticles by source:")
			// Sort sources by count descending
			type kv struct {
				key string
				val int
			}
			var sorted []kv
			for k, v := range result.Sources {
				sorted = append(sorted, kv{k, v})
			}
			sort.Slice(sorted, func(i, j int) bool {
				if sorted[i].val != sorted[j].val {
					return sorted[i].val > sorted[j].val
				}
				return sorted[i].key < sorted[j].key
			})
			for _, s := range sorted {
				fmt.Printf("  %s: %d\n", s.key, s.val)
			}
		}
		return nil
	},
}

// --- stats command ---

var (
	statsRange string
	statsLocal bool
	statsJSON  bool
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print the reading analytics dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		rng := cfg.DefaultRange()
		if statsRange != "" {
			parsed, err := analytics.ParseTimeRange(statsRange)
			if err != nil {
				return err
			}
			rng = parsed
		}

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		snap, err := computeSnapshot(db, rng, statsLocal, time.Now())
		if err != nil {
			return err
		}

		if statsJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(snap)
		}
		fmt.Print(report.Markdown(snap))
		return nil
	},
}

func init() {
	statsCmd.Flags().StringVarP(&statsRange, "range", "r", "", "Time range: 7, 30, 90 or all (default from config)")
	statsCmd.Flags().BoolVar(&statsLocal, "local", false, "Ignore server aggregates and derive sentiment and topics locally")
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "Print the snapshot as JSON")
}

// computeSnapshot loads the store and runs the analytics pipeline.
func computeSnapshot(db *database.DB, rng analytics.TimeRange, local bool, now time.Time) (analytics.Snapshot, error) {
	articles, sources, err := db.Snapshot()
	if err != nil {
		return analytics.Snapshot{}, err
	}
	in := analytics.Input{Articles: articles, Sources: sources, Range: rng, Now: now}

	if !local {
		if in.Sentiment, err = db.SentimentAggregate(); err != nil {
			return analytics.Snapshot{}, fmt.Errorf("sentiment aggregate: %w", err)
		}
		if in.TopicTrend, err = db.TopicTrends(int(rng), now); err != nil {
			return analytics.Snapshot{}, fmt.Errorf("topic trends: %w", err)
		}
	}
	return analytics.Compute(in), nil
}

// --- mark command ---

var (
	markRead       bool
	markUnread     bool
	markBookmark   bool
	markUnbookmark bool
)

var markCmd = &cobra.Command{
	Use:   "mark <article-id>",
	Short: "Mark an article read/unread or toggle its bookmark",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid article id: %s", args[0])
		}
		if !markRead && !markUnread && !markBookmark && !markUnbookmark {
			return fmt.Errorf("nothing to do; pass --read, --unread, --bookmark or --unbookmark")
		}

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		if markRead || markUnread {
			if err := db.SetRead(id, markRead); err != nil {
				return articleErr(id, err)
			}
		}
		if markBookmark || markUnbookmark {
			if err := db.SetBookmarked(id, markBookmark); err != nil {
				return articleErr(id, err)
			}
		}

		a, err := db.GetArticleByID(id)
		if err != nil {
			return err
		}
		fmt.Printf("[%d] %s (read: %t, bookmarked: %t)\n", a.ID, a.Title, a.IsRead, a.IsBookmarked)
		return nil
	},
}

func init() {
	markCmd.Flags().BoolVar(&markRead, "read", false, "Mark as read")
	markCmd.Flags().BoolVar(&markUnread, "unread", false, "Mark as unread")
	markCmd.Flags().BoolVar(&markBookmark, "bookmark", false, "Add a bookmark")
	markCmd.Flags().BoolVar(&markUnbookmark, "unbookmark", false, "Remove the bookmark")
	markCmd.MarkFlagsMutuallyExclusive("read", "unread")
	markCmd.MarkFlagsMutuallyExclusive("bookmark", "unbookmark")
}

func articleErr(id int64, err error) error {
	if errors.Is(err, database.ErrNotFound) {
		return fmt.Errorf("article %d not found", id)
	}
	return err
}

// --- enrich command ---

// enrichment is one record produced by an external NLP pass. Omitted fields
// keep their stored values.
type enrichment struct {
	ID        int64     `json:"id"`
	Topics    *[]string `json:"topics"`
	Sentiment *float64  `json:"sentiment"`
	ClusterID *int64    `json:"clusterId"`
}

var enrichCmd = &cobra.Command{
	Use:   "enrich <file.json>",
	Short: "Import topics, sentiment scores and clusters from a JSON array",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading %s: %w", args[0], err)
		}
		var records []enrichment
		if err := json.Unmarshal(data, &records); err != nil {
			return fmt.Errorf("parsing %s: %w", args[0], err)
		}

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		var applied, missing int
		for _, r := range records {
			err := db.ApplyEnrichment(r.ID, database.Enrichment{
				Topics:    r.Topics,
				Sentiment: r.Sentiment,
				ClusterID: r.ClusterID,
			})
			switch {
			case errors.Is(err, database.ErrNotFound):
				log.Printf("Skipping unknown article %d", r.ID)
				missing++
			case err != nil:
				return fmt.Errorf("article %d: %w", r.ID, err)
			default:
				applied++
			}
		}
		fmt.Printf("Enriched %d articles (%d unknown)\n", applied, missing)
		return nil
	},
}

// --- score command ---

var scoreLimit int

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Rate the sentiment of unscored articles with an LLM",
	RunE: func(cmd *cobra.Command, args []string) error {
		provider := newProvider()
		if provider == nil {
			return fmt.Errorf("no LLM provider available")
		}

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		limit := cfg.Scoring.BatchSize
		if cmd.Flags().Changed("limit") {
			limit = scoreLimit
		}
		result, err := score.NewScorer(db, provider).ScoreArticles(cmd.Context(), limit)
		if err != nil {
			return fmt.Errorf("scoring: %w", err)
		}
		fmt.Printf("Scored %d articles (%d errors)\n", result.Processed, result.Errors)
		return nil
	},
}

func init() {
	scoreCmd.Flags().IntVarP(&scoreLimit, "limit", "n", 0, "Maximum articles to score, 0 for all (default from config)")
}

func newProvider() llm.Provider {
	s := cfg.Scoring
	return llm.CreateProvider(s.Provider, s.Model, s.OllamaURL, s.OpenAIModel, s.APIKeyEnv)
}

// --- cluster command ---

var (
	clusterRange     string
	clusterThreshold float64
)

var clusterCmd = &cobra.Command{
	Use:   "cluster",
	Short: "Group recent articles into story clusters",
	RunE: func(cmd *cobra.Command, args []string) error {
		rng := cfg.ClusterRange()
		if clusterRange != "" {
			parsed, err := analytics.ParseTimeRange(clusterRange)
			if err != nil {
				return err
			}
			rng = parsed
		}
		threshold := cfg.Cluster.DistanceThreshold
		if cmd.Flags().Changed("threshold") {
			threshold = clusterThreshold
		}

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		result, err := cluster.NewClusterer(db, threshold).ClusterArticles(cmd.Context(), rng, time.Now())
		if err != nil {
			return fmt.Errorf("clustering: %w", err)
		}

		fmt.Printf("Clustered %d articles: %d clusters, %d unclustered\n",
			result.ArticleCount, len(result.Clusters), result.Unclustered)
		for _, c := range result.Clusters {
			fmt.Printf("  [%d] %s (%d articles)\n", c.ID, c.Label, len(c.ArticleIDs))
		}
		return nil
	},
}

func init() {
	clusterCmd.Flags().StringVarP(&clusterRange, "range", "r", "", "Time range: 7, 30, 90 or all (default from config)")
	clusterCmd.Flags().Float64VarP(&clusterThreshold, "threshold", "t", cluster.DefaultDistanceThreshold, "Ward merge distance threshold")
}

// --- run command ---

var runDryRun bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Collect, score and cluster in one pass",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		var provider llm.Provider
		if !runDryRun {
			provider = newProvider()
		}
		p := pipeline.New(cfg, db, provider)

		var result *pipeline.Result
		if runDryRun {
			result = p.DryRun()
		} else {
			result = p.Run(cmd.Context(), time.Now())
		}

		fmt.Println()
		for _, step := range result.Steps {
			if step.Err != nil {
				fmt.Printf("  %-8s FAILED: %v\n", step.Name, step.Err)
				continue
			}
			fmt.Printf("  %-8s %s\n", step.Name, step.Summary)
		}
		if result.Failed() {
			return fmt.Errorf("pipeline finished with errors")
		}
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "Show what would be done without executing")
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local web dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		port := cfg.Server.Port
		if cmd.Flags().Changed("port") {
			port = servePort
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Printf("Starting server at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(ctx, db, port, cfg.DefaultRange())
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8000, "Port to run server on")
}

func openDB() (*database.DB, error) {
	return database.Open(cfg.DBPath())
}
