package server

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/TobiSchelling/FeedLens/internal/analytics"
	"github.com/TobiSchelling/FeedLens/internal/database"
	"github.com/TobiSchelling/FeedLens/internal/report"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

var md = goldmark.New(goldmark.WithExtensions(extension.Table))

// rangeOptions are the ranges offered on the dashboard.
var rangeOptions = []analytics.TimeRange{analytics.Range7, analytics.Range30, analytics.Range90, analytics.RangeAll}

// Server is the HTTP server for the analytics dashboard and its JSON API.
type Server struct {
	db           *database.DB
	defaultRange analytics.TimeRange
	cache        *analytics.Cache
	metrics      *metrics
	pages        map[string]*template.Template
	mux          *http.ServeMux
	now          func() time.Time
}

// New creates a new Server.
func New(db *database.DB, defaultRange analytics.TimeRange) (*Server, error) {
	funcMap := template.FuncMap{
		"markdown": renderMarkdown,
	}

	// Parse base template first
	base, err := template.New("base.html").Funcs(funcMap).ParseFS(templateFS, "templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("parsing base template: %w", err)
	}

	// For each page template, clone the base and parse the page into the clone.
	// This gives each page its own {{define "content"}} and {{define "title"}}.
	pageNames := []string{"dashboard.html"}
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("cloning base for %s: %w", name, err)
		}
		_, err = clone.ParseFS(templateFS, "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		pages[name] = clone
	}

	s := &Server{
		db:           db,
		defaultRange: defaultRange,
		cache:        analytics.NewCache(),
		metrics:      newMetrics(),
		pages:        pages,
		mux:          http.NewServeMux(),
		now:          time.Now,
	}
	s.routes()
	return s, nil
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	// Static files
	staticSub, _ := fs.Sub(staticFS, "static")
	s.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))

	s.mux.Handle("GET /metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))

	// Routes
	s.mux.HandleFunc("/", s.handleDashboard)
	s.mux.HandleFunc("GET /api/analytics", s.handleAnalytics)
	s.mux.HandleFunc("GET /api/clusters/{id}/topics", s.handleClusterTopics)
	s.mux.HandleFunc("POST /api/articles/{id}/{action}", s.handleArticleAction)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	snap, err := s.snapshot(r)
	if err != nil {
		s.fail(w, "dashboard", err)
		return
	}

	s.render(w, "dashboard.html", map[string]any{
		"Title":    report.Title(snap.Range),
		"Report":   report.Markdown(snap),
		"Range":    snap.Range,
		"Ranges":   rangeOptions,
		"Snapshot": snap,
	})
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	snap, err := s.snapshot(r)
	if err != nil {
		s.fail(w, "analytics", err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleClusterTopics(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		s.fail(w, "cluster_topics", badRequest("invalid cluster id %q", r.PathValue("id")))
		return
	}

	members, err := s.db.GetClusterMemberIDs(id)
	if err != nil {
		s.fail(w, "cluster_topics", err)
		return
	}
	articles, _, err := s.db.Snapshot()
	if err != nil {
		s.fail(w, "cluster_topics", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"clusterId": id,
		"topics":    analytics.ClusterTopics(members, articles),
	})
}

func (s *Server) handleArticleAction(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		s.fail(w, "article_action", badRequest("invalid article id %q", r.PathValue("id")))
		return
	}

	switch action := r.PathValue("action"); action {
	case "read":
		err = s.db.SetRead(id, true)
	case "unread":
		err = s.db.SetRead(id, false)
	case "bookmark":
		err = s.db.SetBookmarked(id, true)
	case "unbookmark":
		err = s.db.SetBookmarked(id, false)
	default:
		err = badRequest("unknown action %q", action)
	}
	if err != nil {
		s.fail(w, "article_action", err)
		return
	}

	s.cache.Invalidate()
	w.WriteHeader(http.StatusNoContent)
}

// snapshot loads the store and computes the dashboard for the request's
// range. ?source=local skips the server aggregates.
func (s *Server) snapshot(r *http.Request) (analytics.Snapshot, error) {
	rng := s.defaultRange
	if q := r.URL.Query().Get("range"); q != "" {
		parsed, err := analytics.ParseTimeRange(q)
		if err != nil {
			return analytics.Snapshot{}, badRequest("%v", err)
		}
		rng = parsed
	}

	start := time.Now()
	now := s.now()

	articles, sources, err := s.db.Snapshot()
	if err != nil {
		return analytics.Snapshot{}, err
	}
	in := analytics.Input{Articles: articles, Sources: sources, Range: rng, Now: now}

	if r.URL.Query().Get("source") != "local" {
		if in.Sentiment, err = s.db.SentimentAggregate(); err != nil {
			return analytics.Snapshot{}, err
		}
		if in.TopicTrend, err = s.db.TopicTrends(int(rng), now); err != nil {
			return analytics.Snapshot{}, err
		}
	}

	snap, hit := s.cache.Get(in)
	s.metrics.recordSnapshot(rng.String(), hit, time.Since(start).Seconds())
	return snap, nil
}

type requestError struct{ msg string }

func (e *requestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &requestError{msg: fmt.Sprintf(format, args...)}
}

// fail maps err to a status code and writes it.
func (s *Server) fail(w http.ResponseWriter, route string, err error) {
	var reqErr *requestError
	switch {
	case errors.As(err, &reqErr):
		http.Error(w, reqErr.msg, http.StatusBadRequest)
	case errors.Is(err, database.ErrNotFound):
		http.Error(w, "Not found", http.StatusNotFound)
	default:
		s.metrics.recordError(route)
		log.Printf("Error serving %s: %v", route, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	tmpl, ok := s.pages[name]
	if !ok {
		log.Printf("Template %s not found", name)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base.html", data); err != nil {
		log.Printf("Error rendering template %s: %v", name, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}

func renderMarkdown(text string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(buf.String()) //nolint: gosec
}

// Serve starts the HTTP server on the given port and shuts it down when ctx
// is canceled.
func Serve(ctx context.Context, db *database.DB, port int, defaultRange analytics.TimeRange) error {
	srv, err := New(db, defaultRange)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("127.0.0.1:%d", port)
	httpSrv := &http.Server{Addr: addr, Handler: srv.Handler(), ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server listening on http://%s", addr)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	}
}
