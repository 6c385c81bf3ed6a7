// Package server exposes the dashboard and the JSON API for manual
// pipeline triggers.
package server

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"

	"econwatch/internal/database"
	"econwatch/internal/scheduler"
	"econwatch/internal/summarize"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

var md = goldmark.New()

// Server serves the dashboard pages and the trigger API.
type Server struct {
	db         *database.DB
	sched      *scheduler.Scheduler
	aggregator *summarize.Aggregator
	articles   *summarize.ArticleSummarizer
	pages      map[string]*template.Template
	mux        *http.ServeMux
}

// New creates a Server. The scheduler and summarizers may be nil; the
// corresponding trigger endpoints then answer 503.
func New(db *database.DB, sched *scheduler.Scheduler, aggregator *summarize.Aggregator, articles *summarize.ArticleSummarizer) (*Server, error) {
	funcMap := template.FuncMap{
		"markdown": renderMarkdown,
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
	}

	base, err := template.New("base.html").Funcs(funcMap).ParseFS(templateFS, "templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("parsing base template: %w", err)
	}

	// Each page gets its own clone of the base so its {{define}}
	// blocks do not collide with the other pages'.
	pageNames := []string{"index.html", "summaries.html"}
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("cloning base for %s: %w", name, err)
		}
		if _, err := clone.ParseFS(templateFS, "templates/"+name); err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		pages[name] = clone
	}

	s := &Server{db: db, sched: sched, aggregator: aggregator, articles: articles, pages: pages, mux: http.NewServeMux()}
	s.routes()
	return s, nil
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	staticSub, _ := fs.Sub(staticFS, "static")
	s.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))

	s.mux.HandleFunc("/", s.handleIndex)
	s.mux.HandleFunc("/summaries", s.handleSummariesPage)

	s.mux.HandleFunc("/api/collect", s.handleCollect)
	s.mux.HandleFunc("/api/articles", s.handleArticles)
	s.mux.HandleFunc("/api/articles/", s.handleArticleSummarize)
	s.mux.HandleFunc("/api/summaries", s.handleSummaries)
	s.mux.HandleFunc("/api/summaries/generate", s.handleGenerate)
	s.mux.HandleFunc("/api/summaries/generate-all", s.handleGenerateAll)
	s.mux.HandleFunc("/api/stats", s.handleStats)
	s.mux.HandleFunc("/api/status", s.handleStatus)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	articles, err := s.db.ListArticles(r.URL.Query().Get("category"), 100)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	stats, err := s.db.GetStats()
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	s.render(w, "index.html", map[string]any{
		"Articles": articles,
		"Stats":    stats,
	})
}

func (s *Server) handleSummariesPage(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.db.ListDailySummaries(60)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	s.render(w, "summaries.html", map[string]any{
		"Summaries": summaries,
	})
}

// POST /api/collect runs one collection pass.
func (s *Server) handleCollect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	if s.sched == nil {
		writeError(w, http.StatusServiceUnavailable, "collection not available")
		return
	}

	result, err := s.sched.CollectNow(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"collected": result.Collected,
		"saved":     result.Saved,
		"inserted":  result.Inserted,
		"updated":   result.Updated,
	})
}

// GET /api/articles?category=...&limit=...
func (s *Server) handleArticles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET required")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	articles, err := s.db.ListArticles(r.URL.Query().Get("category"), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":    len(articles),
		"articles": articles,
	})
}

// POST /api/articles/{id}/summarize
func (s *Server) handleArticleSummarize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	if s.articles == nil {
		writeError(w, http.StatusServiceUnavailable, "summarization not available")
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/articles/")
	idStr, ok := strings.CutSuffix(path, "/summarize")
	if !ok {
		http.NotFound(w, r)
		return
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid article id")
		return
	}

	summary, err := s.articles.Summarize(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":      id,
		"summary": summary,
	})
}

// GET /api/summaries?start=...&end=...
func (s *Server) handleSummaries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET required")
		return
	}

	start := r.URL.Query().Get("start")
	end := r.URL.Query().Get("end")

	var summaries []database.DailySummary
	var err error
	if start != "" && end != "" {
		summaries, err = s.db.DailySummariesByDateRange(start, end)
	} else {
		summaries, err = s.db.ListDailySummaries(60)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":     len(summaries),
		"summaries": summaries,
	})
}

// POST /api/summaries/generate?date=...&region=...
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	if s.aggregator == nil {
		writeError(w, http.StatusServiceUnavailable, "summarization not available")
		return
	}

	date := r.URL.Query().Get("date")
	if date == "" {
		date = database.Today()
	}
	region := r.URL.Query().Get("region")
	if region == "" {
		writeError(w, http.StatusBadRequest, "region required")
		return
	}

	result, err := s.aggregator.GenerateDaily(r.Context(), date, region)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"date":          result.Date,
		"region":        result.Region,
		"generated":     result.Generated,
		"summary":       result.Summary,
		"sentiment":     result.Sentiment,
		"article_count": result.ArticleCount,
	})
}

// POST /api/summaries/generate-all?days=N
func (s *Server) handleGenerateAll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	if s.aggregator == nil {
		writeError(w, http.StatusServiceUnavailable, "summarization not available")
		return
	}

	days, _ := strconv.Atoi(r.URL.Query().Get("days"))
	batch := s.aggregator.GenerateRecent(r.Context(), days)
	writeJSON(w, http.StatusOK, map[string]any{
		"generated": batch.Generated,
		"skipped":   batch.Skipped,
		"failed":    batch.Failed,
	})
}

// GET /api/stats
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET required")
		return
	}

	stats, err := s.db.GetStats()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// GET /api/status
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET required")
		return
	}
	if s.sched == nil {
		writeJSON(w, http.StatusOK, map[string]any{"state": "unavailable"})
		return
	}

	status := s.sched.Status()
	writeJSON(w, http.StatusOK, map[string]any{
		"state":         status.State,
		"interval":      status.Interval.String(),
		"last_run":      status.LastRun,
		"passes_total":  status.PassesTotal,
		"passes_failed": status.PassesFailed,
	})
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	tmpl, ok := s.pages[name]
	if !ok {
		log.Printf("template %s not found", name)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "base.html", data); err != nil {
		log.Printf("rendering template %s: %v", name, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func renderMarkdown(text string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(buf.String()) //nolint: gosec
}

// Serve starts the HTTP server on the given port, bound to localhost.
func Serve(db *database.DB, sched *scheduler.Scheduler, aggregator *summarize.Aggregator, articles *summarize.ArticleSummarizer, port int) error {
	srv, err := New(db, sched, aggregator, articles)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("127.0.0.1:%d", port)
	log.Printf("server listening on http://%s", addr)
	return http.ListenAndServe(addr, srv.Handler())
}
