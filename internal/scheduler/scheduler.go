// Package scheduler drives recurring collection passes on a fixed
// interval using a cron runner.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"econwatch/internal/collect"
	"econwatch/internal/database"
)

// State describes the scheduler lifecycle.
type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
	StateStopped State = "stopped"
)

// Collector produces scored candidates from the configured sources.
type Collector interface {
	Collect(ctx context.Context) []collect.Candidate
}

// PassResult reports one collection pass.
type PassResult struct {
	Collected int // candidates that passed the relevance filter
	Saved     int // rows inserted or updated
	Inserted  int
	Updated   int
}

// Status is a point-in-time snapshot for callers such as the HTTP API.
type Status struct {
	State        State
	Interval     time.Duration
	LastRun      *time.Time
	LastResult   *PassResult
	PassesTotal  int
	PassesFailed int
}

// Scheduler runs collection passes every interval. The first pass runs
// immediately on Start; overlapping passes are delayed, never stacked.
type Scheduler struct {
	collector Collector
	db        *database.DB
	interval  time.Duration

	cron *cron.Cron

	mu           sync.Mutex
	state        State
	lastRun      *time.Time
	lastResult   *PassResult
	passesTotal  int
	passesFailed int
}

// New creates a Scheduler. The interval must be positive.
func New(collector Collector, db *database.DB, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Scheduler{
		collector: collector,
		db:        db,
		interval:  interval,
		state:     StateIdle,
	}
}

// Start begins the recurring schedule and kicks off an immediate first
// pass. Calling Start on a running scheduler is a no-op.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateRunning {
		return nil
	}

	c := cron.New(cron.WithChain(cron.DelayIfStillRunning(cron.DefaultLogger)))
	spec := fmt.Sprintf("@every %s", s.interval)
	if _, err := c.AddFunc(spec, func() { s.runPass() }); err != nil {
		return fmt.Errorf("scheduling %q: %w", spec, err)
	}
	s.cron = c
	s.state = StateRunning
	c.Start()

	log.Printf("scheduler started, interval %s", s.interval)
	go s.runPass()
	return nil
}

// Stop cancels future passes. A pass already in flight finishes.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateRunning {
		return
	}
	s.cron.Stop()
	s.cron = nil
	s.state = StateStopped
	log.Println("scheduler stopped")
}

// Status returns a snapshot of the scheduler.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		State:        s.state,
		Interval:     s.interval,
		LastRun:      s.lastRun,
		LastResult:   s.lastResult,
		PassesTotal:  s.passesTotal,
		PassesFailed: s.passesFailed,
	}
}

// CollectNow runs a single collection pass synchronously, independent
// of the schedule.
func (s *Scheduler) CollectNow(ctx context.Context) (*PassResult, error) {
	result := s.pass(ctx)
	s.record(result)
	return result, nil
}

func (s *Scheduler) runPass() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	result := s.pass(ctx)
	s.record(result)
}

func (s *Scheduler) pass(ctx context.Context) *PassResult {
	start := time.Now()
	log.Println("collection pass starting")

	candidates := s.collector.Collect(ctx)
	result := &PassResult{Collected: len(candidates)}
	for _, cand := range candidates {
		res, err := s.db.UpsertArticle(database.NewArticle{
			URL:             cand.URL,
			Title:           cand.Title,
			Source:          cand.Source,
			Region:          cand.Region,
			PublishedAt:     cand.Published,
			RelevanceScore:  cand.Score,
			MatchedKeywords: strings.Join(cand.MatchedKeywords, ", "),
			Category:        cand.Category,
			Excerpt:         cand.Excerpt,
		})
		if err != nil {
			log.Printf("saving %s failed: %v", cand.URL, err)
			continue
		}
		result.Saved++
		if res.Inserted {
			result.Inserted++
		} else {
			result.Updated++
		}
	}

	log.Printf("collection pass done in %s: %d collected, %d saved (%d new, %d updated)",
		time.Since(start).Round(time.Millisecond),
		result.Collected, result.Saved, result.Inserted, result.Updated)
	return result
}

func (s *Scheduler) record(result *PassResult) {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastRun = &now
	s.lastResult = result
	s.passesTotal++
	if result.Saved < result.Collected {
		s.passesFailed++
	}
}
