package scheduler

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"econwatch/internal/collect"
	"econwatch/internal/database"
)

type stubCollector struct {
	candidates []collect.Candidate
	calls      atomic.Int32
}

func (s *stubCollector) Collect(ctx context.Context) []collect.Candidate {
	s.calls.Add(1)
	return s.candidates
}

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleCandidates() []collect.Candidate {
	return []collect.Candidate{
		{
			Title:           "Gold rallies",
			URL:             "https://example.com/gold",
			Source:          "Reuters",
			Region:          "us",
			Score:           2,
			MatchedKeywords: []string{"gold", "fed"},
			Category:        "Gold",
			Excerpt:         "Gold prices climbed.",
		},
		{
			Title:           "Rates on hold",
			URL:             "https://example.com/rates",
			Source:          "Reuters",
			Region:          "us",
			Score:           1,
			MatchedKeywords: []string{"interest rate"},
			Category:        "Interest Rates",
			Excerpt:         "The Fed held rates.",
		},
	}
}

func TestCollectNowPersistsCandidates(t *testing.T) {
	db := openTestDB(t)
	stub := &stubCollector{candidates: sampleCandidates()}
	s := New(stub, db, time.Hour)

	result, err := s.CollectNow(context.Background())
	if err != nil {
		t.Fatalf("CollectNow: %v", err)
	}
	if result.Collected != 2 || result.Saved != 2 {
		t.Fatalf("result = %+v, want 2 collected, 2 saved", result)
	}
	if result.Inserted != 2 || result.Updated != 0 {
		t.Errorf("result = %+v, want 2 inserted on first pass", result)
	}

	stored, err := db.GetArticleByID(1)
	if err != nil {
		t.Fatalf("GetArticleByID: %v", err)
	}
	if stored == nil || stored.MatchedKeywords == nil || *stored.MatchedKeywords != "gold, fed" {
		t.Errorf("stored article = %+v", stored)
	}
}

func TestCollectNowSecondPassUpdates(t *testing.T) {
	db := openTestDB(t)
	stub := &stubCollector{candidates: sampleCandidates()}
	s := New(stub, db, time.Hour)

	if _, err := s.CollectNow(context.Background()); err != nil {
		t.Fatalf("first pass: %v", err)
	}
	result, err := s.CollectNow(context.Background())
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if result.Inserted != 0 || result.Updated != 2 {
		t.Errorf("result = %+v, want 2 updated on second pass", result)
	}
}

func TestStartRunsImmediatePassAndIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	stub := &stubCollector{candidates: sampleCandidates()}
	s := New(stub, db, time.Hour)

	if s.Status().State != StateIdle {
		t.Fatalf("state = %s, want idle", s.Status().State)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("second Start: %v", err)
	}
	defer s.Stop()

	deadline := time.Now().Add(5 * time.Second)
	for s.Status().LastRun == nil {
		if time.Now().After(deadline) {
			t.Fatal("immediate pass never completed")
		}
		time.Sleep(10 * time.Millisecond)
	}

	status := s.Status()
	if status.State != StateRunning {
		t.Errorf("state = %s, want running", status.State)
	}
	if got := stub.calls.Load(); got != 1 {
		t.Errorf("collector called %d times, want 1 (hour interval)", got)
	}
	if status.LastResult == nil || status.LastResult.Saved != 2 {
		t.Errorf("last result = %+v", status.LastResult)
	}
}

func TestStopCancelsFuturePasses(t *testing.T) {
	db := openTestDB(t)
	stub := &stubCollector{}
	s := New(stub, db, time.Hour)

	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	s.Stop()
	s.Stop() // second Stop is a no-op

	if got := s.Status().State; got != StateStopped {
		t.Errorf("state = %s, want stopped", got)
	}
}
