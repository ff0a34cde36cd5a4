package pipeline

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestNewJob(t *testing.T) {
	job := NewJob("job-1", []string{"nrt", "xyj"})
	if job.Status != StatusQueued {
		t.Errorf("expected status %q, got %q", StatusQueued, job.Status)
	}
	if job.Progress.TotalWorks != 2 {
		t.Errorf("expected 2 total works, got %d", job.Progress.TotalWorks)
	}
}

func TestJob_StateTransitions(t *testing.T) {
	job := NewJob("test-1", []string{"nrt"})

	transitions := []struct {
		status JobStatus
		phase  string
	}{
		{StatusRunning, "updating"},
		{StatusCompleted, "done"},
	}

	for _, tr := range transitions {
		before := job.UpdatedAt
		// Small sleep to ensure time difference is detectable.
		time.Sleep(time.Millisecond)
		job.SetStatus(tr.status, tr.phase)

		if job.Status != tr.status {
			t.Errorf("expected status %q, got %q", tr.status, job.Status)
		}
		if job.Phase != tr.phase {
			t.Errorf("expected phase %q, got %q", tr.phase, job.Phase)
		}
		if !job.UpdatedAt.After(before) {
			t.Errorf("expected UpdatedAt to advance after SetStatus(%q)", tr.status)
		}
	}
}

func TestJob_AddError(t *testing.T) {
	job := &Job{ID: "err-test", UpdatedAt: time.Now()}
	job.AddError("context canceled")

	snap := job.Snapshot()
	if len(snap.Progress.Errors) != 1 {
		t.Fatalf("expected 1 error, got %d", len(snap.Progress.Errors))
	}
	if snap.Progress.Errors[0] != "context canceled" {
		t.Errorf("expected error %q, got %q", "context canceled", snap.Progress.Errors[0])
	}
}

func TestJob_AddResult(t *testing.T) {
	job := NewJob("res-test", []string{"nrt", "xyj", "bqy"})
	job.AddResult(UpdateResult{WorkID: "nrt", Previous: 2, Latest: 5, New: 3})
	job.AddResult(UpdateResult{WorkID: "xyj", Error: "unreachable"})
	job.AddResult(UpdateResult{WorkID: "bqy", Previous: 1, Latest: 2, New: 1})

	snap := job.Snapshot()
	if snap.Progress.WorksDone != 3 {
		t.Errorf("expected 3 works done, got %d", snap.Progress.WorksDone)
	}
	if snap.Progress.NewChapters != 4 {
		t.Errorf("expected 4 new chapters, got %d", snap.Progress.NewChapters)
	}
	if len(snap.Progress.Errors) != 1 || snap.Progress.Errors[0] != "xyj: unreachable" {
		t.Errorf("expected one error for xyj, got %v", snap.Progress.Errors)
	}
	if len(snap.Results) != 3 {
		t.Errorf("expected 3 results, got %d", len(snap.Results))
	}
}

func TestJob_SnapshotIsCopy(t *testing.T) {
	job := NewJob("copy-test", []string{"nrt"})
	job.AddResult(UpdateResult{WorkID: "nrt", Error: "boom"})

	snap := job.Snapshot()
	snap.WorkIDs[0] = "changed"
	snap.Progress.Errors[0] = "changed"
	snap.Results[0].WorkID = "changed"

	again := job.Snapshot()
	if again.WorkIDs[0] != "nrt" || again.Progress.Errors[0] != "nrt: boom" || again.Results[0].WorkID != "nrt" {
		t.Errorf("snapshot shares state with job: %+v", again)
	}
}

func TestJob_SnapshotErrorsNotNil(t *testing.T) {
	// Snapshot should always return non-nil errors slice.
	job := &Job{ID: "snap-test", UpdatedAt: time.Now()}
	snap := job.Snapshot()
	if snap.Progress.Errors == nil {
		t.Error("expected non-nil errors slice in snapshot")
	}
	if len(snap.Progress.Errors) != 0 {
		t.Errorf("expected empty errors, got %d", len(snap.Progress.Errors))
	}
}

func TestJobStore_PutGet(t *testing.T) {
	store := NewJobStore(time.Hour)
	job := NewJob("store-1", nil)
	store.Put(job)

	got := store.Get("store-1")
	if got == nil {
		t.Fatal("expected to get job back")
	}
	if got.ID != "store-1" {
		t.Errorf("expected ID %q, got %q", "store-1", got.ID)
	}
	if store.Get("nonexistent") != nil {
		t.Error("expected nil for missing job")
	}
}

func TestJobStore_TTLCleanup(t *testing.T) {
	store := NewJobStore(50 * time.Millisecond)

	store.Put(&Job{ID: "old", UpdatedAt: time.Now()})

	// Wait for the TTL to pass.
	time.Sleep(100 * time.Millisecond)

	store.Put(&Job{ID: "new", UpdatedAt: time.Now()})
	store.Cleanup()

	if store.Get("old") != nil {
		t.Error("expected expired job to be cleaned up")
	}
	if store.Get("new") == nil {
		t.Error("expected fresh job to survive cleanup")
	}
}

type stubUpdater map[string]UpdateResult

func (s stubUpdater) UpdateWork(_ context.Context, id string) (UpdateResult, error) {
	r, ok := s[id]
	if !ok {
		return UpdateResult{}, context.DeadlineExceeded
	}
	return r, nil
}

func TestWorker_Process(t *testing.T) {
	tests := []struct {
		name string
		ids  []string
		want JobStatus
	}{
		{"all succeed", []string{"a", "b"}, StatusCompleted},
		{"some fail", []string{"a", "missing"}, StatusPartial},
		{"all fail", []string{"missing", "gone"}, StatusFailed},
	}
	u := stubUpdater{"a": {New: 1}, "b": {New: 2}}
	w := NewWorker(u, quietLog, 2)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := NewJob(tt.name, tt.ids)
			w.Process(context.Background(), job)
			snap := job.Snapshot()
			if snap.Status != tt.want {
				t.Errorf("expected status %q, got %q", tt.want, snap.Status)
			}
			if snap.Progress.WorksDone != len(tt.ids) {
				t.Errorf("expected %d works done, got %d", len(tt.ids), snap.Progress.WorksDone)
			}
		})
	}
}

func TestRunUpdates_KeepsOrder(t *testing.T) {
	u := stubUpdater{"a": {New: 1}, "b": {New: 2}, "c": {New: 3}}
	results := runUpdates(context.Background(), u, []string{"c", "a", "b"}, 2, nil)
	for i, id := range []string{"c", "a", "b"} {
		if results[i].WorkID != id {
			t.Errorf("result %d: expected %q, got %q", i, id, results[i].WorkID)
		}
	}
}

// gatedUpdater holds each call until limit calls are in flight, and
// records the highest concurrency seen.
type gatedUpdater struct {
	limit int
	full  chan struct{}
	once  sync.Once

	mu       sync.Mutex
	inFlight int
	peak     int
	calls    int
}

func newGatedUpdater(limit int) *gatedUpdater {
	return &gatedUpdater{limit: limit, full: make(chan struct{})}
}

func (g *gatedUpdater) UpdateWork(_ context.Context, id string) (UpdateResult, error) {
	g.mu.Lock()
	g.inFlight++
	g.calls++
	g.peak = max(g.peak, g.inFlight)
	if g.inFlight == g.limit {
		g.once.Do(func() { close(g.full) })
	}
	g.mu.Unlock()

	select {
	case <-g.full:
	case <-time.After(2 * time.Second):
	}
	time.Sleep(time.Millisecond)

	g.mu.Lock()
	g.inFlight--
	g.mu.Unlock()
	return UpdateResult{WorkID: id}, nil
}

func TestRunUpdates_BoundsConcurrency(t *testing.T) {
	ids := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	u := newGatedUpdater(3)

	results := runUpdates(context.Background(), u, ids, 3, nil)
	if len(results) != len(ids) {
		t.Fatalf("expected %d results, got %d", len(ids), len(results))
	}
	if u.calls != len(ids) {
		t.Errorf("expected %d updates, got %d", len(ids), u.calls)
	}
	if u.peak != 3 {
		t.Errorf("expected at most 3 updates at once and to reach 3, got peak %d", u.peak)
	}
}
