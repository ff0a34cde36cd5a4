package pipeline

import (
	"sync"
	"time"
)

// JobStatus represents the state of an update job.
type JobStatus string

const (
	StatusQueued    JobStatus = "queued"
	StatusRunning   JobStatus = "running"
	StatusCompleted JobStatus = "completed"
	StatusPartial   JobStatus = "partial"
	StatusFailed    JobStatus = "failed"
)

// Job tracks one queued update over a set of works.
type Job struct {
	mu sync.Mutex

	ID      string   `json:"job_id"`
	WorkIDs []string `json:"work_ids"`

	Status JobStatus `json:"status"`
	Phase  string    `json:"phase"`

	Progress Progress `json:"progress"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	results []UpdateResult
	errors  []string
}

// Progress tracks processing progress.
type Progress struct {
	TotalWorks  int      `json:"total_works"`
	WorksDone   int      `json:"works_done"`
	NewChapters int      `json:"new_chapters"`
	Errors      []string `json:"errors"`
}

// NewJob returns a queued job over workIDs.
func NewJob(id string, workIDs []string) *Job {
	now := time.Now()
	return &Job{
		ID:        id,
		WorkIDs:   workIDs,
		Status:    StatusQueued,
		Phase:     "queued",
		Progress:  Progress{TotalWorks: len(workIDs)},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		updated := job.UpdatedAt
		job.mu.Unlock()
		if now.Sub(updated) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// AddResult records one finished work.
func (j *Job) AddResult(r UpdateResult) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.results = append(j.results, r)
	j.Progress.WorksDone++
	j.Progress.NewChapters += r.New
	if r.Error != "" {
		j.errors = append(j.errors, r.WorkID+": "+r.Error)
		j.Progress.Errors = j.errors
	}
	j.UpdatedAt = time.Now()
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID        string         `json:"job_id"`
	WorkIDs   []string       `json:"work_ids"`
	Status    JobStatus      `json:"status"`
	Phase     string         `json:"phase"`
	Progress  Progress       `json:"progress"`
	Results   []UpdateResult `json:"results"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := append([]string{}, j.Progress.Errors...)
	results := append([]UpdateResult{}, j.results...)
	return JobSnapshot{
		ID:      j.ID,
		WorkIDs: append([]string(nil), j.WorkIDs...),
		Status:  j.Status,
		Phase:   j.Phase,
		Progress: Progress{
			TotalWorks:  j.Progress.TotalWorks,
			WorksDone:   j.Progress.WorksDone,
			NewChapters: j.Progress.NewChapters,
			Errors:      errs,
		},
		Results:   results,
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
}
