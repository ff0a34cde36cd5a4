package pipeline

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Updater checks one work for new chapters.
type Updater interface {
	UpdateWork(ctx context.Context, workID string) (UpdateResult, error)
}

// Worker processes update jobs, checking up to concurrency works at once.
type Worker struct {
	updater     Updater
	log         *slog.Logger
	concurrency int
}

func NewWorker(u Updater, log *slog.Logger, concurrency int) *Worker {
	return &Worker{updater: u, log: log, concurrency: max(concurrency, 1)}
}

// Process runs every work of the job. One work's failure is recorded on
// the job and does not stop the others.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID)
	job.SetStatus(StatusRunning, "updating")
	log.Info("update job started", "works", len(job.WorkIDs))

	results := runUpdates(ctx, w.updater, job.WorkIDs, w.concurrency, job.AddResult)

	failed := 0
	for _, r := range results {
		if r.Error != "" {
			failed++
			log.Warn("work update failed", "work_id", r.WorkID, "error", r.Error)
		}
	}
	switch {
	case ctx.Err() != nil:
		job.AddError(ctx.Err().Error())
		job.SetStatus(StatusFailed, "cancelled")
	case failed == 0:
		job.SetStatus(StatusCompleted, "done")
	case failed < len(results):
		job.SetStatus(StatusPartial, "done")
	default:
		job.SetStatus(StatusFailed, "done")
	}
	log.Info("update job finished", "failed", failed, "total", len(results))
}

// runUpdates updates each work with bounded concurrency. Results keep
// the order of workIDs; onResult, when set, sees each as it finishes.
func runUpdates(ctx context.Context, u Updater, workIDs []string, concurrency int, onResult func(UpdateResult)) []UpdateResult {
	results := make([]UpdateResult, len(workIDs))
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(max(concurrency, 1))
	for i, id := range workIDs {
		g.Go(func() error {
			r, err := u.UpdateWork(ctx, id)
			r.WorkID = id
			if err != nil {
				r.Error = err.Error()
			}
			results[i] = r
			if onResult != nil {
				mu.Lock()
				onResult(r)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return results
}
