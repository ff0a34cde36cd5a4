package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/customtrans/internal/catalog"
	"github.com/dgallion1/customtrans/internal/dictionary"
	"github.com/dgallion1/customtrans/internal/render"
	"github.com/dgallion1/customtrans/internal/rendercache"
	"github.com/dgallion1/customtrans/internal/tokenstore"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/singleflight"
)

var tracer = otel.Tracer("customtrans/pipeline")

// ErrStopped is returned for jobs submitted after Stop.
var ErrStopped = errors.New("orchestrator stopped")

// Glossaries is where glossary documents live.
type Glossaries interface {
	Read(name string) (dictionary.Source, error)
	Write(name, text string) error
	Rename(oldName, newName string) error
	List() ([]string, error)
}

// Deps are the collaborators an Orchestrator drives.
type Deps struct {
	Catalog    catalog.Store
	Glossaries Glossaries
	Tokens     tokenstore.Store
	Fetcher    Fetcher
	Cache      *rendercache.Cache
	// Reader adds reading lines to Japanese chapters when set.
	Reader *render.Reader
}

// Options tune an Orchestrator.
type Options struct {
	Retry           RetryPolicy
	CreateSkeletons bool
	UpdateWorkers   int
	MaxQueueSize    int
	JobTTL          time.Duration
}

// Orchestrator runs the chapter pipeline and the update jobs.
type Orchestrator struct {
	Deps
	opts Options
	log  *slog.Logger

	jobs  *JobStore
	group singleflight.Group

	// mu guards queue sends against Stop closing it.
	mu      sync.Mutex
	queue   chan *Job
	stopped bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates an orchestrator. Update jobs run only after Start.
func New(deps Deps, opts Options, log *slog.Logger) *Orchestrator {
	if opts.Retry.MaxAttempts <= 0 {
		opts.Retry = DefaultRetryPolicy
	}
	opts.UpdateWorkers = max(opts.UpdateWorkers, 1)
	opts.MaxQueueSize = max(opts.MaxQueueSize, 1)
	if opts.JobTTL <= 0 {
		opts.JobTTL = time.Hour
	}
	return &Orchestrator{
		Deps:  deps,
		opts:  opts,
		log:   log,
		jobs:  NewJobStore(opts.JobTTL),
		queue: make(chan *Job, opts.MaxQueueSize),
	}
}

// Start launches the job worker and the job store cleanup.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		w := NewWorker(o, o.log, o.opts.UpdateWorkers)
		for {
			select {
			case <-workerCtx.Done():
				return
			case job, ok := <-o.queue:
				if !ok {
					return
				}
				w.Process(workerCtx, job)
			}
		}
	}()

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.jobs.Cleanup()
			}
		}
	}()
}

// Stop gracefully shuts down the job worker. Later submissions fail
// with ErrStopped; calling Stop again is a no-op.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	o.mu.Lock()
	if !o.stopped {
		o.stopped = true
		close(o.queue)
	}
	o.mu.Unlock()
	o.wg.Wait()
}

// SubmitUpdate queues an update over workIDs, or over every work when
// workIDs is empty.
func (o *Orchestrator) SubmitUpdate(ctx context.Context, workIDs []string) (*Job, error) {
	if len(workIDs) == 0 {
		works, err := o.Catalog.Works(ctx)
		if err != nil {
			return nil, fmt.Errorf("list works: %w", err)
		}
		for _, w := range works {
			workIDs = append(workIDs, w.ID)
		}
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.stopped {
		return nil, ErrStopped
	}
	job := NewJob(uuid.NewString(), workIDs)
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return job, nil
	default:
		job.SetStatus(StatusFailed, "queue_full")
		return job, fmt.Errorf("job queue is full (%d)", o.opts.MaxQueueSize)
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}
