package pipeline

import (
	"context"
	"fmt"

	"github.com/dgallion1/customtrans/internal/hosts"
	"github.com/dgallion1/customtrans/internal/metrics"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// UpdateResult is the outcome of checking one work.
type UpdateResult struct {
	WorkID   string `json:"work_id"`
	Previous int    `json:"previous"`
	Latest   int    `json:"latest"`
	New      int    `json:"new"`
	Error    string `json:"error,omitempty"`
}

// UpdateWork fetches the work's index page and, when it lists more
// chapters than the catalog knows, refreshes the chapter table, the
// volumes data and the latest chapter. Every cached chapter of the work
// is invalidated, since each frame carries the latest chapter count.
func (o *Orchestrator) UpdateWork(ctx context.Context, workID string) (res UpdateResult, err error) {
	ctx, span := tracer.Start(ctx, "pipeline.UpdateWork",
		trace.WithAttributes(attribute.String("work.id", workID)))
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, "update failed")
		}
		metrics.UpdateRuns.WithLabelValues(outcome).Inc()
		span.End()
	}()

	res.WorkID = workID
	work, err := o.Catalog.Work(ctx, workID)
	if err != nil {
		return res, err
	}
	res.Previous = work.LatestChapter
	res.Latest = work.LatestChapter

	adapter, err := hosts.ForHost(work.Host)
	if err != nil {
		return res, err
	}
	index, err := fetchWithRetry(ctx, o.Fetcher, o.opts.Retry, o.log, adapter.SeriesURL(work.Code), adapter.Encoding())
	if err != nil {
		return res, err
	}
	latest, err := adapter.LatestChapterCount(index)
	if err != nil {
		return res, fmt.Errorf("count chapters: %w", err)
	}
	added := latest - work.LatestChapter
	if added <= 0 {
		o.log.Debug("no new chapters", "work_id", workID, "latest", work.LatestChapter)
		return res, nil
	}

	table, err := adapter.ChapterLookupTable(index)
	if err != nil {
		return res, fmt.Errorf("chapter table: %w", err)
	}
	if table != nil {
		if err := o.Tokens.Put(ctx, workID, table); err != nil {
			return res, fmt.Errorf("store chapter table: %w", err)
		}
	}
	volumes, err := adapter.VolumesData(index)
	if err != nil {
		return res, fmt.Errorf("volumes data: %w", err)
	}
	if err := o.Catalog.SetVolumes(ctx, workID, volumes); err != nil {
		return res, fmt.Errorf("store volumes: %w", err)
	}

	work.LatestChapter = latest
	if err := o.Catalog.PutWork(ctx, work); err != nil {
		return res, fmt.Errorf("store work: %w", err)
	}
	o.invalidateWork("update", workID)

	res.Latest = latest
	res.New = added
	metrics.NewChapters.Add(float64(added))
	o.log.Info("new chapters found", "work_id", workID, "new", added, "latest", latest)
	return res, nil
}

// UpdateAll checks every work in the catalog, a few at a time. Per-work
// failures are reported in the results; the error is only for failing to
// list the works.
func (o *Orchestrator) UpdateAll(ctx context.Context) ([]UpdateResult, error) {
	works, err := o.Catalog.Works(ctx)
	if err != nil {
		return nil, fmt.Errorf("list works: %w", err)
	}
	ids := make([]string, len(works))
	for i, w := range works {
		ids[i] = w.ID
	}
	return runUpdates(ctx, o, ids, o.opts.UpdateWorkers, nil), nil
}
