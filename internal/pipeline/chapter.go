package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgallion1/customtrans/internal/annotate"
	"github.com/dgallion1/customtrans/internal/catalog"
	"github.com/dgallion1/customtrans/internal/content"
	"github.com/dgallion1/customtrans/internal/dictionary"
	"github.com/dgallion1/customtrans/internal/hosts"
	"github.com/dgallion1/customtrans/internal/metrics"
	"github.com/dgallion1/customtrans/internal/render"
	"github.com/dgallion1/customtrans/internal/rendercache"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Chapter returns the rendered artifact for one chapter, from the cache
// when possible. A chapter that cannot be fetched or parsed comes back
// as an unavailable artifact carrying a notice, with a nil error, and is
// not cached. Errors are reserved for an unknown work, a cancelled
// context and catalog failures.
func (o *Orchestrator) Chapter(ctx context.Context, workID string, n int) (*render.Artifact, error) {
	ctx, span := tracer.Start(ctx, "pipeline.Chapter",
		trace.WithAttributes(attribute.String("work.id", workID), attribute.Int("chapter", n)))
	defer span.End()

	key := rendercache.Key{WorkID: workID, Chapter: n}
	if data, ok := o.Cache.Get(key); ok {
		a, err := render.Decode(data)
		if err == nil {
			metrics.CacheLookups.WithLabelValues("hit").Inc()
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return a, nil
		}
		o.log.Warn("dropping undecodable cache entry", "key", key.String(), "error", err)
		o.Cache.Invalidate(key)
	}
	metrics.CacheLookups.WithLabelValues("miss").Inc()
	span.SetAttributes(attribute.Bool("cache.hit", false))

	work, err := o.Catalog.Work(ctx, workID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "work lookup")
		return nil, err
	}
	frame := o.frame(ctx, work, n)
	log := o.log.With("work_id", workID, "chapter", n)

	start := time.Now()
	a, cacheable, err := o.renderChapter(ctx, work, n, frame)
	if err != nil {
		if isCancellation(err) {
			return nil, err
		}
		metrics.RenderDuration.WithLabelValues("unavailable").Observe(time.Since(start).Seconds())
		span.RecordError(err)
		span.SetStatus(codes.Error, "chapter unavailable")
		log.Warn("chapter unavailable", "error", err)
		return render.Unavailable(frame, unavailableNotice(n, err)), nil
	}
	metrics.RenderDuration.WithLabelValues("ok").Observe(time.Since(start).Seconds())

	if !cacheable {
		log.Info("chapter rendered", "records", len(a.Chapter.Records), "glossary", len(a.Chapter.Glossary), "notices", len(a.Notices), "cached", false)
		return a, nil
	}
	data, err := render.Encode(a)
	if err != nil {
		return nil, err
	}
	if !o.Cache.Put(key, data) {
		log.Debug("chapter already cached by a concurrent render")
	}
	log.Info("chapter rendered", "records", len(a.Chapter.Records), "glossary", len(a.Chapter.Glossary), "notices", len(a.Notices))
	return a, nil
}

// renderChapter runs the uncached pipeline: resolve, fetch, parse,
// compile, annotate. The artifact is not cacheable when rendering it
// created a skeleton glossary, so the notice about it is shown once.
func (o *Orchestrator) renderChapter(ctx context.Context, work catalog.Work, n int, frame render.Frame) (*render.Artifact, bool, error) {
	adapter, err := hosts.ForHost(work.Host)
	if err != nil {
		return nil, false, err
	}

	url, err := o.chapterURL(ctx, work, adapter, n)
	if err != nil {
		return nil, false, err
	}
	frame.SourceURL = url

	markup, err := fetchWithRetry(ctx, o.Fetcher, o.opts.Retry, o.log, url, adapter.Encoding())
	if err != nil {
		return nil, false, err
	}
	records, err := adapter.ParseChapter(markup)
	if err != nil {
		var perr *hosts.ParseError
		if errors.As(err, &perr) {
			perr.URL = url
		}
		return nil, false, err
	}

	res, skeleton, err := o.compileDictionary(ctx, work)
	if err != nil {
		return nil, false, err
	}

	a := &render.Artifact{
		Frame:     frame,
		Available: true,
		Language:  adapter.Language(),
		Chapter:   annotate.Annotate(records, res.Dict),
	}
	if frame.ChapterTitle == "" {
		a.Frame.ChapterTitle = a.Chapter.Title()
	}
	if skeleton != nil {
		a.Warn("Glossary %s was %s; a new skeleton glossary was created.", skeleton.Name, skeleton.Condition)
	}
	for _, s := range res.Absent {
		a.Warn("Glossary %s is %s.", s.Name, s.Condition)
	}
	for _, w := range res.Warnings {
		a.Warn("%s", w.String())
	}
	if o.Reader != nil && adapter.Language() == content.Japanese {
		o.Reader.Annotate(a)
	}
	return a, skeleton == nil, nil
}

// CompileDictionary compiles the glossaries that apply to work: the
// shared one, then the work's own, skipping disabled ones. A missing or
// empty per-work glossary is replaced by a skeleton when configured, and
// the result includes the skeleton's entries.
func (o *Orchestrator) CompileDictionary(ctx context.Context, work catalog.Work) (*dictionary.Result, error) {
	res, _, err := o.compileDictionary(ctx, work)
	return res, err
}

// compileDictionary also reports the status of a per-work glossary that
// was replaced by a skeleton during this call.
func (o *Orchestrator) compileDictionary(ctx context.Context, work catalog.Work) (*dictionary.Result, *dictionary.SourceStatus, error) {
	adapter, err := hosts.ForHost(work.Host)
	if err != nil {
		return nil, nil, err
	}
	rules, err := o.Catalog.Honorifics(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load honorifics: %w", err)
	}

	sources, err := o.glossarySources(ctx, work)
	if err != nil {
		return nil, nil, err
	}
	res := dictionary.Compile(sources, rules, adapter.Language())

	var skeleton *dictionary.SourceStatus
	if st, absent := res.AbsentSource(work.GlossaryName()); absent && o.opts.CreateSkeletons {
		text := dictionary.Skeleton(work.Title, work.Abbr, adapter.SeriesURL(work.Code))
		if err := o.Glossaries.Write(work.GlossaryName(), text); err != nil {
			o.log.Warn("could not create skeleton glossary", "name", work.GlossaryName(), "error", err)
		} else {
			o.log.Info("created skeleton glossary", "name", work.GlossaryName())
			skeleton = &st
			if sources, err = o.glossarySources(ctx, work); err != nil {
				return nil, nil, err
			}
			res = dictionary.Compile(sources, rules, adapter.Language())
		}
	}

	metrics.DictionaryWarnings.Add(float64(len(res.Warnings)))
	if len(res.Warnings) > 0 {
		o.log.Warn("glossary lines ignored", "work_id", work.ID, "count", len(res.Warnings))
	}
	return res, skeleton, nil
}

// glossarySources reads the enabled glossaries for work, shared first.
func (o *Orchestrator) glossarySources(ctx context.Context, work catalog.Work) ([]dictionary.Source, error) {
	var sources []dictionary.Source
	for _, name := range []string{dictionary.CommonName, work.GlossaryName()} {
		on, err := o.Catalog.GlossaryEnabled(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("glossary %s: %w", name, err)
		}
		if !on {
			continue
		}
		src, err := o.Glossaries.Read(name)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	return sources, nil
}

// chapterURL resolves a chapter through the work's token table,
// refreshing the table from the index page when it is absent or too
// short.
func (o *Orchestrator) chapterURL(ctx context.Context, work catalog.Work, adapter hosts.Adapter, n int) (string, error) {
	table, _, err := o.Tokens.Get(ctx, work.ID)
	if err != nil {
		return "", fmt.Errorf("load chapter table: %w", err)
	}
	url, err := adapter.ChapterURL(work.Code, n, table)
	if err == nil || !errors.Is(err, hosts.ErrChapterOutOfRange) {
		return url, err
	}
	if n < 1 {
		return "", err
	}

	table, err = o.refreshTable(ctx, work, adapter)
	if err != nil {
		return "", err
	}
	return adapter.ChapterURL(work.Code, n, table)
}

// refreshTable fetches the index page and stores the chapter token
// table. Concurrent refreshes of one work share a single fetch.
func (o *Orchestrator) refreshTable(ctx context.Context, work catalog.Work, adapter hosts.Adapter) ([]string, error) {
	v, err, _ := o.group.Do("table:"+work.ID, func() (any, error) {
		index, err := fetchWithRetry(ctx, o.Fetcher, o.opts.Retry, o.log, adapter.SeriesURL(work.Code), adapter.Encoding())
		if err != nil {
			return nil, err
		}
		table, err := adapter.ChapterLookupTable(index)
		if err != nil {
			return nil, err
		}
		if table != nil {
			if err := o.Tokens.Put(ctx, work.ID, table); err != nil {
				return nil, fmt.Errorf("store chapter table: %w", err)
			}
		}
		return table, nil
	})
	if err != nil {
		return nil, err
	}
	table, _ := v.([]string)
	return table, nil
}

// frame builds the page frame from the catalog alone.
func (o *Orchestrator) frame(ctx context.Context, work catalog.Work, n int) render.Frame {
	f := render.NewFrame(work.ID, work.Title, n, work.LatestChapter)
	f.Bookmarked = work.Bookmarked(n)
	volumes, err := o.Catalog.Volumes(ctx, work.ID)
	if err != nil {
		o.log.Warn("could not load volumes", "work_id", work.ID, "error", err)
		return f
	}
	for _, v := range volumes {
		for _, c := range v.Chapters {
			if c.Ordinal == n {
				f.ChapterTitle = c.Title
				return f
			}
		}
	}
	return f
}

// unavailableNotice explains a failed render to a reader.
func unavailableNotice(n int, err error) string {
	var (
		unreachable *UnreachableError
		perr        *hosts.ParseError
	)
	switch {
	case errors.As(err, &unreachable):
		return fmt.Sprintf("Chapter %d is unavailable: the source site could not be reached after %d attempt(s).", n, unreachable.Attempts)
	case errors.As(err, &perr):
		return fmt.Sprintf("Chapter %d is unavailable: the source page could not be read (%s).", n, perr.Reason)
	case errors.Is(err, hosts.ErrChapterOutOfRange):
		return fmt.Sprintf("Chapter %d is unavailable: it is not listed in the work's index.", n)
	default:
		return fmt.Sprintf("Chapter %d is unavailable: %v", n, err)
	}
}
