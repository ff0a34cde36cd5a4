package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/dgallion1/customtrans/internal/catalog"
	"github.com/dgallion1/customtrans/internal/content"
	"github.com/dgallion1/customtrans/internal/dictionary"
	"github.com/dgallion1/customtrans/internal/glossimport"
	"github.com/dgallion1/customtrans/internal/hosts"
	"github.com/dgallion1/customtrans/internal/metrics"
	"github.com/dgallion1/customtrans/internal/render"
	"github.com/dgallion1/customtrans/internal/rendercache"
)

// ErrUnavailable is returned by operations that need chapter content
// when the chapter could not be rendered.
var ErrUnavailable = errors.New("chapter unavailable")

// GlossaryReport summarizes a saved glossary.
type GlossaryReport struct {
	Name     string               `json:"name"`
	Entries  int                  `json:"entries"`
	Warnings []dictionary.Warning `json:"warnings"`
}

func (o *Orchestrator) invalidate(trigger string, keys ...rendercache.Key) {
	for _, k := range keys {
		if o.Cache.Invalidate(k) {
			metrics.CacheInvalidations.WithLabelValues(trigger).Inc()
		}
	}
}

func (o *Orchestrator) invalidateWork(trigger, workID string) {
	if n := o.Cache.InvalidateWork(workID); n > 0 {
		metrics.CacheInvalidations.WithLabelValues(trigger).Add(float64(n))
	}
}

func (o *Orchestrator) invalidateAll(trigger string) {
	n := o.Cache.Len()
	o.Cache.InvalidateAll()
	if n > 0 {
		metrics.CacheInvalidations.WithLabelValues(trigger).Add(float64(n))
	}
}

// InvalidateChapter drops one cached chapter.
func (o *Orchestrator) InvalidateChapter(workID string, n int) {
	o.invalidate("manual", rendercache.Key{WorkID: workID, Chapter: n})
}

// InvalidateWork drops every cached chapter of a work.
func (o *Orchestrator) InvalidateWork(workID string) {
	o.invalidateWork("manual", workID)
}

// InvalidateAll empties the render cache.
func (o *Orchestrator) InvalidateAll() {
	o.invalidateAll("manual")
}

// glossaryScope invalidates what a glossary change affects: every work
// for the shared glossary, the owning work otherwise.
func (o *Orchestrator) glossaryScope(ctx context.Context, name string) error {
	if name == dictionary.CommonName {
		o.invalidateAll("glossary")
		return nil
	}
	works, err := o.Catalog.Works(ctx)
	if err != nil {
		return fmt.Errorf("list works: %w", err)
	}
	for _, w := range works {
		if w.GlossaryName() == name {
			o.invalidateWork("glossary", w.ID)
		}
	}
	return nil
}

// glossaryLanguage is the language a glossary's honorifics apply in.
func glossaryLanguage(name string) content.Language {
	_, hostName, _, ok := dictionary.SpliceFileName(name)
	if !ok {
		return content.Japanese
	}
	h, err := hosts.ParseHost(hostName)
	if err != nil {
		return content.Japanese
	}
	a, err := hosts.ForHost(h)
	if err != nil {
		return content.Japanese
	}
	return a.Language()
}

// GlossaryStatus describes one glossary known to the catalog or present
// on disk.
type GlossaryStatus struct {
	Name    string `json:"name"`
	WorkID  string `json:"work_id,omitempty"`
	Present bool   `json:"present"`
	Enabled bool   `json:"enabled"`
}

// ListGlossaries returns the shared glossary, every work's glossary and
// any other stored documents, sorted by name.
func (o *Orchestrator) ListGlossaries(ctx context.Context) ([]GlossaryStatus, error) {
	stored, err := o.Glossaries.List()
	if err != nil {
		return nil, err
	}
	works, err := o.Catalog.Works(ctx)
	if err != nil {
		return nil, fmt.Errorf("list works: %w", err)
	}

	byName := map[string]*GlossaryStatus{dictionary.CommonName: {Name: dictionary.CommonName}}
	for _, w := range works {
		byName[w.GlossaryName()] = &GlossaryStatus{Name: w.GlossaryName(), WorkID: w.ID}
	}
	for _, name := range stored {
		if st, ok := byName[name]; ok {
			st.Present = true
			continue
		}
		byName[name] = &GlossaryStatus{Name: name, Present: true}
	}

	out := make([]GlossaryStatus, 0, len(byName))
	for _, st := range byName {
		on, err := o.Catalog.GlossaryEnabled(ctx, st.Name)
		if err != nil {
			return nil, fmt.Errorf("glossary %s: %w", st.Name, err)
		}
		st.Enabled = on
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// CheckGlossary compiles text without saving it.
func (o *Orchestrator) CheckGlossary(ctx context.Context, name, text string) (GlossaryReport, error) {
	rules, err := o.Catalog.Honorifics(ctx)
	if err != nil {
		return GlossaryReport{}, fmt.Errorf("load honorifics: %w", err)
	}
	n, warnings := dictionary.Check(name, text, rules, glossaryLanguage(name))
	if warnings == nil {
		warnings = []dictionary.Warning{}
	}
	return GlossaryReport{Name: name, Entries: n, Warnings: warnings}, nil
}

// SaveGlossary writes a glossary and invalidates the chapters it
// applies to. Misformatted lines are reported, not rejected.
func (o *Orchestrator) SaveGlossary(ctx context.Context, name, text string) (GlossaryReport, error) {
	report, err := o.CheckGlossary(ctx, name, text)
	if err != nil {
		return report, err
	}
	if err := o.Glossaries.Write(name, text); err != nil {
		return report, err
	}
	if err := o.glossaryScope(ctx, name); err != nil {
		return report, err
	}
	o.log.Info("glossary saved", "name", name, "entries", report.Entries, "warnings", len(report.Warnings))
	return report, nil
}

// ImportGlossary converts a document in another format and saves it as
// the named glossary.
func (o *Orchestrator) ImportGlossary(ctx context.Context, name, filename string, r io.Reader) (GlossaryReport, error) {
	imp, err := glossimport.ForFile(filename)
	if err != nil {
		return GlossaryReport{}, err
	}
	text, err := imp.Import(r, filename)
	if err != nil {
		return GlossaryReport{}, fmt.Errorf("import %s: %w", filename, err)
	}
	return o.SaveGlossary(ctx, name, text)
}

// SetGlossaryEnabled toggles whether a glossary is applied.
func (o *Orchestrator) SetGlossaryEnabled(ctx context.Context, name string, enabled bool) error {
	if err := o.Catalog.SetGlossaryEnabled(ctx, name, enabled); err != nil {
		return err
	}
	return o.glossaryScope(ctx, name)
}

// PutHonorific adds or replaces a rule. Honorifics apply to every work,
// so the whole cache is dropped.
func (o *Orchestrator) PutHonorific(ctx context.Context, r dictionary.Rule) error {
	if err := o.Catalog.PutHonorific(ctx, r); err != nil {
		return err
	}
	o.invalidateAll("honorific")
	return nil
}

func (o *Orchestrator) DeleteHonorific(ctx context.Context, id string) error {
	if err := o.Catalog.DeleteHonorific(ctx, id); err != nil {
		return err
	}
	o.invalidateAll("honorific")
	return nil
}

// SetHonorificEnabled toggles one rule.
func (o *Orchestrator) SetHonorificEnabled(ctx context.Context, id string, enabled bool) error {
	rules, err := o.Catalog.Honorifics(ctx)
	if err != nil {
		return err
	}
	for _, r := range rules {
		if r.ID == id {
			r.Enabled = enabled
			return o.PutHonorific(ctx, r)
		}
	}
	return fmt.Errorf("honorific %s: %w", id, catalog.ErrNotFound)
}

// AddWork registers a work. Its chapters are discovered by the next
// update.
func (o *Orchestrator) AddWork(ctx context.Context, w catalog.Work) error {
	if _, err := o.Catalog.Work(ctx, w.ID); err == nil {
		return fmt.Errorf("work %s already exists", w.ID)
	} else if !errors.Is(err, catalog.ErrNotFound) {
		return err
	}
	return o.Catalog.PutWork(ctx, w)
}

// EditWork changes a work's title and abbreviation. The glossary is
// renamed to match and its header rewritten.
func (o *Orchestrator) EditWork(ctx context.Context, workID, title, abbr string) (catalog.Work, error) {
	work, err := o.Catalog.Work(ctx, workID)
	if err != nil {
		return catalog.Work{}, err
	}
	oldName := work.GlossaryName()
	if title != "" {
		work.Title = title
	}
	if abbr != "" {
		work.Abbr = abbr
	}
	if err := work.Validate(); err != nil {
		return catalog.Work{}, err
	}

	if err := o.Glossaries.Rename(oldName, work.GlossaryName()); err != nil {
		return catalog.Work{}, err
	}
	src, err := o.Glossaries.Read(work.GlossaryName())
	if err != nil {
		return catalog.Work{}, err
	}
	if src.Present {
		if err := o.Glossaries.Write(work.GlossaryName(), dictionary.RewriteHeader(src.Text, work.Title, work.Abbr)); err != nil {
			return catalog.Work{}, err
		}
	}
	if oldName != work.GlossaryName() {
		on, err := o.Catalog.GlossaryEnabled(ctx, oldName)
		if err != nil {
			return catalog.Work{}, err
		}
		if !on {
			if err := o.Catalog.SetGlossaryEnabled(ctx, work.GlossaryName(), false); err != nil {
				return catalog.Work{}, err
			}
		}
	}

	if err := o.Catalog.PutWork(ctx, work); err != nil {
		return catalog.Work{}, err
	}
	o.invalidateWork("work", workID)
	return work, nil
}

// SetBookmark toggles a chapter bookmark; the chapter's frame shows it.
func (o *Orchestrator) SetBookmark(ctx context.Context, workID string, n int, on bool) (catalog.Work, error) {
	work, err := o.Catalog.Work(ctx, workID)
	if err != nil {
		return catalog.Work{}, err
	}
	work.SetBookmark(n, on)
	if err := o.Catalog.PutWork(ctx, work); err != nil {
		return catalog.Work{}, err
	}
	o.invalidate("bookmark", rendercache.Key{WorkID: workID, Chapter: n})
	return work, nil
}

// MarkRead records the reader's current chapter.
func (o *Orchestrator) MarkRead(ctx context.Context, workID string, n int) error {
	work, err := o.Catalog.Work(ctx, workID)
	if err != nil {
		return err
	}
	if work.CurrentChapter == n {
		return nil
	}
	work.CurrentChapter = n
	return o.Catalog.PutWork(ctx, work)
}

// ExportChapter writes a chapter as a Word document.
func (o *Orchestrator) ExportChapter(ctx context.Context, workID string, n int, w io.Writer) error {
	a, err := o.Chapter(ctx, workID, n)
	if err != nil {
		return err
	}
	if !a.Available {
		return fmt.Errorf("%w: %s", ErrUnavailable, a.Notices[0].Message)
	}
	return render.WriteDOCX(w, a)
}
