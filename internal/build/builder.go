// Package build runs one content build: scan, render every document on the
// worker pool, aggregate the results and write the generated modules.
package build

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/starford/kiln/internal/apperr"
	"github.com/starford/kiln/internal/codegen"
	"github.com/starford/kiln/internal/content"
	"github.com/starford/kiln/internal/index"
	"github.com/starford/kiln/internal/logfields"
	"github.com/starford/kiln/internal/metrics"
	"github.com/starford/kiln/internal/models"
	"github.com/starford/kiln/internal/pool"
	"github.com/starford/kiln/internal/render"
	"github.com/starford/kiln/internal/storage"
)

// Builder runs builds. At most one build runs at a time.
type Builder struct {
	input  storage.Provider
	output storage.Provider
	routes storage.Provider
	index  index.DocumentIndex

	renderer      *render.Renderer
	workers       int
	includeDrafts bool
	logger        *slog.Logger
	recorder      metrics.Recorder

	running atomic.Bool
}

// Option configures a Builder.
type Option func(*Builder)

// WithRoutes enables route parameter generation for the given routes tree.
func WithRoutes(p storage.Provider) Option {
	return func(b *Builder) { b.routes = p }
}

// WithIndex persists build results and enables incremental rebuilds.
func WithIndex(idx index.DocumentIndex) Option {
	return func(b *Builder) { b.index = idx }
}

// WithWorkers sets the pool size.
func WithWorkers(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.workers = n
		}
	}
}

// WithDrafts makes draft documents render like any other.
func WithDrafts(include bool) Option {
	return func(b *Builder) { b.includeDrafts = include }
}

func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

func WithRecorder(r metrics.Recorder) Option {
	return func(b *Builder) {
		if r != nil {
			b.recorder = r
		}
	}
}

// New returns a Builder reading documents from input and writing generated
// modules to output.
func New(input, output storage.Provider, opts ...Option) *Builder {
	b := &Builder{
		input:    input,
		output:   output,
		renderer: render.New(),
		workers:  8,
		logger:   slog.Default(),
		recorder: metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Running reports whether a build is in progress.
func (b *Builder) Running() bool { return b.running.Load() }

// Build runs one full build. It returns apperr.ErrBuildRunning if another
// build is in progress. Per-document failures are counted in the report and
// do not fail the build. Cancelling ctx does not interrupt a build that has
// started.
func (b *Builder) Build(ctx context.Context) (*Report, error) {
	if !b.running.CompareAndSwap(false, true) {
		return nil, apperr.ErrBuildRunning
	}
	defer b.running.Store(false)

	started := time.Now()
	rep := &Report{StartedAt: started}

	c, err := content.Scan(b.input, b.logger)
	if err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}
	rep.Documents = c.Len()
	rep.ReadErrors = c.Skipped()

	previous, outputs := b.loadPrevious()

	// Dequeued jobs always run to completion.
	p, err := pool.New(context.WithoutCancel(ctx), b.workers, pool.WithLogger(b.logger), pool.WithRecorder(b.recorder))
	if err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}
	defer p.Close()

	var routeFiles atomic.Int64
	if b.routes != nil {
		if err := p.Submit(&RouteParamsJob{routes: b.routes, written: &routeFiles, logger: b.logger}); err != nil {
			return nil, fmt.Errorf("build: %w", err)
		}
	}

	env := &renderEnv{
		content:       c,
		output:        b.output,
		renderer:      b.renderer,
		previous:      previous,
		includeDrafts: b.includeDrafts,
		logger:        b.logger,
	}
	results := make(chan DocResult, c.Len())
	for i := range c.Len() {
		if err := p.Submit(&RenderJob{env: env, pos: i, results: results}); err != nil {
			return nil, fmt.Errorf("build: %w", err)
		}
	}

	agg := NewAggregator(c.Len())
	for range c.Len() {
		agg.Add(<-results)
	}
	snap := agg.Freeze()

	for _, job := range []pool.Job{
		contentJob(snap, b.output),
		collectionsJob(snap, b.output, b.logger),
		taxonomiesJob(snap, b.output, b.logger),
		&StaticJob{name: codegen.HelpersFile, output: b.output, write: codegen.WriteHelpers},
	} {
		if err := p.Submit(job); err != nil {
			return nil, fmt.Errorf("build: %w", err)
		}
	}
	p.Close()

	rep.tally(snap)
	rep.Routes = int(routeFiles.Load())
	rep.JobFailures = int(p.Stats().Failed)
	rep.Removed = b.removeStale(snap, outputs)
	b.persist(snap, started)

	rep.Duration = time.Since(started)
	b.record(rep)
	b.logger.Info("build: complete",
		logfields.Count(rep.Documents),
		slog.Int("rendered", rep.Rendered),
		slog.Int("skipped", rep.Skipped),
		slog.Int("drafts", rep.Drafts),
		slog.Int("parse_errors", rep.ParseErrors),
		slog.Int("failed", rep.Failed),
		slog.Int("job_failures", rep.JobFailures),
		logfields.DurationMS(rep.Duration))
	return rep, nil
}

// loadPrevious reads fingerprints and output paths of the last build. Any
// failure means a full rebuild.
func (b *Builder) loadPrevious() (map[string]string, map[string]string) {
	if b.index == nil {
		return nil, nil
	}
	fps, err := b.index.Fingerprints()
	if err != nil {
		b.logger.Warn("build: load fingerprints failed, rebuilding everything", logfields.Error(err))
		return nil, nil
	}
	outs, err := b.index.Outputs()
	if err != nil {
		b.logger.Warn("build: load outputs failed", logfields.Error(err))
		return fps, nil
	}
	return fps, outs
}

// removeStale deletes page modules of documents that no longer publish.
func (b *Builder) removeStale(snap *Snapshot, outputs map[string]string) int {
	if len(outputs) == 0 {
		return 0
	}
	live := make(map[string]struct{}, len(snap.Docs))
	for _, d := range snap.Docs {
		if d.Published() {
			live[d.Path] = struct{}{}
		}
	}
	removed := 0
	for path, out := range outputs {
		if _, ok := live[path]; ok {
			continue
		}
		if err := b.output.Delete(out); err != nil {
			b.logger.Warn("build: remove stale output failed", logfields.Path(out), logfields.Error(err))
			continue
		}
		removed++
	}
	return removed
}

func (b *Builder) persist(snap *Snapshot, at time.Time) {
	if b.index == nil {
		return
	}
	docs := make([]models.Document, 0, len(snap.Docs))
	for _, d := range snap.Docs {
		doc := models.Document{
			ID:          d.ID,
			Path:        d.Path,
			Title:       d.Title,
			Fingerprint: d.Fingerprint,
			Draft:       d.Draft,
			Tags:        d.Tags,
			Metadata:    d.Metadata,
			UpdatedAt:   at,
		}
		if d.Published() {
			doc.OutPath = render.OutPath(d.Path)
		}
		if d.Err != nil {
			// Forces a re-render next time.
			doc.Fingerprint = ""
		}
		docs = append(docs, doc)
	}

	var members []index.Membership
	paths := make(map[int]string, len(snap.Docs))
	for _, d := range snap.Docs {
		paths[d.ID] = d.Path
	}
	for _, g := range snap.Collections {
		for _, id := range g.IDs {
			members = append(members, index.Membership{Kind: models.GroupCollection, Name: g.Name, Path: paths[id]})
		}
	}
	for _, g := range snap.Taxonomies {
		for _, id := range g.IDs {
			members = append(members, index.Membership{Kind: models.GroupTaxonomy, Name: g.Name, Path: paths[id]})
		}
	}

	if err := b.index.Replace(docs, members); err != nil {
		b.logger.Error("build: persist index failed", logfields.Error(err))
	}
}

func (b *Builder) record(rep *Report) {
	b.recorder.ObserveBuildDuration(rep.Duration)
	b.recorder.IncDocuments(metrics.DocumentRendered, rep.Rendered)
	b.recorder.IncDocuments(metrics.DocumentSkipped, rep.Skipped)
	b.recorder.IncDocuments(metrics.DocumentDraft, rep.Drafts)
	b.recorder.IncDocuments(metrics.DocumentParseError, rep.ParseErrors)
	b.recorder.IncDocuments(metrics.DocumentReadError, rep.ReadErrors)
}
