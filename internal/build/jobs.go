package build

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/starford/kiln/internal/checksum"
	"github.com/starford/kiln/internal/codegen"
	"github.com/starford/kiln/internal/content"
	"github.com/starford/kiln/internal/frontmatter"
	"github.com/starford/kiln/internal/logfields"
	"github.com/starford/kiln/internal/metrics"
	"github.com/starford/kiln/internal/render"
	"github.com/starford/kiln/internal/storage"
)

// Job kinds.
const (
	KindRender      = "render"
	KindAggregate   = "aggregate"
	KindStatic      = "static"
	KindRouteParams = "route_params"
)

// renderEnv is shared read-only by every render job of one build.
type renderEnv struct {
	content       *content.Content
	output        storage.Provider
	renderer      *render.Renderer
	previous      map[string]string
	includeDrafts bool
	logger        *slog.Logger
}

// RenderJob parses, fingerprints and renders one document and always
// reports a DocResult.
type RenderJob struct {
	env     *renderEnv
	pos     int
	results chan<- DocResult
}

func (j *RenderJob) Kind() string { return KindRender }

func (j *RenderJob) Execute(context.Context) (err error) {
	c := j.env.content
	tok := c.Token(j.pos)
	res := DocResult{ID: j.pos, Path: c.Path(tok)}
	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("build: render %s panicked: %v", res.Path, r)
			j.results <- res
			panic(r)
		}
		if err != nil {
			res.Err = err
		}
		j.results <- res
	}()

	raw, body := c.Metadata(tok), c.Body(tok)
	res.Fingerprint = checksum.Document(res.Path, raw, body)
	logger := j.env.logger.With(logfields.Path(res.Path))

	meta, perr := frontmatter.Parse(raw, frontmatter.WithLogger(logger))
	if perr != nil {
		logger.Warn("build: metadata parse failed, rendering without metadata", logfields.Error(perr))
		meta = nil
		res.Outcome = metrics.DocumentParseError
	} else {
		res.Title = meta.Scalar("title")
		res.Tags = meta.TagList()
		res.Draft = meta.IsDraft()
		res.Metadata = meta.JSON()
		res.Outcome = metrics.DocumentRendered
	}

	if res.Draft && !j.env.includeDrafts {
		res.Outcome = metrics.DocumentDraft
		return nil
	}

	out := render.OutPath(res.Path)
	if prev, ok := j.env.previous[res.Path]; ok && prev == res.Fingerprint && perr == nil && j.env.output.Exists(out) {
		res.Outcome = metrics.DocumentSkipped
		return nil
	}

	var buf bytes.Buffer
	if err := j.env.renderer.Page(&buf, res.Path, body, meta); err != nil {
		return err
	}
	if err := j.env.output.Write(out, buf.Bytes()); err != nil {
		return fmt.Errorf("build: write %s: %w", out, err)
	}
	return nil
}

// AggregateJob writes one generated module from the build snapshot.
type AggregateJob struct {
	name   string
	output storage.Provider
	write  func(w io.Writer) error
}

func (j *AggregateJob) Kind() string { return KindAggregate }

func (j *AggregateJob) Execute(context.Context) error {
	return writeFile(j.output, j.name, j.write)
}

// contentJob writes the barrel of every published page.
func contentJob(snap *Snapshot, output storage.Provider) *AggregateJob {
	return &AggregateJob{name: codegen.ContentFile, output: output, write: func(w io.Writer) error {
		entries := make([]codegen.Entry, 0, len(snap.Published))
		for _, d := range snap.Docs {
			if d.Published() {
				entries = append(entries, codegen.Entry{ID: d.ID, ImportPath: render.ImportPath(d.Path)})
			}
		}
		return codegen.WriteContent(w, entries)
	}}
}

func collectionsJob(snap *Snapshot, output storage.Provider, logger *slog.Logger) *AggregateJob {
	return &AggregateJob{name: codegen.CollectionsFile, output: output, write: func(w io.Writer) error {
		return codegen.WriteGroups(w, snap.Collections, codegen.GroupsOptions{All: snap.Published, Logger: logger})
	}}
}

func taxonomiesJob(snap *Snapshot, output storage.Provider, logger *slog.Logger) *AggregateJob {
	return &AggregateJob{name: codegen.TaxonomiesFile, output: output, write: func(w io.Writer) error {
		return codegen.WriteGroups(w, snap.Taxonomies, codegen.GroupsOptions{Logger: logger})
	}}
}

// StaticJob writes output that does not depend on content.
type StaticJob struct {
	name   string
	output storage.Provider
	write  func(w io.Writer) error
}

func (j *StaticJob) Kind() string { return KindStatic }

func (j *StaticJob) Execute(context.Context) error {
	return writeFile(j.output, j.name, j.write)
}

// RouteParamsJob writes a parameter interface next to every dynamic route.
type RouteParamsJob struct {
	routes  storage.Provider
	written *atomic.Int64
	logger  *slog.Logger
}

func (j *RouteParamsJob) Kind() string { return KindRouteParams }

func (j *RouteParamsJob) Execute(context.Context) error {
	files, err := j.routes.List("")
	if err != nil {
		return fmt.Errorf("build: list routes: %w", err)
	}
	for _, f := range files {
		params := codegen.RouteParams(f.Path)
		if len(params) == 0 {
			continue
		}
		target := codegen.RouteParamsPath(f.Path)
		var buf bytes.Buffer
		if err := codegen.WriteRouteParams(&buf, params); err != nil {
			return fmt.Errorf("build: generate %s: %w", target, err)
		}
		j.written.Add(1)
		// Identical files are left untouched.
		if prev, err := j.routes.Read(target); err == nil && bytes.Equal(prev, buf.Bytes()) {
			continue
		}
		if err := j.routes.Write(target, buf.Bytes()); err != nil {
			return fmt.Errorf("build: write %s: %w", target, err)
		}
		j.logger.Debug("build: route params written", logfields.Path(target), logfields.Count(len(params)))
	}
	return nil
}

func writeFile(p storage.Provider, name string, write func(io.Writer) error) error {
	var buf bytes.Buffer
	if err := write(&buf); err != nil {
		return fmt.Errorf("build: generate %s: %w", name, err)
	}
	if err := p.Write(name, buf.Bytes()); err != nil {
		return fmt.Errorf("build: write %s: %w", name, err)
	}
	return nil
}
