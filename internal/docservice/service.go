// Package docservice answers queries about built documents and triggers
// rebuilds. It combines the persisted index with a live parse of the source
// file for document detail.
package docservice

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/starford/kiln/internal/apperr"
	"github.com/starford/kiln/internal/build"
	"github.com/starford/kiln/internal/content"
	"github.com/starford/kiln/internal/frontmatter"
	"github.com/starford/kiln/internal/index"
	"github.com/starford/kiln/internal/models"
	"github.com/starford/kiln/internal/storage"
)

// Builder runs a build.
type Builder interface {
	Build(ctx context.Context) (*build.Report, error)
}

// BuildHook observes every build the service triggers.
type BuildHook func(rep *build.Report, err error)

// LiveMetadata is the metadata block of a document as it is on disk now.
type LiveMetadata struct {
	// Projection is the JavaScript object literal emitted into the page
	// module. Null values appear as `undefined`, so it is not strict JSON.
	Projection string   `json:"projection"`
	Title      string   `json:"title,omitempty"`
	Tags       []string `json:"tags"`
	Draft      bool     `json:"draft"`
	Nodes      int      `json:"nodes"`
	ParseError string   `json:"parse_error,omitempty"`
}

// DocumentDetail is the full representation of one document.
type DocumentDetail struct {
	models.Document
	Live *LiveMetadata `json:"live,omitempty"`
	Body string        `json:"body"`
}

// Service coordinates the index, the content store and the builder.
type Service struct {
	store   storage.Provider
	idx     index.DocumentIndex
	builder Builder
	hook    BuildHook
	logger  *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithBuilder enables Rebuild.
func WithBuilder(b Builder) Option {
	return func(s *Service) { s.builder = b }
}

// WithBuildHook registers a callback run after every Rebuild.
func WithBuildHook(h BuildHook) Option {
	return func(s *Service) { s.hook = h }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService creates a new document service over the content store and
// index.
func NewService(store storage.Provider, idx index.DocumentIndex, opts ...Option) *Service {
	s := &Service{store: store, idx: idx, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetDocument returns the indexed summary of path together with a live parse
// of its metadata. A document whose file vanished since the last build is
// returned without live data.
func (s *Service) GetDocument(_ context.Context, path string) (*DocumentDetail, error) {
	doc, err := s.idx.GetDocument(path)
	if err != nil {
		return nil, err
	}
	detail := &DocumentDetail{Document: *doc}

	raw, err := s.store.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		return detail, nil
	}
	if err != nil {
		return nil, fmt.Errorf("docservice: read %s: %w", path, err)
	}

	meta, body := content.Classify(raw)
	detail.Body = string(raw[body.Start:body.End])
	detail.Live = s.live(path, string(raw[meta.Start:meta.End]))
	return detail, nil
}

// Metadata parses the current metadata block of path without touching the
// index.
func (s *Service) Metadata(_ context.Context, path string) (*LiveMetadata, error) {
	raw, err := s.store.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("docservice: %s: %w", path, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("docservice: read %s: %w", path, err)
	}
	meta, _ := content.Classify(raw)
	return s.live(path, string(raw[meta.Start:meta.End])), nil
}

func (s *Service) live(path, src string) *LiveMetadata {
	y, err := frontmatter.Parse(src, frontmatter.WithLogger(s.logger.With(slog.String("path", path))))
	if err != nil {
		return &LiveMetadata{Tags: []string{}, ParseError: err.Error()}
	}
	return &LiveMetadata{
		Projection: y.JSON(),
		Title:      y.Scalar("title"),
		Tags:       y.TagList(),
		Draft:      y.IsDraft(),
		Nodes:      y.Len(),
	}
}

// ListDocuments returns a page of indexed documents and the total count.
func (s *Service) ListDocuments(_ context.Context, f index.Filter) ([]models.Document, int, error) {
	return s.idx.ListDocuments(f)
}

// Groups lists the collections or taxonomies of the last build.
func (s *Service) Groups(_ context.Context, kind string) ([]models.Group, error) {
	return s.idx.Groups(kind)
}

// Group returns a page of the members of one group. An unknown group is
// apperr.ErrNotFound.
func (s *Service) Group(ctx context.Context, kind, name string, limit, offset int) ([]models.Document, int, error) {
	docs, total, err := s.idx.ListDocuments(index.Filter{Kind: kind, Name: name, Limit: limit, Offset: offset})
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return nil, 0, fmt.Errorf("docservice: %s %q: %w", kind, name, apperr.ErrNotFound)
	}
	return docs, total, nil
}

// Rebuild runs a build now. It returns apperr.ErrBuildRunning when a build
// is already in progress.
func (s *Service) Rebuild(ctx context.Context) (*build.Report, error) {
	if s.builder == nil {
		return nil, errors.New("docservice: rebuild not available")
	}
	rep, err := s.builder.Build(ctx)
	if s.hook != nil && !errors.Is(err, apperr.ErrBuildRunning) {
		s.hook(rep, err)
	}
	return rep, err
}
