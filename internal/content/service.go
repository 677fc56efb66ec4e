// Package content turns a directory of post sources into listed, ordered,
// classified posts.
package content

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/frontmatter"
	"github.com/starford/folio/internal/logfields"
	"github.com/starford/folio/internal/models"
	"github.com/starford/folio/internal/storage"
	"github.com/starford/folio/internal/transform"
)

// DefaultExtension is the content file extension.
const DefaultExtension = ".mdx"

// JoinPolicy decides what a listing does when one document fails.
type JoinPolicy string

const (
	// FailFast aborts the whole listing on the first failure.
	FailFast JoinPolicy = "fail_fast"
	// Partial drops failed documents, logs them and lists the rest.
	Partial JoinPolicy = "partial"
)

// ParseJoinPolicy validates s. The empty string means FailFast.
func ParseJoinPolicy(s string) (JoinPolicy, error) {
	switch JoinPolicy(s) {
	case "", FailFast:
		return FailFast, nil
	case Partial:
		return Partial, nil
	}
	return "", fmt.Errorf("content: unknown join policy %q", s)
}

// Compiler runs the transform stages over a body.
type Compiler interface {
	Compile(ctx context.Context, slug string, body []byte) (*transform.Result, error)
}

// Result is the outcome for one document: a post and its body, or a
// *apperr.DocumentError.
type Result struct {
	Slug string
	Post *models.Post
	Body string
	Err  error
}

// Service implements the listing operations over a storage.Provider.
// It keeps no state between calls; every call reads the directory again.
type Service struct {
	store    storage.Provider
	compiler Compiler
	ext      string
	workers  int
	policy   JoinPolicy
	logger   *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithExtension sets the content file extension, including the dot.
func WithExtension(ext string) Option {
	return func(s *Service) {
		if ext != "" {
			s.ext = ext
		}
	}
}

// WithWorkers caps concurrent document work. Zero or less means no cap.
func WithWorkers(n int) Option {
	return func(s *Service) {
		s.workers = n
	}
}

// WithJoinPolicy sets the failure policy of ListPosts.
func WithJoinPolicy(p JoinPolicy) Option {
	return func(s *Service) {
		s.policy = p
	}
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// NewService creates a Service.
func NewService(store storage.Provider, compiler Compiler, opts ...Option) *Service {
	s := &Service{
		store:    store,
		compiler: compiler,
		ext:      DefaultExtension,
		policy:   FailFast,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Extension returns the content file extension.
func (s *Service) Extension() string { return s.ext }

// Policy returns the configured join policy.
func (s *Service) Policy() JoinPolicy { return s.policy }

// ListPosts discovers, parses and transforms every document, then filters
// by mode and sorts newest first.
//
// Under FailFast any document failure aborts the call with an error that
// matches one of the apperr kinds. Under Partial failed documents are
// logged and left out.
func (s *Service) ListPosts(ctx context.Context, mode models.BuildMode) ([]models.Post, error) {
	start := time.Now()

	var (
		posts []models.Post
		err   error
	)
	if s.policy == Partial {
		posts, err = s.listPartial(ctx)
	} else {
		posts, err = s.listFailFast(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("content: list posts: %w", err)
	}

	posts = FilterVisible(posts, mode)
	SortByDate(posts)

	s.logger.Info("content: listed posts",
		logfields.Mode(mode.String()),
		logfields.Count(len(posts)),
		logfields.Duration(time.Since(start)))
	return posts, nil
}

// ListSlugs is ListPosts projected onto slugs.
func (s *Service) ListSlugs(ctx context.Context, mode models.BuildMode) ([]string, error) {
	posts, err := s.ListPosts(ctx, mode)
	if err != nil {
		return nil, err
	}
	slugs := make([]string, len(posts))
	for i, p := range posts {
		slugs[i] = p.Slug
	}
	return slugs, nil
}

// Collect builds every document and reports each outcome, in discovery
// order, without filtering or sorting. Only a discovery failure or
// cancellation is returned as an error.
func (s *Service) Collect(ctx context.Context) ([]Result, error) {
	names, err := s.store.Discover(s.ext)
	if err != nil {
		return nil, err
	}

	results := make([]Result, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.limit())
	for i, name := range names {
		g.Go(func() error {
			post, body, err := s.build(gctx, name)
			if isCancel(err) {
				return err
			}
			results[i] = Result{Slug: s.slug(name), Post: post, Body: body, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) listFailFast(ctx context.Context) ([]models.Post, error) {
	names, err := s.store.Discover(s.ext)
	if err != nil {
		return nil, err
	}

	posts := make([]models.Post, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.limit())
	for i, name := range names {
		g.Go(func() error {
			post, _, err := s.build(gctx, name)
			if err != nil {
				return err
			}
			posts[i] = *post
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return posts, nil
}

func (s *Service) listPartial(ctx context.Context) ([]models.Post, error) {
	results, err := s.Collect(ctx)
	if err != nil {
		return nil, err
	}
	posts := make([]models.Post, 0, len(results))
	for _, r := range results {
		if r.Err != nil {
			s.logger.Warn("content: skipping document",
				logfields.Slug(r.Slug),
				logfields.Kind(kindName(r.Err)),
				logfields.Error(r.Err))
			continue
		}
		posts = append(posts, *r.Post)
	}
	return posts, nil
}

// Render compiles a single post to HTML. Unknown slugs, and drafts in
// production, are apperr.ErrNotFound.
func (s *Service) Render(ctx context.Context, slug string, mode models.BuildMode) (*models.RenderedPost, error) {
	if slug == "" || strings.ContainsAny(slug, `/\`) {
		return nil, apperr.NewDocumentError(slug, apperr.ErrNotFound, errors.New("invalid slug"))
	}
	data, err := s.store.Read(slug + s.ext)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperr.NewDocumentError(slug, apperr.ErrNotFound, err)
		}
		return nil, apperr.NewDocumentError(slug, apperr.ErrUnreadableFile, err)
	}
	doc, err := frontmatter.Parse(data)
	if err != nil {
		return nil, apperr.NewDocumentError(slug, apperr.ErrMalformedFrontmatter, err)
	}
	post := models.Post{Slug: slug, Frontmatter: doc.Frontmatter, Kind: doc.Kind}
	if !Visible(post, mode) {
		return nil, apperr.NewDocumentError(slug, apperr.ErrNotFound, errors.New("draft"))
	}
	res, err := s.compiler.Compile(ctx, slug, []byte(doc.Body))
	if err != nil {
		return nil, err
	}
	return &models.RenderedPost{Post: post, HTML: res.HTML, Steps: res.Steps}, nil
}

// build reads, parses and transforms one document.
func (s *Service) build(ctx context.Context, name string) (*models.Post, string, error) {
	slug := s.slug(name)
	data, err := s.store.Read(name)
	if err != nil {
		return nil, "", apperr.NewDocumentError(slug, apperr.ErrUnreadableFile, err)
	}
	doc, err := frontmatter.Parse(data)
	if err != nil {
		return nil, "", apperr.NewDocumentError(slug, apperr.ErrMalformedFrontmatter, err)
	}
	if _, err := s.compiler.Compile(ctx, slug, []byte(doc.Body)); err != nil {
		return nil, "", err
	}
	return &models.Post{Slug: slug, Frontmatter: doc.Frontmatter, Kind: doc.Kind}, doc.Body, nil
}

func (s *Service) slug(name string) string {
	return strings.TrimSuffix(name, s.ext)
}

func (s *Service) limit() int {
	if s.workers <= 0 {
		return -1
	}
	return s.workers
}

func isCancel(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func kindName(err error) string {
	if kind := apperr.KindOf(err); kind != nil {
		return kind.Error()
	}
	return "unknown"
}
