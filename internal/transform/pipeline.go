package transform

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/logfields"
)

// Stage i is installed at basePriority + i*priorityStep.
const (
	basePriority = 100
	priorityStep = 10
)

// Result is the output of compiling one body.
type Result struct {
	HTML  string
	Steps int
}

// Pipeline compiles bodies with a fixed, validated list of stages.
// It is safe for concurrent use.
type Pipeline struct {
	stages []Stage
	md     goldmark.Markdown
	logger *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the pipeline logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = l
	}
}

// DefaultStages returns the standard order: steps, annotations,
// highlight, steps-render.
func DefaultStages(hl HighlightOptions) ([]Stage, error) {
	highlight, err := NewHighlightStage(hl)
	if err != nil {
		return nil, err
	}
	return []Stage{StepsStage{}, AnnotationsStage{}, highlight, StepsRenderStage{}}, nil
}

// New validates the declared order and builds the pipeline. An invalid
// order fails with ErrStageOrder.
func New(stages []Stage, opts ...Option) (*Pipeline, error) {
	if err := validateOrder(stages); err != nil {
		return nil, err
	}

	p := &Pipeline{
		stages: append([]Stage(nil), stages...),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}

	p.md = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	)
	for i, s := range p.stages {
		s.Extend(p.md, basePriority+i*priorityStep)
	}
	return p, nil
}

// StageNames lists the stages in execution order.
func (p *Pipeline) StageNames() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name()
	}
	return names
}

// Compile runs every stage over body. Failures are reported as
// apperr.ErrTransformFailure tagged with slug.
//
// goldmark has no context support, so the work runs in a goroutine and
// Compile returns early when ctx is cancelled.
func (p *Pipeline) Compile(ctx context.Context, slug string, body []byte) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	type outcome struct {
		res *Result
		err error
	}
	done := make(chan outcome, 1)
	start := time.Now()

	go func() {
		res, err := p.compile(body)
		done <- outcome{res: res, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case out := <-done:
		if out.err != nil {
			return nil, apperr.NewDocumentError(slug, apperr.ErrTransformFailure, out.err)
		}
		p.logger.Debug("transform: compiled",
			logfields.Slug(slug),
			logfields.Duration(time.Since(start)),
			slog.Int("steps", out.res.Steps))
		return out.res, nil
	}
}

func (p *Pipeline) compile(body []byte) (*Result, error) {
	pc := parser.NewContext()
	doc := p.md.Parser().Parse(text.NewReader(body), parser.WithContext(pc))
	if err := failures(pc); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := p.md.Renderer().Render(&buf, body, doc); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return &Result{HTML: buf.String(), Steps: countSteps(doc)}, nil
}

func countSteps(doc ast.Node) int {
	n := 0
	_ = ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering && node.Kind() == KindStep {
			n++
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return n
}
