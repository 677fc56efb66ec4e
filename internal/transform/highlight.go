package transform

import (
	"fmt"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"
)

// HighlightOptions configures the highlight stage.
type HighlightOptions struct {
	// Style is a chroma style name. Empty means the chroma fallback.
	Style string
	// Classes emits CSS classes instead of inline styles.
	Classes     bool
	LineNumbers bool
}

// HasStyle reports whether chroma knows the named style.
func HasStyle(name string) bool {
	_, ok := styles.Registry[name]
	return ok
}

// HighlightStage syntax-highlights fenced code and turns code annotations
// into highlighted lines and data attributes.
type HighlightStage struct {
	opts HighlightOptions
}

// NewHighlightStage returns the stage, rejecting unknown styles.
func NewHighlightStage(opts HighlightOptions) (*HighlightStage, error) {
	if opts.Style != "" && !HasStyle(opts.Style) {
		return nil, fmt.Errorf("transform: unknown highlight style %q", opts.Style)
	}
	return &HighlightStage{opts: opts}, nil
}

func (*HighlightStage) Name() string           { return "highlight" }
func (*HighlightStage) Phase() Phase           { return PhaseRendering }
func (*HighlightStage) Provides() []Capability { return nil }
func (*HighlightStage) Requires() []Capability { return []Capability{CapCodeAnnotations} }

// Extend registers the goldmark-highlighting code block renderer at the
// stage's priority.
func (s *HighlightStage) Extend(m goldmark.Markdown, priority int) {
	opts := []highlighting.Option{
		highlighting.WithFormatOptions(
			chromahtml.WithClasses(s.opts.Classes),
			chromahtml.WithLineNumbers(s.opts.LineNumbers),
		),
		highlighting.WithCodeBlockOptions(markedLines),
		highlighting.WithWrapperRenderer(wrapCodeBlock),
	}
	if s.opts.Style != "" {
		opts = append(opts, highlighting.WithStyle(s.opts.Style))
	}
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(highlighting.NewHTMLRenderer(opts...), priority),
	))
}

// markedLines feeds "!mark" ranges to chroma as highlighted lines.
func markedLines(ctx highlighting.CodeBlockContext) []chromahtml.Option {
	rs := attrRanges(ctx, AttrMark)
	if len(rs) == 0 {
		return nil
	}
	hl := make([][2]int, len(rs))
	for i, r := range rs {
		hl[i] = [2]int{r.From, r.To}
	}
	return []chromahtml.Option{chromahtml.HighlightLines(hl)}
}

func attrRanges(ctx highlighting.CodeBlockContext, name string) []LineRange {
	attrs := ctx.Attributes()
	if attrs == nil {
		return nil
	}
	v, ok := attrs.GetString(name)
	if !ok {
		return nil
	}
	b, ok := v.([]byte)
	if !ok {
		return nil
	}
	rs, err := ParseRanges(string(b))
	if err != nil {
		return nil
	}
	return rs
}

// wrapCodeBlock surrounds every code block with a div carrying its
// language and annotation ranges. Unhighlighted blocks get a plain
// <pre><code> since the wrapper replaces the default one.
func wrapCodeBlock(w util.BufWriter, ctx highlighting.CodeBlockContext, entering bool) {
	if !entering {
		if !ctx.Highlighted() {
			_, _ = w.WriteString("</code></pre>")
		}
		_, _ = w.WriteString("</div>\n")
		return
	}

	_, _ = w.WriteString(`<div class="code-block"`)
	lang, hasLang := ctx.Language()
	if hasLang {
		_, _ = w.WriteString(` data-lang="`)
		_, _ = w.Write(util.EscapeHTML(lang))
		_ = w.WriteByte('"')
	}
	for _, name := range []string{AttrMark, AttrFocus} {
		if rs := attrRanges(ctx, name); len(rs) > 0 {
			_, _ = fmt.Fprintf(w, ` %s="%s"`, name, FormatRanges(rs))
		}
	}
	_ = w.WriteByte('>')

	if !ctx.Highlighted() {
		_, _ = w.WriteString("<pre><code")
		if hasLang {
			_, _ = w.WriteString(` class="language-`)
			_, _ = w.Write(util.EscapeHTML(lang))
			_ = w.WriteByte('"')
		}
		_ = w.WriteByte('>')
	}
}
