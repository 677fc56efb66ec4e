package transform

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// Attribute names set on annotated code blocks.
const (
	AttrMark  = "data-mark"
	AttrFocus = "data-focus"
)

var annotationAttrs = map[string]string{
	"mark":  AttrMark,
	"focus": AttrFocus,
}

// annotationRe matches a comment line holding only an annotation:
// "// !mark", "# !focus(2)", "<!-- !mark(1:3) -->".
var annotationRe = regexp.MustCompile(`^(?://|#|--|/\*|<!--)\s*!([A-Za-z][\w-]*)(?:\(([^)]*)\))?\s*(?:\*/|-->)?$`)

// LineRange is an inclusive, 1-based range of code lines.
type LineRange struct {
	From, To int
}

func (r LineRange) String() string {
	if r.From == r.To {
		return strconv.Itoa(r.From)
	}
	return fmt.Sprintf("%d-%d", r.From, r.To)
}

// FormatRanges renders ranges as "1-2,5".
func FormatRanges(rs []LineRange) string {
	parts := make([]string, len(rs))
	for i, r := range rs {
		parts[i] = r.String()
	}
	return strings.Join(parts, ",")
}

// ParseRanges is the inverse of FormatRanges.
func ParseRanges(s string) ([]LineRange, error) {
	if s == "" {
		return nil, nil
	}
	var out []LineRange
	for _, part := range strings.Split(s, ",") {
		from, to, found := strings.Cut(part, "-")
		a, err := strconv.Atoi(from)
		if err != nil {
			return nil, fmt.Errorf("bad range %q", part)
		}
		b := a
		if found {
			if b, err = strconv.Atoi(to); err != nil {
				return nil, fmt.Errorf("bad range %q", part)
			}
		}
		out = append(out, LineRange{From: a, To: b})
	}
	return out, nil
}

// AnnotationsStage strips annotation comments from fenced code blocks and
// records the lines they point at as node attributes.
type AnnotationsStage struct{}

func (AnnotationsStage) Name() string           { return "annotations" }
func (AnnotationsStage) Phase() Phase           { return PhaseStructural }
func (AnnotationsStage) Provides() []Capability { return []Capability{CapCodeAnnotations} }
func (AnnotationsStage) Requires() []Capability { return nil }
func (s AnnotationsStage) Extend(m goldmark.Markdown, priority int) {
	m.Parser().AddOptions(parser.WithASTTransformers(util.Prioritized(s, priority)))
}

// Transform implements parser.ASTTransformer.
func (s AnnotationsStage) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	source := reader.Source()
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if cb, ok := n.(*ast.FencedCodeBlock); ok {
			s.annotate(cb, source, pc)
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
}

type pending struct {
	name  string
	start int // 0-based index of the first kept line the annotation covers
	from  int
	to    int
	line  int
}

func (s AnnotationsStage) annotate(cb *ast.FencedCodeBlock, source []byte, pc parser.Context) {
	lines := cb.Lines()
	kept := text.NewSegments()
	var found []pending

	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		m := annotationRe.FindStringSubmatch(strings.TrimSpace(string(seg.Value(source))))
		if m == nil {
			kept.Append(seg)
			continue
		}
		line := lineAt(source, seg.Start)
		if _, known := annotationAttrs[m[1]]; !known {
			fail(pc, s.Name(), line, fmt.Errorf("unknown annotation %q", "!"+m[1]))
			return
		}
		from, to, err := parseAnnotationRange(m[2])
		if err != nil {
			fail(pc, s.Name(), line, fmt.Errorf("annotation %q: %w", "!"+m[1], err))
			return
		}
		found = append(found, pending{name: m[1], start: kept.Len(), from: from, to: to, line: line})
	}
	if len(found) == 0 {
		return
	}

	total := kept.Len()
	ranges := make(map[string][]LineRange)
	for _, p := range found {
		r := LineRange{From: p.start + p.from, To: p.start + p.to}
		if r.To > total {
			fail(pc, s.Name(), p.line, fmt.Errorf("annotation %q points past the end of the block (%d lines)", "!"+p.name, total))
			return
		}
		ranges[p.name] = append(ranges[p.name], r)
	}

	cb.SetLines(kept)
	for name, rs := range ranges {
		cb.SetAttributeString(annotationAttrs[name], []byte(FormatRanges(rs)))
	}
}

// parseAnnotationRange reads the optional argument of an annotation. The
// result is relative to the line after the comment, which is line 1.
func parseAnnotationRange(arg string) (from, to int, err error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return 1, 1, nil
	}
	if a, b, ok := strings.Cut(arg, ":"); ok {
		from, err1 := strconv.Atoi(strings.TrimSpace(a))
		to, err2 := strconv.Atoi(strings.TrimSpace(b))
		if err1 != nil || err2 != nil || from < 1 || to < from {
			return 0, 0, fmt.Errorf("bad range %q", arg)
		}
		return from, to, nil
	}
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 {
		return 0, 0, fmt.Errorf("bad range %q", arg)
	}
	return 1, n, nil
}
