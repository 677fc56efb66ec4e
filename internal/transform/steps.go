package transform

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// blockPrefix opens a block directive inside a heading, e.g. "## !!steps Intro".
const blockPrefix = "!!"

// KindStepSequence is the node kind of a run of consecutive steps.
var KindStepSequence = ast.NewNodeKind("StepSequence")

// StepSequence groups adjacent Step nodes.
type StepSequence struct {
	ast.BaseBlock
}

func (n *StepSequence) Kind() ast.NodeKind { return KindStepSequence }

func (n *StepSequence) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, nil, nil)
}

// KindStep is the node kind of a single step.
var KindStep = ast.NewNodeKind("Step")

// Step is one "!!steps" heading and the content under it. The heading
// itself is dropped; its level and title are kept.
type Step struct {
	ast.BaseBlock
	Index int
	Level int
	Title string
}

func (n *Step) Kind() ast.NodeKind { return KindStep }

func (n *Step) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{
		"Index": strconv.Itoa(n.Index),
		"Level": strconv.Itoa(n.Level),
		"Title": n.Title,
	}, nil)
}

// StepsStage groups "!!steps" headings into StepSequence/Step nodes.
type StepsStage struct{}

func (StepsStage) Name() string           { return "steps" }
func (StepsStage) Phase() Phase           { return PhaseStructural }
func (StepsStage) Provides() []Capability { return []Capability{CapStepNodes} }
func (StepsStage) Requires() []Capability { return nil }
func (s StepsStage) Extend(m goldmark.Markdown, priority int) {
	m.Parser().AddOptions(parser.WithASTTransformers(util.Prioritized(s, priority)))
}

// Transform implements parser.ASTTransformer.
func (s StepsStage) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	source := reader.Source()

	// Every directive heading must name a known block, wherever it sits.
	bad := false
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		if name, _, isBlock := blockHeading(h, source); isBlock && name != "steps" {
			fail(pc, s.Name(), headingLine(h, source), fmt.Errorf("unknown block %q", blockPrefix+name))
			bad = true
		}
		return ast.WalkSkipChildren, nil
	})
	if bad {
		return
	}

	var seq *StepSequence
	index := 0
	child := doc.FirstChild()
	for child != nil {
		h, ok := child.(*ast.Heading)
		if !ok {
			seq = nil
			child = child.NextSibling()
			continue
		}
		_, title, isBlock := blockHeading(h, source)
		if !isBlock {
			seq = nil
			child = child.NextSibling()
			continue
		}

		// The step runs until the next heading at the same or a higher level.
		end := h.NextSibling()
		for end != nil {
			if nh, ok := end.(*ast.Heading); ok && nh.Level <= h.Level {
				break
			}
			end = end.NextSibling()
		}

		if seq == nil {
			seq = &StepSequence{}
			doc.InsertBefore(doc, h, seq)
		}
		index++
		step := &Step{Index: index, Level: h.Level, Title: title}
		for n := h.NextSibling(); n != end; {
			next := n.NextSibling()
			step.AppendChild(step, n)
			n = next
		}
		doc.RemoveChild(doc, h)
		seq.AppendChild(seq, step)
		child = end
	}
}

// blockHeading reports whether h is a "!!name rest" directive heading.
func blockHeading(h *ast.Heading, source []byte) (name, rest string, ok bool) {
	raw := strings.TrimSpace(string(h.Lines().Value(source)))
	if !strings.HasPrefix(raw, blockPrefix) {
		return "", "", false
	}
	raw = raw[len(blockPrefix):]
	name, rest, _ = strings.Cut(raw, " ")
	return name, strings.TrimSpace(rest), true
}

func headingLine(h *ast.Heading, source []byte) int {
	if h.Lines().Len() == 0 {
		return 0
	}
	return lineAt(source, h.Lines().At(0).Start)
}

func lineAt(source []byte, offset int) int {
	if offset > len(source) {
		offset = len(source)
	}
	return bytes.Count(source[:offset], []byte("\n")) + 1
}

// StepsRenderStage renders StepSequence and Step nodes.
type StepsRenderStage struct{}

func (StepsRenderStage) Name() string           { return "steps-render" }
func (StepsRenderStage) Phase() Phase           { return PhaseRendering }
func (StepsRenderStage) Provides() []Capability { return nil }
func (StepsRenderStage) Requires() []Capability { return []Capability{CapStepNodes} }
func (s StepsRenderStage) Extend(m goldmark.Markdown, priority int) {
	m.Renderer().AddOptions(renderer.WithNodeRenderers(util.Prioritized(s, priority)))
}

// RegisterFuncs implements renderer.NodeRenderer.
func (s StepsRenderStage) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindStepSequence, s.renderSequence)
	reg.Register(KindStep, s.renderStep)
}

func (StepsRenderStage) renderSequence(w util.BufWriter, _ []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if entering {
		_, _ = fmt.Fprintf(w, "<section class=\"steps\" data-count=\"%d\">\n", n.ChildCount())
	} else {
		_, _ = w.WriteString("</section>\n")
	}
	return ast.WalkContinue, nil
}

func (StepsRenderStage) renderStep(w util.BufWriter, _ []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	n := node.(*Step)
	if !entering {
		_, _ = w.WriteString("</article>\n")
		return ast.WalkContinue, nil
	}
	_, _ = fmt.Fprintf(w, "<article class=\"step\" id=\"step-%d\">\n", n.Index)
	if n.Title != "" {
		_, _ = fmt.Fprintf(w, "<h%d class=\"step-title\">", n.Level)
		_, _ = w.Write(util.EscapeHTML([]byte(n.Title)))
		_, _ = fmt.Fprintf(w, "</h%d>\n", n.Level)
	}
	return ast.WalkContinue, nil
}
