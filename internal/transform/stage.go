// Package transform compiles post bodies to HTML through an explicitly
// ordered list of stages.
//
// Structural stages rewrite the Markdown AST (step sequences, code
// annotations). Rendering stages turn the rewritten tree into HTML
// (syntax highlighting, step markup). The order is declared by the caller
// and checked once in New.
package transform

import (
	"fmt"

	"github.com/yuin/goldmark"
)

// Phase groups stages. Every structural stage must run before every
// rendering stage.
type Phase int

const (
	PhaseStructural Phase = iota
	PhaseRendering
)

func (p Phase) String() string {
	switch p {
	case PhaseStructural:
		return "structural"
	case PhaseRendering:
		return "rendering"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// Capability names something a stage leaves behind for later stages.
type Capability string

const (
	CapStepNodes       Capability = "step-nodes"
	CapCodeAnnotations Capability = "code-annotations"
)

// Stage is one step of the pipeline.
type Stage interface {
	// Name is unique within a pipeline.
	Name() string
	Phase() Phase
	Provides() []Capability
	Requires() []Capability
	// Extend installs the stage into m at priority. Lower priorities run
	// first; for renderers of the same node kind the lower priority wins.
	Extend(m goldmark.Markdown, priority int)
}
