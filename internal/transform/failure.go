package transform

import (
	"errors"
	"fmt"

	"github.com/yuin/goldmark/parser"
)

// goldmark transformers cannot return errors, so structural stages record
// them on the parser context and Compile checks after parsing.
var failureKey = parser.NewContextKey()

// StageError is a failure raised inside a stage.
type StageError struct {
	Stage string
	Line  int
	Err   error
}

func (e *StageError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("stage %s: line %d: %v", e.Stage, e.Line, e.Err)
	}
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

func fail(pc parser.Context, stage string, line int, err error) {
	prev, _ := pc.Get(failureKey).([]error)
	pc.Set(failureKey, append(prev, &StageError{Stage: stage, Line: line, Err: err}))
}

func failures(pc parser.Context) error {
	errs, _ := pc.Get(failureKey).([]error)
	return errors.Join(errs...)
}
