package transform

import (
	"errors"
	"fmt"
	"strings"
)

// ErrStageOrder is returned by New when the declared stages cannot run in
// the given order.
var ErrStageOrder = errors.New("invalid stage order")

// validateOrder checks the declared order. It reports every problem it
// finds rather than the first one.
func validateOrder(stages []Stage) error {
	if len(stages) == 0 {
		return fmt.Errorf("transform: %w: no stages declared", ErrStageOrder)
	}

	var problems []string
	seen := make(map[string]bool, len(stages))
	provided := make(map[Capability]string)
	providers := make(map[Capability]string)
	for _, s := range stages {
		for _, c := range s.Provides() {
			if _, ok := providers[c]; !ok {
				providers[c] = s.Name()
			}
		}
	}

	lastPhase := PhaseStructural
	for i, s := range stages {
		name := s.Name()
		if seen[name] {
			problems = append(problems, fmt.Sprintf("stage %q declared twice", name))
		}
		seen[name] = true

		if s.Phase() < lastPhase {
			problems = append(problems, fmt.Sprintf("%s stage %q (position %d) follows a %s stage",
				s.Phase(), name, i, lastPhase))
		} else {
			lastPhase = s.Phase()
		}

		for _, req := range s.Requires() {
			if _, ok := provided[req]; ok {
				continue
			}
			if p, ok := providers[req]; ok {
				problems = append(problems, fmt.Sprintf("stage %q requires %q and must run after %q", name, req, p))
			} else {
				problems = append(problems, fmt.Sprintf("stage %q requires %q which no stage provides", name, req))
			}
		}
		for _, c := range s.Provides() {
			provided[c] = name
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("transform: %w: %s", ErrStageOrder, strings.Join(problems, "; "))
	}
	return nil
}
