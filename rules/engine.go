package rules

import (
	"fmt"

	"github.com/fwachter/quintus/piece"
)

// Engine holds a configured set of rules and enumerates the continuations
// they admit. Configuration is resolved eagerly: unknown rule names and bad
// parameters fail at construction, never during search.
type Engine struct {
	names  []RuleID
	checks []checker
}

// NewEngine resolves rule names against the registry and binds each rule's
// parameters. The params mapping is keyed by rule name; absent entries use
// the rule's defaults.
func NewEngine(names []string, params map[string]map[string]any) (*Engine, error) {
	e := &Engine{
		names:  make([]RuleID, 0, len(names)),
		checks: make([]checker, 0, len(names)),
	}
	seen := make(map[RuleID]bool, len(names))
	for _, name := range names {
		id := RuleID(name)
		build, ok := registry[id]
		if !ok {
			return nil, fmt.Errorf("%w %q", ErrUnknownRule, name)
		}
		if seen[id] {
			return nil, fmt.Errorf("rule %q configured twice", name)
		}
		seen[id] = true
		check, err := build(params[name])
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", name, err)
		}
		e.names = append(e.names, id)
		e.checks = append(e.checks, check)
	}
	for name := range params {
		if !seen[RuleID(name)] {
			return nil, fmt.Errorf("parameters given for unconfigured rule %q", name)
		}
	}
	return e, nil
}

// RuleNames returns the configured rules in evaluation order.
func (e *Engine) RuleNames() []RuleID {
	out := make([]RuleID, len(e.names))
	copy(out, e.names)
	return out
}

// Check reports whether every configured rule accepts the continuation.
// The continuation must resolve against the piece.
func (e *Engine) Check(p *piece.Piece, c piece.Continuation) bool {
	resolved, ok := p.Resolve(c)
	if !ok {
		return false
	}
	ctx := newContext(p, resolved, c.Movement)
	for _, check := range e.checks {
		if !check(ctx) {
			return false
		}
	}
	return true
}

// LegalContinuations enumerates every continuation admitted by the rules
// from the given state. The order is deterministic: movements ascending,
// durations ascending within a movement. An empty result on an incomplete
// piece is a dead end, not an error.
//
// In the final measure the only candidate is the configured end note as a
// whole note; a line arriving mid-measure there cannot finish.
func (e *Engine) LegalContinuations(p *piece.Piece) []piece.Continuation {
	if p.IsComplete() {
		return nil
	}
	last := p.LastElement()
	nextStart := last.EndTimeInEighths
	finalMeasureStart := p.TotalEighths - piece.NEighthsPerMeasure

	if nextStart >= finalMeasureStart {
		if nextStart != finalMeasureStart {
			return nil
		}
		// The closing note is placed mechanically: step_motion_to_end has
		// already forced the line within one step of the end pitch, so the
		// rule chain does not apply here.
		closing := piece.Continuation{
			Movement:          p.EndElement.PositionInDegrees - last.PositionInDegrees,
			DurationInEighths: piece.NEighthsPerMeasure,
		}
		if closing.Movement < -1 || closing.Movement > 1 {
			return nil
		}
		if _, ok := p.Resolve(closing); !ok {
			return nil
		}
		return []piece.Continuation{closing}
	}

	maxSkip := p.Spec.MaxSkipInDegrees
	var legal []piece.Continuation
	for movement := -maxSkip; movement <= maxSkip; movement++ {
		for _, duration := range piece.ContinuationDurations {
			c := piece.Continuation{Movement: movement, DurationInEighths: duration}
			if e.Check(p, c) {
				legal = append(legal, c)
			}
		}
	}
	return legal
}
