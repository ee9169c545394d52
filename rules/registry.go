package rules

import (
	"errors"
	"fmt"
)

// RuleID names a rule in the closed registry.
type RuleID string

const (
	// Rhythm rules.
	RhythmicPatternValidity RuleID = "rhythmic_pattern_validity"

	// Voice leading rules.
	RearticulationStability RuleID = "rearticulation_stability"
	AbsenceOfStalledPitches RuleID = "absence_of_stalled_pitches"
	AbsenceOfLongMotion     RuleID = "absence_of_long_motion"
	AbsenceOfSkipSeries     RuleID = "absence_of_skip_series"
	TurnAfterSkip           RuleID = "turn_after_skip"
	SubmediantResolution    RuleID = "VI_VII_resolution"
	StepMotionToEnd         RuleID = "step_motion_to_end"

	// Harmony rules.
	ConsonanceOnStrongBeat          RuleID = "consonance_on_strong_beat"
	StepMotionToDissonance          RuleID = "step_motion_to_dissonance"
	StepMotionFromDissonance        RuleID = "step_motion_from_dissonance"
	ResolutionOfSuspendedDissonance RuleID = "resolution_of_suspended_dissonance"
	AbsenceOfLargeIntervals         RuleID = "absence_of_large_intervals"
	AbsenceOfLinesCrossing          RuleID = "absence_of_lines_crossing"
	AbsenceOfOverlappingMotion      RuleID = "absence_of_overlapping_motion"
)

// ErrUnknownRule is wrapped into errors for rule names outside the registry.
var ErrUnknownRule = errors.New("unknown rule")

// checker is a configured rule ready to evaluate candidates.
type checker func(*Context) bool

// builder turns a parameter mapping into a checker, rejecting unknown or
// ill-typed parameters.
type builder func(params map[string]any) (checker, error)

var registry = map[RuleID]builder{
	RhythmicPatternValidity: parameterless(checkRhythmicPattern),
	RearticulationStability: parameterless(checkRearticulationStability),
	AbsenceOfStalledPitches: func(params map[string]any) (checker, error) {
		maxN, err := intParam(params, "max_n_repetitions", 2)
		if err != nil {
			return nil, err
		}
		return func(ctx *Context) bool {
			return checkAbsenceOfStalledPitches(ctx, maxN)
		}, nil
	},
	AbsenceOfLongMotion: func(params map[string]any) (checker, error) {
		maxDistance, err := intParam(params, "max_distance_in_semitones", 9)
		if err != nil {
			return nil, err
		}
		return func(ctx *Context) bool {
			return checkAbsenceOfLongMotion(ctx, maxDistance)
		}, nil
	},
	AbsenceOfSkipSeries: func(params map[string]any) (checker, error) {
		maxSkips, err := intParam(params, "max_n_skips", 2)
		if err != nil {
			return nil, err
		}
		return func(ctx *Context) bool {
			return checkAbsenceOfSkipSeries(ctx, maxSkips)
		}, nil
	},
	TurnAfterSkip: func(params map[string]any) (checker, error) {
		minDegrees, err := intParam(params, "min_n_scale_degrees", 3)
		if err != nil {
			return nil, err
		}
		return func(ctx *Context) bool {
			return checkTurnAfterSkip(ctx, minDegrees)
		}, nil
	},
	SubmediantResolution: parameterless(checkSubmediantAndLeadingToneResolution),
	StepMotionToEnd: func(params map[string]any) (checker, error) {
		prohibit, err := boolParam(params, "prohibit_rearticulation", true)
		if err != nil {
			return nil, err
		}
		return func(ctx *Context) bool {
			return checkStepMotionToEnd(ctx, prohibit)
		}, nil
	},
	ConsonanceOnStrongBeat:          parameterless(checkConsonanceOnStrongBeat),
	StepMotionToDissonance:          parameterless(checkStepMotionToDissonance),
	StepMotionFromDissonance:        parameterless(checkStepMotionFromDissonance),
	ResolutionOfSuspendedDissonance: parameterless(checkSuspendedDissonanceResolution),
	AbsenceOfLargeIntervals: func(params map[string]any) (checker, error) {
		maxSemitones, err := intParam(params, "max_n_semitones", 16)
		if err != nil {
			return nil, err
		}
		return func(ctx *Context) bool {
			return checkAbsenceOfLargeIntervals(ctx, maxSemitones)
		}, nil
	},
	AbsenceOfLinesCrossing: func(params map[string]any) (checker, error) {
		prohibitUnisons, err := boolParam(params, "prohibit_unisons", true)
		if err != nil {
			return nil, err
		}
		return func(ctx *Context) bool {
			return checkAbsenceOfLinesCrossing(ctx, prohibitUnisons)
		}, nil
	},
	AbsenceOfOverlappingMotion: parameterless(checkAbsenceOfOverlappingMotion),
}

// DefaultRuleNames lists every registered rule in canonical order.
func DefaultRuleNames() []string {
	return []string{
		string(RhythmicPatternValidity),
		string(RearticulationStability),
		string(AbsenceOfStalledPitches),
		string(AbsenceOfLongMotion),
		string(AbsenceOfSkipSeries),
		string(TurnAfterSkip),
		string(SubmediantResolution),
		string(StepMotionToEnd),
		string(ConsonanceOnStrongBeat),
		string(StepMotionToDissonance),
		string(StepMotionFromDissonance),
		string(ResolutionOfSuspendedDissonance),
		string(AbsenceOfLargeIntervals),
		string(AbsenceOfLinesCrossing),
		string(AbsenceOfOverlappingMotion),
	}
}

func parameterless(check func(*Context) bool) builder {
	return func(params map[string]any) (checker, error) {
		if len(params) > 0 {
			return nil, fmt.Errorf("rule takes no parameters, got %d", len(params))
		}
		return check, nil
	}
}

func intParam(params map[string]any, key string, fallback int) (int, error) {
	if err := onlyKeys(params, key); err != nil {
		return 0, err
	}
	raw, ok := params[key]
	if !ok {
		return fallback, nil
	}
	switch v := raw.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v == float64(int(v)) {
			return int(v), nil
		}
	}
	return 0, fmt.Errorf("parameter %q must be an integer, got %v", key, raw)
}

func boolParam(params map[string]any, key string, fallback bool) (bool, error) {
	if err := onlyKeys(params, key); err != nil {
		return false, err
	}
	raw, ok := params[key]
	if !ok {
		return fallback, nil
	}
	v, ok := raw.(bool)
	if !ok {
		return false, fmt.Errorf("parameter %q must be a boolean, got %v", key, raw)
	}
	return v, nil
}

func onlyKeys(params map[string]any, allowed ...string) error {
	for key := range params {
		known := false
		for _, a := range allowed {
			if key == a {
				known = true
				break
			}
		}
		if !known {
			return fmt.Errorf("unknown parameter %q", key)
		}
	}
	return nil
}
