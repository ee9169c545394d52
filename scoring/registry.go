package scoring

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/fwachter/quintus/piece"
)

// ScorerID names a scoring function in the closed registry.
type ScorerID string

const (
	ClimaxExplicityScorer ScorerID = "climax_explicity"
	EntropyScorer         ScorerID = "entropy"
	LoopedFragmentsScorer ScorerID = "looped_fragments"
	NarrowRangesScorer    ScorerID = "narrow_ranges"
	NumberOfSkipsScorer   ScorerID = "number_of_skips"
)

// ErrUnknownScorer is wrapped into errors for scorer names outside the
// registry.
var ErrUnknownScorer = errors.New("unknown scoring function")

type scoreFn func(*piece.Piece) float64

type builder func(params map[string]any) (scoreFn, error)

var registry = map[ScorerID]builder{
	ClimaxExplicityScorer: func(params map[string]any) (scoreFn, error) {
		if err := onlyKeys(params, "shortage_penalty", "duplication_penalty"); err != nil {
			return nil, err
		}
		shortage, err := floatParam(params, "shortage_penalty", 0.3)
		if err != nil {
			return nil, err
		}
		duplication, err := floatParam(params, "duplication_penalty", 0.5)
		if err != nil {
			return nil, err
		}
		return func(p *piece.Piece) float64 {
			return ClimaxExplicity(p, shortage, duplication)
		}, nil
	},
	EntropyScorer: func(params map[string]any) (scoreFn, error) {
		if err := onlyKeys(params); err != nil {
			return nil, err
		}
		return Entropy, nil
	},
	LoopedFragmentsScorer: func(params map[string]any) (scoreFn, error) {
		if err := onlyKeys(params, "min_size", "max_size"); err != nil {
			return nil, err
		}
		minSize, err := intParam(params, "min_size", 4)
		if err != nil {
			return nil, err
		}
		maxSize, err := intParam(params, "max_size", 0)
		if err != nil {
			return nil, err
		}
		return func(p *piece.Piece) float64 {
			return LoopedFragments(p, minSize, maxSize)
		}, nil
	},
	NarrowRangesScorer: func(params map[string]any) (scoreFn, error) {
		if err := onlyKeys(params, "min_size", "penalties"); err != nil {
			return nil, err
		}
		minSize, err := intParam(params, "min_size", 9)
		if err != nil {
			return nil, err
		}
		penalties, err := intMapParam(params, "penalties", map[int]float64{2: 1, 3: 0.5})
		if err != nil {
			return nil, err
		}
		return func(p *piece.Piece) float64 {
			return NarrowRanges(p, minSize, penalties)
		}, nil
	},
	NumberOfSkipsScorer: func(params map[string]any) (scoreFn, error) {
		if err := onlyKeys(params, "rewards"); err != nil {
			return nil, err
		}
		rewards, err := intMapParam(params, "rewards", map[int]float64{
			1: 0.8, 2: 0.9, 3: 1, 4: 0.9, 5: 0.5, 6: 0.25,
		})
		if err != nil {
			return nil, err
		}
		return func(p *piece.Piece) float64 {
			return NumberOfSkips(p, rewards)
		}, nil
	},
}

// DefaultCoefs returns the standard weighting of the scoring functions.
func DefaultCoefs() map[string]float64 {
	return map[string]float64{
		string(ClimaxExplicityScorer): 1,
		string(EntropyScorer):         1,
		string(LoopedFragmentsScorer): 1,
		string(NarrowRangesScorer):    1,
		string(NumberOfSkipsScorer):   1,
	}
}

// Evaluator combines configured scoring functions into one weighted score.
// Construction resolves every name eagerly; evaluation order is fixed by
// name so that float summation is deterministic.
type Evaluator struct {
	names   []ScorerID
	weights []float64
	fns     []scoreFn
}

// NewEvaluator binds scoring coefficients and per-function parameters
// against the registry.
func NewEvaluator(coefs map[string]float64, params map[string]map[string]any) (*Evaluator, error) {
	names := make([]string, 0, len(coefs))
	for name := range coefs {
		names = append(names, name)
	}
	sort.Strings(names)

	e := &Evaluator{
		names:   make([]ScorerID, 0, len(names)),
		weights: make([]float64, 0, len(names)),
		fns:     make([]scoreFn, 0, len(names)),
	}
	for _, name := range names {
		build, ok := registry[ScorerID(name)]
		if !ok {
			return nil, fmt.Errorf("%w %q", ErrUnknownScorer, name)
		}
		fn, err := build(params[name])
		if err != nil {
			return nil, fmt.Errorf("scoring function %q: %w", name, err)
		}
		e.names = append(e.names, ScorerID(name))
		e.weights = append(e.weights, coefs[name])
		e.fns = append(e.fns, fn)
	}
	for name := range params {
		if _, ok := coefs[name]; !ok {
			return nil, fmt.Errorf("parameters given for unweighted scoring function %q", name)
		}
	}
	return e, nil
}

// Score returns the weighted sum of all configured scoring functions.
// The piece must be complete; partial lines are never scored.
func (e *Evaluator) Score(p *piece.Piece) float64 {
	var total float64
	for i, fn := range e.fns {
		total += e.weights[i] * fn(p)
	}
	return total
}

// Breakdown returns the weighted contribution of every scoring function,
// keyed by name.
func (e *Evaluator) Breakdown(p *piece.Piece) map[ScorerID]float64 {
	out := make(map[ScorerID]float64, len(e.fns))
	for i, fn := range e.fns {
		out[e.names[i]] = e.weights[i] * fn(p)
	}
	return out
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

func floatParam(params map[string]any, key string, fallback float64) (float64, error) {
	raw, ok := params[key]
	if !ok {
		return fallback, nil
	}
	v, ok := toFloat(raw)
	if !ok {
		return 0, fmt.Errorf("parameter %q must be a number, got %v", key, raw)
	}
	return v, nil
}

func intParam(params map[string]any, key string, fallback int) (int, error) {
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

// intMapParam reads lookup tables like {2: 1, 3: 0.5}. YAML decoding may
// deliver keys as ints or strings depending on the document.
func intMapParam(params map[string]any, key string, fallback map[int]float64) (map[int]float64, error) {
	raw, ok := params[key]
	if !ok {
		return fallback, nil
	}
	switch v := raw.(type) {
	case map[int]float64:
		return v, nil
	case map[string]any:
		out := make(map[int]float64, len(v))
		for k, val := range v {
			i, err := strconv.Atoi(k)
			if err != nil {
				return nil, fmt.Errorf("parameter %q: key %q is not an integer", key, k)
			}
			f, ok := toFloat(val)
			if !ok {
				return nil, fmt.Errorf("parameter %q: value %v is not a number", key, val)
			}
			out[i] = f
		}
		return out, nil
	case map[any]any:
		out := make(map[int]float64, len(v))
		for k, val := range v {
			i, ok := toInt(k)
			if !ok {
				return nil, fmt.Errorf("parameter %q: key %v is not an integer", key, k)
			}
			f, ok := toFloat(val)
			if !ok {
				return nil, fmt.Errorf("parameter %q: value %v is not a number", key, val)
			}
			out[i] = f
		}
		return out, nil
	}
	return nil, fmt.Errorf("parameter %q must be a mapping, got %v", key, raw)
}

func toFloat(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

func toInt(raw any) (int, bool) {
	switch v := raw.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case string:
		i, err := strconv.Atoi(v)
		if err != nil {
			return 0, false
		}
		return i, true
	}
	return 0, false
}
