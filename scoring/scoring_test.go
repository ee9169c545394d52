package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fwachter/quintus/music"
	"github.com/fwachter/quintus/piece"
)

func buildPiece(
	t *testing.T, cantusFirmus []string, spec piece.Spec, steps []piece.Continuation,
) *piece.Piece {
	t.Helper()
	s, err := music.BuildScale("C", music.Major)
	require.NoError(t, err)
	p, err := piece.New(s, cantusFirmus, spec)
	require.NoError(t, err)
	for _, c := range steps {
		next, ok := p.Append(c)
		require.True(t, ok, "append %+v", c)
		p = next
	}
	require.True(t, p.IsComplete())
	return p
}

// descendingPiece walks E4 F4 G4 D4 C4 B3 A3 G3: every pitch of the
// configured range exactly once, with a single skip.
func descendingPiece(t *testing.T) *piece.Piece {
	return buildPiece(t,
		[]string{"C4", "D4", "E4", "D4", "C4"},
		piece.Spec{
			StartNote:           "E4",
			EndNote:             "G3",
			LowestNote:          "G3",
			HighestNote:         "G4",
			StartPauseInEighths: 4,
			MaxSkipInDegrees:    3,
		},
		[]piece.Continuation{
			{Movement: 1, DurationInEighths: 4},
			{Movement: 1, DurationInEighths: 4},
			{Movement: -3, DurationInEighths: 4},
			{Movement: -1, DurationInEighths: 4},
			{Movement: -1, DurationInEighths: 4},
			{Movement: -1, DurationInEighths: 4},
			{Movement: -1, DurationInEighths: 8},
		},
	)
}

func TestEntropyUniformLine(t *testing.T) {
	assert.InDelta(t, 1.0, Entropy(descendingPiece(t)), 1e-9)
}

func TestNumberOfSkips(t *testing.T) {
	p := descendingPiece(t)
	assert.Equal(t, 0.5, NumberOfSkips(p, map[int]float64{1: 0.5, 2: 1, 3: 0.5}))
	assert.Equal(t, 0.0, NumberOfSkips(p, map[int]float64{2: 1}))
}

func TestNarrowRanges(t *testing.T) {
	p := descendingPiece(t)
	penalties := map[int]float64{1: 1, 2: 0.6, 3: 0.1}
	// Windows of width 3 occur three times, wider windows are free.
	assert.InDelta(t, -0.3, NarrowRanges(p, 4, penalties), 1e-9)
	assert.InDelta(t, 0.0, NarrowRanges(p, 9, penalties), 1e-9)
}

func TestClimaxExplicity(t *testing.T) {
	peaked := descendingPiece(t)
	// G4 is both the declared and actual climax and occurs once.
	assert.InDelta(t, 1.0, ClimaxExplicity(peaked, 0.3, 0.5), 1e-9)

	duplicated := buildPiece(t,
		[]string{"C4", "D4", "E4", "D4", "C4"},
		piece.Spec{
			StartNote:           "E4",
			EndNote:             "E4",
			LowestNote:          "G3",
			HighestNote:         "E4",
			StartPauseInEighths: 4,
			MaxSkipInDegrees:    2,
		},
		[]piece.Continuation{
			{Movement: -1, DurationInEighths: 4},
			{Movement: -1, DurationInEighths: 4},
			{Movement: 0, DurationInEighths: 4},
			{Movement: -1, DurationInEighths: 4},
			{Movement: 1, DurationInEighths: 4},
			{Movement: 1, DurationInEighths: 4},
			{Movement: 1, DurationInEighths: 8},
		},
	)
	// The closing E4 duplicates the opening climax.
	assert.InDelta(t, 0.5, ClimaxExplicity(duplicated, 0.3, 0.5), 1e-9)

	short := buildPiece(t,
		[]string{"C4", "D4", "E4", "D4", "C4"},
		piece.Spec{
			StartNote:           "E4",
			EndNote:             "E4",
			LowestNote:          "G3",
			HighestNote:         "G4",
			StartPauseInEighths: 4,
			MaxSkipInDegrees:    2,
		},
		[]piece.Continuation{
			{Movement: 1, DurationInEighths: 4},
			{Movement: -1, DurationInEighths: 4},
			{Movement: 0, DurationInEighths: 4},
			{Movement: 0, DurationInEighths: 4},
			{Movement: 0, DurationInEighths: 4},
			{Movement: 0, DurationInEighths: 4},
			{Movement: 0, DurationInEighths: 8},
		},
	)
	// The line peaks at F4, one degree under the declared G4.
	assert.InDelta(t, 0.7, ClimaxExplicity(short, 0.3, 0.5), 1e-9)
}

func TestLoopedFragments(t *testing.T) {
	looped := buildPiece(t,
		[]string{"C4", "D4", "C4", "D4", "C4"},
		piece.Spec{
			StartNote:           "E4",
			EndNote:             "E4",
			LowestNote:          "G3",
			HighestNote:         "G4",
			StartPauseInEighths: 4,
			MaxSkipInDegrees:    2,
		},
		[]piece.Continuation{
			{Movement: 0, DurationInEighths: 4},
			{Movement: 0, DurationInEighths: 4},
			{Movement: 0, DurationInEighths: 4},
			{Movement: 0, DurationInEighths: 4},
			{Movement: 0, DurationInEighths: 4},
			{Movement: 0, DurationInEighths: 4},
			{Movement: 0, DurationInEighths: 8},
		},
	)
	// The cantus firmus alternates with period 16: five shifted repeats.
	assert.InDelta(t, -5.0, LoopedFragments(looped, 8, 0), 1e-9)

	varied := descendingPiece(t)
	assert.InDelta(t, 0.0, LoopedFragments(varied, 8, 0), 1e-9)
}

func TestNewEvaluatorRejectsUnknownNames(t *testing.T) {
	_, err := NewEvaluator(map[string]float64{"smoothness": 1}, nil)
	require.ErrorIs(t, err, ErrUnknownScorer)

	_, err = NewEvaluator(
		map[string]float64{string(EntropyScorer): 1},
		map[string]map[string]any{string(EntropyScorer): {"base": 2}},
	)
	require.Error(t, err)

	_, err = NewEvaluator(
		map[string]float64{string(EntropyScorer): 1},
		map[string]map[string]any{string(NarrowRangesScorer): {"min_size": 4}},
	)
	require.Error(t, err)
}

func TestEvaluatorWeightedSum(t *testing.T) {
	e, err := NewEvaluator(
		map[string]float64{
			string(EntropyScorer):       2,
			string(NumberOfSkipsScorer): 1,
		},
		map[string]map[string]any{
			string(NumberOfSkipsScorer): {
				"rewards": map[string]any{"1": 0.5},
			},
		},
	)
	require.NoError(t, err)

	p := descendingPiece(t)
	assert.InDelta(t, 2*1.0+0.5, e.Score(p), 1e-9)

	breakdown := e.Breakdown(p)
	assert.InDelta(t, 2.0, breakdown[EntropyScorer], 1e-9)
	assert.InDelta(t, 0.5, breakdown[NumberOfSkipsScorer], 1e-9)
}

func TestEvaluatorDefaults(t *testing.T) {
	e, err := NewEvaluator(DefaultCoefs(), nil)
	require.NoError(t, err)
	p := descendingPiece(t)
	first := e.Score(p)
	second := e.Score(p)
	assert.Equal(t, first, second)
}
