// Package rules implements the hard constraints of fifth-species counterpoint
// and the engine that enumerates legal line continuations.
//
// Every rule is a pure predicate over a continuation candidate in context.
// A candidate is legal only if every configured rule accepts it; rules are
// independent, so their evaluation order never changes the outcome.
package rules

import (
	"github.com/fwachter/quintus/music"
	"github.com/fwachter/quintus/piece"
)

// Context bundles everything a rule may inspect: the piece so far, the
// resolved continuation candidate, the movement producing it, the cantus
// firmus elements sounding against it, and the note durations of the
// candidate's measure.
type Context struct {
	Piece        *piece.Piece
	Continuation piece.LineElement
	Movement     int
	CantusFirmus []piece.LineElement
	Durations    []int
}

func newContext(p *piece.Piece, cont piece.LineElement, movement int) *Context {
	return &Context{
		Piece:        p,
		Continuation: cont,
		Movement:     movement,
		CantusFirmus: p.CantusFirmusDuring(cont.StartTimeInEighths, cont.EndTimeInEighths),
		Durations:    p.MeasureDurations(cont),
	}
}

// Rhythm rules.

var validRhythmicPatterns = [][]int{
	{4, 4},
	{4, 2, 2},
	{4, 2, 1, 1},
	{2, 2, 2, 2},
	{2, 2, 2, 1, 1},
	{2, 1, 1, 2, 2},
	{4, 8},
	{2, 2, 8},
	{2, 1, 1, 8},
}

// checkRhythmicPattern accepts a measure whose note durations so far form a
// prefix of one of the valid fifth-species patterns. A whole note ending a
// pattern is a suspension into the next measure.
func checkRhythmicPattern(ctx *Context) bool {
	for _, pattern := range validRhythmicPatterns {
		if isPrefix(ctx.Durations, pattern) {
			return true
		}
	}
	return false
}

func isPrefix(durations, pattern []int) bool {
	if len(durations) > len(pattern) {
		return false
	}
	for i, d := range durations {
		if pattern[i] != d {
			return false
		}
	}
	return true
}

// Voice leading rules.

// checkRearticulationStability allows repeating a pitch only when it belongs
// to the tonic triad.
func checkRearticulationStability(ctx *Context) bool {
	if ctx.Movement != 0 {
		return true
	}
	return ctx.Continuation.IsFromTonicTriad
}

// checkAbsenceOfStalledPitches rejects a rearticulation when the pitch has
// already been repeated maxNRepetitions times in a row.
func checkAbsenceOfStalledPitches(ctx *Context, maxNRepetitions int) bool {
	if ctx.Movement != 0 {
		return true
	}
	past := ctx.Piece.PastMovements
	if len(past) < maxNRepetitions-1 {
		return true
	}
	for _, m := range past[len(past)-maxNRepetitions+1:] {
		if m != 0 {
			return true
		}
	}
	return false
}

// checkAbsenceOfLongMotion limits how far the line may travel without a
// change of direction.
func checkAbsenceOfLongMotion(ctx *Context, maxDistanceInSemitones int) bool {
	distance := ctx.Continuation.PositionInSemitones - ctx.Piece.MotionStart.PositionInSemitones
	if distance < 0 {
		distance = -distance
	}
	return distance <= maxDistanceInSemitones
}

// checkAbsenceOfSkipSeries rejects a skip preceded by maxNSkips consecutive
// skips.
func checkAbsenceOfSkipSeries(ctx *Context, maxNSkips int) bool {
	if abs(ctx.Movement) <= 1 {
		return true
	}
	past := ctx.Piece.PastMovements
	if len(past) < maxNSkips {
		return true
	}
	for _, m := range past[len(past)-maxNSkips:] {
		if abs(m) <= 1 {
			return true
		}
	}
	return false
}

// checkTurnAfterSkip requires a step in the opposite direction after a skip
// of at least minNScaleDegrees.
func checkTurnAfterSkip(ctx *Context, minNScaleDegrees int) bool {
	past := ctx.Piece.PastMovements
	if len(past) == 0 {
		return true
	}
	previous := past[len(past)-1]
	if abs(previous) < minNScaleDegrees {
		return true
	}
	return ctx.Movement == -sign(previous)
}

// checkSubmediantAndLeadingToneResolution forces the tonic after a
// submediant-to-leading-tone move and the dominant after the reverse.
func checkSubmediantAndLeadingToneResolution(ctx *Context) bool {
	line := ctx.Piece.Counterpoint
	if len(line) < 2 {
		return true
	}
	last := line[len(line)-1].Degree
	beforeLast := line[len(line)-2].Degree
	switch {
	case last == 6 && beforeLast == 7:
		return ctx.Movement == -1
	case last == 7 && beforeLast == 6:
		return ctx.Movement == 1
	}
	return true
}

// checkStepMotionToEnd accepts only candidates from which the final pitch is
// still reachable by step motion in the quarters remaining before the last
// measure.
func checkStepMotionToEnd(ctx *Context, prohibitRearticulation bool) bool {
	degreesToEnd := abs(
		ctx.Continuation.PositionInDegrees - ctx.Piece.EndElement.PositionInDegrees,
	)
	eighthsLeft := (ctx.Piece.TotalEighths - piece.NEighthsPerMeasure) -
		ctx.Continuation.EndTimeInEighths
	quartersLeft := (eighthsLeft + 1) / 2
	if quartersLeft == 0 && degreesToEnd == 0 {
		return !prohibitRearticulation
	}
	return degreesToEnd <= quartersLeft+1
}

// Harmony rules.

// checkConsonanceOnStrongBeat requires consonance with the simultaneous
// cantus firmus note when the candidate is articulated on a strong beat.
func checkConsonanceOnStrongBeat(ctx *Context) bool {
	if !ctx.Continuation.StartsOnStrongBeat() {
		return true
	}
	return music.IsConsonant(ctx.Continuation.ScaleElement, ctx.CantusFirmus[0].ScaleElement)
}

// checkStepMotionToDissonance lets a dissonance be entered only by step.
func checkStepMotionToDissonance(ctx *Context) bool {
	if music.IsConsonant(ctx.Continuation.ScaleElement, ctx.CantusFirmus[0].ScaleElement) {
		return true
	}
	return ctx.Movement == 1 || ctx.Movement == -1
}

// checkStepMotionFromDissonance lets a dissonance be left only by step.
func checkStepMotionFromDissonance(ctx *Context) bool {
	if ctx.Piece.IsLastConsonant() {
		return true
	}
	return ctx.Movement == 1 || ctx.Movement == -1
}

// checkSuspendedDissonanceResolution requires a dissonant whole note to
// resolve down by step onto a consonance with the latest simultaneous
// cantus firmus note.
func checkSuspendedDissonanceResolution(ctx *Context) bool {
	last := ctx.Piece.LastElement()
	if last.DurationInEighths() != piece.NEighthsPerMeasure {
		return true
	}
	if ctx.Piece.IsLastConsonant() {
		return true
	}
	if ctx.Movement != -1 {
		return false
	}
	lastCF := ctx.CantusFirmus[len(ctx.CantusFirmus)-1]
	return music.IsConsonant(ctx.Continuation.ScaleElement, lastCF.ScaleElement)
}

// checkAbsenceOfLargeIntervals limits the vertical interval against every
// simultaneous cantus firmus note.
func checkAbsenceOfLargeIntervals(ctx *Context, maxNSemitones int) bool {
	for _, cf := range ctx.CantusFirmus {
		if abs(ctx.Continuation.PositionInSemitones-cf.PositionInSemitones) > maxNSemitones {
			return false
		}
	}
	return true
}

// checkAbsenceOfLinesCrossing keeps the counterpoint on its configured side
// of the cantus firmus, optionally treating unisons as crossings.
func checkAbsenceOfLinesCrossing(ctx *Context, prohibitUnisons bool) bool {
	initialSign := 1
	if !ctx.Piece.Spec.IsCounterpointAbove {
		initialSign = -1
	}
	for _, cf := range ctx.CantusFirmus {
		diff := ctx.Continuation.PositionInSemitones - cf.PositionInSemitones
		if prohibitUnisons && diff == 0 {
			return false
		}
		if initialSign*diff < 0 {
			return false
		}
	}
	return true
}

// checkAbsenceOfOverlappingMotion keeps the candidate strictly on its side of
// the cantus firmus note the previous counterpoint note sounded against.
func checkAbsenceOfOverlappingMotion(ctx *Context) bool {
	initialSign := 1
	if !ctx.Piece.Spec.IsCounterpointAbove {
		initialSign = -1
	}
	previousCF := ctx.Piece.PreviousCantusFirmusElement()
	diff := ctx.Continuation.PositionInSemitones - previousCF.PositionInSemitones
	return initialSign*diff > 0
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func sign(x int) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}
