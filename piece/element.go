// Package piece holds the musical state of a composition in progress: the
// fixed cantus firmus and the counterpoint line grown against it.
//
// A Piece is immutable. Append returns a new Piece sharing the cantus firmus
// with its parent, so beam candidates branch without copying the whole state
// and without any backtracking bookkeeping.
package piece

import (
	"github.com/fwachter/quintus/music"
)

// NEighthsPerMeasure is the rhythmic resolution of a measure.
const NEighthsPerMeasure = 8

// LineElement is one sounded note of a line, placed on the eighth-note grid.
type LineElement struct {
	music.ScaleElement
	StartTimeInEighths int
	EndTimeInEighths   int
}

// MeasureIndex returns the zero-based measure the element starts in.
func (e LineElement) MeasureIndex() int {
	return e.StartTimeInEighths / NEighthsPerMeasure
}

// PositionInMeasure returns the element's starting eighth within its measure.
func (e LineElement) PositionInMeasure() int {
	return e.StartTimeInEighths % NEighthsPerMeasure
}

// StartsOnStrongBeat reports whether the element is articulated on a strong
// beat (eighth positions divisible by 4).
func (e LineElement) StartsOnStrongBeat() bool {
	return e.StartTimeInEighths%4 == 0
}

// DurationInEighths returns the sounded length of the element.
func (e LineElement) DurationInEighths() int {
	return e.EndTimeInEighths - e.StartTimeInEighths
}

// Continuation is a proposed next note for the counterpoint line: a melodic
// movement in scale degrees relative to the last note, and a duration.
type Continuation struct {
	Movement          int
	DurationInEighths int
}

// ContinuationDurations lists the durations a continuation may take, in
// eighths. Whole notes starting mid-measure produce suspensions.
var ContinuationDurations = [4]int{1, 2, 4, 8}
