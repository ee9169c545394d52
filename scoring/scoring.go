// Package scoring evaluates complete counterpoint lines with weighted soft
// objectives. Hard validity is the rules package's concern; scores here only
// rank lines that already satisfy every rule.
package scoring

import (
	"math"

	"github.com/fwachter/quintus/piece"
)

// ClimaxExplicity rewards a single well-defined melodic peak. Each scale
// degree between the declared highest pitch and the actual one costs
// shortagePenalty; each repetition of the running maximum after its first
// occurrence costs duplicationPenalty.
func ClimaxExplicity(p *piece.Piece, shortagePenalty, duplicationPenalty float64) float64 {
	line := p.Counterpoint
	maxPosition := line[0].PositionInDegrees
	nDuplications := 0
	for _, el := range line[1:] {
		switch {
		case el.PositionInDegrees == maxPosition:
			nDuplications++
		case el.PositionInDegrees > maxPosition:
			maxPosition = el.PositionInDegrees
			nDuplications = 0
		}
	}
	shortage := float64(p.HighestElement.PositionInDegrees - maxPosition)
	return 1 - shortagePenalty*shortage - duplicationPenalty*float64(nDuplications)
}

// Entropy measures pitch diversity: the Shannon entropy of the degree
// histogram over the configured range, normalized by the uniform maximum.
func Entropy(p *piece.Piece) float64 {
	counts := make(map[int]int, len(p.Counterpoint))
	for _, el := range p.Counterpoint {
		counts[el.PositionInDegrees]++
	}
	nElements := p.HighestElement.PositionInDegrees - p.LowestElement.PositionInDegrees + 1
	if nElements <= 1 {
		return 0
	}
	total := float64(len(p.Counterpoint))
	var raw float64
	for pos := p.LowestElement.PositionInDegrees; pos <= p.HighestElement.PositionInDegrees; pos++ {
		if counts[pos] == 0 {
			continue
		}
		prob := float64(counts[pos]) / total
		raw -= prob * math.Log(prob)
	}
	return raw / math.Log(float64(nElements))
}

// LoopedFragments penalizes every piano-roll fragment immediately repeated
// by an identical one, scanning fragment sizes from minSize to maxSize.
// maxSize zero means half the piece duration. Fragments are compared up to
// the end of the penultimate measure.
func LoopedFragments(p *piece.Piece, minSize, maxSize int) float64 {
	roll := p.PianoRoll()
	total := p.TotalEighths
	if maxSize <= 0 {
		maxSize = total / 2
	}
	score := 0.0
	for size := minSize; size <= maxSize; size++ {
		maxPosition := total - 2*size
		if end := total - piece.NEighthsPerMeasure - 1; end < maxPosition {
			maxPosition = end
		}
		for position := 0; position <= maxPosition; position++ {
			if roll.ColumnsEqual(position, position+size, size) {
				score--
			}
		}
	}
	return score
}

// NarrowRanges penalizes stretches of the line stuck in a narrow band of
// degrees. Every window of minSize consecutive notes is measured; a window
// of width w costs the largest penalty whose key is at least w.
func NarrowRanges(p *piece.Piece, minSize int, penalties map[int]float64) float64 {
	pitches := make([]int, len(p.Counterpoint))
	for i, el := range p.Counterpoint {
		pitches[i] = el.PositionInDegrees
	}
	score := 0.0
	for i := 0; i+minSize <= len(pitches); i++ {
		window := pitches[i : i+minSize]
		lo, hi := window[0], window[0]
		for _, x := range window[1:] {
			if x < lo {
				lo = x
			}
			if x > hi {
				hi = x
			}
		}
		width := hi - lo
		penalty := 0.0
		for k, v := range penalties {
			if k >= width && v > penalty {
				penalty = v
			}
		}
		score -= penalty
	}
	return score
}

// NumberOfSkips rewards a balanced count of skips (movements larger than a
// step) via a lookup table; counts outside the table score zero.
func NumberOfSkips(p *piece.Piece, rewards map[int]float64) float64 {
	nSkips := 0
	for _, m := range p.PastMovements {
		if m > 1 || m < -1 {
			nSkips++
		}
	}
	return rewards[nSkips]
}
