package music

import (
	"fmt"
	"sort"
)

// ScaleType enumerates the supported scales.
type ScaleType string

const (
	Major         ScaleType = "major"
	NaturalMinor  ScaleType = "natural_minor"
	HarmonicMinor ScaleType = "harmonic_minor"
)

// ErrUnknownScaleType is wrapped into the error returned for scale types
// outside the supported set.
var ErrUnknownScaleType = fmt.Errorf("unknown scale type")

// 12-element membership patterns starting from the tonic.
var scalePatterns = map[ScaleType][12]bool{
	Major:         {true, false, true, false, true, true, false, true, false, true, false, true},
	NaturalMinor:  {true, false, true, true, false, true, false, true, true, false, true, false},
	HarmonicMinor: {true, false, true, true, false, true, false, true, true, false, false, true},
}

var triadPatterns = map[ScaleType][12]bool{
	Major:         {true, false, false, false, true, false, false, true, false, false, false, false},
	NaturalMinor:  {true, false, false, true, false, false, false, true, false, false, false, false},
	HarmonicMinor: {true, false, false, true, false, false, false, true, false, false, false, false},
}

// ParseScaleType validates a scale type string.
func ParseScaleType(s string) (ScaleType, error) {
	st := ScaleType(s)
	if _, ok := scalePatterns[st]; !ok {
		return "", fmt.Errorf("%w %q", ErrUnknownScaleType, s)
	}
	return st, nil
}

// ScaleElement is a single pitch of a scale.
//
// PositionInSemitones is the keyboard position; PositionInDegrees is the
// element index within the whole scale ordering. Degree is the 1-based degree
// of the pitch class (1 = tonic, 7 = leading tone in major).
type ScaleElement struct {
	Note                string
	PositionInSemitones int
	PositionInDegrees   int
	Degree              int
	IsFromTonicTriad    bool
}

// Scale holds every keyboard pitch belonging to a tonic + scale type.
type Scale struct {
	Tonic    string
	Type     ScaleType
	Elements []ScaleElement

	bySemitone map[int]int // keyboard position -> index into Elements
}

// BuildScale constructs the full-keyboard scale for a tonic pitch class
// (like "C" or "A#") and scale type.
func BuildScale(tonic string, scaleType ScaleType) (*Scale, error) {
	pattern, ok := scalePatterns[scaleType]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownScaleType, scaleType)
	}
	triad := triadPatterns[scaleType]

	tonicPos, err := ParseNote(tonic + "1")
	if err != nil {
		return nil, fmt.Errorf("bad tonic: %w", err)
	}

	s := &Scale{
		Tonic:      tonic,
		Type:       scaleType,
		bySemitone: make(map[int]int),
	}
	for pos := 0; pos < KeyboardSize; pos++ {
		rel := ((pos-tonicPos)%SemitonesPerOctave + SemitonesPerOctave) % SemitonesPerOctave
		if !pattern[rel] {
			continue
		}
		el := ScaleElement{
			Note:                NoteName(pos),
			PositionInSemitones: pos,
			PositionInDegrees:   len(s.Elements),
			Degree:              degreeOfRelative(pattern, rel),
			IsFromTonicTriad:    triad[rel],
		}
		s.bySemitone[pos] = len(s.Elements)
		s.Elements = append(s.Elements, el)
	}
	return s, nil
}

// degreeOfRelative counts scale members up to and including the relative
// pitch class offset, yielding the 1-based degree.
func degreeOfRelative(pattern [12]bool, rel int) int {
	d := 0
	for i := 0; i <= rel; i++ {
		if pattern[i] {
			d++
		}
	}
	return d
}

// ElementByNote resolves a note name to its scale element. The second return
// is false when the pitch does not belong to the scale.
func (s *Scale) ElementByNote(name string) (ScaleElement, bool, error) {
	pos, err := ParseNote(name)
	if err != nil {
		return ScaleElement{}, false, err
	}
	idx, ok := s.bySemitone[pos]
	if !ok {
		return ScaleElement{}, false, nil
	}
	return s.Elements[idx], true, nil
}

// ElementAtOrAbove returns the lowest scale element whose keyboard position
// is at or above pos, or false when no such element exists.
func (s *Scale) ElementAtOrAbove(pos int) (ScaleElement, bool) {
	i := sort.Search(len(s.Elements), func(i int) bool {
		return s.Elements[i].PositionInSemitones >= pos
	})
	if i == len(s.Elements) {
		return ScaleElement{}, false
	}
	return s.Elements[i], true
}

// ElementAtOrBelow returns the highest scale element whose keyboard position
// is at or below pos, or false when no such element exists.
func (s *Scale) ElementAtOrBelow(pos int) (ScaleElement, bool) {
	i := sort.Search(len(s.Elements), func(i int) bool {
		return s.Elements[i].PositionInSemitones > pos
	})
	if i == 0 {
		return ScaleElement{}, false
	}
	return s.Elements[i-1], true
}

// ElementByDegreePosition returns the element at a degree position, or false
// when the position is outside the scale.
func (s *Scale) ElementByDegreePosition(pos int) (ScaleElement, bool) {
	if pos < 0 || pos >= len(s.Elements) {
		return ScaleElement{}, false
	}
	return s.Elements[pos], true
}

// IsConsonant reports whether two simultaneous pitches form a consonance.
// Consonant interval classes: unison, minor/major third, perfect fifth,
// minor/major sixth, octave.
func IsConsonant(a, b ScaleElement) bool {
	diff := a.PositionInSemitones - b.PositionInSemitones
	if diff < 0 {
		diff = -diff
	}
	switch diff % SemitonesPerOctave {
	case 0, 3, 4, 7, 8, 9:
		return true
	}
	return false
}
