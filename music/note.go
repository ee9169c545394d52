// Package music defines the pitch and scale model for counterpoint
// generation.
//
// Positions are semitone indices on the piano keyboard starting at A0 = 0
// (so C1 = 3 and C4 = 39). Scale degrees are positions within a scale, not
// semitone distances; the two diverge on seconds and the search operates on
// degrees.
package music

import (
	"fmt"
)

const (
	// SemitonesPerOctave is the size of the pitch class cycle.
	SemitonesPerOctave = 12

	// KeyboardSize is the number of piano keys (A0 through C8).
	KeyboardSize = 88
)

// ParseError reports a malformed note name.
type ParseError struct {
	Name string
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse note %q: %s", e.Name, e.Msg)
}

// pitch class offsets from C within an octave
var letterOffsets = map[byte]int{
	'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11,
}

var positionNames = buildPositionNames()

func buildPositionNames() []string {
	letters := []struct {
		name   string
		offset int
	}{
		{"C", 0}, {"C#", 1}, {"D", 2}, {"D#", 3}, {"E", 4}, {"F", 5},
		{"F#", 6}, {"G", 7}, {"G#", 8}, {"A", 9}, {"A#", 10}, {"B", 11},
	}
	names := make([]string, KeyboardSize)
	for pos := 0; pos < KeyboardSize; pos++ {
		// Position 0 is A0: shift by 9 semitones relative to C0.
		abs := pos + 9
		octave := abs / SemitonesPerOctave
		names[pos] = fmt.Sprintf("%s%d", letters[abs%SemitonesPerOctave].name, octave)
	}
	return names
}

// ParseNote converts a note name such as "C4" or "A#3" to its keyboard
// position. Flats are not accepted; the catalog and configs use sharp
// spellings only.
func ParseNote(name string) (int, error) {
	if len(name) < 2 {
		return 0, &ParseError{Name: name, Msg: "too short"}
	}
	offset, ok := letterOffsets[name[0]]
	if !ok {
		return 0, &ParseError{Name: name, Msg: "unknown pitch class"}
	}
	rest := name[1:]
	if rest[0] == '#' {
		offset++
		rest = rest[1:]
	}
	if len(rest) != 1 || rest[0] < '0' || rest[0] > '8' {
		return 0, &ParseError{Name: name, Msg: "bad octave"}
	}
	octave := int(rest[0] - '0')
	pos := octave*SemitonesPerOctave + offset - 9
	if pos < 0 || pos >= KeyboardSize {
		return 0, &ParseError{Name: name, Msg: "outside keyboard range"}
	}
	return pos, nil
}

// NoteName returns the canonical (sharp-spelled) name for a keyboard position.
func NoteName(position int) string {
	if position < 0 || position >= KeyboardSize {
		return ""
	}
	return positionNames[position]
}
