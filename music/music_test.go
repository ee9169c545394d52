package music

import (
	"errors"
	"testing"
)

func TestParseNote(t *testing.T) {
	cases := []struct {
		name string
		want int
		ok   bool
	}{
		{"A0", 0, true},
		{"C1", 3, true},
		{"C2", 15, true},
		{"A#3", 37, true},
		{"C4", 39, true},
		{"C8", 87, true},
		{"H2", 0, false},
		{"C", 0, false},
		{"C9", 0, false},
		{"Cb4", 0, false},
	}
	for _, c := range cases {
		got, err := ParseNote(c.name)
		if c.ok {
			if err != nil {
				t.Fatalf("ParseNote(%q) error: %v", c.name, err)
			}
			if got != c.want {
				t.Fatalf("ParseNote(%q)=%d want=%d", c.name, got, c.want)
			}
			continue
		}
		var perr *ParseError
		if !errors.As(err, &perr) {
			t.Fatalf("ParseNote(%q) err=%v want ParseError", c.name, err)
		}
	}
}

func TestNoteNameRoundTrip(t *testing.T) {
	for pos := 0; pos < KeyboardSize; pos++ {
		name := NoteName(pos)
		got, err := ParseNote(name)
		if err != nil {
			t.Fatalf("ParseNote(NoteName(%d)=%q) error: %v", pos, name, err)
		}
		if got != pos {
			t.Fatalf("round trip %d -> %q -> %d", pos, name, got)
		}
	}
}

func TestBuildScaleCMajor(t *testing.T) {
	s, err := BuildScale("C", Major)
	if err != nil {
		t.Fatalf("BuildScale: %v", err)
	}

	// A0 B0 C1 D1 E1 F1 G1 ...
	cases := []struct {
		idx       int
		note      string
		semitones int
		degree    int
		triad     bool
	}{
		{0, "A0", 0, 6, false},
		{1, "B0", 2, 7, false},
		{2, "C1", 3, 1, true},
		{3, "D1", 5, 2, false},
		{4, "E1", 7, 3, true},
		{6, "G1", 10, 5, true},
		{8, "B1", 14, 7, false},
		{9, "C2", 15, 1, true},
	}
	for _, c := range cases {
		el := s.Elements[c.idx]
		if el.Note != c.note || el.PositionInSemitones != c.semitones ||
			el.PositionInDegrees != c.idx || el.Degree != c.degree ||
			el.IsFromTonicTriad != c.triad {
			t.Fatalf("element %d = %+v, want %+v", c.idx, el, c)
		}
	}
}

func TestBuildScaleMinorTriads(t *testing.T) {
	for _, st := range []ScaleType{NaturalMinor, HarmonicMinor} {
		s, err := BuildScale("A", st)
		if err != nil {
			t.Fatalf("BuildScale(A, %s): %v", st, err)
		}
		el, inScale, err := s.ElementByNote("C2")
		if err != nil || !inScale {
			t.Fatalf("C2 should be in A %s (err=%v)", st, err)
		}
		if !el.IsFromTonicTriad {
			t.Fatalf("C2 should be a tonic triad member in A %s", st)
		}
	}
}

func TestHarmonicMinorLeadingTone(t *testing.T) {
	s, err := BuildScale("A", HarmonicMinor)
	if err != nil {
		t.Fatalf("BuildScale: %v", err)
	}
	if _, inScale, _ := s.ElementByNote("G#2"); !inScale {
		t.Fatalf("G#2 should belong to A harmonic minor")
	}
	if _, inScale, _ := s.ElementByNote("G2"); inScale {
		t.Fatalf("G2 should not belong to A harmonic minor")
	}
}

func TestParseScaleTypeUnknown(t *testing.T) {
	if _, err := ParseScaleType("melodic_minor"); !errors.Is(err, ErrUnknownScaleType) {
		t.Fatalf("want ErrUnknownScaleType, got %v", err)
	}
}

func TestIsConsonant(t *testing.T) {
	s, _ := BuildScale("C", Major)
	elem := func(name string) ScaleElement {
		el, ok, err := s.ElementByNote(name)
		if err != nil || !ok {
			t.Fatalf("element %q not in scale (err=%v)", name, err)
		}
		return el
	}

	cases := []struct {
		a, b string
		want bool
	}{
		{"C4", "C4", true},  // unison
		{"C4", "E4", true},  // major third
		{"C4", "G4", true},  // perfect fifth
		{"C4", "A4", true},  // major sixth
		{"C4", "C5", true},  // octave
		{"C4", "D4", false}, // second
		{"C4", "F4", false}, // perfect fourth is dissonant in counterpoint
		{"C4", "B4", false}, // seventh
		{"B3", "F4", false}, // tritone
	}
	for _, c := range cases {
		if got := IsConsonant(elem(c.a), elem(c.b)); got != c.want {
			t.Fatalf("IsConsonant(%s,%s)=%v want=%v", c.a, c.b, got, c.want)
		}
	}
}
