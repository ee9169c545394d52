package render

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fwachter/quintus/music"
	"github.com/fwachter/quintus/piece"
)

func finishedPiece(t *testing.T) *piece.Piece {
	t.Helper()
	s, err := music.BuildScale("C", music.Major)
	if err != nil {
		t.Fatalf("build scale: %v", err)
	}
	p, err := piece.New(s, []string{"C4", "D4", "C4"}, piece.Spec{
		StartNote:           "E4",
		EndNote:             "E4",
		LowestNote:          "C4",
		HighestNote:         "G4",
		StartPauseInEighths: 4,
		MaxSkipInDegrees:    2,
	})
	if err != nil {
		t.Fatalf("new piece: %v", err)
	}
	for _, c := range []piece.Continuation{
		{Movement: 1, DurationInEighths: 4},
		{Movement: -1, DurationInEighths: 4},
		{Movement: 0, DurationInEighths: 8},
	} {
		next, ok := p.Append(c)
		if !ok {
			t.Fatalf("append %+v", c)
		}
		p = next
	}
	if !p.IsComplete() {
		t.Fatal("piece is not complete")
	}
	return p
}

func TestFrequency(t *testing.T) {
	a4, err := music.ParseNote("A4")
	if err != nil {
		t.Fatalf("parse A4: %v", err)
	}
	if got := Frequency(a4); math.Abs(got-440) > 1e-9 {
		t.Fatalf("A4 = %v Hz, want 440", got)
	}
	a5, err := music.ParseNote("A5")
	if err != nil {
		t.Fatalf("parse A5: %v", err)
	}
	if got := Frequency(a5); math.Abs(got-880) > 1e-9 {
		t.Fatalf("A5 = %v Hz, want 880", got)
	}
	c4, err := music.ParseNote("C4")
	if err != nil {
		t.Fatalf("parse C4: %v", err)
	}
	if got := Frequency(c4); math.Abs(got-261.626) > 1e-3 {
		t.Fatalf("C4 = %v Hz, want about 261.626", got)
	}
}

func TestRollTSV(t *testing.T) {
	p := finishedPiece(t)
	var buf bytes.Buffer
	if err := RollTSV(&buf, p.PianoRoll()); err != nil {
		t.Fatalf("roll tsv: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	// C4 to F4 spans six semitone rows.
	if len(lines) != 6 {
		t.Fatalf("got %d rows, want 6", len(lines))
	}
	for i, line := range lines {
		cells := strings.Split(line, "\t")
		if len(cells) != p.TotalEighths {
			t.Fatalf("row %d has %d columns, want %d", i, len(cells), p.TotalEighths)
		}
	}
	// Bottom row is C4: sounding during the first and last measures.
	bottom := strings.Split(lines[0], "\t")
	if bottom[0] != "1" || bottom[23] != "1" || bottom[8] != "0" {
		t.Fatalf("unexpected bottom row %v", bottom)
	}
	// E4 row: the counterpoint enters after the pause and returns at the end.
	e4Row := strings.Split(lines[4], "\t")
	if e4Row[0] != "0" || e4Row[4] != "1" || e4Row[16] != "1" {
		t.Fatalf("unexpected E4 row %v", e4Row)
	}
}

func TestEvents(t *testing.T) {
	p := finishedPiece(t)
	events := Events(p, 0.25, 0.8)
	if len(events) != 7 {
		t.Fatalf("got %d events, want 7", len(events))
	}
	first := events[0]
	if first.Track != "cantus_firmus" || first.Note != "C4" {
		t.Fatalf("unexpected first event %+v", first)
	}
	if first.StartTime != 0 || first.Duration != 2 {
		t.Fatalf("unexpected first event timing %+v", first)
	}
	opening := events[3]
	if opening.Track != "counterpoint" || opening.Note != "E4" {
		t.Fatalf("unexpected opening event %+v", opening)
	}
	if opening.StartTime != 1 || opening.Duration != 1 {
		t.Fatalf("unexpected opening event timing %+v", opening)
	}
	closing := events[len(events)-1]
	if closing.Note != "E4" || closing.Duration != 2 {
		t.Fatalf("unexpected closing event %+v", closing)
	}
}

func TestWriteEventsTSV(t *testing.T) {
	p := finishedPiece(t)
	path := filepath.Join(t.TempDir(), "events.tsv")
	if err := WriteEventsTSV(path, p, 0.25, 0.8); err != nil {
		t.Fatalf("write events: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read events: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if lines[0] != "track\tstart_time\tduration\tnote\tfrequency\tvelocity" {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if len(lines) != 8 {
		t.Fatalf("got %d lines, want 8", len(lines))
	}
	if !strings.Contains(lines[1], "cantus_firmus\t0.000\t2.000\tC4\t261.626\t0.80") {
		t.Fatalf("unexpected first event line %q", lines[1])
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatal("temp file left behind")
	}
}

func TestWriteRollTSV(t *testing.T) {
	p := finishedPiece(t)
	path := filepath.Join(t.TempDir(), "roll.tsv")
	if err := WriteRollTSV(path, p); err != nil {
		t.Fatalf("write roll: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read roll: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 6 {
		t.Fatalf("got %d rows, want 6", len(lines))
	}
}
