// Package render turns finished pieces into interchange formats: a binary
// piano-roll TSV and an event-list TSV (start time, duration, note,
// frequency) consumable by downstream audio tooling.
package render

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/fwachter/quintus/piece"
)

// a4Position is the keyboard position of the 440 Hz reference pitch.
const a4Position = 48

// Frequency converts a keyboard position into equal-temperament Hz.
func Frequency(positionInSemitones int) float64 {
	return 440 * math.Pow(2, float64(positionInSemitones-a4Position)/12)
}

// RollTSV writes the piano roll as tab-separated 0/1 cells, one row per
// semitone starting from the lowest used pitch, one column per eighth.
func RollTSV(w io.Writer, roll piece.PianoRoll) error {
	bw := bufio.NewWriter(w)
	for _, row := range roll.Grid {
		for j, cell := range row {
			if j > 0 {
				if err := bw.WriteByte('\t'); err != nil {
					return err
				}
			}
			c := byte('0')
			if cell {
				c = '1'
			}
			if err := bw.WriteByte(c); err != nil {
				return err
			}
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteRollTSV renders the piece's piano roll to path.
func WriteRollTSV(path string, p *piece.Piece) error {
	roll := p.PianoRoll()
	return writeAtomic(path, func(w io.Writer) error {
		return RollTSV(w, roll)
	})
}

// Event is one sounding note of a rendered track.
type Event struct {
	Track     string
	StartTime float64
	Duration  float64
	Note      string
	Frequency float64
	Velocity  float64
}

// Events flattens both lines into a single chronological event list.
// secondsPerEighth sets the tempo; velocity is shared by every note.
func Events(p *piece.Piece, secondsPerEighth, velocity float64) []Event {
	events := make([]Event, 0, len(p.CantusFirmus)+len(p.Counterpoint))
	appendLine := func(track string, line []piece.LineElement) {
		for _, el := range line {
			events = append(events, Event{
				Track:     track,
				StartTime: float64(el.StartTimeInEighths) * secondsPerEighth,
				Duration:  float64(el.DurationInEighths()) * secondsPerEighth,
				Note:      el.Note,
				Frequency: Frequency(el.PositionInSemitones),
				Velocity:  velocity,
			})
		}
	}
	appendLine("cantus_firmus", p.CantusFirmus)
	appendLine("counterpoint", p.Counterpoint)
	return events
}

// EventsTSV writes events with a header row, one event per line.
func EventsTSV(w io.Writer, events []Event) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintln(bw, "track\tstart_time\tduration\tnote\tfrequency\tvelocity"); err != nil {
		return err
	}
	for _, e := range events {
		_, err := fmt.Fprintf(
			bw, "%s\t%.3f\t%.3f\t%s\t%.3f\t%.2f\n",
			e.Track, e.StartTime, e.Duration, e.Note, e.Frequency, e.Velocity,
		)
		if err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteEventsTSV renders the piece's event list to path.
func WriteEventsTSV(path string, p *piece.Piece, secondsPerEighth, velocity float64) error {
	events := Events(p, secondsPerEighth, velocity)
	return writeAtomic(path, func(w io.Writer) error {
		return EventsTSV(w, events)
	})
}

// writeAtomic writes through a temp file and renames, so partially written
// output never lands under the final name.
func writeAtomic(path string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if err := write(f); err != nil {
		f.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename output: %w", err)
	}
	return nil
}
