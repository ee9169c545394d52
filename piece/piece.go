package piece

import (
	"fmt"

	"github.com/fwachter/quintus/music"
)

// Spec describes the counterpoint line to be composed.
type Spec struct {
	StartNote           string
	EndNote             string
	LowestNote          string
	HighestNote         string
	StartPauseInEighths int
	MaxSkipInDegrees    int
	IsCounterpointAbove bool
}

// Piece is a composition state: a complete cantus firmus and a counterpoint
// line filled in up to some point in time. Values of this type are never
// mutated; Append returns a fresh state.
type Piece struct {
	Scale        *music.Scale
	Spec         Spec
	CantusFirmus []LineElement
	Counterpoint []LineElement

	// PastMovements records the melodic interval (in scale degrees) of every
	// Append so far.
	PastMovements []int

	// MotionStart is the element opening the current unidirectional motion,
	// reset whenever the melodic direction flips.
	MotionStart LineElement

	LowestElement  music.ScaleElement
	HighestElement music.ScaleElement
	EndElement     music.ScaleElement

	TotalEighths int
}

// New validates the line specification and returns the initial piece state
// with the start note already placed after the start pause.
func New(scale *music.Scale, cantusFirmus []string, spec Spec) (*Piece, error) {
	if len(cantusFirmus) < 2 {
		return nil, fmt.Errorf("cantus firmus must have at least 2 measures, got %d", len(cantusFirmus))
	}
	cf := make([]LineElement, 0, len(cantusFirmus))
	for i, name := range cantusFirmus {
		el, inScale, err := scale.ElementByNote(name)
		if err != nil {
			return nil, fmt.Errorf("cantus firmus: %w", err)
		}
		if !inScale {
			return nil, notInScaleError(name, scale)
		}
		cf = append(cf, LineElement{
			ScaleElement:       el,
			StartTimeInEighths: i * NEighthsPerMeasure,
			EndTimeInEighths:   (i + 1) * NEighthsPerMeasure,
		})
	}

	lowestPos, err := music.ParseNote(spec.LowestNote)
	if err != nil {
		return nil, fmt.Errorf("lowest_note: %w", err)
	}
	highestPos, err := music.ParseNote(spec.HighestNote)
	if err != nil {
		return nil, fmt.Errorf("highest_note: %w", err)
	}
	lowest, okLow := scale.ElementAtOrAbove(lowestPos)
	highest, okHigh := scale.ElementAtOrBelow(highestPos)
	if !okLow || !okHigh || lowest.PositionInSemitones > highest.PositionInSemitones {
		return nil, fmt.Errorf(
			"no pitches from %s to %s belong to %s-%s scale",
			spec.LowestNote, spec.HighestNote, scale.Tonic, scale.Type,
		)
	}

	start, err := rangedElement(scale, spec.StartNote, lowest, highest)
	if err != nil {
		return nil, fmt.Errorf("start_note: %w", err)
	}
	end, err := rangedElement(scale, spec.EndNote, lowest, highest)
	if err != nil {
		return nil, fmt.Errorf("end_note: %w", err)
	}
	if !end.IsFromTonicTriad {
		return nil, fmt.Errorf(
			"%s is not a tonic triad member for %s-%s scale",
			spec.EndNote, scale.Tonic, scale.Type,
		)
	}
	if spec.StartPauseInEighths < 0 || spec.StartPauseInEighths >= NEighthsPerMeasure {
		return nil, fmt.Errorf(
			"start pause must be shorter than a measure, got %d eighths",
			spec.StartPauseInEighths,
		)
	}
	if spec.MaxSkipInDegrees < 1 {
		return nil, fmt.Errorf("max skip must be at least 1 degree, got %d", spec.MaxSkipInDegrees)
	}

	opening := LineElement{
		ScaleElement:       start,
		StartTimeInEighths: spec.StartPauseInEighths,
		EndTimeInEighths:   NEighthsPerMeasure,
	}
	return &Piece{
		Scale:          scale,
		Spec:           spec,
		CantusFirmus:   cf,
		Counterpoint:   []LineElement{opening},
		MotionStart:    opening,
		LowestElement:  lowest,
		HighestElement: highest,
		EndElement:     end,
		TotalEighths:   len(cf) * NEighthsPerMeasure,
	}, nil
}

func notInScaleError(name string, scale *music.Scale) error {
	return fmt.Errorf("%s does not belong to %s-%s scale", name, scale.Tonic, scale.Type)
}

func rangedElement(
	scale *music.Scale, name string,
	lowest, highest music.ScaleElement,
) (music.ScaleElement, error) {
	el, inScale, err := scale.ElementByNote(name)
	if err != nil {
		return music.ScaleElement{}, err
	}
	if !inScale {
		return music.ScaleElement{}, notInScaleError(name, scale)
	}
	if el.PositionInSemitones < lowest.PositionInSemitones ||
		el.PositionInSemitones > highest.PositionInSemitones {
		return music.ScaleElement{}, fmt.Errorf(
			"%s is out of range %s..%s", name, lowest.Note, highest.Note,
		)
	}
	return el, nil
}

// LastElement returns the most recent counterpoint note.
func (p *Piece) LastElement() LineElement {
	return p.Counterpoint[len(p.Counterpoint)-1]
}

// IsComplete reports whether the counterpoint line fills the whole piece.
func (p *Piece) IsComplete() bool {
	return p.LastElement().EndTimeInEighths == p.TotalEighths
}

// NMeasures returns the piece length in measures.
func (p *Piece) NMeasures() int {
	return len(p.CantusFirmus)
}

// Resolve turns a continuation into the concrete line element it would place.
// It returns false when the continuation leaves the scale, leaves the
// configured pitch range, or runs past the end of the piece.
func (p *Piece) Resolve(c Continuation) (LineElement, bool) {
	last := p.LastElement()
	if last.EndTimeInEighths >= p.TotalEighths {
		return LineElement{}, false
	}
	el, ok := p.Scale.ElementByDegreePosition(last.PositionInDegrees + c.Movement)
	if !ok {
		return LineElement{}, false
	}
	if el.PositionInSemitones < p.LowestElement.PositionInSemitones ||
		el.PositionInSemitones > p.HighestElement.PositionInSemitones {
		return LineElement{}, false
	}
	start := last.EndTimeInEighths
	end := start + c.DurationInEighths
	if c.DurationInEighths <= 0 || end > p.TotalEighths {
		return LineElement{}, false
	}
	return LineElement{ScaleElement: el, StartTimeInEighths: start, EndTimeInEighths: end}, true
}

// Append places a continuation and returns the resulting piece. The receiver
// is left untouched. It returns false when the continuation cannot be
// resolved; rule checks are the caller's concern.
func (p *Piece) Append(c Continuation) (*Piece, bool) {
	el, ok := p.Resolve(c)
	if !ok {
		return nil, false
	}

	line := make([]LineElement, len(p.Counterpoint)+1)
	copy(line, p.Counterpoint)
	line[len(line)-1] = el

	movements := make([]int, len(p.PastMovements)+1)
	copy(movements, p.PastMovements)
	movements[len(movements)-1] = c.Movement

	motionStart := p.MotionStart
	if n := len(p.PastMovements); n > 0 && c.Movement*p.PastMovements[n-1] < 0 {
		motionStart = p.LastElement()
	}

	return &Piece{
		Scale:          p.Scale,
		Spec:           p.Spec,
		CantusFirmus:   p.CantusFirmus,
		Counterpoint:   line,
		PastMovements:  movements,
		MotionStart:    motionStart,
		LowestElement:  p.LowestElement,
		HighestElement: p.HighestElement,
		EndElement:     p.EndElement,
		TotalEighths:   p.TotalEighths,
	}, true
}

// CantusFirmusDuring returns the cantus firmus elements sounding within the
// half-open interval [start, end) of eighths.
func (p *Piece) CantusFirmusDuring(start, end int) []LineElement {
	var out []LineElement
	for _, el := range p.CantusFirmus {
		if el.StartTimeInEighths < end && el.EndTimeInEighths > start {
			out = append(out, el)
		}
	}
	return out
}

// PreviousCantusFirmusElement returns the latest cantus firmus element
// sounding simultaneously with the last counterpoint note.
func (p *Piece) PreviousCantusFirmusElement() LineElement {
	last := p.LastElement()
	during := p.CantusFirmusDuring(last.StartTimeInEighths, last.EndTimeInEighths)
	return during[len(during)-1]
}

// IsLastConsonant reports whether the last counterpoint note forms a
// consonance with the latest cantus firmus element it sounds against. A held
// note may start consonant and turn dissonant when the cantus firmus moves
// underneath it.
func (p *Piece) IsLastConsonant() bool {
	return music.IsConsonant(p.LastElement().ScaleElement, p.PreviousCantusFirmusElement().ScaleElement)
}

// MeasureDurations returns the note durations of the measure the candidate
// element starts in, candidate included. A note carried over from the
// previous measure contributes only its part inside the measure; a note
// prolonging into the next measure contributes its full duration.
func (p *Piece) MeasureDurations(candidate LineElement) []int {
	measureStart := candidate.MeasureIndex() * NEighthsPerMeasure
	var durations []int
	for _, el := range p.Counterpoint {
		if el.EndTimeInEighths <= measureStart || el.StartTimeInEighths >= candidate.StartTimeInEighths {
			continue
		}
		if el.StartTimeInEighths < measureStart {
			durations = append(durations, el.EndTimeInEighths-measureStart)
		} else {
			durations = append(durations, el.DurationInEighths())
		}
	}
	return append(durations, candidate.DurationInEighths())
}
