package piece

// PianoRoll is a binary semitone-by-eighths grid covering both lines.
// Row 0 corresponds to LowestPosition on the keyboard.
type PianoRoll struct {
	LowestPosition int
	Grid           [][]bool
}

// NRows returns the pitch span of the roll in semitones.
func (r PianoRoll) NRows() int {
	return len(r.Grid)
}

// NColumns returns the roll length in eighths.
func (r PianoRoll) NColumns() int {
	if len(r.Grid) == 0 {
		return 0
	}
	return len(r.Grid[0])
}

// ColumnsEqual reports whether two column ranges of equal width hold the
// same cells.
func (r PianoRoll) ColumnsEqual(a, b, width int) bool {
	for _, row := range r.Grid {
		for i := 0; i < width; i++ {
			if row[a+i] != row[b+i] {
				return false
			}
		}
	}
	return true
}

// PianoRoll renders the cantus firmus and the counterpoint line so far onto
// a shared grid. Columns before the start pause stay empty in the
// counterpoint's rows.
func (p *Piece) PianoRoll() PianoRoll {
	lowest := p.CantusFirmus[0].PositionInSemitones
	highest := lowest
	mark := func(els []LineElement) {
		for _, el := range els {
			if el.PositionInSemitones < lowest {
				lowest = el.PositionInSemitones
			}
			if el.PositionInSemitones > highest {
				highest = el.PositionInSemitones
			}
		}
	}
	mark(p.CantusFirmus)
	mark(p.Counterpoint)

	grid := make([][]bool, highest-lowest+1)
	for i := range grid {
		grid[i] = make([]bool, p.TotalEighths)
	}
	fill := func(els []LineElement) {
		for _, el := range els {
			row := grid[el.PositionInSemitones-lowest]
			for t := el.StartTimeInEighths; t < el.EndTimeInEighths; t++ {
				row[t] = true
			}
		}
	}
	fill(p.CantusFirmus)
	fill(p.Counterpoint)
	return PianoRoll{LowestPosition: lowest, Grid: grid}
}
