package search

import (
	"fmt"
	"strings"

	"github.com/fwachter/quintus/piece"
)

// Record is a finished counterpoint line together with its final score.
type Record struct {
	Piece  *piece.Piece
	Reward float64
}

// lineSignature identifies a finished line by its placed notes, so that the
// same line reached through different rollouts is kept once.
func lineSignature(p *piece.Piece) string {
	var b strings.Builder
	for _, el := range p.Counterpoint {
		fmt.Fprintf(&b, "%d@%d-%d;", el.PositionInSemitones, el.StartTimeInEighths, el.EndTimeInEighths)
	}
	return b.String()
}

// records keeps the best distinct finished lines seen so far, evicting the
// lowest-scoring one when full. Ties keep the earlier arrival first.
type records struct {
	capacity int
	entries  []Record
	seen     map[string]bool
}

func newRecords(capacity int) *records {
	return &records{
		capacity: capacity,
		seen:     make(map[string]bool),
	}
}

// Offer inserts a finished line unless an identical line is already kept or
// the reward does not beat the current worst of a full set.
func (r *records) Offer(p *piece.Piece, reward float64) {
	sig := lineSignature(p)
	if r.seen[sig] {
		return
	}
	if len(r.entries) == r.capacity {
		if reward <= r.entries[len(r.entries)-1].Reward {
			return
		}
		evicted := r.entries[len(r.entries)-1]
		delete(r.seen, lineSignature(evicted.Piece))
		r.entries = r.entries[:len(r.entries)-1]
	}
	idx := len(r.entries)
	for i, existing := range r.entries {
		if reward > existing.Reward {
			idx = i
			break
		}
	}
	r.entries = append(r.entries, Record{})
	copy(r.entries[idx+1:], r.entries[idx:])
	r.entries[idx] = Record{Piece: p, Reward: reward}
	r.seen[sig] = true
}

// Best returns the top record, if any.
func (r *records) Best() (Record, bool) {
	if len(r.entries) == 0 {
		return Record{}, false
	}
	return r.entries[0], true
}

// All returns the kept records in descending reward order.
func (r *records) All() []Record {
	out := make([]Record, len(r.entries))
	copy(out, r.entries)
	return out
}

func (r *records) Len() int {
	return len(r.entries)
}
