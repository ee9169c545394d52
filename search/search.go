// Package search finds counterpoint lines with a Monte-Carlo beam search:
// each round expands the beam with every legal continuation, estimates a
// random-trial budget from the current branching factor, values candidates
// by random rollouts, and keeps the best beam_width of them. Finished
// rollouts feed a running top-N record set, so good lines found along the
// way survive even when their branch is pruned.
package search

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sort"

	"github.com/fwachter/quintus/piece"
	"github.com/fwachter/quintus/rules"
	"github.com/fwachter/quintus/scoring"
)

// ErrSearchExhausted reports that every branch dead-ended before a single
// complete line was found. It is a property of the configuration and seed,
// not a fault; callers may retry with another seed or relaxed rules.
var ErrSearchExhausted = errors.New("search exhausted: every branch dead-ended")

// Params configures a search run.
type Params struct {
	BeamWidth              int
	NRecordsToKeep         int
	NTrialsEstimationDepth int
	NTrialsEstimationWidth int
	NTrialsFactor          float64
	RewardForDeadEnd       float64

	// Workers bounds rollout parallelism; zero means one worker per CPU.
	Workers int
	Seed    int64
}

// Validate checks the parameters before any search work starts.
func (p Params) Validate() error {
	if p.BeamWidth < 1 {
		return fmt.Errorf("beam_width must be positive, got %d", p.BeamWidth)
	}
	if p.NRecordsToKeep < 1 {
		return fmt.Errorf("n_records_to_keep must be positive, got %d", p.NRecordsToKeep)
	}
	if p.NTrialsEstimationDepth < 1 {
		return fmt.Errorf("n_trials_estimation_depth must be positive, got %d", p.NTrialsEstimationDepth)
	}
	if p.NTrialsEstimationWidth < 1 {
		return fmt.Errorf("n_trials_estimation_width must be positive, got %d", p.NTrialsEstimationWidth)
	}
	if p.NTrialsFactor <= 0 {
		return fmt.Errorf("n_trials_factor must be positive, got %v", p.NTrialsFactor)
	}
	if p.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", p.Workers)
	}
	return nil
}

// BeamEntry is a surviving partial line and the value the rollouts assigned
// to it.
type BeamEntry struct {
	Piece          *piece.Piece
	EstimatedValue float64
}

// Progress is a per-round snapshot for observers (TUI, websocket clients).
type Progress struct {
	Round       int
	BeamSize    int
	NCandidates int
	NDeadEnds   int
	NTrials     int
	NRollouts   int
	BestReward  float64
	HasBest     bool
}

// Result holds the winning line and the ranked runners-up.
type Result struct {
	Best    Record
	Runners []Record
}

// Searcher runs Monte-Carlo beam searches over one rule and scoring
// configuration.
type Searcher struct {
	engine *rules.Engine
	eval   *scoring.Evaluator
	params Params

	// OnProgress, when set, is called after every search round.
	OnProgress func(Progress)
}

// New validates the parameters and builds a Searcher.
func New(engine *rules.Engine, eval *scoring.Evaluator, params Params) (*Searcher, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Searcher{engine: engine, eval: eval, params: params}, nil
}

// Run searches from the given starting piece. A fixed seed makes the whole
// run deterministic, including trial estimation and tie-breaking.
func (s *Searcher) Run(ctx context.Context, start *piece.Piece) (*Result, error) {
	rng := rand.New(rand.NewSource(s.params.Seed))
	best := newRecords(s.params.NRecordsToKeep)
	beam := []BeamEntry{{Piece: start}}
	nRollouts := 0

	// Every round extends each surviving line by at least one eighth, so
	// the piece duration bounds the number of rounds.
	maxRounds := start.TotalEighths
	for round := 0; ; round++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if round > maxRounds {
			return nil, fmt.Errorf("search did not terminate within %d rounds", maxRounds)
		}

		// Expand.
		var terminal []BeamEntry
		var candidates []*piece.Piece
		for _, entry := range beam {
			if entry.Piece.IsComplete() {
				terminal = append(terminal, entry)
				continue
			}
			for _, c := range s.engine.LegalContinuations(entry.Piece) {
				next, ok := entry.Piece.Append(c)
				if !ok {
					continue
				}
				candidates = append(candidates, next)
			}
		}
		if len(candidates) == 0 {
			if len(terminal) > 0 || best.Len() > 0 {
				break
			}
			return nil, ErrSearchExhausted
		}

		// Estimate trials.
		nTrials := s.estimateTrials(rng, candidates)

		// Rollout.
		tasks := make([]rolloutTask, 0, len(candidates)*nTrials)
		for i, candidate := range candidates {
			for t := 0; t < nTrials; t++ {
				tasks = append(tasks, rolloutTask{
					index: i*nTrials + t,
					piece: candidate,
					seed:  rng.Int63(),
				})
			}
		}
		results := s.runRollouts(ctx, tasks)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		nRollouts += len(tasks)

		next := terminal
		var deadEnds []BeamEntry
		for i, candidate := range candidates {
			sum := 0.0
			completed := 0
			for t := 0; t < nTrials; t++ {
				r := results[i*nTrials+t]
				if r.finished == nil {
					continue
				}
				completed++
				sum += r.reward
				best.Offer(r.finished, r.reward)
			}
			if candidate.IsComplete() {
				reward := s.eval.Score(candidate)
				best.Offer(candidate, reward)
				next = append(next, BeamEntry{Piece: candidate, EstimatedValue: reward})
				continue
			}
			if completed == 0 {
				// Every trial dead-ended: the branch keeps the sentinel
				// value and never survives pruning.
				deadEnds = append(deadEnds, BeamEntry{
					Piece:          candidate,
					EstimatedValue: s.params.RewardForDeadEnd,
				})
				continue
			}
			next = append(next, BeamEntry{
				Piece:          candidate,
				EstimatedValue: sum / float64(completed),
			})
		}

		// Rank and prune.
		sort.SliceStable(next, func(a, b int) bool {
			return next[a].EstimatedValue > next[b].EstimatedValue
		})
		if len(next) > s.params.BeamWidth {
			next = next[:s.params.BeamWidth]
		}
		beam = next

		if record, ok := best.Best(); ok {
			log.Printf(
				"round %d: beam=%d candidates=%d dead=%d trials=%d best=%.5f",
				round, len(beam), len(candidates), len(deadEnds), nTrials, record.Reward,
			)
		} else {
			log.Printf(
				"round %d: beam=%d candidates=%d dead=%d trials=%d no complete line yet",
				round, len(beam), len(candidates), len(deadEnds), nTrials,
			)
		}
		s.reportProgress(round, len(beam), len(candidates), len(deadEnds), nTrials, nRollouts, best)

		if len(beam) == 0 {
			if best.Len() > 0 {
				break
			}
			return nil, ErrSearchExhausted
		}
		allComplete := true
		for _, entry := range beam {
			if !entry.Piece.IsComplete() {
				allComplete = false
				break
			}
		}
		if allComplete {
			break
		}
	}

	all := best.All()
	if len(all) == 0 {
		return nil, ErrSearchExhausted
	}
	return &Result{Best: all[0], Runners: all[1:]}, nil
}

func (s *Searcher) reportProgress(round, beamSize, nCandidates, nDeadEnds, nTrials, nRollouts int, best *records) {
	if s.OnProgress == nil {
		return
	}
	p := Progress{
		Round:       round,
		BeamSize:    beamSize,
		NCandidates: nCandidates,
		NDeadEnds:   nDeadEnds,
		NTrials:     nTrials,
		NRollouts:   nRollouts,
	}
	if record, ok := best.Best(); ok {
		p.BestReward = record.Reward
		p.HasBest = true
	}
	s.OnProgress(p)
}
