package search

import (
	"context"
	"math"
	"math/rand"
	"runtime"
	"sync"

	"github.com/fwachter/quintus/piece"
)

// randomRollout extends a line with uniformly random legal continuations
// until it completes or dead-ends. The returned piece is nil on a dead end.
func (s *Searcher) randomRollout(rng *rand.Rand, p *piece.Piece) *piece.Piece {
	for !p.IsComplete() {
		legal := s.engine.LegalContinuations(p)
		if len(legal) == 0 {
			return nil
		}
		next, ok := p.Append(legal[rng.Intn(len(legal))])
		if !ok {
			return nil
		}
		p = next
	}
	return p
}

// estimateTrials measures the mean branching factor with short random
// probes from a sampled candidate and scales it into a trial budget.
func (s *Searcher) estimateTrials(rng *rand.Rand, candidates []*piece.Piece) int {
	sample := candidates[rng.Intn(len(candidates))]
	branchingSum := 0
	branchingCount := 0
	for probe := 0; probe < s.params.NTrialsEstimationWidth; probe++ {
		p := sample
		for step := 0; step < s.params.NTrialsEstimationDepth && !p.IsComplete(); step++ {
			legal := s.engine.LegalContinuations(p)
			branchingSum += len(legal)
			branchingCount++
			if len(legal) == 0 {
				break
			}
			next, ok := p.Append(legal[rng.Intn(len(legal))])
			if !ok {
				break
			}
			p = next
		}
	}
	if branchingCount == 0 {
		return 1
	}
	mean := float64(branchingSum) / float64(branchingCount)
	n := int(math.Ceil(s.params.NTrialsFactor * mean))
	if n < 1 {
		n = 1
	}
	return n
}

type rolloutTask struct {
	index int
	piece *piece.Piece
	seed  int64
}

type rolloutResult struct {
	index    int
	finished *piece.Piece
	reward   float64
}

// runRollouts plays every task on a pool of workers. Each task carries its
// own piece snapshot and a privately seeded random stream, so workers share
// no mutable state; results come back indexed, keeping aggregation
// deterministic regardless of scheduling.
func (s *Searcher) runRollouts(ctx context.Context, tasks []rolloutTask) []rolloutResult {
	nWorkers := s.params.Workers
	if nWorkers <= 0 {
		nWorkers = runtime.GOMAXPROCS(0)
	}
	if nWorkers > len(tasks) {
		nWorkers = len(tasks)
	}

	taskCh := make(chan rolloutTask)
	results := make([]rolloutResult, len(tasks))

	var wg sync.WaitGroup
	for w := 0; w < nWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range taskCh {
				rng := rand.New(rand.NewSource(task.seed))
				result := rolloutResult{index: task.index}
				if finished := s.randomRollout(rng, task.piece); finished != nil {
					result.finished = finished
					result.reward = s.eval.Score(finished)
				}
				results[task.index] = result
			}
		}()
	}

	for _, task := range tasks {
		select {
		case taskCh <- task:
		case <-ctx.Done():
			close(taskCh)
			wg.Wait()
			return results
		}
	}
	close(taskCh)
	wg.Wait()
	return results
}
