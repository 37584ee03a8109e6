package dse

import (
	"context"
)

type Status int

const (
	Exploring Status = iota
	Backtracking
	TerminatedSuccess
	TerminatedExhausted
	TerminatedCancelled
)

func (s Status) String() string {
	switch s {
	case Exploring:
		return "exploring"
	case Backtracking:
		return "backtracking"
	case TerminatedSuccess:
		return "success"
	case TerminatedExhausted:
		return "exhausted"
	case TerminatedCancelled:
		return "cancelled"
	}
	return "unknown"
}

func (s Status) Terminated() bool {
	return s >= TerminatedSuccess
}

// Strategy drives an explorer until it terminates. The returned status is
// always a terminal one unless err is not nil.
type Strategy interface {
	Explore(ctx context.Context, e *Explorer) (Status, error)
}

// DepthFirstStrategy fires random untried activations, going deeper until a
// dead end, and backtracks to the parent state from there. A negative
// MaxDepth means no limit.
type DepthFirstStrategy struct {
	MaxDepth              int
	BacktrackFromSolution bool
}

func (s *DepthFirstStrategy) Explore(ctx context.Context, e *Explorer) (Status, error) {

	status := Exploring

	// retreat backtracks, or resumes a pending state when the search tree is
	// exhausted.
	retreat := func() (bool, error) {
		status = Backtracking
		ok, err := e.Backtrack()
		if err != nil || ok {
			return ok, err
		}
		return e.Resume()
	}

	for {
		if ctx.Err() != nil {
			return TerminatedCancelled, nil
		}

		if !e.CheckGlobalConstraints() {
			ok, err := retreat()
			if err != nil {
				return status, err
			}
			if !ok {
				return TerminatedExhausted, nil
			}
			continue
		}

		fitness := e.CalculateFitness()
		if fitness.Satisfied {
			_, err := e.NewSolution()
			if err != nil {
				return status, err
			}
			if e.HasEnoughSolution() {
				return TerminatedSuccess, nil
			}
			if s.BacktrackFromSolution {
				ok, err := retreat()
				if err != nil {
					return status, err
				}
				if !ok {
					return TerminatedExhausted, nil
				}
				continue
			}
		}

		if (s.MaxDepth >= 0 && e.Depth() >= s.MaxDepth) || !e.HasUnmarkedActivation() {
			ok, err := retreat()
			if err != nil {
				return status, err
			}
			if !ok {
				return TerminatedExhausted, nil
			}
			continue
		}

		status = Exploring
		_, err := e.FireRandomActivation()
		if err != nil {
			return status, err
		}
	}
}

// BestFirstStrategy keeps every open state in the objective queue and always
// expands the best one. With ExplorationProbability it expands a random
// queued state instead.
type BestFirstStrategy struct {
	MaxDepth               int
	BacktrackFromSolution  bool
	ExplorationProbability float64
}

func (s *BestFirstStrategy) Explore(ctx context.Context, e *Explorer) (Status, error) {

	// jump moves to the best open state, or a pending one when the queue is
	// empty.
	jump := func() (bool, error) {
		best, ok := e.Queue().GetBest()
		if ok {
			return true, e.RestoreTo(best.Version)
		}
		return e.Resume()
	}

	retire := func() (bool, error) {
		e.Queue().Remove(e.State())
		return jump()
	}

	// At most one random jump between two expansions.
	jumped := false

	for {
		if ctx.Err() != nil {
			return TerminatedCancelled, nil
		}

		if !e.CheckGlobalConstraints() {
			ok, err := retire()
			if err != nil {
				return Backtracking, err
			}
			if !ok {
				return TerminatedExhausted, nil
			}
			continue
		}

		fitness := e.CalculateFitness()
		if fitness.Satisfied {
			_, err := e.NewSolution()
			if err != nil {
				return Exploring, err
			}
			if e.HasEnoughSolution() {
				return TerminatedSuccess, nil
			}
			if s.BacktrackFromSolution {
				ok, err := retire()
				if err != nil {
					return Backtracking, err
				}
				if !ok {
					return TerminatedExhausted, nil
				}
				continue
			}
		}

		if (s.MaxDepth >= 0 && e.Depth() >= s.MaxDepth) || !e.HasUnmarkedActivation() {
			ok, err := retire()
			if err != nil {
				return Backtracking, err
			}
			if !ok {
				return TerminatedExhausted, nil
			}
			continue
		}

		e.Queue().Submit(StateWithFitness{Version: e.State(), Fitness: fitness})

		if !jumped && s.ExplorationProbability > 0 && e.rng.Float64() < s.ExplorationProbability {
			random, ok := e.Queue().GetRandom(e.rng)
			if ok && random.Version != e.State() {
				err := e.RestoreTo(random.Version)
				if err != nil {
					return Exploring, err
				}
				jumped = true
				continue
			}
		}
		jumped = false

		fired, err := e.FireRandomActivation()
		if err != nil {
			return Exploring, err
		}
		if !fired {
			continue
		}

		e.Queue().Submit(StateWithFitness{Version: e.State(), Fitness: e.CalculateFitness()})
		best, _ := e.Queue().GetBest()
		if best.Version != e.State() {
			err := e.RestoreTo(best.Version)
			if err != nil {
				return Exploring, err
			}
		}
	}
}
