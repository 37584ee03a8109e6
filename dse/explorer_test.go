package dse

import (
	"context"
	"iter"
	"testing"

	"github.com/fulldump/biff"

	"github.com/fulldump/refinery/model"
	"github.com/fulldump/refinery/query"
	"github.com/fulldump/refinery/statecoder"
)

// newLinkProblem builds a problem over n nodes where the only rule adds a
// directed edge between two distinct nodes. It is accepted once it has
// `goal` edges. Objective evaluations are counted in evaluations.
func newLinkProblem(t *testing.T, n, goal int, evaluations *int) *Problem {

	edge := model.NewRelation("edge", 2, false)
	store, err := model.NewModelStore(nil, edge)
	if err != nil {
		t.Fatal(err)
	}

	edges := query.Relation(edge)

	missing := &query.Query{
		Name:  "missing",
		Arity: 2,
		Evaluate: func(m *model.Model) iter.Seq[model.Tuple] {
			return func(yield func(model.Tuple) bool) {
				interpretation := model.MustGetInterpretation(m, edge)
				for i := 0; i < n; i++ {
					for j := 0; j < n; j++ {
						key := model.Of(i, j)
						if i == j || interpretation.Get(key) {
							continue
						}
						if !yield(key) {
							return
						}
					}
				}
			}
		},
	}

	return &Problem{
		Name:  "link",
		Store: store,
		Rules: []*Rule{{
			Name:         "link",
			Precondition: missing,
			Action: func(m *model.Model) Action {
				interpretation := model.MustGetInterpretation(m, edge)
				return func(match model.Tuple) error {
					_, err := interpretation.Put(match, true)
					return err
				}
			},
		}},
		AcceptanceCriteria: []*Criterion{{
			Name: "enough edges",
			Holds: func(m *model.Model, q *query.Engine) bool {
				return q.Count(edges) >= goal
			},
		}},
		Objectives: []*Objective{{
			Name: "missing edges",
			Evaluate: func(m *model.Model, q *query.Engine) float64 {
				if evaluations != nil {
					*evaluations++
				}
				return float64(max(goal-q.Count(edges), 0))
			},
		}},
	}
}

var neverIsomorphic = statecoder.SymmetryResolverFunc(func(representative, candidate statecoder.Candidate) bool {
	return false
})

func TestDepthFirst_MaxDepthZero(t *testing.T) {

	evaluations := 0
	problem := newLinkProblem(t, 3, 2, &evaluations)

	result, err := Explore(context.Background(), problem, &DepthFirstStrategy{MaxDepth: 0}, nil)
	biff.AssertNil(err)

	biff.AssertEqual(result.Status, TerminatedExhausted)
	biff.AssertEqual(evaluations, 1)
	biff.AssertEqual(result.Statistics.FitnessEvaluations, 1)
	biff.AssertEqual(result.Statistics.FiredActivations, 0)
	biff.AssertEqual(len(result.Solutions), 0)
}

func TestDepthFirst(t *testing.T) {

	biff.Alternative("Depth first", func(a *biff.A) {

		a.Alternative("Stops at the quota", func(a *biff.A) {
			problem := newLinkProblem(t, 3, 2, nil)
			result, err := Explore(context.Background(), problem, &DepthFirstStrategy{MaxDepth: -1}, &Options{Solutions: 1, Seed: 7})
			biff.AssertNil(err)
			biff.AssertEqual(result.Status, TerminatedSuccess)
			biff.AssertEqual(len(result.Solutions), 1)

			solution := result.Solutions[0]
			biff.AssertTrue(solution.Fitness.Satisfied)
			biff.AssertEqual(solution.Depth, 2)
			biff.AssertEqual(len(solution.Trajectory), 3)
			biff.AssertEqual(solution.Objectives, map[string]float64{"missing edges": 0})
		})

		a.Alternative("Exhausts the space", func(a *biff.A) {
			problem := newLinkProblem(t, 3, 2, nil)
			result, err := Explore(context.Background(), problem, &DepthFirstStrategy{MaxDepth: 2, BacktrackFromSolution: true}, nil)
			biff.AssertNil(err)
			biff.AssertEqual(result.Status, TerminatedExhausted)

			// Up to isomorphism there are 4 ways to place two directed edges
			// on 3 nodes: two-path, fan-out, fan-in and a 2-cycle.
			biff.AssertEqual(len(result.Solutions), 4)
			biff.AssertEqual(result.Statistics.MaxDepthReached, 2)
			biff.AssertTrue(result.Statistics.Duplicates > 0)
			biff.AssertTrue(result.Statistics.Backtracks > 0)
		})

		a.Alternative("Solution filter", func(a *biff.A) {
			problem := newLinkProblem(t, 3, 1, nil)
			result, err := Explore(context.Background(), problem, &DepthFirstStrategy{MaxDepth: 2}, &Options{
				SolutionFilter: map[string]interface{}{
					"depth": map[string]interface{}{"$gt": 1},
				},
			})
			biff.AssertNil(err)
			biff.AssertEqual(result.Status, TerminatedExhausted)
			biff.AssertTrue(len(result.Solutions) > 0)
			for _, s := range result.Solutions {
				biff.AssertEqual(s.Depth, 2)
			}
		})

		a.Alternative("Cancelled", func(a *biff.A) {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			result, err := Explore(ctx, newLinkProblem(t, 3, 2, nil), &DepthFirstStrategy{MaxDepth: -1}, nil)
			biff.AssertNil(err)
			biff.AssertEqual(result.Status, TerminatedCancelled)
		})

		a.Alternative("Symmetry resolver", func(a *biff.A) {
			problem := newLinkProblem(t, 3, 2, nil)
			result, err := Explore(context.Background(), problem, &DepthFirstStrategy{MaxDepth: 2, BacktrackFromSolution: true}, &Options{
				SymmetryResolver: statecoder.ObjectCodeResolver{},
			})
			biff.AssertNil(err)
			biff.AssertEqual(result.Status, TerminatedExhausted)
			biff.AssertEqual(len(result.Solutions), 4)
		})

		a.Alternative("Resolver keeps colliding states apart", func(a *biff.A) {
			problem := newLinkProblem(t, 3, 2, nil)
			result, err := Explore(context.Background(), problem, &DepthFirstStrategy{MaxDepth: 2, BacktrackFromSolution: true}, &Options{
				SymmetryResolver: neverIsomorphic,
			})
			biff.AssertNil(err)
			biff.AssertEqual(result.Status, TerminatedExhausted)

			// Every firing sequence is a state of its own: the initial state,
			// 6 single edges and 6*5 ordered pairs of edges.
			biff.AssertEqual(result.Statistics.States, 37)
			biff.AssertEqual(result.Statistics.Duplicates, 0)
			biff.AssertEqual(len(result.Solutions), 30)

			versions := map[model.Version]bool{}
			for _, s := range result.Solutions {
				biff.AssertEqual(s.Depth, 2)
				biff.AssertEqual(len(s.Trajectory), 3)
				versions[s.Version] = true
			}
			biff.AssertEqual(len(versions), 30)
		})
	})
}

func TestBestFirst(t *testing.T) {

	problem := newLinkProblem(t, 4, 3, nil)
	result, err := Explore(context.Background(), problem, &BestFirstStrategy{
		MaxDepth:               -1,
		ExplorationProbability: 0.2,
	}, &Options{Solutions: 2, Seed: 3})
	biff.AssertNil(err)

	biff.AssertEqual(result.Status, TerminatedSuccess)
	biff.AssertEqual(len(result.Solutions), 2)
	for _, s := range result.Solutions {
		biff.AssertTrue(s.Fitness.Satisfied)
	}
}

func TestExplorer(t *testing.T) {

	biff.Alternative("Explorer", func(a *biff.A) {

		e, err := NewExplorer(newLinkProblem(t, 3, 2, nil), &Options{Seed: 1})
		biff.AssertNil(err)
		initial := e.State()

		biff.AssertEqual(e.Depth(), 0)
		biff.AssertTrue(e.HasUnmarkedActivation())
		biff.AssertTrue(e.CheckGlobalConstraints())

		a.Alternative("Fire and backtrack", func(a *biff.A) {
			fired, err := e.FireActivation(0, 0)
			biff.AssertNil(err)
			biff.AssertTrue(fired)
			biff.AssertEqual(e.Depth(), 1)
			child := e.State()

			ok, err := e.Backtrack()
			biff.AssertNil(err)
			biff.AssertTrue(ok)
			biff.AssertEqual(e.State(), initial)

			ok, err = e.Backtrack()
			biff.AssertNil(err)
			biff.AssertFalse(ok)

			biff.AssertNil(e.RestoreTo(child))
			biff.AssertEqual(e.Trajectory(), []model.Version{initial, child})
		})

		a.Alternative("Equivalent states are rejected", func(a *biff.A) {
			fired, err := e.FireActivation(0, 0)
			biff.AssertNil(err)
			biff.AssertTrue(fired)
			e.Backtrack()

			// Any other single edge is isomorphic to the first one.
			fired, err = e.FireActivation(0, 1)
			biff.AssertNil(err)
			biff.AssertFalse(fired)
			biff.AssertEqual(e.State(), initial)
			biff.AssertEqual(e.Statistics().Duplicates, 1)
		})

		a.Alternative("Resume a promoted state", func(a *biff.A) {
			e, err := NewExplorer(newLinkProblem(t, 3, 2, nil), &Options{
				Seed:             1,
				SymmetryResolver: neverIsomorphic,
			})
			biff.AssertNil(err)
			initial := e.State()

			fired, err := e.FireActivation(0, 0)
			biff.AssertNil(err)
			biff.AssertTrue(fired)
			e.Backtrack()

			fired, err = e.FireActivation(0, 1)
			biff.AssertNil(err)
			biff.AssertFalse(fired)
			biff.AssertEqual(e.State(), initial)
			biff.AssertEqual(e.Statistics().Duplicates, 1)

			resumed, err := e.Resume()
			biff.AssertNil(err)
			biff.AssertTrue(resumed)
			biff.AssertNotEqual(e.State(), initial)
			biff.AssertEqual(e.Depth(), 1)
			biff.AssertEqual(e.Trajectory(), []model.Version{initial, e.State()})
			biff.AssertTrue(e.HasUnmarkedActivation())
			biff.AssertEqual(e.Statistics().Duplicates, 0)
			biff.AssertEqual(e.Statistics().States, 3)

			resumed, err = e.Resume()
			biff.AssertNil(err)
			biff.AssertFalse(resumed)
		})

		a.Alternative("Out of range", func(a *biff.A) {
			_, err := e.FireActivation(1, 0)
			biff.AssertNotNil(err)
			_, err = e.FireActivation(0, 6)
			biff.AssertNotNil(err)
		})

		a.Alternative("Unknown version", func(a *biff.A) {
			err := e.RestoreTo(model.Version{})
			biff.AssertNotNil(err)
		})
	})
}

func TestExploreParallel(t *testing.T) {

	problem := newLinkProblem(t, 3, 2, nil)
	results, err := ExploreParallel(context.Background(), problem, func() Strategy {
		return &DepthFirstStrategy{MaxDepth: -1}
	}, Options{Solutions: 1}, 1, 2, 3)
	biff.AssertNil(err)

	biff.AssertEqual(len(results), 3)
	for _, r := range results {
		biff.AssertEqual(r.Status, TerminatedSuccess)
	}
	biff.AssertTrue(problem.Store.States() > 3)
}

func TestInvalidProblem(t *testing.T) {

	_, err := NewExplorer(&Problem{Name: "nothing"}, nil)
	biff.AssertNotNil(err)
}
