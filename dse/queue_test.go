package dse

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/fulldump/biff"

	"github.com/fulldump/refinery/model"
)

func commitVersions(t *testing.T, n int) []model.Version {
	store, err := model.NewModelStore(nil)
	if err != nil {
		t.Fatal(err)
	}
	m := store.CreateEmptyModel()
	versions := make([]model.Version, n)
	for i := range versions {
		versions[i] = m.Commit()
	}
	return versions
}

func TestObjectivePriorityQueue(t *testing.T) {

	biff.Alternative("Queue", func(a *biff.A) {

		v := commitVersions(t, 4)
		q := NewObjectivePriorityQueue(Lexicographic)
		q.Submit(StateWithFitness{Version: v[0], Fitness: Fitness{Values: []float64{3}}})
		q.Submit(StateWithFitness{Version: v[1], Fitness: Fitness{Values: []float64{1}}})
		q.Submit(StateWithFitness{Version: v[2], Fitness: Fitness{Values: []float64{1}}})
		q.Submit(StateWithFitness{Version: v[3], Fitness: Fitness{Values: []float64{9}, Satisfied: true}})

		a.Alternative("Best", func(a *biff.A) {
			best, ok := q.GetBest()
			biff.AssertTrue(ok)
			biff.AssertEqual(best.Version, v[3])
			biff.AssertEqual(q.Size(), 4)
		})

		a.Alternative("Ties by version", func(a *biff.A) {
			q.Remove(v[3])
			best, _ := q.GetBest()
			biff.AssertEqual(best.Version, v[1])
		})

		a.Alternative("Remove", func(a *biff.A) {
			biff.AssertTrue(q.Remove(v[1]))
			biff.AssertFalse(q.Remove(v[1]))
			biff.AssertFalse(q.Contains(v[1]))
			biff.AssertEqual(q.Size(), 3)

			q.Remove(v[3])
			best, _ := q.GetBest()
			biff.AssertEqual(best.Version, v[2])
		})

		a.Alternative("Resubmit is ignored", func(a *biff.A) {
			q.Submit(StateWithFitness{Version: v[0], Fitness: Fitness{Values: []float64{0}, Satisfied: true}})
			biff.AssertEqual(q.Size(), 4)
			best, _ := q.GetBest()
			biff.AssertEqual(best.Version, v[3])
		})

		a.Alternative("Random covers every state", func(a *biff.A) {
			rng := rand.New(rand.NewPCG(4, 4))
			seen := map[model.Version]bool{}
			for i := 0; i < 200; i++ {
				s, ok := q.GetRandom(rng)
				biff.AssertTrue(ok)
				seen[s.Version] = true
			}
			biff.AssertEqual(len(seen), 4)
		})

		a.Alternative("Empty", func(a *biff.A) {
			for _, version := range v {
				q.Remove(version)
			}
			_, ok := q.GetBest()
			biff.AssertFalse(ok)
			_, ok = q.GetRandom(rand.New(rand.NewPCG(1, 1)))
			biff.AssertFalse(ok)
		})
	})
}

func TestWeightedSum(t *testing.T) {

	compare := WeightedSum(1, 10)
	a := Fitness{Values: []float64{5, 0}}
	b := Fitness{Values: []float64{0, 1}}
	biff.AssertEqual(compare(a, b), -1)
	biff.AssertEqual(Lexicographic(a, b), 1)
}

func TestSolutionStore(t *testing.T) {

	biff.Alternative("Solution store", func(a *biff.A) {

		v := commitVersions(t, 3)

		a.Alternative("Quota and duplicates", func(a *biff.A) {
			s := NewSolutionStore(2, nil, true)

			ok, err := s.Submit(&Solution{Version: v[0], Code: 1})
			biff.AssertNil(err)
			biff.AssertTrue(ok)

			ok, _ = s.Submit(&Solution{Version: v[0], Code: 2})
			biff.AssertFalse(ok)
			ok, _ = s.Submit(&Solution{Version: v[1], Code: 1})
			biff.AssertFalse(ok)
			biff.AssertFalse(s.HasEnoughSolution())

			ok, _ = s.Submit(&Solution{Version: v[1], Code: 2})
			biff.AssertTrue(ok)
			biff.AssertTrue(s.HasEnoughSolution())

			ok, _ = s.Submit(&Solution{Version: v[2], Code: 3})
			biff.AssertFalse(ok)

			solutions := s.Solutions()
			biff.AssertEqual(len(solutions), 2)
			biff.AssertEqual(solutions[0].Version, v[0])
			biff.AssertEqual(solutions[1].Version, v[1])
		})

		a.Alternative("Filter", func(a *biff.A) {
			s := NewSolutionStore(0, map[string]interface{}{
				"depth": 3,
			}, true)
			ok, err := s.Submit(&Solution{Version: v[0], Code: 1, Depth: 2})
			biff.AssertNil(err)
			biff.AssertFalse(ok)

			ok, err = s.Submit(&Solution{Version: v[1], Code: 2, Depth: 3})
			biff.AssertNil(err)
			biff.AssertTrue(ok)
			biff.AssertFalse(s.HasEnoughSolution())
		})

		a.Alternative("Same code, different versions", func(a *biff.A) {
			s := NewSolutionStore(0, nil, false)

			ok, _ := s.Submit(&Solution{Version: v[0], Code: 1})
			biff.AssertTrue(ok)
			ok, _ = s.Submit(&Solution{Version: v[1], Code: 1})
			biff.AssertTrue(ok)
			ok, _ = s.Submit(&Solution{Version: v[1], Code: 1})
			biff.AssertFalse(ok)
			biff.AssertEqual(len(s.Solutions()), 2)
		})
	})
}

func TestValidateSolutionFilter(t *testing.T) {

	biff.AssertNil(ValidateSolutionFilter(nil))
	biff.AssertNil(ValidateSolutionFilter(map[string]interface{}{
		"depth": map[string]interface{}{"$ge": 2},
		"$or": []interface{}{
			map[string]interface{}{"objectives.edges": 3},
			map[string]interface{}{"code": map[string]interface{}{"$contains": "ab"}},
		},
	}))

	err := ValidateSolutionFilter(map[string]interface{}{
		"depth": 2,
		"objectives": map[string]interface{}{
			"edges": map[string]interface{}{"$around": 3},
		},
	})
	biff.AssertTrue(errors.Is(err, ErrInvalidFilter))

	err = ValidateSolutionFilter(map[string]interface{}{
		"depth": map[string]interface{}{"$gt": []interface{}{1}},
	})
	biff.AssertTrue(errors.Is(err, ErrInvalidFilter))

	err = ValidateSolutionFilter(map[string]interface{}{
		"$and": 5,
	})
	biff.AssertTrue(errors.Is(err, ErrInvalidFilter))
}
