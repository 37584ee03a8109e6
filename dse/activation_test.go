package dse

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/fulldump/biff"

	"github.com/fulldump/refinery/model"
)

func TestActivationEntry(t *testing.T) {

	biff.Alternative("Activation entry", func(a *biff.A) {

		entry := newActivationEntry(3)

		a.Alternative("Exhaustion", func(a *biff.A) {
			for i := 0; i < 3; i++ {
				_, err := entry.GetAndAddActivationAfter(0)
				biff.AssertNil(err)
			}
			_, err := entry.GetAndAddActivationAfter(0)
			biff.AssertTrue(errors.Is(err, ErrCapacityExhausted))
		})

		a.Alternative("Wraps around", func(a *biff.A) {
			got := []int{}
			for i := 0; i < 3; i++ {
				n, err := entry.GetAndAddActivationAfter(1)
				biff.AssertNil(err)
				got = append(got, n)
			}
			biff.AssertEqual(got, []int{1, 2, 0})
		})

		a.Alternative("Empty entry", func(a *biff.A) {
			_, err := newActivationEntry(0).GetAndAddActivationAfter(0)
			biff.AssertTrue(errors.Is(err, ErrCapacityExhausted))
		})
	})
}

func TestActivationEntry_Large(t *testing.T) {

	entry := newActivationEntry(130)
	seen := map[int]bool{}
	for i := 0; i < 130; i++ {
		n, err := entry.GetAndAddActivationAfter(129)
		biff.AssertNil(err)
		seen[n] = true
	}
	biff.AssertEqual(len(seen), 130)

	_, err := entry.GetAndAddActivationAfter(5)
	biff.AssertTrue(errors.Is(err, ErrCapacityExhausted))
}

func TestActivationStore(t *testing.T) {

	biff.Alternative("Activation store", func(a *biff.A) {

		store, err := model.NewModelStore(nil)
		biff.AssertNil(err)
		m := store.CreateEmptyModel()
		state := m.Commit()
		rng := rand.New(rand.NewPCG(1, 2))

		drain := func(s *ActivationStore) map[[2]int]bool {
			seen := map[[2]int]bool{}
			for s.HasUnmarkedActivation(state) {
				r := s.GetRandomAndMarkAsVisited(state, rng)
				biff.AssertTrue(r.SuccessfulVisit)
				seen[[2]int{r.Transformation, r.Activation}] = true
			}
			return seen
		}

		for _, policy := range []SelectionPolicy{UniformSelection, OffsetSelection} {
			s := NewActivationStore(policy)

			first := s.MarkNewAsVisited(state, []int{2, 0, 3})
			biff.AssertTrue(first.SuccessfulVisit)
			biff.AssertTrue(first.MayHaveMore)
			biff.AssertEqual(first.Transformation, -1)

			again := s.MarkNewAsVisited(state, []int{9})
			biff.AssertFalse(again.SuccessfulVisit)

			seen := drain(s)
			biff.AssertEqual(len(seen), 5)
			biff.AssertFalse(seen[[2]int{1, 0}])

			r := s.GetRandomAndMarkAsVisited(state, rng)
			biff.AssertFalse(r.SuccessfulVisit)
		}

		a.Alternative("First activation", func(a *biff.A) {
			s := NewActivationStore(UniformSelection)
			s.MarkNewAsVisited(state, []int{0, 2})

			r := s.GetAndMarkFirst(state)
			biff.AssertEqual([]int{r.Transformation, r.Activation}, []int{1, 0})
			biff.AssertTrue(r.MayHaveMore)

			r = s.GetAndMarkFirst(state)
			biff.AssertEqual([]int{r.Transformation, r.Activation}, []int{1, 1})
			biff.AssertFalse(r.MayHaveMore)

			biff.AssertFalse(s.HasUnmarkedActivation(state))
		})

		a.Alternative("Unknown state", func(a *biff.A) {
			s := NewActivationStore(UniformSelection)
			biff.AssertFalse(s.HasUnmarkedActivation(state))
			biff.AssertFalse(s.GetAndMarkFirst(state).SuccessfulVisit)
		})
	})
}
