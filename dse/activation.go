package dse

import (
	"errors"
	"fmt"
	"math/bits"
	"math/rand/v2"

	"github.com/fulldump/refinery/model"
)

var ErrCapacityExhausted = errors.New("activation capacity exhausted")

// VisitResult reports the outcome of a visit. Transformation and Activation
// are -1 when no activation was selected.
type VisitResult struct {
	SuccessfulVisit bool
	MayHaveMore     bool
	Transformation  int
	Activation      int
}

var noVisit = VisitResult{Transformation: -1, Activation: -1}

type SelectionPolicy int

const (
	// UniformSelection picks every untried activation of a state with the
	// same probability.
	UniformSelection SelectionPolicy = iota
	// OffsetSelection picks a random position and takes the first untried
	// activation from there on. Cheaper, biased towards activations that
	// follow long runs of tried ones.
	OffsetSelection
)

// activationEntry tracks which activations of one transformation have been
// tried in one state.
type activationEntry struct {
	size    int
	visited []uint64
	count   int
}

func newActivationEntry(size int) *activationEntry {
	return &activationEntry{
		size:    size,
		visited: make([]uint64, (size+63)/64),
	}
}

func (a *activationEntry) unvisited() int {
	return a.size - a.count
}

func (a *activationEntry) mark(i int) {
	a.visited[i/64] |= 1 << (i % 64)
	a.count++
}

// GetAndAddActivationAfter marks and returns the first untried activation
// at or after index, wrapping around. Fails once all size activations have
// been handed out.
func (a *activationEntry) GetAndAddActivationAfter(index int) (int, error) {
	if a.count >= a.size {
		return -1, fmt.Errorf("%d of %d activations used: %w", a.count, a.size, ErrCapacityExhausted)
	}
	if index < 0 || index >= a.size {
		index = 0
	}
	words := len(a.visited)
	word, offset := index/64, index%64
	for n := 0; n <= words; n++ {
		w := (word + n) % words
		free := ^a.visited[w]
		if n == 0 {
			free &= ^uint64(0) << offset
		}
		if free == 0 {
			continue
		}
		i := w*64 + bits.TrailingZeros64(free)
		if i >= a.size {
			continue
		}
		a.mark(i)
		return i, nil
	}
	return -1, fmt.Errorf("no free activation found: %w", ErrCapacityExhausted)
}

// nth marks and returns the n-th untried activation.
func (a *activationEntry) nth(n int) int {
	for w, word := range a.visited {
		free := ^word
		if rest := a.size - w*64; rest < 64 {
			free &= (1 << rest) - 1
		}
		c := bits.OnesCount64(free)
		if n >= c {
			n -= c
			continue
		}
		for ; n > 0; n-- {
			free &= free - 1
		}
		i := w*64 + bits.TrailingZeros64(free)
		a.mark(i)
		return i
	}
	return -1
}

// ActivationStore remembers, per visited state, which activations have been
// fired. Capacities are fixed when the state is first visited.
type ActivationStore struct {
	selection SelectionPolicy
	states    map[model.Version][]*activationEntry
}

func NewActivationStore(selection SelectionPolicy) *ActivationStore {
	return &ActivationStore{
		selection: selection,
		states:    map[model.Version][]*activationEntry{},
	}
}

// MarkNewAsVisited registers state with the number of activations of each
// transformation. Visiting a known state again is not successful and keeps
// the bookkeeping of the first visit.
func (s *ActivationStore) MarkNewAsVisited(state model.Version, sizes []int) VisitResult {
	result := noVisit
	entries, known := s.states[state]
	if !known {
		entries = make([]*activationEntry, len(sizes))
		for i, size := range sizes {
			entries[i] = newActivationEntry(size)
		}
		s.states[state] = entries
		result.SuccessfulVisit = true
	}
	result.MayHaveMore = unvisited(entries) > 0
	return result
}

func (s *ActivationStore) HasUnmarkedActivation(state model.Version) bool {
	return unvisited(s.states[state]) > 0
}

// GetRandomAndMarkAsVisited picks one untried activation of state according
// to the selection policy.
func (s *ActivationStore) GetRandomAndMarkAsVisited(state model.Version, rng *rand.Rand) VisitResult {
	entries := s.states[state]
	total := unvisited(entries)
	if total == 0 {
		return noVisit
	}

	switch s.selection {
	case OffsetSelection:
		t, offset := 0, rng.IntN(capacity(entries))
		for offset >= entries[t].size {
			offset -= entries[t].size
			t++
		}
		for i := range entries {
			e := entries[(t+i)%len(entries)]
			if e.unvisited() == 0 {
				offset = 0
				continue
			}
			a, err := e.GetAndAddActivationAfter(offset)
			if err != nil {
				return noVisit
			}
			return s.visited((t+i)%len(entries), a, total-1)
		}
		return noVisit
	default:
		n := rng.IntN(total)
		for t, e := range entries {
			if n >= e.unvisited() {
				n -= e.unvisited()
				continue
			}
			return s.visited(t, e.nth(n), total-1)
		}
		return noVisit
	}
}

// GetAndMarkFirst picks the untried activation with the lowest
// transformation and activation index.
func (s *ActivationStore) GetAndMarkFirst(state model.Version) VisitResult {
	entries := s.states[state]
	total := unvisited(entries)
	for t, e := range entries {
		if e.unvisited() == 0 {
			continue
		}
		a, err := e.GetAndAddActivationAfter(0)
		if err != nil {
			return noVisit
		}
		return s.visited(t, a, total-1)
	}
	return noVisit
}

func (s *ActivationStore) visited(transformation, activation, remaining int) VisitResult {
	return VisitResult{
		SuccessfulVisit: true,
		MayHaveMore:     remaining > 0,
		Transformation:  transformation,
		Activation:      activation,
	}
}

// Len is the number of registered states.
func (s *ActivationStore) Len() int {
	return len(s.states)
}

func capacity(entries []*activationEntry) int {
	total := 0
	for _, e := range entries {
		total += e.size
	}
	return total
}

func unvisited(entries []*activationEntry) int {
	total := 0
	for _, e := range entries {
		total += e.unvisited()
	}
	return total
}
