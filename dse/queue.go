package dse

import (
	"math/rand/v2"

	"github.com/google/btree"

	"github.com/fulldump/refinery/model"
)

type StateWithFitness struct {
	Version model.Version
	Fitness Fitness
}

// ObjectivePriorityQueue keeps pending states ordered by fitness. The tree
// gives the best state, the slice gives uniform sampling.
type ObjectivePriorityQueue struct {
	tree     *btree.BTreeG[StateWithFitness]
	items    []StateWithFitness
	position map[model.Version]int
}

func NewObjectivePriorityQueue(compare Comparator) *ObjectivePriorityQueue {
	return &ObjectivePriorityQueue{
		tree: btree.NewG(32, func(a, b StateWithFitness) bool {
			if c := compare(a.Fitness, b.Fitness); c != 0 {
				return c < 0
			}
			return a.Version.Less(b.Version)
		}),
		position: map[model.Version]int{},
	}
}

// Submit adds state. A state already queued keeps its first fitness.
func (q *ObjectivePriorityQueue) Submit(state StateWithFitness) {
	if _, exists := q.position[state.Version]; exists {
		return
	}
	q.tree.ReplaceOrInsert(state)
	q.position[state.Version] = len(q.items)
	q.items = append(q.items, state)
}

func (q *ObjectivePriorityQueue) Remove(version model.Version) bool {
	i, exists := q.position[version]
	if !exists {
		return false
	}
	q.tree.Delete(q.items[i])

	last := len(q.items) - 1
	q.items[i] = q.items[last]
	q.position[q.items[i].Version] = i
	q.items = q.items[:last]
	delete(q.position, version)
	return true
}

func (q *ObjectivePriorityQueue) Contains(version model.Version) bool {
	_, exists := q.position[version]
	return exists
}

func (q *ObjectivePriorityQueue) GetBest() (StateWithFitness, bool) {
	return q.tree.Min()
}

func (q *ObjectivePriorityQueue) GetRandom(rng *rand.Rand) (StateWithFitness, bool) {
	if len(q.items) == 0 {
		return StateWithFitness{}, false
	}
	return q.items[rng.IntN(len(q.items))], true
}

func (q *ObjectivePriorityQueue) Size() int {
	return len(q.items)
}
