package dse

import (
	"cmp"

	"github.com/fulldump/refinery/model"
	"github.com/fulldump/refinery/query"
)

// Objective scores a state. Lower values are better.
type Objective struct {
	Name     string
	Evaluate func(m *model.Model, q *query.Engine) float64
}

// Criterion is a yes/no test over a state, used both for global
// constraints and for acceptance criteria.
type Criterion struct {
	Name  string
	Holds func(m *model.Model, q *query.Engine) bool
}

// Fitness is the objective vector of a state plus whether every acceptance
// criterion holds.
type Fitness struct {
	Values    []float64 `json:"values"`
	Satisfied bool      `json:"satisfied"`
}

// Comparator orders fitness values. Negative means a is better than b.
type Comparator func(a, b Fitness) int

// Lexicographic prefers satisfied states, then compares objective values in
// order.
func Lexicographic(a, b Fitness) int {
	if a.Satisfied != b.Satisfied {
		if a.Satisfied {
			return -1
		}
		return 1
	}
	for i := 0; i < len(a.Values) && i < len(b.Values); i++ {
		if c := cmp.Compare(a.Values[i], b.Values[i]); c != 0 {
			return c
		}
	}
	return cmp.Compare(len(a.Values), len(b.Values))
}

// WeightedSum compares the weighted sum of objective values, then falls back
// to Lexicographic.
func WeightedSum(weights ...float64) Comparator {
	sum := func(f Fitness) float64 {
		total := 0.0
		for i, v := range f.Values {
			w := 1.0
			if i < len(weights) {
				w = weights[i]
			}
			total += w * v
		}
		return total
	}
	return func(a, b Fitness) int {
		if a.Satisfied != b.Satisfied {
			return Lexicographic(a, b)
		}
		if c := cmp.Compare(sum(a), sum(b)); c != 0 {
			return c
		}
		return Lexicographic(a, b)
	}
}
