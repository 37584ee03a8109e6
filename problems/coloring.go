package problems

import (
	"iter"

	"github.com/fulldump/refinery/dse"
	"github.com/fulldump/refinery/model"
	"github.com/fulldump/refinery/query"
)

func init() {
	register(&Definition{
		Name:        "coloring",
		Description: "Color a ring of N nodes with K colors so that no neighbours share a color",
		Defaults: Parameters{
			Size:   5,
			Colors: 3,
		},
		build: buildColoring,
	})
}

func buildColoring(p Parameters) (*dse.Problem, error) {

	adjacent := model.NewRelation("adjacent", 2, false)
	color := model.NewRelation("color", 1, 0)

	store, err := model.NewModelStore(&model.StoreOptions{NodeCache: p.NodeCache}, adjacent, color)
	if err != nil {
		return nil, err
	}

	// paint(i, c): node i has no color yet and c is in the palette.
	paint := &query.Query{
		Name:  "paint",
		Arity: 2,
		Evaluate: func(m *model.Model) iter.Seq[model.Tuple] {
			return func(yield func(model.Tuple) bool) {
				colors := model.MustGetInterpretation(m, color)
				for i := range p.Size {
					if colors.Get(model.Of(i)) != 0 {
						continue
					}
					for c := 1; c <= p.Colors; c++ {
						if !yield(model.Of(i, c)) {
							return
						}
					}
				}
			}
		},
	}

	clash := &query.Query{
		Name:  "clash",
		Arity: 2,
		Evaluate: func(m *model.Model) iter.Seq[model.Tuple] {
			return func(yield func(model.Tuple) bool) {
				colors := model.MustGetInterpretation(m, color)
				for key := range model.MustGetInterpretation(m, adjacent).All() {
					a, b := colors.Get(model.Of(key.Get(0))), colors.Get(model.Of(key.Get(1)))
					if a != 0 && a == b {
						if !yield(key) {
							return
						}
					}
				}
			}
		},
	}

	colored := query.Relation(color)

	return &dse.Problem{
		Name:  "coloring",
		Store: store,
		Initialize: func(m *model.Model) error {
			ring := model.MustGetInterpretation(m, adjacent)
			for i := range p.Size {
				_, err := ring.Put(model.Of(i, (i+1)%p.Size), true)
				if err != nil {
					return err
				}
			}
			return nil
		},
		Rules: []*dse.Rule{{
			Name:         "paint",
			Precondition: paint,
			Action: func(m *model.Model) dse.Action {
				colors := model.MustGetInterpretation(m, color)
				return func(match model.Tuple) error {
					_, err := colors.Put(model.Of(match.Get(0)), match.Get(1))
					return err
				}
			},
		}},
		GlobalConstraints: []*dse.Criterion{{
			Name: "no clash",
			Holds: func(m *model.Model, q *query.Engine) bool {
				return q.Count(clash) == 0
			},
		}},
		AcceptanceCriteria: []*dse.Criterion{{
			Name: "all colored",
			Holds: func(m *model.Model, q *query.Engine) bool {
				return q.Count(colored) == p.Size
			},
		}},
		Objectives: []*dse.Objective{{
			Name: "uncolored",
			Evaluate: func(m *model.Model, q *query.Engine) float64 {
				return float64(p.Size - q.Count(colored))
			},
		}},
	}, nil
}
