package problems

import (
	"iter"

	"github.com/fulldump/refinery/dse"
	"github.com/fulldump/refinery/model"
	"github.com/fulldump/refinery/query"
)

func init() {
	register(&Definition{
		Name:        "graph",
		Description: "Connect N nodes with undirected edges, using as few edges as possible",
		Defaults: Parameters{
			Size:       4,
			ExtraEdges: 1,
		},
		build: buildGraph,
	})
}

func buildGraph(p Parameters) (*dse.Problem, error) {

	node := model.NewRelation("node", 1, false)
	edge := model.NewRelation("edge", 2, false)
	edgeCount := model.NewAuxiliaryData("edge_count", 0, 0)

	store, err := model.NewModelStore(&model.StoreOptions{NodeCache: p.NodeCache}, node, edge, edgeCount)
	if err != nil {
		return nil, err
	}

	edges := query.Relation(edge)
	nodes := query.Relation(node)

	// Edges are stored in both orientations. Matches list each missing edge
	// once, smaller id first.
	unconnected := &query.Query{
		Name:  "unconnected",
		Arity: 2,
		Evaluate: func(m *model.Model) iter.Seq[model.Tuple] {
			return func(yield func(model.Tuple) bool) {
				existing := model.MustGetInterpretation(m, edge)
				for i := range p.Size {
					for j := i + 1; j < p.Size; j++ {
						key := model.Of(i, j)
						if existing.Get(key) {
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

	connected := func(m *model.Model, q *query.Engine) bool {
		if q.Count(nodes) == 0 {
			return false
		}
		parent := map[int]int{}
		var find func(int) int
		find = func(x int) int {
			if up, ok := parent[x]; ok && up != x {
				root := find(up)
				parent[x] = root
				return root
			}
			return x
		}
		components := q.Count(nodes)
		for _, key := range q.ResultSet(edges).All() {
			a, b := find(key.Get(0)), find(key.Get(1))
			if a != b {
				parent[a] = b
				components--
			}
		}
		return components == 1
	}

	maxEdges := p.Size - 1 + p.ExtraEdges

	return &dse.Problem{
		Name:  "graph",
		Store: store,
		Initialize: func(m *model.Model) error {
			return model.MustGetInterpretation(m, node).PutAll(func(yield func(model.Tuple, bool) bool) {
				for i := range p.Size {
					if !yield(model.Of(i), true) {
						return
					}
				}
			})
		},
		Rules: []*dse.Rule{{
			Name:         "connect",
			Precondition: unconnected,
			Action: func(m *model.Model) dse.Action {
				edges := model.MustGetInterpretation(m, edge)
				count := model.MustGetInterpretation(m, edgeCount)
				return func(match model.Tuple) error {
					_, err := edges.Put(match, true)
					if err != nil {
						return err
					}
					_, err = edges.Put(model.Of(match.Get(1), match.Get(0)), true)
					if err != nil {
						return err
					}
					_, err = count.Put(model.Of(), count.Get(model.Of())+1)
					return err
				}
			},
		}},
		GlobalConstraints: []*dse.Criterion{{
			Name: "edge budget",
			Holds: func(m *model.Model, q *query.Engine) bool {
				return model.MustGetInterpretation(m, edgeCount).Get(model.Of()) <= maxEdges
			},
		}},
		AcceptanceCriteria: []*dse.Criterion{{
			Name:  "connected",
			Holds: connected,
		}},
		Objectives: []*dse.Objective{{
			Name: "edges",
			Evaluate: func(m *model.Model, q *query.Engine) float64 {
				return float64(q.Count(edges) / 2)
			},
		}},
	}, nil
}
