package query

import (
	"iter"
	"testing"

	"github.com/fulldump/biff"

	"github.com/fulldump/refinery/model"
)

func TestEngine(t *testing.T) {

	biff.Alternative("Engine", func(a *biff.A) {

		edge := model.NewRelation("edge", 2, false)
		store, err := model.NewModelStore(nil, edge)
		biff.AssertNil(err)

		m := store.CreateEmptyModel()
		edges := model.MustGetInterpretation(m, edge)
		edges.Put(model.Of(2, 0), true)
		edges.Put(model.Of(0, 1), true)
		edges.Put(model.Of(1, 2), true)

		engine := NewEngine(m)
		edgeQuery := Relation(edge)

		a.Alternative("Sorted matches", func(a *biff.A) {
			rs := engine.ResultSet(edgeQuery)
			biff.AssertEqual(rs.Size(), 3)
			biff.AssertEqual(rs.Get(0), model.Of(0, 1))
			biff.AssertEqual(rs.Get(1), model.Of(1, 2))
			biff.AssertEqual(rs.Get(2), model.Of(2, 0))
		})

		a.Alternative("Cached until change", func(a *biff.A) {
			rs := engine.ResultSet(edgeQuery)
			biff.AssertTrue(engine.ResultSet(edgeQuery) == rs)

			edges.Put(model.Of(0, 1), false)
			biff.AssertFalse(engine.ResultSet(edgeQuery) == rs)
			biff.AssertEqual(engine.Count(edgeQuery), 2)
		})

		a.Alternative("Restore invalidates", func(a *biff.A) {
			v1 := m.Commit()
			biff.AssertEqual(engine.Count(edgeQuery), 3)

			edges.Put(model.Of(3, 3), true)
			biff.AssertEqual(engine.Count(edgeQuery), 4)

			biff.AssertNil(m.Restore(v1))
			biff.AssertEqual(engine.Count(edgeQuery), 3)
		})

		a.Alternative("Derived query deduplicates", func(a *biff.A) {
			source := &Query{
				Name:  "source",
				Arity: 1,
				Evaluate: func(m *model.Model) iter.Seq[model.Tuple] {
					return func(yield func(model.Tuple) bool) {
						for key := range model.MustGetInterpretation(m, edge).All() {
							if !yield(model.Of(key.Get(0))) {
								return
							}
						}
						yield(model.Of(0))
					}
				},
			}
			biff.AssertEqual(Count(m, source), 3)
		})
	})
}
