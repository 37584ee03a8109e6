package query

import (
	"iter"
	"slices"

	"github.com/fulldump/refinery/model"
)

// Query is a named pattern over a model. Evaluate yields every match; the
// same match may be yielded more than once, result sets deduplicate.
type Query struct {
	Name     string
	Arity    int
	Evaluate func(m *model.Model) iter.Seq[model.Tuple]
}

// Relation is the query matching every key of r whose value is not the
// default.
func Relation[V comparable](r *model.Representation[V]) *Query {
	return &Query{
		Name:  r.Name(),
		Arity: r.Arity(),
		Evaluate: func(m *model.Model) iter.Seq[model.Tuple] {
			return func(yield func(model.Tuple) bool) {
				interpretation := model.MustGetInterpretation(m, r)
				for key := range interpretation.All() {
					if !yield(key) {
						return
					}
				}
			}
		},
	}
}

// ResultSet is a frozen, sorted list of matches. Positions are stable for a
// fixed model content, which makes them usable as activation indexes.
type ResultSet struct {
	query   *Query
	matches []model.Tuple
}

func newResultSet(q *Query, m *model.Model) *ResultSet {
	matches := []model.Tuple{}
	for match := range q.Evaluate(m) {
		matches = append(matches, match)
	}
	slices.SortFunc(matches, model.Tuple.Compare)
	return &ResultSet{
		query:   q,
		matches: slices.Compact(matches),
	}
}

func (r *ResultSet) Query() *Query {
	return r.query
}

func (r *ResultSet) Size() int {
	return len(r.matches)
}

func (r *ResultSet) Get(i int) model.Tuple {
	return r.matches[i]
}

func (r *ResultSet) All() iter.Seq2[int, model.Tuple] {
	return slices.All(r.matches)
}
