package dse

import (
	"github.com/fulldump/refinery/model"
	"github.com/fulldump/refinery/query"
)

// Action applies one match of a rule to the model it is bound to.
type Action func(match model.Tuple) error

// Rule is a transformation: every match of Precondition is one activation.
// Action builds the closure that performs it on a given model.
type Rule struct {
	Name         string
	Precondition *query.Query
	Action       func(m *model.Model) Action
}

func (r *Rule) Bind(m *model.Model) Action {
	return r.Action(m)
}
