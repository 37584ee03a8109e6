package dse

import (
	"errors"
	"fmt"

	"github.com/fulldump/refinery/model"
)

var ErrInvalidProblem = errors.New("invalid problem")

// Problem is everything an exploration needs: the schema, the initial
// model, the rules and how to judge states.
type Problem struct {
	Name               string
	Store              *model.ModelStore
	Initialize         func(m *model.Model) error
	Rules              []*Rule
	GlobalConstraints  []*Criterion
	AcceptanceCriteria []*Criterion
	Objectives         []*Objective
	// Comparator defaults to Lexicographic.
	Comparator Comparator
	// Individuals are element ids that never take part in symmetries.
	Individuals []int
}

func (p *Problem) validate() error {
	if p == nil {
		return fmt.Errorf("nil problem: %w", ErrInvalidProblem)
	}
	if p.Store == nil {
		return fmt.Errorf("problem %q has no model store: %w", p.Name, ErrInvalidProblem)
	}
	for i, r := range p.Rules {
		if r == nil || r.Precondition == nil || r.Action == nil {
			return fmt.Errorf("problem %q: rule %d is incomplete: %w", p.Name, i, ErrInvalidProblem)
		}
	}
	for _, c := range append(append([]*Criterion{}, p.GlobalConstraints...), p.AcceptanceCriteria...) {
		if c == nil || c.Holds == nil {
			return fmt.Errorf("problem %q: incomplete criterion: %w", p.Name, ErrInvalidProblem)
		}
	}
	for _, o := range p.Objectives {
		if o == nil || o.Evaluate == nil {
			return fmt.Errorf("problem %q: incomplete objective: %w", p.Name, ErrInvalidProblem)
		}
	}
	return nil
}

func (p *Problem) comparator() Comparator {
	if p.Comparator != nil {
		return p.Comparator
	}
	return Lexicographic
}
