package dse

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/SierraSoftworks/connor"

	"github.com/fulldump/refinery/model"
)

var ErrInvalidFilter = errors.New("invalid solution filter")

type Solution struct {
	Version    model.Version
	Depth      int
	Code       uint64
	Fitness    Fitness
	Objectives map[string]float64
	Trajectory []model.Version
}

func (s *Solution) filterData() map[string]interface{} {
	objectives := map[string]interface{}{}
	for name, value := range s.Objectives {
		objectives[name] = value
	}
	return map[string]interface{}{
		"depth":      s.Depth,
		"code":       fmt.Sprintf("%016x", s.Code),
		"objectives": objectives,
	}
}

// ValidateSolutionFilter rejects filters connor would fail on: unknown
// operators anywhere in the query, or operands that do not fit the solution
// document.
func ValidateSolutionFilter(filter map[string]interface{}) error {
	if len(filter) == 0 {
		return nil
	}
	err := checkOperators(filter)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidFilter, err)
	}
	_, err = connor.Match(filter, (&Solution{}).filterData())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidFilter, err)
	}
	return nil
}

func checkOperators(condition interface{}) error {
	switch c := condition.(type) {
	case map[string]interface{}:
		for key, value := range c {
			if strings.HasPrefix(key, "$") && !slices.Contains(connor.Operators(), key[1:]) {
				return fmt.Errorf("unknown operator '%s'", key)
			}
			err := checkOperators(value)
			if err != nil {
				return err
			}
		}
	case []interface{}:
		for _, value := range c {
			err := checkOperators(value)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// SolutionStore keeps accepted solutions in discovery order. A quota of
// zero or less means unlimited.
type SolutionStore struct {
	quota       int
	filter      map[string]interface{}
	uniqueCodes bool
	solutions   []*Solution
	versions    map[model.Version]bool
	codes       map[uint64]bool
}

// NewSolutionStore builds a store. filter is a connor query evaluated
// against {"depth", "code", "objectives"}; nil accepts everything. With
// uniqueCodes a solution whose model code was already accepted is dropped;
// without it only versions are deduplicated.
func NewSolutionStore(quota int, filter map[string]interface{}, uniqueCodes bool) *SolutionStore {
	return &SolutionStore{
		quota:       quota,
		filter:      filter,
		uniqueCodes: uniqueCodes,
		versions:    map[model.Version]bool{},
		codes:       map[uint64]bool{},
	}
}

func (s *SolutionStore) Submit(solution *Solution) (bool, error) {
	if s.HasEnoughSolution() {
		return false, nil
	}
	if s.versions[solution.Version] {
		return false, nil
	}
	if s.uniqueCodes && s.codes[solution.Code] {
		return false, nil
	}
	if len(s.filter) > 0 {
		match, err := connor.Match(s.filter, solution.filterData())
		if err != nil {
			return false, fmt.Errorf("solution filter: %w", err)
		}
		if !match {
			return false, nil
		}
	}
	s.versions[solution.Version] = true
	s.codes[solution.Code] = true
	s.solutions = append(s.solutions, solution)
	return true, nil
}

func (s *SolutionStore) HasEnoughSolution() bool {
	return s.quota > 0 && len(s.solutions) >= s.quota
}

func (s *SolutionStore) Solutions() []*Solution {
	return append([]*Solution{}, s.solutions...)
}
