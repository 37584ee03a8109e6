package service

import (
	"context"
	"fmt"

	"github.com/fulldump/refinery/configuration"
	"github.com/fulldump/refinery/database"
	"github.com/fulldump/refinery/dse"
	"github.com/fulldump/refinery/problems"
)

const (
	StrategyDepthFirst = "dfs"
	StrategyBestFirst  = "bestfirst"
)

type ProblemParameters struct {
	Size       int   `json:"size"`
	Colors     int   `json:"colors"`
	ExtraEdges int   `json:"extra_edges"`
	NodeCache  *bool `json:"node_cache"`
}

// CreateExplorationInput describes a new exploration. Nil pointers take the
// service defaults.
type CreateExplorationInput struct {
	Problem    string            `json:"problem"`
	Parameters ProblemParameters `json:"parameters"`

	Strategy               string  `json:"strategy"`
	MaxDepth               *int    `json:"max_depth"`
	Solutions              *int    `json:"solutions"`
	Seed                   *uint64 `json:"seed"`
	BacktrackFromSolution  bool    `json:"backtrack_from_solution"`
	ExplorationProbability float64 `json:"exploration_probability"`

	SolutionFilter map[string]interface{} `json:"solution_filter"`

	// Wait blocks until the exploration is done or the caller goes away.
	Wait bool `json:"wait"`
}

type Service struct {
	db       *database.Database
	defaults configuration.Configuration
}

func NewService(db *database.Database, defaults configuration.Configuration) *Service {
	return &Service{
		db:       db,
		defaults: defaults,
	}
}

func (s *Service) CreateExploration(ctx context.Context, input *CreateExplorationInput) (*database.Exploration, error) {

	if input == nil || input.Problem == "" {
		return nil, fmt.Errorf("%w: problem is required", ErrInvalidRequest)
	}

	parameters := problems.Parameters{
		Size:       input.Parameters.Size,
		Colors:     input.Parameters.Colors,
		ExtraEdges: input.Parameters.ExtraEdges,
		NodeCache:  s.defaults.NodeCache,
	}
	if input.Parameters.NodeCache != nil {
		parameters.NodeCache = *input.Parameters.NodeCache
	}

	problem, err := problems.Build(input.Problem, parameters)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	maxDepth := s.defaults.MaxDepth
	if input.MaxDepth != nil {
		maxDepth = *input.MaxDepth
	}

	strategyName := input.Strategy
	if strategyName == "" {
		strategyName = StrategyDepthFirst
	}

	var strategy dse.Strategy
	switch strategyName {
	case StrategyDepthFirst:
		strategy = &dse.DepthFirstStrategy{
			MaxDepth:              maxDepth,
			BacktrackFromSolution: input.BacktrackFromSolution,
		}
	case StrategyBestFirst:
		if input.ExplorationProbability < 0 || input.ExplorationProbability > 1 {
			return nil, fmt.Errorf("%w: exploration_probability must be between 0 and 1", ErrInvalidRequest)
		}
		strategy = &dse.BestFirstStrategy{
			MaxDepth:               maxDepth,
			BacktrackFromSolution:  input.BacktrackFromSolution,
			ExplorationProbability: input.ExplorationProbability,
		}
	default:
		return nil, fmt.Errorf("%w: unknown strategy '%s'", ErrInvalidRequest, input.Strategy)
	}

	err = dse.ValidateSolutionFilter(input.SolutionFilter)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	options := dse.Options{
		Seed:           uint64(s.defaults.Seed),
		Solutions:      s.defaults.Solutions,
		SolutionFilter: input.SolutionFilter,
	}
	if input.Seed != nil {
		options.Seed = *input.Seed
	}
	if input.Solutions != nil {
		options.Solutions = *input.Solutions
	}

	e, err := s.db.Launch(&database.Request{
		Problem:      problem,
		ProblemName:  input.Problem,
		Strategy:     strategy,
		StrategyName: strategyName,
		Options:      options,
	})
	if err != nil {
		return nil, err
	}

	if input.Wait {
		select {
		case <-e.Done():
		case <-ctx.Done():
		}
	}

	return e, nil
}

func (s *Service) GetExploration(id string) (*database.Exploration, error) {
	return s.db.Get(id)
}

func (s *Service) ListExplorations() []*database.Exploration {
	return s.db.List()
}

// StopExploration cancels the exploration and waits for it to wind down.
func (s *Service) StopExploration(id string) (*database.Exploration, error) {
	e, err := s.db.Get(id)
	if err != nil {
		return nil, err
	}
	e.Stop()
	<-e.Done()
	return e, nil
}

func (s *Service) ListProblems() []*problems.Definition {
	return problems.Catalog()
}
