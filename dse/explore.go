package dse

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

type Result struct {
	Status     Status
	Solutions  []*Solution
	Statistics Statistics
}

// Explore runs strategy over a new explorer of problem until it terminates
// or ctx is cancelled.
func Explore(ctx context.Context, problem *Problem, strategy Strategy, options *Options) (*Result, error) {
	e, err := NewExplorer(problem, options)
	if err != nil {
		return nil, err
	}
	defer e.Close()
	return e.Run(ctx, strategy)
}

// Run drives the explorer with strategy and collects the outcome.
func (e *Explorer) Run(ctx context.Context, strategy Strategy) (*Result, error) {
	started := time.Now()
	e.logger.Info("exploration started", "strategy", fmt.Sprintf("%T", strategy))

	status, err := strategy.Explore(ctx, e)
	e.stats.Elapsed = time.Since(started)
	if err != nil {
		return nil, fmt.Errorf("explore %q: %w", e.problem.Name, err)
	}

	e.logger.Info("exploration finished",
		"status", status.String(),
		"states", e.stats.States,
		"solutions", e.stats.Solutions,
		"elapsed", e.stats.Elapsed.String(),
	)

	return &Result{
		Status:     status,
		Solutions:  e.Solutions(),
		Statistics: e.stats,
	}, nil
}

// ExploreParallel runs one exploration per seed, each on its own model of
// the shared store. Explorations do not share visited states. The first
// error cancels the others.
func ExploreParallel(ctx context.Context, problem *Problem, strategy func() Strategy, options Options, seeds ...uint64) ([]*Result, error) {
	results := make([]*Result, len(seeds))
	g, ctx := errgroup.WithContext(ctx)
	for i, seed := range seeds {
		o := options
		o.Seed = seed
		o.Visualizer = nil
		g.Go(func() error {
			result, err := Explore(ctx, problem, strategy(), &o)
			if err != nil {
				return fmt.Errorf("worker %d: %w", i, err)
			}
			results[i] = result
			return nil
		})
	}
	err := g.Wait()
	if err != nil {
		return nil, err
	}
	return results, nil
}
