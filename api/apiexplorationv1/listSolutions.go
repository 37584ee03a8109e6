package apiexplorationv1

import (
	"context"
	"fmt"

	"github.com/fulldump/box"
)

type SolutionResponse struct {
	Version    string             `json:"version"`
	Depth      int                `json:"depth"`
	Code       string             `json:"code"`
	Satisfied  bool               `json:"satisfied"`
	Fitness    []float64          `json:"fitness"`
	Objectives map[string]float64 `json:"objectives"`
	Trajectory []string           `json:"trajectory"`
}

// listSolutions is empty while the exploration is still running.
func listSolutions(ctx context.Context) ([]*SolutionResponse, error) {

	s := GetServicer(ctx)

	e, err := s.GetExploration(box.GetUrlParameter(ctx, "explorationId"))
	if err != nil {
		return nil, err
	}

	result := []*SolutionResponse{}
	r := e.Result()
	if r == nil {
		return result, nil
	}

	for _, solution := range r.Solutions {
		trajectory := make([]string, len(solution.Trajectory))
		for i, version := range solution.Trajectory {
			trajectory[i] = version.String()
		}
		result = append(result, &SolutionResponse{
			Version:    solution.Version.String(),
			Depth:      solution.Depth,
			Code:       fmt.Sprintf("%016x", solution.Code),
			Satisfied:  solution.Fitness.Satisfied,
			Fitness:    solution.Fitness.Values,
			Objectives: solution.Objectives,
			Trajectory: trajectory,
		})
	}

	return result, nil
}
