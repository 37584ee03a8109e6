package apiexplorationv1

import (
	"context"
)

func listExplorations(ctx context.Context) []*ExplorationResponse {

	s := GetServicer(ctx)

	result := []*ExplorationResponse{}
	for _, e := range s.ListExplorations() {
		result = append(result, newExplorationResponse(e))
	}

	return result
}
