package apiexplorationv1

import (
	"context"

	"github.com/fulldump/box"

	"github.com/fulldump/refinery/visualization"
)

func getGraph(ctx context.Context) (*visualization.Graph, error) {

	s := GetServicer(ctx)

	e, err := s.GetExploration(box.GetUrlParameter(ctx, "explorationId"))
	if err != nil {
		return nil, err
	}

	return e.Graph(), nil
}
