package apiexplorationv1

import (
	"context"

	"github.com/fulldump/box"
)

func stopExploration(ctx context.Context) (*ExplorationResponse, error) {

	s := GetServicer(ctx)

	e, err := s.StopExploration(box.GetUrlParameter(ctx, "explorationId"))
	if err != nil {
		return nil, err
	}

	return newExplorationResponse(e), nil
}
