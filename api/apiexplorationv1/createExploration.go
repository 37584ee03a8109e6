package apiexplorationv1

import (
	"context"
	"net/http"

	"github.com/fulldump/refinery/service"
)

func createExploration(ctx context.Context, w http.ResponseWriter, input *service.CreateExplorationInput) (*ExplorationResponse, error) {

	s := GetServicer(ctx)

	e, err := s.CreateExploration(ctx, input)
	if err != nil {
		return nil, err
	}

	w.WriteHeader(http.StatusCreated)
	return newExplorationResponse(e), nil
}
