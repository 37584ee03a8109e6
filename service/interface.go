package service

import (
	"context"
	"errors"

	"github.com/fulldump/refinery/database"
	"github.com/fulldump/refinery/problems"
)

var (
	ErrExplorationNotFound = database.ErrExplorationNotFound
	ErrInvalidRequest      = errors.New("invalid request")
)

type Servicer interface {
	CreateExploration(ctx context.Context, input *CreateExplorationInput) (*database.Exploration, error)
	GetExploration(id string) (*database.Exploration, error)
	ListExplorations() []*database.Exploration
	StopExploration(id string) (*database.Exploration, error)
	ListProblems() []*problems.Definition
}
