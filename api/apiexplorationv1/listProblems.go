package apiexplorationv1

import (
	"context"

	"github.com/fulldump/refinery/problems"
)

func listProblems(ctx context.Context) []*problems.Definition {
	return GetServicer(ctx).ListProblems()
}
