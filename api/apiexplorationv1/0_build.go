package apiexplorationv1

import (
	"github.com/fulldump/box"
)

func BuildV1Exploration(v1 *box.R) *box.R {

	explorations := v1.Resource("/explorations").
		WithActions(
			box.Get(listExplorations),
			box.Post(createExploration),
		)

	v1.Resource("/explorations/{explorationId}").
		WithActions(
			box.Get(getExploration),
			box.ActionPost(stopExploration).WithName("stop"),
		)

	v1.Resource("/explorations/{explorationId}/solutions").
		WithActions(
			box.Get(listSolutions),
		)

	v1.Resource("/explorations/{explorationId}/graph").
		WithActions(
			box.Get(getGraph),
		)

	v1.Resource("/problems").
		WithActions(
			box.Get(listProblems),
		)

	return explorations
}
