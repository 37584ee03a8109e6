package dse

import (
	"github.com/fulldump/refinery/model"
)

// Visualizer receives the explored state graph. It is write-only: nothing it
// does affects the search.
type Visualizer interface {
	AddState(version model.Version, label string)
	AddTransition(from, to model.Version, label string)
	AddSolution(version model.Version)
}

type noVisualizer struct{}

func (noVisualizer) AddState(model.Version, string) {}

func (noVisualizer) AddTransition(model.Version, model.Version, string) {}

func (noVisualizer) AddSolution(model.Version) {}
