package dse

import (
	"time"
)

type Statistics struct {
	States             int           `json:"states"`
	Duplicates         int           `json:"duplicates"`
	FiredActivations   int           `json:"fired_activations"`
	Backtracks         int           `json:"backtracks"`
	FitnessEvaluations int           `json:"fitness_evaluations"`
	Solutions          int           `json:"solutions"`
	MaxDepthReached    int           `json:"max_depth_reached"`
	Elapsed            time.Duration `json:"elapsed"`
}
