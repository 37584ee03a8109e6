package apiexplorationv1

import (
	"time"

	"github.com/fulldump/refinery/database"
	"github.com/fulldump/refinery/dse"
)

type ExplorationResponse struct {
	Id         string          `json:"id"`
	Problem    string          `json:"problem"`
	Strategy   string          `json:"strategy"`
	Status     string          `json:"status"`
	Created    time.Time       `json:"created"`
	Finished   *time.Time      `json:"finished,omitempty"`
	Error      string          `json:"error,omitempty"`
	Solutions  int             `json:"solutions"`
	Statistics *dse.Statistics `json:"statistics,omitempty"`
}

func newExplorationResponse(e *database.Exploration) *ExplorationResponse {
	response := &ExplorationResponse{
		Id:       e.Id,
		Problem:  e.Problem,
		Strategy: e.Strategy,
		Status:   e.Status(),
		Created:  e.Created,
	}
	if finished := e.Finished(); !finished.IsZero() {
		response.Finished = &finished
	}
	if err := e.Err(); err != nil {
		response.Error = err.Error()
	}
	if result := e.Result(); result != nil {
		response.Solutions = len(result.Solutions)
		response.Statistics = &result.Statistics
	}
	return response
}
