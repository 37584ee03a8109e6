package database

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/fulldump/refinery/dse"
	"github.com/fulldump/refinery/visualization"
)

const (
	ExplorationQueued  = "queued"
	ExplorationRunning = "running"
	ExplorationFailed  = "failed"
)

// Exploration is one search launched by the database. Once done its status
// is the terminal dse.Status name or ExplorationFailed.
type Exploration struct {
	Id       string
	Problem  string
	Strategy string
	Created  time.Time

	recorder *visualization.Recorder
	cancel   context.CancelFunc
	done     chan struct{}

	mutex    sync.RWMutex
	status   string
	result   *dse.Result
	err      error
	finished time.Time
}

func (e *Exploration) setStatus(status string) {
	e.mutex.Lock()
	e.status = status
	e.mutex.Unlock()
}

func (e *Exploration) finish(result *dse.Result, err error) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	e.finished = time.Now().UTC()
	e.result = result
	e.err = err
	switch {
	case errors.Is(err, context.Canceled):
		e.status = dse.TerminatedCancelled.String()
		e.err = nil
	case err != nil:
		e.status = ExplorationFailed
	default:
		e.status = result.Status.String()
	}
}

func (e *Exploration) Status() string {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	return e.status
}

// Result is nil until the exploration is done.
func (e *Exploration) Result() *dse.Result {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	return e.result
}

func (e *Exploration) Err() error {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	return e.err
}

func (e *Exploration) Finished() time.Time {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	return e.finished
}

func (e *Exploration) Done() <-chan struct{} {
	return e.done
}

func (e *Exploration) Graph() *visualization.Graph {
	return e.recorder.Graph()
}

// Stop cancels the exploration. It still has to reach its next loop
// iteration to notice.
func (e *Exploration) Stop() {
	e.cancel()
}
