package query

import (
	"github.com/fulldump/refinery/model"
)

// Engine evaluates queries against one model and caches the result sets
// until the model changes.
type Engine struct {
	model      *model.Model
	cache      map[*Query]*ResultSet
	generation uint64
	listeners  []func()
}

func NewEngine(m *model.Model) *Engine {
	e := &Engine{
		model: m,
		cache: map[*Query]*ResultSet{},
	}
	m.Subscribe(e.changed)
	return e
}

func (e *Engine) changed(model.DataRepresentation, model.Tuple) {
	e.generation++
	if len(e.cache) > 0 {
		clear(e.cache)
	}
	for _, l := range e.listeners {
		l()
	}
}

func (e *Engine) Model() *model.Model {
	return e.model
}

// Generation increases on every change seen by the engine.
func (e *Engine) Generation() uint64 {
	return e.generation
}

// OnChange registers a callback run after any relation change.
func (e *Engine) OnChange(listener func()) {
	e.listeners = append(e.listeners, listener)
}

func (e *Engine) ResultSet(q *Query) *ResultSet {
	if rs, ok := e.cache[q]; ok {
		return rs
	}
	rs := newResultSet(q, e.model)
	e.cache[q] = rs
	return rs
}

func (e *Engine) Count(q *Query) int {
	return e.ResultSet(q).Size()
}

// Count evaluates q once without caching.
func Count(m *model.Model, q *Query) int {
	return newResultSet(q, m).Size()
}
