package visualization

import (
	"sync"

	"github.com/fulldump/refinery/model"
)

type State struct {
	Version  string `json:"version"`
	Label    string `json:"label"`
	Solution bool   `json:"solution,omitempty"`
}

type Transition struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Label string `json:"label"`
}

type Graph struct {
	States      []*State      `json:"states"`
	Transitions []*Transition `json:"transitions"`
}

// Recorder keeps the explored state graph in memory.
type Recorder struct {
	mutex       sync.RWMutex
	states      []*State
	index       map[model.Version]*State
	transitions []*Transition
}

func NewRecorder() *Recorder {
	return &Recorder{
		index: map[model.Version]*State{},
	}
}

func (r *Recorder) AddState(version model.Version, label string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if s, exists := r.index[version]; exists {
		s.Label = label
		return
	}
	s := &State{
		Version: version.String(),
		Label:   label,
	}
	r.index[version] = s
	r.states = append(r.states, s)
}

func (r *Recorder) AddTransition(from, to model.Version, label string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.transitions = append(r.transitions, &Transition{
		From:  from.String(),
		To:    to.String(),
		Label: label,
	})
}

func (r *Recorder) AddSolution(version model.Version) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if s, exists := r.index[version]; exists {
		s.Solution = true
	}
}

// Graph returns a copy of what has been recorded so far.
func (r *Recorder) Graph() *Graph {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	g := &Graph{
		States:      make([]*State, len(r.states)),
		Transitions: make([]*Transition, len(r.transitions)),
	}
	for i, s := range r.states {
		copied := *s
		g.States[i] = &copied
	}
	for i, t := range r.transitions {
		copied := *t
		g.Transitions[i] = &copied
	}
	return g
}
