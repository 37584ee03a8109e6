package dse

import (
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/fulldump/refinery/model"
	"github.com/fulldump/refinery/query"
	"github.com/fulldump/refinery/statecoder"
)

type Options struct {
	Seed uint64
	// Solutions is the solution quota. Zero or less means unlimited.
	Solutions int
	// SolutionFilter is a connor query every solution must match.
	SolutionFilter   map[string]interface{}
	Selection        SelectionPolicy
	StateCoderDepth  int
	SymmetryResolver statecoder.SymmetryResolver
	Visualizer       Visualizer
	Metrics          *Metrics
	Logger           *slog.Logger
}

type stateInfo struct {
	parent model.Version
	depth  int
	sizes  []int
	code   uint64

	fitness     *Fitness
	constraints *bool
}

// Explorer binds a problem to one model and offers the primitive moves a
// strategy is built from. It is not safe for concurrent use.
type Explorer struct {
	problem    *Problem
	model      *model.Model
	engine     *query.Engine
	actions    []Action
	compare    Comparator
	logger     *slog.Logger
	visualizer Visualizer
	metrics    *Metrics
	rng        *rand.Rand

	coder       *statecoder.StateCoder
	classes     *statecoder.EquivalenceClassStore
	activations *ActivationStore
	queue       *ObjectivePriorityQueue
	solutions   *SolutionStore

	states     map[model.Version]*stateInfo
	trajectory []model.Version
	pending    []model.Version
	stats      Statistics
}

func NewExplorer(problem *Problem, options *Options) (*Explorer, error) {
	err := problem.validate()
	if err != nil {
		return nil, err
	}
	if options == nil {
		options = &Options{}
	}
	err = ValidateSolutionFilter(options.SolutionFilter)
	if err != nil {
		return nil, err
	}

	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	visualizer := options.Visualizer
	if visualizer == nil {
		visualizer = noVisualizer{}
	}
	metrics := options.Metrics
	if metrics == nil {
		metrics = NewMetrics(nil)
	}

	m := problem.Store.CreateEmptyModel()
	if problem.Initialize != nil {
		err := problem.Initialize(m)
		if err != nil {
			return nil, fmt.Errorf("initialize %q: %w", problem.Name, err)
		}
	}

	e := &Explorer{
		problem:    problem,
		model:      m,
		engine:     query.NewEngine(m),
		compare:    problem.comparator(),
		logger:     logger.With("component", "explorer", "problem", problem.Name),
		visualizer: visualizer,
		metrics:    metrics,
		rng:        rand.New(rand.NewPCG(options.Seed, options.Seed^0x5851f42d4c957f2d)),
		coder: statecoder.New(&statecoder.Options{
			Depth:       options.StateCoderDepth,
			Individuals: problem.Individuals,
		}),
		activations: NewActivationStore(options.Selection),
		queue:       NewObjectivePriorityQueue(problem.comparator()),
		solutions:   NewSolutionStore(options.Solutions, options.SolutionFilter, options.SymmetryResolver == nil),
		states:      map[model.Version]*stateInfo{},
	}
	e.classes = statecoder.NewEquivalenceClassStore(&statecoder.EquivalenceOptions{
		Resolver:            options.SymmetryResolver,
		OnNewRepresentative: e.promote,
		Logger:              logger,
	})
	for _, r := range problem.Rules {
		e.actions = append(e.actions, r.Bind(m))
	}

	initial := m.Commit()
	e.arrive(initial, model.Version{}, 0)
	e.trajectory = []model.Version{initial}
	e.metrics.Running.Inc()

	return e, nil
}

func (e *Explorer) Model() *model.Model {
	return e.model
}

func (e *Explorer) Engine() *query.Engine {
	return e.engine
}

func (e *Explorer) Queue() *ObjectivePriorityQueue {
	return e.queue
}

func (e *Explorer) Solutions() []*Solution {
	return e.solutions.Solutions()
}

func (e *Explorer) HasEnoughSolution() bool {
	return e.solutions.HasEnoughSolution()
}

func (e *Explorer) Statistics() Statistics {
	return e.stats
}

// State is the version the model currently sits on.
func (e *Explorer) State() model.Version {
	return e.trajectory[len(e.trajectory)-1]
}

func (e *Explorer) Depth() int {
	return e.states[e.State()].depth
}

// Trajectory is the path of versions from the initial state to the current
// one.
func (e *Explorer) Trajectory() []model.Version {
	return append([]model.Version{}, e.trajectory...)
}

func (e *Explorer) HasUnmarkedActivation() bool {
	return e.activations.HasUnmarkedActivation(e.State())
}

// activationSizes counts the matches of every rule in the current model.
func (e *Explorer) activationSizes() []int {
	sizes := make([]int, len(e.problem.Rules))
	for i, r := range e.problem.Rules {
		sizes[i] = e.engine.Count(r.Precondition)
	}
	return sizes
}

// arrive records a freshly committed version the model sits on. Returns
// false when the state is equivalent to one already known.
func (e *Explorer) arrive(version, parent model.Version, depth int) bool {
	sizes := e.activationSizes()
	result := e.coder.Calculate(e.model)
	info := &stateInfo{
		parent: parent,
		depth:  depth,
		sizes:  sizes,
		code:   result.ModelCode,
	}
	e.states[version] = info

	empty := true
	for _, size := range sizes {
		if size > 0 {
			empty = false
		}
	}
	accept := e.fitness(info).Satisfied

	if !e.classes.Submit(version, result, empty, accept) {
		e.stats.Duplicates++
		e.metrics.Duplicates.Inc()
		return false
	}

	e.register(version, info)
	return true
}

func (e *Explorer) register(version model.Version, info *stateInfo) {
	e.activations.MarkNewAsVisited(version, info.sizes)
	e.stats.States++
	e.stats.MaxDepthReached = max(e.stats.MaxDepthReached, info.depth)
	e.metrics.States.Inc()
	e.visualizer.AddState(version, fmt.Sprintf("%s depth=%d", version, info.depth))
}

// promote is called when a state first taken for a duplicate turns out to
// be new. It is scheduled for exploration unless there is nothing to do
// with it.
func (e *Explorer) promote(c statecoder.Candidate) {
	info, ok := e.states[c.Version]
	if !ok {
		return
	}
	e.register(c.Version, info)
	e.stats.Duplicates--
	if c.EmptyActivations && !c.Accept {
		return
	}
	e.pending = append(e.pending, c.Version)
}

// FireActivation applies activation of rule transformation to the current
// state. Returns false when the result is equivalent to a known state, in
// which case the model is moved back.
func (e *Explorer) FireActivation(transformation, activation int) (bool, error) {
	if transformation < 0 || transformation >= len(e.problem.Rules) {
		return false, fmt.Errorf("transformation %d out of range", transformation)
	}
	rule := e.problem.Rules[transformation]
	rs := e.engine.ResultSet(rule.Precondition)
	if activation < 0 || activation >= rs.Size() {
		return false, fmt.Errorf("activation %d of rule %q out of range", activation, rule.Name)
	}
	match := rs.Get(activation)
	current := e.State()

	err := e.actions[transformation](match)
	if err != nil {
		restoreErr := e.model.Restore(current)
		if restoreErr != nil {
			return false, restoreErr
		}
		return false, fmt.Errorf("fire %s%s: %w", rule.Name, match, err)
	}
	e.stats.FiredActivations++
	e.metrics.FiredActivations.Inc()

	if !e.model.HasUncommittedChanges() {
		e.stats.Duplicates++
		e.metrics.Duplicates.Inc()
		return false, nil
	}

	version := e.model.Commit()
	if !e.arrive(version, current, e.states[current].depth+1) {
		return false, e.model.Restore(current)
	}

	e.trajectory = append(e.trajectory, version)
	e.visualizer.AddTransition(current, version, rule.Name+match.String())
	e.logger.Debug("fired",
		"rule", rule.Name,
		"match", match.String(),
		"from", current.String(),
		"to", version.String(),
	)
	return true, nil
}

// FireRandomActivation fires one untried activation of the current state.
// Returns false when there is none left or the result is a duplicate.
func (e *Explorer) FireRandomActivation() (bool, error) {
	visit := e.activations.GetRandomAndMarkAsVisited(e.State(), e.rng)
	if !visit.SuccessfulVisit {
		return false, nil
	}
	return e.FireActivation(visit.Transformation, visit.Activation)
}

// Backtrack moves the model to the parent of the current state. Returns false
// on the initial state.
func (e *Explorer) Backtrack() (bool, error) {
	if len(e.trajectory) <= 1 {
		return false, nil
	}
	parent := e.trajectory[len(e.trajectory)-2]
	err := e.model.Restore(parent)
	if err != nil {
		return false, err
	}
	e.trajectory = e.trajectory[:len(e.trajectory)-1]
	e.stats.Backtracks++
	e.metrics.Backtracks.Inc()
	return true, nil
}

// RestoreTo jumps to any state reached by this explorer.
func (e *Explorer) RestoreTo(version model.Version) error {
	if _, ok := e.states[version]; !ok {
		return fmt.Errorf("version %s not reached by this explorer: %w", version, model.ErrNoSuchVersion)
	}
	err := e.model.Restore(version)
	if err != nil {
		return err
	}

	trajectory := []model.Version{}
	for v := version; !v.IsZero(); v = e.states[v].parent {
		trajectory = append(trajectory, v)
	}
	for i, j := 0, len(trajectory)-1; i < j; i, j = i+1, j-1 {
		trajectory[i], trajectory[j] = trajectory[j], trajectory[i]
	}
	e.trajectory = trajectory
	return nil
}

// Resume moves to a state that became explorable after the fact, draining
// unresolved symmetries first. Returns false when there is none.
func (e *Explorer) Resume() (bool, error) {
	for len(e.pending) == 0 && e.classes.HasUnresolvedSymmetry() {
		e.classes.ResolveOneSymmetry()
	}
	if len(e.pending) == 0 {
		return false, nil
	}
	version := e.pending[0]
	e.pending = e.pending[1:]
	return true, e.RestoreTo(version)
}

func (e *Explorer) CheckGlobalConstraints() bool {
	info := e.states[e.State()]
	if info.constraints == nil {
		holds := true
		for _, c := range e.problem.GlobalConstraints {
			if !c.Holds(e.model, e.engine) {
				holds = false
				break
			}
		}
		info.constraints = &holds
	}
	return *info.constraints
}

// CalculateFitness evaluates the objectives of the current state. Values are
// computed once per state.
func (e *Explorer) CalculateFitness() Fitness {
	return e.fitness(e.states[e.State()])
}

func (e *Explorer) fitness(info *stateInfo) Fitness {
	if info.fitness != nil {
		return *info.fitness
	}

	f := Fitness{
		Values:    make([]float64, len(e.problem.Objectives)),
		Satisfied: true,
	}
	for i, o := range e.problem.Objectives {
		f.Values[i] = o.Evaluate(e.model, e.engine)
	}
	for _, c := range e.problem.AcceptanceCriteria {
		if !c.Holds(e.model, e.engine) {
			f.Satisfied = false
			break
		}
	}

	info.fitness = &f
	e.stats.FitnessEvaluations++
	e.metrics.FitnessEvaluations.Inc()
	return f
}

// NewSolution submits the current state as a solution.
func (e *Explorer) NewSolution() (bool, error) {
	version := e.State()
	info := e.states[version]
	fitness := e.fitness(info)

	objectives := map[string]float64{}
	for i, o := range e.problem.Objectives {
		objectives[o.Name] = fitness.Values[i]
	}

	accepted, err := e.solutions.Submit(&Solution{
		Version:    version,
		Depth:      info.depth,
		Code:       info.code,
		Fitness:    fitness,
		Objectives: objectives,
		Trajectory: e.Trajectory(),
	})
	if err != nil || !accepted {
		return false, err
	}

	e.stats.Solutions++
	e.metrics.Solutions.Inc()
	e.visualizer.AddSolution(version)
	e.logger.Info("solution found",
		"version", version.String(),
		"depth", info.depth,
		"solutions", e.stats.Solutions,
	)
	return true, nil
}

// Close releases the running gauge. The explorer must not be used after.
func (e *Explorer) Close() {
	e.metrics.Running.Dec()
}
