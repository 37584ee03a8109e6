package statecoder

import (
	"log/slog"
	"slices"

	"github.com/fulldump/refinery/model"
)

// Candidate is one submitted state together with the flags recorded when it
// was submitted.
type Candidate struct {
	Version          model.Version
	Result           Result
	EmptyActivations bool
	Accept           bool
}

// SymmetryResolver confirms whether two states with the same model code are
// really isomorphic.
type SymmetryResolver interface {
	Isomorphic(representative, candidate Candidate) bool
}

type SymmetryResolverFunc func(representative, candidate Candidate) bool

func (f SymmetryResolverFunc) Isomorphic(representative, candidate Candidate) bool {
	return f(representative, candidate)
}

// ObjectCodeResolver treats two states as isomorphic when their object code
// multisets are equal.
type ObjectCodeResolver struct{}

func (ObjectCodeResolver) Isomorphic(representative, candidate Candidate) bool {
	if len(representative.Result.ObjectCodes) != len(candidate.Result.ObjectCodes) {
		return false
	}
	return slices.Equal(representative.Result.SortedObjectCodes(), candidate.Result.SortedObjectCodes())
}

type EquivalenceOptions struct {
	// Resolver confirms same-code states. Nil trusts model codes.
	Resolver SymmetryResolver
	// OnNewRepresentative is called when a queued state turns out to start a
	// class of its own.
	OnNewRepresentative func(c Candidate)
	Logger              *slog.Logger
}

// EquivalenceClassStore buckets states by model code. The first state of
// each class is its representative; later states of the same class are
// duplicates.
type EquivalenceClassStore struct {
	resolver            SymmetryResolver
	onNewRepresentative func(c Candidate)
	logger              *slog.Logger

	classes    map[uint64][]Candidate
	unresolved []Candidate
	size       int
}

func NewEquivalenceClassStore(options *EquivalenceOptions) *EquivalenceClassStore {
	if options == nil {
		options = &EquivalenceOptions{}
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &EquivalenceClassStore{
		resolver:            options.Resolver,
		onNewRepresentative: options.OnNewRepresentative,
		logger:              logger.With("component", "equivalence"),
		classes:             map[uint64][]Candidate{},
	}
}

// Submit returns true when version is the first representative of its
// class. With a resolver, states whose code is already taken are queued
// and decided later by ResolveOneSymmetry.
func (s *EquivalenceClassStore) Submit(version model.Version, result Result, emptyActivations, accept bool) bool {
	c := Candidate{
		Version:          version,
		Result:           result,
		EmptyActivations: emptyActivations,
		Accept:           accept,
	}

	bucket, exists := s.classes[result.ModelCode]
	if !exists {
		s.classes[result.ModelCode] = []Candidate{c}
		s.size++
		return true
	}

	if s.resolver != nil {
		s.unresolved = append(s.unresolved, c)
		return false
	}

	s.logger.Debug("duplicate state",
		"version", version.String(),
		"representative", bucket[0].Version.String(),
	)
	return false
}

func (s *EquivalenceClassStore) HasUnresolvedSymmetry() bool {
	return len(s.unresolved) > 0
}

func (s *EquivalenceClassStore) NumberOfUnresolvedSymmetries() int {
	return len(s.unresolved)
}

// ResolveOneSymmetry decides the oldest queued state. Returns true when it
// became a new representative.
func (s *EquivalenceClassStore) ResolveOneSymmetry() bool {
	if len(s.unresolved) == 0 {
		return false
	}
	c := s.unresolved[0]
	s.unresolved = s.unresolved[1:]

	code := c.Result.ModelCode
	for _, representative := range s.classes[code] {
		if s.resolver.Isomorphic(representative, c) {
			return false
		}
	}

	s.classes[code] = append(s.classes[code], c)
	s.size++
	s.logger.Debug("code collision resolved as new state", "version", c.Version.String())
	if s.onNewRepresentative != nil {
		s.onNewRepresentative(c)
	}
	return true
}

// Size is the number of representatives.
func (s *EquivalenceClassStore) Size() int {
	return s.size
}

// Representative returns the first state registered with code.
func (s *EquivalenceClassStore) Representative(code uint64) (model.Version, bool) {
	bucket, ok := s.classes[code]
	if !ok {
		return model.Version{}, false
	}
	return bucket[0].Version, true
}
