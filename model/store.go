package model

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/fulldump/refinery/versioned"
)

var (
	ErrIllegalKey            = errors.New("illegal key")
	ErrNoSuchVersion         = errors.New("no such model version")
	ErrUnknownRepresentation = errors.New("unknown data representation")
)

// Version identifies a committed state of a whole model: one version per
// constituent map.
type Version struct {
	issuer *issuer
	seq    uint64
}

type issuer struct {
	_ byte
}

func (v Version) IsZero() bool {
	return v.issuer == nil
}

func (v Version) Less(other Version) bool {
	return v.seq < other.seq
}

func (v Version) Seq() uint64 {
	return v.seq
}

func (v Version) String() string {
	return "m" + strconv.FormatUint(v.seq, 10)
}

type StoreOptions struct {
	NodeCache bool
	Logger    *slog.Logger
}

// ModelStore owns one VersionedMapStore per registered representation and
// the registry of aggregate model versions.
type ModelStore struct {
	representations []DataRepresentation
	indexes         map[DataRepresentation]int
	stores          []anyStore
	logger          *slog.Logger

	issuer *issuer
	mutex  sync.RWMutex
	states map[uint64][]versioned.Version
	last   uint64
}

func NewModelStore(options *StoreOptions, representations ...DataRepresentation) (*ModelStore, error) {
	if options == nil {
		options = &StoreOptions{}
	}

	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s := &ModelStore{
		indexes: map[DataRepresentation]int{},
		logger:  logger.With("component", "modelstore"),
		issuer:  &issuer{},
		states:  map[uint64][]versioned.Version{},
	}

	for _, r := range representations {
		if r == nil {
			return nil, fmt.Errorf("nil representation")
		}
		if _, exists := s.indexes[r]; exists {
			return nil, fmt.Errorf("representation %s registered twice", r)
		}
		if r.Arity() < 0 || r.Arity() > MaxArity {
			return nil, fmt.Errorf("representation %s: arity must be between 0 and %d", r, MaxArity)
		}
		s.indexes[r] = len(s.representations)
		s.representations = append(s.representations, r)
		s.stores = append(s.stores, r.newStore(options.NodeCache))
	}

	s.logger.Debug("model store created",
		"representations", len(s.representations),
		"node_cache", options.NodeCache,
	)

	return s, nil
}

func (s *ModelStore) Representations() []DataRepresentation {
	return append([]DataRepresentation{}, s.representations...)
}

func (s *ModelStore) CreateEmptyModel() *Model {
	m := newModel(s)
	for i, st := range s.stores {
		m.maps[i] = st.createMap()
	}
	return m
}

func (s *ModelStore) CreateModelForState(version Version) (*Model, error) {
	versions, err := s.state(version)
	if err != nil {
		return nil, err
	}
	m := newModel(s)
	for i, st := range s.stores {
		m.maps[i], err = st.createMapAt(versions[i])
		if err != nil {
			return nil, fmt.Errorf("create map for %s: %w", s.representations[i], err)
		}
	}
	m.state = version
	return m, nil
}

// States returns the number of committed model versions.
func (s *ModelStore) States() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.states)
}

// SharedNodes is the number of subtrees held by the node caches.
func (s *ModelStore) SharedNodes() int {
	total := 0
	for _, st := range s.stores {
		total += st.cacheSize()
	}
	return total
}

func (s *ModelStore) GetDiffCursor(from, to Version) (*ModelDiffCursor, error) {
	a, err := s.state(from)
	if err != nil {
		return nil, err
	}
	b, err := s.state(to)
	if err != nil {
		return nil, err
	}
	return &ModelDiffCursor{
		store: s,
		from:  a,
		to:    b,
	}, nil
}

func (s *ModelStore) index(r DataRepresentation) (int, error) {
	i, ok := s.indexes[r]
	if !ok {
		return 0, fmt.Errorf("%s: %w", r, ErrUnknownRepresentation)
	}
	return i, nil
}

func (s *ModelStore) register(versions []versioned.Version) Version {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.last++
	s.states[s.last] = versions
	return Version{issuer: s.issuer, seq: s.last}
}

func (s *ModelStore) state(version Version) ([]versioned.Version, error) {
	if version.issuer != s.issuer {
		return nil, fmt.Errorf("version %s belongs to another store: %w", version, ErrNoSuchVersion)
	}
	s.mutex.RLock()
	versions, ok := s.states[version.seq]
	s.mutex.RUnlock()
	if !ok {
		return nil, fmt.Errorf("version %s: %w", version, ErrNoSuchVersion)
	}
	return versions, nil
}
