package versioned

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"sync"
)

var ErrNoSuchVersion = errors.New("no such version")

// Version identifies a committed state of a VersionedMapStore. Versions are
// ordered by creation and are never reused.
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

// Less reports whether v was committed before other.
func (v Version) Less(other Version) bool {
	return v.seq < other.seq
}

func (v Version) Seq() uint64 {
	return v.seq
}

func (v Version) String() string {
	return "v" + strconv.FormatUint(v.seq, 10)
}

type Options[K comparable, V comparable] struct {
	HashProvider HashProvider[K]
	DefaultValue V

	// NodeCache deduplicates structurally identical subtrees on commit. It
	// trades put-time hashing for memory and never changes map contents.
	NodeCache bool
}

type state[K comparable, V comparable] struct {
	root *node[K, V]
	size int
}

// VersionedMapStore creates VersionedMaps that share one hash provider, one
// default value and one registry of committed states.
type VersionedMapStore[K comparable, V comparable] struct {
	hashProvider HashProvider[K]
	defaultValue V
	cache        *NodeCache[K, V]

	issuer *issuer
	mutex  sync.RWMutex
	states map[uint64]state[K, V]
	last   uint64
}

func NewVersionedMapStore[K comparable, V comparable](options *Options[K, V]) *VersionedMapStore[K, V] {
	s := &VersionedMapStore[K, V]{
		hashProvider: options.HashProvider,
		defaultValue: options.DefaultValue,
		issuer:       &issuer{},
		states:       map[uint64]state[K, V]{},
	}
	if options.NodeCache {
		s.cache = NewNodeCache[K, V]()
	}
	return s
}

func (s *VersionedMapStore[K, V]) DefaultValue() V {
	return s.defaultValue
}

// NodeCache returns nil when node sharing is disabled.
func (s *VersionedMapStore[K, V]) NodeCache() *NodeCache[K, V] {
	return s.cache
}

func (s *VersionedMapStore[K, V]) CreateMap() *VersionedMap[K, V] {
	return &VersionedMap[K, V]{
		store: s,
		edit:  &edit{},
	}
}

func (s *VersionedMapStore[K, V]) CreateMapAt(version Version) (*VersionedMap[K, V], error) {
	m := s.CreateMap()
	err := m.Restore(version)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Versions returns every committed version in creation order.
func (s *VersionedMapStore[K, V]) Versions() []Version {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	result := make([]Version, 0, len(s.states))
	for seq := range s.states {
		result = append(result, Version{issuer: s.issuer, seq: seq})
	}
	slices.SortFunc(result, func(a, b Version) int {
		if a.seq < b.seq {
			return -1
		}
		if a.seq > b.seq {
			return 1
		}
		return 0
	})
	return result
}

// GetDiffCursor enumerates the keys whose value differs between two
// versions. Close the cursor unless it is drained.
func (s *VersionedMapStore[K, V]) GetDiffCursor(from, to Version) (*DiffCursor[K, V], error) {
	a, err := s.state(from)
	if err != nil {
		return nil, err
	}
	b, err := s.state(to)
	if err != nil {
		return nil, err
	}
	return newDiffCursor(s.diff(a.root, b.root)), nil
}

func (s *VersionedMapStore[K, V]) register(root *node[K, V], size int) Version {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.last++
	s.states[s.last] = state[K, V]{root: root, size: size}
	return Version{issuer: s.issuer, seq: s.last}
}

func (s *VersionedMapStore[K, V]) state(version Version) (state[K, V], error) {
	if version.issuer != s.issuer {
		return state[K, V]{}, fmt.Errorf("version %s belongs to another store: %w", version, ErrNoSuchVersion)
	}

	s.mutex.RLock()
	st, ok := s.states[version.seq]
	s.mutex.RUnlock()
	if !ok {
		return state[K, V]{}, fmt.Errorf("version %s: %w", version, ErrNoSuchVersion)
	}
	return st, nil
}
