package model

import (
	"fmt"

	"github.com/fulldump/refinery/versioned"
)

type Kind int

const (
	// KindRelation is part of the logical state and of its state code.
	KindRelation Kind = iota
	// KindAuxiliary is bookkeeping (counters, caches) versioned together with
	// the relations but ignored by state coding.
	KindAuxiliary
)

func (k Kind) String() string {
	switch k {
	case KindRelation:
		return "relation"
	case KindAuxiliary:
		return "auxiliary"
	}
	return "unknown"
}

// DataRepresentation is the schema of one versioned map inside a model. The
// set of implementations is closed: *Representation[V] is the only one.
// Representations compare by identity, two with the same name are
// different schema objects.
type DataRepresentation interface {
	Name() string
	Arity() int
	Kind() Kind
	DefaultValue() any
	String() string

	newStore(cache bool) anyStore
}

type Representation[V comparable] struct {
	name         string
	arity        int
	kind         Kind
	defaultValue V
}

func NewRelation[V comparable](name string, arity int, defaultValue V) *Representation[V] {
	return &Representation[V]{
		name:         name,
		arity:        arity,
		kind:         KindRelation,
		defaultValue: defaultValue,
	}
}

func NewAuxiliaryData[V comparable](name string, arity int, defaultValue V) *Representation[V] {
	return &Representation[V]{
		name:         name,
		arity:        arity,
		kind:         KindAuxiliary,
		defaultValue: defaultValue,
	}
}

func (r *Representation[V]) Name() string {
	return r.name
}

func (r *Representation[V]) Arity() int {
	return r.arity
}

func (r *Representation[V]) Kind() Kind {
	return r.kind
}

func (r *Representation[V]) DefaultValue() any {
	return r.defaultValue
}

func (r *Representation[V]) Default() V {
	return r.defaultValue
}

func (r *Representation[V]) String() string {
	return fmt.Sprintf("%s/%d", r.name, r.arity)
}

func (r *Representation[V]) checkKey(key Tuple) error {
	if !key.Valid() || key.Arity() != r.arity {
		return fmt.Errorf("%s: key %s: %w", r, key, ErrIllegalKey)
	}
	return nil
}

func (r *Representation[V]) newStore(cache bool) anyStore {
	return &typedStore[V]{
		representation: r,
		store: versioned.NewVersionedMapStore(&versioned.Options[Tuple, V]{
			HashProvider: TupleHashProvider{},
			DefaultValue: r.defaultValue,
			NodeCache:    cache,
		}),
	}
}

// anyStore and anyMap erase V so a ModelStore can hold maps of different
// value types side by side.
type anyStore interface {
	createMap() anyMap
	createMapAt(version versioned.Version) (anyMap, error)
	cacheSize() int
}

type anyMap interface {
	commit() versioned.Version
	restore(version versioned.Version) error
	size() int
	dirty() bool
	each(fn func(key Tuple, value any) bool)
	changedKeys(to versioned.Version) ([]Tuple, error)
}

type typedStore[V comparable] struct {
	representation *Representation[V]
	store          *versioned.VersionedMapStore[Tuple, V]
}

func (s *typedStore[V]) createMap() anyMap {
	return &typedMap[V]{m: s.store.CreateMap()}
}

func (s *typedStore[V]) createMapAt(version versioned.Version) (anyMap, error) {
	m, err := s.store.CreateMapAt(version)
	if err != nil {
		return nil, err
	}
	return &typedMap[V]{m: m}, nil
}

func (s *typedStore[V]) cacheSize() int {
	if c := s.store.NodeCache(); c != nil {
		return c.Len()
	}
	return 0
}

type typedMap[V comparable] struct {
	m *versioned.VersionedMap[Tuple, V]
}

func (t *typedMap[V]) commit() versioned.Version {
	return t.m.Commit()
}

func (t *typedMap[V]) restore(version versioned.Version) error {
	return t.m.Restore(version)
}

func (t *typedMap[V]) size() int {
	return t.m.Size()
}

func (t *typedMap[V]) dirty() bool {
	return t.m.HasUncommittedChanges()
}

func (t *typedMap[V]) each(fn func(key Tuple, value any) bool) {
	for k, v := range t.m.All() {
		if !fn(k, v) {
			return
		}
	}
}

func (t *typedMap[V]) changedKeys(to versioned.Version) ([]Tuple, error) {
	cursor, err := t.m.GetDiffCursor(to)
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	result := []Tuple{}
	for cursor.Move() {
		result = append(result, cursor.Key())
	}
	return result, nil
}
