package model

import (
	"fmt"

	"github.com/fulldump/refinery/versioned"
)

// ChangeListener is called for every key whose value changes, either through
// a put or through a restore.
type ChangeListener func(representation DataRepresentation, key Tuple)

// Model bundles one versioned map per representation of its store. All maps
// advance together: Commit returns one Version covering all of them.
//
// A Model belongs to a single goroutine.
type Model struct {
	store           *ModelStore
	maps            []anyMap
	interpretations []any
	state           Version
	listeners       []ChangeListener
}

func newModel(s *ModelStore) *Model {
	return &Model{
		store:           s,
		maps:            make([]anyMap, len(s.stores)),
		interpretations: make([]any, len(s.stores)),
	}
}

func (m *Model) Store() *ModelStore {
	return m.store
}

// State is the last version committed or restored. Zero for a fresh empty model.
func (m *Model) State() Version {
	return m.state
}

func (m *Model) HasUncommittedChanges() bool {
	for _, vm := range m.maps {
		if vm.dirty() {
			return true
		}
	}
	return false
}

func (m *Model) Subscribe(listener ChangeListener) {
	m.listeners = append(m.listeners, listener)
}

func (m *Model) notify(r DataRepresentation, key Tuple) {
	for _, l := range m.listeners {
		l(r, key)
	}
}

func (m *Model) Commit() Version {
	versions := make([]versioned.Version, len(m.maps))
	for i, vm := range m.maps {
		versions[i] = vm.commit()
	}
	m.state = m.store.register(versions)
	return m.state
}

// Restore moves every map to its slice of version. Listeners are told about
// every key that changed, after all maps have been restored.
func (m *Model) Restore(version Version) error {
	versions, err := m.store.state(version)
	if err != nil {
		return err
	}

	var changed [][]Tuple
	if len(m.listeners) > 0 {
		changed = make([][]Tuple, len(m.maps))
		for i, vm := range m.maps {
			changed[i], err = vm.changedKeys(versions[i])
			if err != nil {
				return fmt.Errorf("diff %s: %w", m.store.representations[i], err)
			}
		}
	}

	for i, vm := range m.maps {
		err := vm.restore(versions[i])
		if err != nil {
			return fmt.Errorf("restore %s: %w", m.store.representations[i], err)
		}
	}
	m.state = version

	for i, keys := range changed {
		for _, key := range keys {
			m.notify(m.store.representations[i], key)
		}
	}
	return nil
}

// Size is the number of non-default keys stored for r.
func (m *Model) Size(r DataRepresentation) (int, error) {
	i, err := m.store.index(r)
	if err != nil {
		return 0, err
	}
	return m.maps[i].size(), nil
}

// Each visits every non-default key of r without knowing its value type.
func (m *Model) Each(r DataRepresentation, fn func(key Tuple, value any) bool) error {
	i, err := m.store.index(r)
	if err != nil {
		return err
	}
	m.maps[i].each(fn)
	return nil
}

// GetInterpretation gives typed access to the map backing r.
func GetInterpretation[V comparable](m *Model, r *Representation[V]) (*Interpretation[V], error) {
	i, err := m.store.index(r)
	if err != nil {
		return nil, err
	}
	if existing := m.interpretations[i]; existing != nil {
		return existing.(*Interpretation[V]), nil
	}
	interpretation := &Interpretation[V]{
		model:          m,
		representation: r,
		m:              m.maps[i].(*typedMap[V]).m,
	}
	m.interpretations[i] = interpretation
	return interpretation, nil
}

// MustGetInterpretation is GetInterpretation for schemas known to contain r.
func MustGetInterpretation[V comparable](m *Model, r *Representation[V]) *Interpretation[V] {
	interpretation, err := GetInterpretation(m, r)
	if err != nil {
		panic(err)
	}
	return interpretation
}
