package model

import (
	"iter"

	"github.com/fulldump/refinery/versioned"
)

// Interpretation is the typed view of one representation inside a model.
type Interpretation[V comparable] struct {
	model          *Model
	representation *Representation[V]
	m              *versioned.VersionedMap[Tuple, V]
}

func (i *Interpretation[V]) Representation() *Representation[V] {
	return i.representation
}

// Get returns the value bound to key. Keys of the wrong arity are never
// stored, so they read as the default value.
func (i *Interpretation[V]) Get(key Tuple) V {
	if key.Arity() != i.representation.arity {
		return i.representation.defaultValue
	}
	return i.m.Get(key)
}

// Put rejects keys of the wrong arity with ErrIllegalKey before touching the
// model.
func (i *Interpretation[V]) Put(key Tuple, value V) (V, error) {
	err := i.representation.checkKey(key)
	if err != nil {
		return i.representation.defaultValue, err
	}
	old := i.m.Put(key, value)
	if old != value {
		i.model.notify(i.representation, key)
	}
	return old, nil
}

// PutAll validates every key first, so a bad key leaves the model unchanged.
func (i *Interpretation[V]) PutAll(pairs iter.Seq2[Tuple, V]) error {
	type pair struct {
		key   Tuple
		value V
	}
	buffered := []pair{}
	for k, v := range pairs {
		err := i.representation.checkKey(k)
		if err != nil {
			return err
		}
		buffered = append(buffered, pair{k, v})
	}
	for _, p := range buffered {
		i.Put(p.key, p.value)
	}
	return nil
}

func (i *Interpretation[V]) Size() int {
	return i.m.Size()
}

func (i *Interpretation[V]) All() iter.Seq2[Tuple, V] {
	return i.m.All()
}

// GetAll must be drained or closed.
func (i *Interpretation[V]) GetAll() *versioned.Cursor[Tuple, V] {
	return i.m.GetAll()
}
