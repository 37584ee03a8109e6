package versioned

import (
	"iter"
)

// VersionedMap is a mutable cursor over an immutable trie. Puts copy the
// path from the root to the modified slot, Commit publishes the current
// root and Restore swaps a published root back in.
//
// A VersionedMap must be mutated by one goroutine at a time. Committed
// states may be read from any goroutine.
type VersionedMap[K comparable, V comparable] struct {
	store   *VersionedMapStore[K, V]
	root    *node[K, V]
	size    int
	edit    *edit
	version Version
	dirty   bool
}

func (m *VersionedMap[K, V]) Store() *VersionedMapStore[K, V] {
	return m.store
}

func (m *VersionedMap[K, V]) Get(key K) V {
	return m.root.get(m.store.hashProvider, key, m.store.defaultValue)
}

// Put binds key to value and returns the previous value. Putting the
// default value removes the key.
func (m *VersionedMap[K, V]) Put(key K, value V) V {
	w := &writer[K, V]{
		provider:     m.store.hashProvider,
		defaultValue: m.store.defaultValue,
		edit:         m.edit,
	}
	root, old := w.put(m.root, 0, newHashCursor(m.store.hashProvider, key), key, value)
	if old == value {
		return old
	}
	m.root = root
	m.dirty = true
	switch {
	case old == m.store.defaultValue:
		m.size++
	case value == m.store.defaultValue:
		m.size--
	}
	return old
}

func (m *VersionedMap[K, V]) PutAll(pairs iter.Seq2[K, V]) {
	for k, v := range pairs {
		m.Put(k, v)
	}
}

// Size is the number of keys bound to a non-default value.
func (m *VersionedMap[K, V]) Size() int {
	return m.size
}

func (m *VersionedMap[K, V]) HasUncommittedChanges() bool {
	return m.dirty
}

// Version is the last version committed or restored by this map. The zero
// Version means the map still sits on its initial empty state.
func (m *VersionedMap[K, V]) Version() Version {
	return m.version
}

func (m *VersionedMap[K, V]) Commit() Version {
	root := m.root
	if m.store.cache != nil {
		root = intern(m.store.cache, m.store.hashProvider, root, m.edit)
	}
	m.root = root
	m.edit = &edit{}
	m.version = m.store.register(root, m.size)
	m.dirty = false
	return m.version
}

// Restore replaces the current contents with the state committed as
// version. Uncommitted changes are discarded.
func (m *VersionedMap[K, V]) Restore(version Version) error {
	st, err := m.store.state(version)
	if err != nil {
		return err
	}
	m.root = st.root
	m.size = st.size
	m.version = version
	m.dirty = false
	return nil
}

// seal freezes the current root in place so readers of it are not affected
// by later puts.
func (m *VersionedMap[K, V]) seal() *node[K, V] {
	if m.root != nil && m.root.edit == m.edit {
		m.edit = &edit{}
	}
	return m.root
}

// All iterates the current contents. Later puts do not affect it.
func (m *VersionedMap[K, V]) All() iter.Seq2[K, V] {
	root := m.seal()
	return func(yield func(K, V) bool) {
		root.each(0, yield)
	}
}

// GetAll returns a cursor over the current contents. Close it unless it is
// drained.
func (m *VersionedMap[K, V]) GetAll() *Cursor[K, V] {
	return newCursor(m.All())
}

// GetDiffCursor enumerates the keys whose value differs between the current
// contents and version. Close the cursor unless it is drained.
func (m *VersionedMap[K, V]) GetDiffCursor(to Version) (*DiffCursor[K, V], error) {
	st, err := m.store.state(to)
	if err != nil {
		return nil, err
	}
	return newDiffCursor(m.store.diff(m.seal(), st.root)), nil
}
