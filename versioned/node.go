package versioned

import (
	"slices"
)

type entry[K comparable, V comparable] struct {
	key   K
	value V
}

// edit is an ownership token. A node may be changed in place only by the map
// whose current token it carries; every commit hands the map a fresh token so
// published nodes can never be reached for writing again.
type edit struct {
	_ byte // distinct allocations must have distinct addresses
}

// node of a compressed hash trie. Slots present in dataMap hold an inline
// entry, slots present in nodeMap hold a child. Below maxDepth the node is a
// collision bucket and only entries is used.
type node[K comparable, V comparable] struct {
	dataMap  uint32
	nodeMap  uint32
	entries  []entry[K, V]
	children []*node[K, V]

	edit *edit

	// structural hash, only maintained when the store has a node cache
	hash uint64
}

func (n *node[K, V]) empty() bool {
	return len(n.entries) == 0 && len(n.children) == 0
}

// singleton nodes below the root are always inlined into their parent, which
// keeps the shape of the trie a function of its content.
func (n *node[K, V]) singleton() bool {
	return len(n.entries) == 1 && len(n.children) == 0
}

func (n *node[K, V]) clone(e *edit) *node[K, V] {
	return &node[K, V]{
		dataMap:  n.dataMap,
		nodeMap:  n.nodeMap,
		entries:  slices.Clone(n.entries),
		children: slices.Clone(n.children),
		edit:     e,
	}
}

func (n *node[K, V]) get(provider HashProvider[K], key K, defaultValue V) V {
	h := newHashCursor(provider, key)
	for depth := 0; n != nil; depth++ {
		if depth >= maxDepth {
			for _, e := range n.entries {
				if e.key == key {
					return e.value
				}
			}
			return defaultValue
		}
		bit := uint32(1) << h.fragment(depth)
		if n.dataMap&bit != 0 {
			e := n.entries[index(n.dataMap, bit)]
			if e.key == key {
				return e.value
			}
			return defaultValue
		}
		if n.nodeMap&bit == 0 {
			return defaultValue
		}
		n = n.children[index(n.nodeMap, bit)]
	}
	return defaultValue
}

// each visits entries in slot order. Returns false if yield stopped it.
func (n *node[K, V]) each(depth int, yield func(K, V) bool) bool {
	if n == nil {
		return true
	}
	if depth >= maxDepth {
		for _, e := range n.entries {
			if !yield(e.key, e.value) {
				return false
			}
		}
		return true
	}
	ei, ci := 0, 0
	for bitmap := n.dataMap | n.nodeMap; bitmap != 0; bitmap &= bitmap - 1 {
		bit := bitmap & -bitmap
		if n.dataMap&bit != 0 {
			e := n.entries[ei]
			ei++
			if !yield(e.key, e.value) {
				return false
			}
			continue
		}
		child := n.children[ci]
		ci++
		if !child.each(depth+1, yield) {
			return false
		}
	}
	return true
}

// writer performs copy-on-write updates on behalf of one map.
type writer[K comparable, V comparable] struct {
	provider     HashProvider[K]
	defaultValue V
	edit         *edit
}

func (w *writer[K, V]) editable(n *node[K, V]) *node[K, V] {
	if n.edit == w.edit {
		return n
	}
	return n.clone(w.edit)
}

// put returns the new subtree (nil when it became empty) and the previous
// value bound to key. Storing the default value removes the key.
func (w *writer[K, V]) put(n *node[K, V], depth int, h *hashCursor[K], key K, value V) (*node[K, V], V) {
	if n == nil {
		if value == w.defaultValue {
			return nil, w.defaultValue
		}
		leaf := &node[K, V]{
			entries: []entry[K, V]{{key: key, value: value}},
			edit:    w.edit,
		}
		if depth < maxDepth {
			leaf.dataMap = uint32(1) << h.fragment(depth)
		}
		return leaf, w.defaultValue
	}

	if depth >= maxDepth {
		return w.putBucket(n, key, value)
	}

	bit := uint32(1) << h.fragment(depth)

	if n.dataMap&bit != 0 {
		i := index(n.dataMap, bit)
		e := n.entries[i]
		if e.key == key {
			if e.value == value {
				return n, e.value
			}
			c := w.editable(n)
			if value == w.defaultValue {
				c.entries = slices.Delete(c.entries, i, i+1)
				c.dataMap ^= bit
				if c.empty() {
					return nil, e.value
				}
				return c, e.value
			}
			c.entries[i].value = value
			return c, e.value
		}
		if value == w.defaultValue {
			return n, w.defaultValue
		}
		sub := w.merge(depth+1, e, newHashCursor(w.provider, e.key), entry[K, V]{key: key, value: value}, h)
		c := w.editable(n)
		c.entries = slices.Delete(c.entries, i, i+1)
		c.dataMap ^= bit
		c.children = slices.Insert(c.children, index(c.nodeMap, bit), sub)
		c.nodeMap |= bit
		return c, w.defaultValue
	}

	if n.nodeMap&bit != 0 {
		j := index(n.nodeMap, bit)
		child := n.children[j]
		updated, old := w.put(child, depth+1, h, key, value)
		if updated == child && !updated.singleton() {
			return n, old
		}
		c := w.editable(n)
		switch {
		case updated == nil:
			c.children = slices.Delete(c.children, j, j+1)
			c.nodeMap ^= bit
			if c.empty() {
				return nil, old
			}
		case updated.singleton():
			c.children = slices.Delete(c.children, j, j+1)
			c.nodeMap ^= bit
			c.entries = slices.Insert(c.entries, index(c.dataMap, bit), updated.entries[0])
			c.dataMap |= bit
		default:
			c.children[j] = updated
		}
		return c, old
	}

	if value == w.defaultValue {
		return n, w.defaultValue
	}
	c := w.editable(n)
	c.entries = slices.Insert(c.entries, index(c.dataMap, bit), entry[K, V]{key: key, value: value})
	c.dataMap |= bit
	return c, w.defaultValue
}

func (w *writer[K, V]) putBucket(n *node[K, V], key K, value V) (*node[K, V], V) {
	for i, e := range n.entries {
		if e.key != key {
			continue
		}
		if e.value == value {
			return n, e.value
		}
		c := w.editable(n)
		if value == w.defaultValue {
			c.entries = slices.Delete(c.entries, i, i+1)
			if c.empty() {
				return nil, e.value
			}
			return c, e.value
		}
		c.entries[i].value = value
		return c, e.value
	}
	if value == w.defaultValue {
		return n, w.defaultValue
	}
	c := w.editable(n)
	c.entries = append(c.entries, entry[K, V]{key: key, value: value})
	return c, w.defaultValue
}

// merge builds the smallest subtree holding two entries whose paths agree
// up to depth.
func (w *writer[K, V]) merge(depth int, a entry[K, V], ha *hashCursor[K], b entry[K, V], hb *hashCursor[K]) *node[K, V] {
	n := &node[K, V]{edit: w.edit}
	if depth >= maxDepth {
		n.entries = []entry[K, V]{a, b}
		return n
	}
	fa, fb := ha.fragment(depth), hb.fragment(depth)
	if fa == fb {
		n.nodeMap = uint32(1) << fa
		n.children = []*node[K, V]{w.merge(depth+1, a, ha, b, hb)}
		return n
	}
	n.dataMap = uint32(1)<<fa | uint32(1)<<fb
	if fa < fb {
		n.entries = []entry[K, V]{a, b}
	} else {
		n.entries = []entry[K, V]{b, a}
	}
	return n
}
