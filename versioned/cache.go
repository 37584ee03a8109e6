package versioned

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

const cacheShards = 64

// NodeCache shares structurally identical subtrees between maps of one
// store. Lookups are lock-striped so several models can publish their
// states concurrently.
type NodeCache[K comparable, V comparable] struct {
	shards [cacheShards]cacheShard[K, V]
}

type cacheShard[K comparable, V comparable] struct {
	mutex sync.Mutex
	nodes map[uint64]*node[K, V]
}

func NewNodeCache[K comparable, V comparable]() *NodeCache[K, V] {
	c := &NodeCache[K, V]{}
	for i := range c.shards {
		c.shards[i].nodes = map[uint64]*node[K, V]{}
	}
	return c
}

// Len returns the number of distinct subtrees known by the cache.
func (c *NodeCache[K, V]) Len() int {
	total := 0
	for i := range c.shards {
		s := &c.shards[i]
		s.mutex.Lock()
		total += len(s.nodes)
		s.mutex.Unlock()
	}
	return total
}

// getOrInsert returns the cached twin of n, or n itself once registered.
// On a hash clash with a different subtree n is kept unshared.
func (c *NodeCache[K, V]) getOrInsert(n *node[K, V]) *node[K, V] {
	s := &c.shards[n.hash%cacheShards]
	s.mutex.Lock()
	defer s.mutex.Unlock()

	existing, ok := s.nodes[n.hash]
	if !ok {
		s.nodes[n.hash] = n
		return n
	}
	if sameNode(existing, n) {
		return existing
	}
	return n
}

func sameNode[K comparable, V comparable](a, b *node[K, V]) bool {
	if a.dataMap != b.dataMap || a.nodeMap != b.nodeMap {
		return false
	}
	if len(a.entries) != len(b.entries) || len(a.children) != len(b.children) {
		return false
	}
	for i := range a.entries {
		if a.entries[i] != b.entries[i] {
			return false
		}
	}
	for i := range a.children {
		if a.children[i] != b.children[i] {
			return false
		}
	}
	return true
}

// intern walks the nodes owned by e bottom-up, computes their structural
// hash and swaps them for cached twins. Nodes not owned by e are already
// published and interned.
func intern[K comparable, V comparable](cache *NodeCache[K, V], provider HashProvider[K], n *node[K, V], e *edit) *node[K, V] {
	if n == nil || n.edit != e {
		return n
	}
	for i, child := range n.children {
		n.children[i] = intern(cache, provider, child, e)
	}

	d := xxhash.New()
	var buf [8]byte
	writeUint64(d, buf[:], uint64(n.dataMap)<<32|uint64(n.nodeMap))
	for _, en := range n.entries {
		writeUint64(d, buf[:], provider.Hash(en.key, 0))
	}
	for _, child := range n.children {
		writeUint64(d, buf[:], child.hash)
	}
	n.hash = d.Sum64()

	return cache.getOrInsert(n)
}

func writeUint64(d *xxhash.Digest, buf []byte, v uint64) {
	for i := 0; i < 8; i++ {
		buf[i] = byte(v >> (8 * i))
	}
	d.Write(buf)
}
