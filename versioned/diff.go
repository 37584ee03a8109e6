package versioned

import (
	"iter"
)

// diff compares two tries slot by slot. Both tries use the same hash
// provider and canonical shape, so equal slots line up and pointer-identical
// subtrees can be skipped without being visited.
func (s *VersionedMapStore[K, V]) diff(from, to *node[K, V]) iter.Seq[Diff[K, V]] {
	return func(yield func(Diff[K, V]) bool) {
		d := &differ[K, V]{
			defaultValue: s.defaultValue,
			yield: func(k K, a, b V) bool {
				return yield(Diff[K, V]{Key: k, From: a, To: b})
			},
		}
		d.nodes(from, to, 0)
	}
}

type differ[K comparable, V comparable] struct {
	defaultValue V
	yield        func(key K, from, to V) bool
}

func (d *differ[K, V]) nodes(a, b *node[K, V], depth int) bool {
	if a == b {
		return true
	}
	if a == nil {
		return b.each(depth, func(k K, v V) bool {
			return d.yield(k, d.defaultValue, v)
		})
	}
	if b == nil {
		return a.each(depth, func(k K, v V) bool {
			return d.yield(k, v, d.defaultValue)
		})
	}
	if depth >= maxDepth {
		return d.buckets(a.entries, b.entries)
	}

	for bitmap := a.dataMap | a.nodeMap | b.dataMap | b.nodeMap; bitmap != 0; bitmap &= bitmap - 1 {
		bit := bitmap & -bitmap

		var ae, be *entry[K, V]
		var an, bn *node[K, V]
		if a.dataMap&bit != 0 {
			ae = &a.entries[index(a.dataMap, bit)]
		} else if a.nodeMap&bit != 0 {
			an = a.children[index(a.nodeMap, bit)]
		}
		if b.dataMap&bit != 0 {
			be = &b.entries[index(b.dataMap, bit)]
		} else if b.nodeMap&bit != 0 {
			bn = b.children[index(b.nodeMap, bit)]
		}

		ok := true
		switch {
		case ae != nil && be != nil:
			if ae.key == be.key {
				if ae.value != be.value {
					ok = d.yield(ae.key, ae.value, be.value)
				}
			} else {
				ok = d.yield(ae.key, ae.value, d.defaultValue) &&
					d.yield(be.key, d.defaultValue, be.value)
			}
		case ae != nil:
			ok = d.entryAgainst(*ae, bn, depth+1, true)
		case be != nil:
			ok = d.entryAgainst(*be, an, depth+1, false)
		default:
			ok = d.nodes(an, bn, depth+1)
		}
		if !ok {
			return false
		}
	}
	return true
}

// entryAgainst compares a single inline entry with a whole subtree (possibly
// empty) on the other side.
func (d *differ[K, V]) entryAgainst(e entry[K, V], n *node[K, V], depth int, entryIsFrom bool) bool {
	found := false
	ok := n.each(depth, func(k K, v V) bool {
		if k == e.key {
			found = true
			if v == e.value {
				return true
			}
			if entryIsFrom {
				return d.yield(k, e.value, v)
			}
			return d.yield(k, v, e.value)
		}
		if entryIsFrom {
			return d.yield(k, d.defaultValue, v)
		}
		return d.yield(k, v, d.defaultValue)
	})
	if !ok || found {
		return ok
	}
	if entryIsFrom {
		return d.yield(e.key, e.value, d.defaultValue)
	}
	return d.yield(e.key, d.defaultValue, e.value)
}

func (d *differ[K, V]) buckets(a, b []entry[K, V]) bool {
	for _, ea := range a {
		to := d.defaultValue
		for _, eb := range b {
			if eb.key == ea.key {
				to = eb.value
				break
			}
		}
		if to != ea.value && !d.yield(ea.key, ea.value, to) {
			return false
		}
	}
	for _, eb := range b {
		present := false
		for _, ea := range a {
			if ea.key == eb.key {
				present = true
				break
			}
		}
		if !present && !d.yield(eb.key, d.defaultValue, eb.value) {
			return false
		}
	}
	return true
}
