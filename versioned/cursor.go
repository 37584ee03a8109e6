package versioned

import (
	"iter"
)

// Cursor is a one-shot, forward-only enumerator of key/value pairs. It holds
// a paused iteration until Move returns false or Close is called, so a cursor
// that is abandoned early must be closed.
type Cursor[K comparable, V comparable] struct {
	next  func() (K, V, bool)
	stop  func()
	key   K
	value V
	done  bool
}

func newCursor[K comparable, V comparable](seq iter.Seq2[K, V]) *Cursor[K, V] {
	next, stop := iter.Pull2(seq)
	return &Cursor[K, V]{
		next: next,
		stop: stop,
	}
}

// Move advances the cursor. Returns false when there are no more pairs.
func (c *Cursor[K, V]) Move() bool {
	if c.done {
		return false
	}
	k, v, ok := c.next()
	if !ok {
		c.Close()
		return false
	}
	c.key, c.value = k, v
	return true
}

func (c *Cursor[K, V]) Key() K {
	return c.key
}

func (c *Cursor[K, V]) Value() V {
	return c.value
}

func (c *Cursor[K, V]) Close() {
	if c.done {
		return
	}
	c.done = true
	c.stop()
}

// Diff is one key whose value differs between two states.
type Diff[K comparable, V comparable] struct {
	Key  K
	From V
	To   V
}

// DiffCursor enumerates the keys whose value differs between two states.
// Like Cursor, it must be drained or closed.
type DiffCursor[K comparable, V comparable] struct {
	next    func() (Diff[K, V], bool)
	stop    func()
	current Diff[K, V]
	done    bool
}

func newDiffCursor[K comparable, V comparable](seq iter.Seq[Diff[K, V]]) *DiffCursor[K, V] {
	next, stop := iter.Pull(seq)
	return &DiffCursor[K, V]{
		next: next,
		stop: stop,
	}
}

func (c *DiffCursor[K, V]) Move() bool {
	if c.done {
		return false
	}
	d, ok := c.next()
	if !ok {
		c.Close()
		return false
	}
	c.current = d
	return true
}

func (c *DiffCursor[K, V]) Key() K {
	return c.current.Key
}

func (c *DiffCursor[K, V]) FromValue() V {
	return c.current.From
}

func (c *DiffCursor[K, V]) ToValue() V {
	return c.current.To
}

func (c *DiffCursor[K, V]) Close() {
	if c.done {
		return
	}
	c.done = true
	c.stop()
}
