package versioned

import (
	"errors"
	"fmt"
	"maps"
	"math/rand/v2"
	"testing"

	"github.com/fulldump/biff"
)

func mix(key, round int) uint64 {
	z := uint64(key) + uint64(round+1)*0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

var spreadHash = HashProviderFunc[int](mix)

// every round gives the same three values, so most keys end up in
// collision buckets at the bottom of the trie
var collidingHash = HashProviderFunc[int](func(key, round int) uint64 {
	return uint64(key % 3)
})

func newStore(provider HashProvider[int], cache bool) *VersionedMapStore[int, string] {
	return NewVersionedMapStore(&Options[int, string]{
		HashProvider: provider,
		DefaultValue: "",
		NodeCache:    cache,
	})
}

func contents(m *VersionedMap[int, string]) map[int]string {
	result := map[int]string{}
	for k, v := range m.All() {
		result[k] = v
	}
	return result
}

func TestVersionedMap(t *testing.T) {

	biff.Alternative("VersionedMap", func(a *biff.A) {

		store := newStore(spreadHash, false)
		m := store.CreateMap()

		a.Alternative("Get missing key returns default", func(a *biff.A) {
			biff.AssertEqual(m.Get(7), "")
			biff.AssertEqual(m.Size(), 0)
		})

		a.Alternative("Put and get", func(a *biff.A) {
			biff.AssertEqual(m.Put(1, "one"), "")
			biff.AssertEqual(m.Put(1, "uno"), "one")
			biff.AssertEqual(m.Get(1), "uno")
			biff.AssertEqual(m.Size(), 1)
			biff.AssertTrue(m.HasUncommittedChanges())

			a.Alternative("Put default removes", func(a *biff.A) {
				biff.AssertEqual(m.Put(1, ""), "uno")
				biff.AssertEqual(m.Size(), 0)
				biff.AssertEqual(len(contents(m)), 0)
			})

			a.Alternative("Commit and restore", func(a *biff.A) {
				v1 := m.Commit()
				biff.AssertFalse(m.HasUncommittedChanges())
				m.Put(2, "two")
				m.Put(1, "")
				v2 := m.Commit()
				biff.AssertTrue(v1.Less(v2))

				biff.AssertNil(m.Restore(v1))
				biff.AssertEqual(contents(m), map[int]string{1: "uno"})

				biff.AssertNil(m.Restore(v2))
				biff.AssertEqual(contents(m), map[int]string{2: "two"})
			})
		})

		a.Alternative("Restore foreign version", func(a *biff.A) {
			m.Put(1, "one")
			v := m.Commit()

			other := newStore(spreadHash, false).CreateMap()
			err := other.Restore(v)
			biff.AssertTrue(errors.Is(err, ErrNoSuchVersion))
		})

		a.Alternative("Restore zero version", func(a *biff.A) {
			err := m.Restore(Version{})
			biff.AssertTrue(errors.Is(err, ErrNoSuchVersion))
		})
	})
}

func TestVersionedMap_SnapshotIsolation(t *testing.T) {

	store := newStore(spreadHash, false)
	m := store.CreateMap()
	for i := 0; i < 100; i++ {
		m.Put(i, fmt.Sprint(i))
	}
	v := m.Commit()
	expected := contents(m)

	for i := 0; i < 100; i += 3 {
		m.Put(i, "changed")
	}
	for i := 1; i < 100; i += 3 {
		m.Put(i, "")
	}

	second, err := store.CreateMapAt(v)
	biff.AssertNil(err)
	biff.AssertEqual(contents(second), expected)
	biff.AssertEqual(second.Size(), 100)

	biff.AssertNil(m.Restore(v))
	biff.AssertEqual(contents(m), expected)
}

func TestVersionedMap_IdempotentRestore(t *testing.T) {

	store := newStore(spreadHash, false)
	m := store.CreateMap()
	m.Put(1, "a")
	v := m.Commit()
	m.Put(2, "b")

	biff.AssertNil(m.Restore(v))
	once := contents(m)
	biff.AssertNil(m.Restore(v))
	biff.AssertEqual(contents(m), once)
	biff.AssertEqual(m.Size(), 1)
}

func TestVersionedMap_CursorIsStable(t *testing.T) {

	m := newStore(spreadHash, false).CreateMap()
	m.Put(1, "a")
	m.Put(2, "b")

	cursor := m.GetAll()
	m.Put(3, "c")
	m.Put(1, "")

	seen := map[int]string{}
	for cursor.Move() {
		seen[cursor.Key()] = cursor.Value()
	}
	biff.AssertEqual(seen, map[int]string{1: "a", 2: "b"})
	biff.AssertFalse(cursor.Move())
	biff.AssertEqual(contents(m), map[int]string{2: "b", 3: "c"})
}

func TestVersionedMap_RandomHistory(t *testing.T) {

	cases := []struct {
		name     string
		provider HashProvider[int]
		cache    bool
	}{
		{"spread", spreadHash, false},
		{"spread with cache", spreadHash, true},
		{"colliding", collidingHash, false},
		{"colliding with cache", collidingHash, true},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {

			store := newStore(c.provider, c.cache)
			m := store.CreateMap()
			rng := rand.New(rand.NewPCG(1, 2))

			reference := map[int]string{}
			snapshots := map[Version]map[int]string{}
			order := []Version{}

			for step := 0; step < 3000; step++ {
				k := rng.IntN(150)
				v := ""
				if rng.IntN(4) != 0 {
					v = fmt.Sprint(rng.IntN(4))
				}
				old := m.Put(k, v)
				biff.AssertEqual(old, reference[k])
				if v == "" {
					delete(reference, k)
				} else {
					reference[k] = v
				}
				if step%100 == 0 {
					version := m.Commit()
					snapshots[version] = maps.Clone(reference)
					order = append(order, version)
				}
			}

			for _, version := range order {
				biff.AssertNil(m.Restore(version))
				biff.AssertEqual(contents(m), snapshots[version])
				biff.AssertEqual(m.Size(), len(snapshots[version]))
				for k, v := range snapshots[version] {
					biff.AssertEqual(m.Get(k), v)
				}
			}

			// diff against brute force for consecutive and distant pairs
			for i := 1; i < len(order); i++ {
				for _, j := range []int{i - 1, 0} {
					from, to := order[j], order[i]
					expected := map[int][2]string{}
					for k := range 150 {
						a, b := snapshots[from][k], snapshots[to][k]
						if a != b {
							expected[k] = [2]string{a, b}
						}
					}

					obtained := map[int][2]string{}
					cursor, err := store.GetDiffCursor(from, to)
					biff.AssertNil(err)
					for cursor.Move() {
						_, duplicated := obtained[cursor.Key()]
						biff.AssertFalse(duplicated)
						obtained[cursor.Key()] = [2]string{cursor.FromValue(), cursor.ToValue()}
					}
					biff.AssertEqual(obtained, expected)
				}
			}
		})
	}
}

func TestVersionedMap_NodeSharingTransparency(t *testing.T) {

	keys := make([]int, 500)
	for i := range keys {
		keys[i] = i * 7
	}
	reversed := make([]int, len(keys))
	for i, k := range keys {
		reversed[len(keys)-1-i] = k
	}

	build := func(store *VersionedMapStore[int, string], order []int) *VersionedMap[int, string] {
		m := store.CreateMap()
		for _, k := range order {
			m.Put(k, fmt.Sprint(k%5))
		}
		m.Commit()
		return m
	}

	cached := newStore(spreadHash, true)
	plain := newStore(spreadHash, false)

	m1 := build(cached, keys)
	m2 := build(cached, reversed)
	m3 := build(plain, keys)

	biff.AssertEqual(contents(m1), contents(m2))
	biff.AssertEqual(contents(m1), contents(m3))
	biff.AssertTrue(m1.root == m2.root)
	biff.AssertTrue(cached.NodeCache().Len() > 0)
	biff.AssertNil(plain.NodeCache())
}

func TestVersionedMap_DiffFromCurrent(t *testing.T) {

	store := newStore(spreadHash, false)
	m := store.CreateMap()
	m.Put(1, "a")
	v := m.Commit()
	m.Put(2, "b")
	m.Put(1, "z")

	cursor, err := m.GetDiffCursor(v)
	biff.AssertNil(err)
	obtained := map[int][2]string{}
	for cursor.Move() {
		obtained[cursor.Key()] = [2]string{cursor.FromValue(), cursor.ToValue()}
	}
	biff.AssertEqual(obtained, map[int][2]string{
		1: {"z", "a"},
		2: {"b", ""},
	})
}

func TestCursor_Close(t *testing.T) {

	biff.Alternative("Cursor close", func(a *biff.A) {

		released := false
		seq := func(yield func(int, string) bool) {
			defer func() { released = true }()
			for i := 0; i < 10; i++ {
				if !yield(i, fmt.Sprint(i)) {
					return
				}
			}
		}

		a.Alternative("Abandoned early", func(a *biff.A) {
			cursor := newCursor[int, string](seq)
			biff.AssertTrue(cursor.Move())
			biff.AssertEqual(cursor.Key(), 0)
			biff.AssertFalse(released)

			cursor.Close()
			biff.AssertTrue(released)
			biff.AssertFalse(cursor.Move())
			cursor.Close()
		})

		a.Alternative("Drained", func(a *biff.A) {
			cursor := newCursor[int, string](seq)
			n := 0
			for cursor.Move() {
				n++
			}
			biff.AssertEqual(n, 10)
			biff.AssertTrue(released)
			cursor.Close()
		})
	})
}

func TestDiffCursor_Close(t *testing.T) {

	store := newStore(spreadHash, false)
	m := store.CreateMap()
	for i := 0; i < 100; i++ {
		m.Put(i, "a")
	}
	from := m.Commit()
	for i := 0; i < 100; i++ {
		m.Put(i, "b")
	}
	to := m.Commit()

	cursor, err := store.GetDiffCursor(from, to)
	biff.AssertNil(err)
	biff.AssertTrue(cursor.Move())
	cursor.Close()
	biff.AssertFalse(cursor.Move())

	// the store is still usable after an abandoned cursor
	cursor, err = store.GetDiffCursor(from, to)
	biff.AssertNil(err)
	n := 0
	for cursor.Move() {
		n++
	}
	biff.AssertEqual(n, 100)
}
