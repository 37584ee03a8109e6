package versioned

import "math/bits"

// HashProvider hashes keys for the trie. Every round must behave like an
// independent hash function: two distinct keys colliding in one round are
// expected to be told apart by a later one.
type HashProvider[K comparable] interface {
	Hash(key K, round int) uint64
}

// HashProviderFunc adapts a plain function to HashProvider.
type HashProviderFunc[K comparable] func(key K, round int) uint64

func (f HashProviderFunc[K]) Hash(key K, round int) uint64 {
	return f(key, round)
}

const (
	bitsPerLevel   = 5
	branching      = 1 << bitsPerLevel
	levelMask      = branching - 1
	levelsPerRound = 64 / bitsPerLevel
	maxRounds      = 4

	// Nodes at maxDepth are collision buckets: a plain list of entries.
	maxDepth = levelsPerRound * maxRounds
)

// hashCursor memoizes the hash of one key for the current round while a
// trie path is walked from the root.
type hashCursor[K comparable] struct {
	provider HashProvider[K]
	key      K
	round    int
	value    uint64
}

func newHashCursor[K comparable](provider HashProvider[K], key K) *hashCursor[K] {
	return &hashCursor[K]{
		provider: provider,
		key:      key,
		round:    -1,
	}
}

func (h *hashCursor[K]) fragment(depth int) uint32 {
	round := depth / levelsPerRound
	if round != h.round {
		h.round = round
		h.value = h.provider.Hash(h.key, round)
	}
	shift := uint(depth%levelsPerRound) * bitsPerLevel
	return uint32(h.value>>shift) & levelMask
}

// index is the position of bit inside the compressed array described by bitmap.
func index(bitmap, bit uint32) int {
	return bits.OnesCount32(bitmap & (bit - 1))
}
