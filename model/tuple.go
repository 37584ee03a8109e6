package model

import (
	"math"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// MaxArity is the largest number of elements a Tuple can hold.
const MaxArity = 4

// Tuple is a key of a relation: a fixed-size list of element ids.
type Tuple struct {
	arity    int8
	elements [MaxArity]int32
}

// Of builds a tuple. Too many elements or ids outside the int32 range give an
// invalid tuple, which every Put rejects with ErrIllegalKey.
func Of(elements ...int) Tuple {
	t := Tuple{}
	if len(elements) > MaxArity {
		t.arity = -1
		return t
	}
	for i, e := range elements {
		if e < math.MinInt32 || e > math.MaxInt32 {
			return Tuple{arity: -1}
		}
		t.elements[i] = int32(e)
	}
	t.arity = int8(len(elements))
	return t
}

func (t Tuple) Valid() bool {
	return t.arity >= 0
}

func (t Tuple) Arity() int {
	return int(t.arity)
}

func (t Tuple) Get(i int) int {
	return int(t.elements[i])
}

func (t Tuple) Elements() []int {
	if t.arity <= 0 {
		return nil
	}
	result := make([]int, t.arity)
	for i := range result {
		result[i] = int(t.elements[i])
	}
	return result
}

func (t Tuple) String() string {
	if !t.Valid() {
		return "(invalid)"
	}
	parts := make([]string, t.arity)
	for i := range parts {
		parts[i] = strconv.Itoa(int(t.elements[i]))
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// Compare orders tuples by arity, then element by element.
func (t Tuple) Compare(other Tuple) int {
	if t.arity != other.arity {
		if t.arity < other.arity {
			return -1
		}
		return 1
	}
	for i := 0; i < int(t.arity); i++ {
		a, b := t.elements[i], other.elements[i]
		if a < b {
			return -1
		}
		if a > b {
			return 1
		}
	}
	return 0
}

// TupleHashProvider is the hash provider every relation map of a
// ModelStore uses. It is a pure function of the tuple and the round.
type TupleHashProvider struct{}

func (TupleHashProvider) Hash(t Tuple, round int) uint64 {
	var buf [2 + 4*MaxArity]byte
	buf[0] = byte(round)
	buf[1] = byte(t.arity)
	for i := 0; i < MaxArity; i++ {
		e := uint32(t.elements[i])
		buf[2+4*i] = byte(e)
		buf[3+4*i] = byte(e >> 8)
		buf[4+4*i] = byte(e >> 16)
		buf[5+4*i] = byte(e >> 24)
	}
	return xxhash.Sum64(buf[:])
}
