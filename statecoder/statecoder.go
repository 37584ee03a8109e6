package statecoder

import (
	"encoding/binary"
	"fmt"
	"math"
	"slices"

	"github.com/cespare/xxhash/v2"

	"github.com/fulldump/refinery/model"
)

const DefaultDepth = 3

type Options struct {
	// Depth is the number of refinement rounds. Zero means DefaultDepth.
	Depth int
	// Individuals are elements with an identity of their own. They are never
	// considered interchangeable with other elements.
	Individuals []int
}

// Result is the signature of a model. ModelCode is equal for isomorphic
// models; ObjectCodes maps every element to its refined colour.
type Result struct {
	ModelCode   uint64
	ObjectCodes map[int]uint64
}

// SortedObjectCodes returns the multiset of object codes in ascending order.
func (r Result) SortedObjectCodes() []uint64 {
	codes := make([]uint64, 0, len(r.ObjectCodes))
	for _, c := range r.ObjectCodes {
		codes = append(codes, c)
	}
	slices.Sort(codes)
	return codes
}

// StateCoder computes content-only signatures of models by colour
// refinement. Elements start with a shared colour (individuals with their
// own) and are repeatedly recoloured from the tuples they take part in.
type StateCoder struct {
	depth       int
	individuals map[int]uint64
}

func New(options *Options) *StateCoder {
	if options == nil {
		options = &Options{}
	}
	depth := options.Depth
	if depth <= 0 {
		depth = DefaultDepth
	}
	c := &StateCoder{
		depth:       depth,
		individuals: map[int]uint64{},
	}
	for _, id := range options.Individuals {
		c.individuals[id] = mix(seedIndividual, uint64(id))
	}
	return c
}

func (c *StateCoder) Depth() int {
	return c.depth
}

const (
	seedElement    uint64 = 0x9e3779b97f4a7c15
	seedIndividual uint64 = 0xc2b2ae3d27d4eb4f
)

type fact struct {
	symbol uint64
	value  uint64
	key    model.Tuple
}

func (c *StateCoder) Calculate(m *model.Model) Result {

	facts := []fact{}
	codes := map[int]uint64{}

	for _, r := range m.Store().Representations() {
		if r.Kind() != model.KindRelation {
			continue
		}
		symbol := xxhash.Sum64String(r.Name() + "/" + fmt.Sprint(r.Arity()))
		m.Each(r, func(key model.Tuple, value any) bool {
			facts = append(facts, fact{
				symbol: symbol,
				value:  hashValue(value),
				key:    key,
			})
			for i := 0; i < key.Arity(); i++ {
				e := key.Get(i)
				if _, ok := codes[e]; ok {
					continue
				}
				if seed, named := c.individuals[e]; named {
					codes[e] = seed
				} else {
					codes[e] = seedElement
				}
			}
			return true
		})
	}

	for round := 0; round < c.depth; round++ {
		next := make(map[int]uint64, len(codes))
		for _, f := range facts {
			code := tupleCode(f, codes)
			for i := 0; i < f.key.Arity(); i++ {
				e := f.key.Get(i)
				next[e] += mix(code, uint64(i))
			}
		}
		for e, sum := range next {
			codes[e] = mix(codes[e], sum)
		}
	}

	modelCode := uint64(0)
	for _, f := range facts {
		modelCode += tupleCode(f, codes)
	}

	return Result{
		ModelCode:   modelCode,
		ObjectCodes: codes,
	}
}

func tupleCode(f fact, codes map[int]uint64) uint64 {
	var buf [8 * (3 + model.MaxArity)]byte
	binary.LittleEndian.PutUint64(buf[0:], f.symbol)
	binary.LittleEndian.PutUint64(buf[8:], f.value)
	binary.LittleEndian.PutUint64(buf[16:], uint64(f.key.Arity()))
	n := 24
	for i := 0; i < f.key.Arity(); i++ {
		binary.LittleEndian.PutUint64(buf[n:], codes[f.key.Get(i)])
		n += 8
	}
	return xxhash.Sum64(buf[:n])
}

func mix(a, b uint64) uint64 {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[0:], a)
	binary.LittleEndian.PutUint64(buf[8:], b)
	return xxhash.Sum64(buf[:])
}

func hashValue(value any) uint64 {
	switch v := value.(type) {
	case bool:
		if v {
			return 1
		}
		return 2
	case int:
		return mix(3, uint64(v))
	case int32:
		return mix(3, uint64(v))
	case int64:
		return mix(3, uint64(v))
	case uint64:
		return mix(4, v)
	case float64:
		return mix(5, math.Float64bits(v))
	case string:
		return xxhash.Sum64String(v)
	case fmt.Stringer:
		return xxhash.Sum64String(v.String())
	}
	return xxhash.Sum64String(fmt.Sprintf("%T:%v", value, value))
}
