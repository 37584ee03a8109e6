package model

import (
	"fmt"

	"github.com/fulldump/refinery/versioned"
)

// ModelDiffCursor hands out one DiffCursor per representation between two
// model versions. Each of them must be drained or closed.
type ModelDiffCursor struct {
	store *ModelStore
	from  []versioned.Version
	to    []versioned.Version
}

func GetDiffCursor[V comparable](c *ModelDiffCursor, r *Representation[V]) (*versioned.DiffCursor[Tuple, V], error) {
	i, err := c.store.index(r)
	if err != nil {
		return nil, err
	}
	typed, ok := c.store.stores[i].(*typedStore[V])
	if !ok {
		return nil, fmt.Errorf("%s: value type mismatch", r)
	}
	return typed.store.GetDiffCursor(c.from[i], c.to[i])
}
