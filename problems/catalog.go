package problems

import (
	"errors"
	"fmt"

	"github.com/fulldump/refinery/dse"
	"github.com/fulldump/refinery/utils"
)

var ErrUnknownProblem = errors.New("unknown problem")

type Parameters struct {
	// Size is the number of nodes.
	Size int `json:"size"`
	// Colors is the palette size of the coloring problem.
	Colors int `json:"colors"`
	// ExtraEdges is how many edges above a spanning tree the graph problem
	// tolerates.
	ExtraEdges int `json:"extra_edges"`
	// NodeCache enables node sharing in the model store.
	NodeCache bool `json:"node_cache"`
}

type Definition struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Defaults    Parameters `json:"defaults"`

	build func(p Parameters) (*dse.Problem, error)
}

var catalog = map[string]*Definition{}

func register(d *Definition) {
	catalog[d.Name] = d
}

// Catalog lists every known problem sorted by name.
func Catalog() []*Definition {
	result := make([]*Definition, 0, len(catalog))
	for _, name := range utils.GetKeys(catalog) {
		result = append(result, catalog[name])
	}
	return result
}

// Build instantiates problem name. Zero parameters take the defaults of the
// definition.
func Build(name string, p Parameters) (*dse.Problem, error) {
	d, exists := catalog[name]
	if !exists {
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownProblem)
	}
	if p.Size == 0 {
		p.Size = d.Defaults.Size
	}
	if p.Colors == 0 {
		p.Colors = d.Defaults.Colors
	}
	if p.ExtraEdges == 0 {
		p.ExtraEdges = d.Defaults.ExtraEdges
	}
	if p.Size <= 0 {
		return nil, fmt.Errorf("%s: size must be positive", name)
	}
	return d.build(p)
}
