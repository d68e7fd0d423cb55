package tracer

import (
	"fmt"

	"github.com/df07/go-solar-tracer/pkg/bundle"
	"github.com/df07/go-solar-tracer/pkg/core"
)

// Result holds the outcome of one trace run: every generation's bundle
// (index 0 is the initial bundle), the rays that escaped at each step, and
// how the run terminated. Lineage is carried by each bundle's parent
// column, which indexes into the previous generation.
type Result struct {
	Generations []*bundle.Bundle
	Escaped     [][]int
	Termination Termination
}

// FinalGeneration returns the last generation's bundle
func (r *Result) FinalGeneration() *bundle.Bundle {
	return r.Generations[len(r.Generations)-1]
}

// LiveEnergy returns the total energy remaining in the final generation
func (r *Result) LiveEnergy() float64 {
	return r.FinalGeneration().TotalEnergy()
}

// RayPath reconstructs the positions visited by the ray at index ray of
// generation gen, following parent links back to generation 0. Positions
// are returned source-first.
func (r *Result) RayPath(gen, ray int) ([]core.Vec3, error) {
	if gen < 0 || gen >= len(r.Generations) {
		return nil, fmt.Errorf("generation %d out of range [0,%d)", gen, len(r.Generations))
	}

	path := make([]core.Vec3, gen+1)
	idx := ray
	for g := gen; g >= 0; g-- {
		b := r.Generations[g]
		if idx < 0 || idx >= b.Len() {
			return nil, fmt.Errorf("ray %d out of range [0,%d) in generation %d", idx, b.Len(), g)
		}
		path[g] = b.Positions()[idx]
		if g > 0 {
			parents := b.Parents()
			if parents == nil {
				return nil, fmt.Errorf("generation %d carries no parent links", g)
			}
			idx = parents[idx]
		}
	}
	return path, nil
}
