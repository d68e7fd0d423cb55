// Package optics implements surface material responses: each callable
// consumes the rays that struck a surface, together with the geometry
// manager's hit data, and produces the outgoing ray population with
// updated directions and energies.
package optics

import (
	"fmt"

	"github.com/df07/go-solar-tracer/pkg/bundle"
	"github.com/df07/go-solar-tracer/pkg/core"
	"github.com/df07/go-solar-tracer/pkg/geometry"
)

// Callable maps an incoming sub-bundle at a hit surface to the outgoing
// bundle. selected lists the indices of the incoming rays assigned to this
// surface, in partition order; the outgoing bundle's parents refer back to
// those indices. A ray may map to one outgoing ray (reflection), two
// (reflected + refracted) or none beyond a terminal zero-energy ray
// (absorption).
type Callable interface {
	Apply(gm geometry.Manager, incoming *bundle.Bundle, selected []int) (*bundle.Bundle, error)
}

// mirrorBundle builds the specular-reflection response shared by the
// reflective callables: positions moved to the hit points, directions
// mirrored about the surface normals, energy and medium carried over,
// parents set to the selected indices.
func mirrorBundle(gm geometry.Manager, incoming *bundle.Bundle, selected []int) (*bundle.Bundle, error) {
	sub, err := incoming.Select(selected)
	if err != nil {
		return nil, err
	}

	normals, err := gm.Normals()
	if err != nil {
		return nil, err
	}
	hits, err := gm.GlobalHitPoints()
	if err != nil {
		return nil, err
	}
	if len(normals) != len(selected) || len(hits) != len(selected) {
		return nil, fmt.Errorf("%w: geometry served %d normals and %d hit points for %d selected rays",
			core.ErrGeometryInconsistency, len(normals), len(hits), len(selected))
	}

	directions := make([]core.Vec3, len(selected))
	for k, dir := range sub.Directions() {
		directions[k] = dir.Reflect(normals[k])
	}

	energy := make([]float64, len(selected))
	copy(energy, sub.Energy())

	out, err := bundle.New(hits, directions, energy)
	if err != nil {
		return nil, err
	}
	refIndex := make([]float64, len(selected))
	copy(refIndex, sub.RefIndex())
	if err := out.SetRefIndex(refIndex); err != nil {
		return nil, err
	}

	parents := make([]int, len(selected))
	copy(parents, selected)
	if err := out.SetParents(parents); err != nil {
		return nil, err
	}
	return out, nil
}

// clampUnit clamps a fraction to [0, 1]
func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
