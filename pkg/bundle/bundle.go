// Package bundle provides the columnar ray collection traced through an
// optical assembly. All per-ray fields are slices aligned index-for-index,
// so whole-population operations run over arrays instead of branching ray
// by ray.
package bundle

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/df07/go-solar-tracer/pkg/core"
)

// AmbientRefIndex is the refractive index rays carry when none is set
// (vacuum/air).
const AmbientRefIndex = 1.0

// Bundle is a vectorized collection of rays: positions, directions and
// energies aligned by ray index, plus the medium each ray travels in and
// lineage links into the previous generation.
type Bundle struct {
	positions  []core.Vec3
	directions []core.Vec3
	energy     []float64
	refIndex   []float64
	parents    []int
}

// New creates a bundle from aligned position, direction and energy columns.
// The refractive index defaults to AmbientRefIndex for every ray; parents
// are unset (initial generation).
func New(positions, directions []core.Vec3, energy []float64) (*Bundle, error) {
	n := len(positions)
	if len(directions) != n || len(energy) != n {
		return nil, fmt.Errorf("%w: %d positions, %d directions, %d energies",
			core.ErrShapeMismatch, n, len(directions), len(energy))
	}

	refIndex := make([]float64, n)
	for i := range refIndex {
		refIndex[i] = AmbientRefIndex
	}

	return &Bundle{
		positions:  positions,
		directions: directions,
		energy:     energy,
		refIndex:   refIndex,
	}, nil
}

// Empty returns a bundle with zero rays
func Empty() *Bundle {
	return &Bundle{}
}

// Len returns the number of rays in the bundle
func (b *Bundle) Len() int {
	n, _ := b.established()
	return n
}

// established reports the ray count fixed by the first populated column
func (b *Bundle) established() (int, bool) {
	switch {
	case b.positions != nil:
		return len(b.positions), true
	case b.directions != nil:
		return len(b.directions), true
	case b.energy != nil:
		return len(b.energy), true
	case b.refIndex != nil:
		return len(b.refIndex), true
	case b.parents != nil:
		return len(b.parents), true
	}
	return 0, false
}

// Positions returns the per-ray position column
func (b *Bundle) Positions() []core.Vec3 { return b.positions }

// Directions returns the per-ray unit direction column
func (b *Bundle) Directions() []core.Vec3 { return b.directions }

// Energy returns the per-ray energy column
func (b *Bundle) Energy() []float64 { return b.energy }

// RefIndex returns the per-ray refractive index column
func (b *Bundle) RefIndex() []float64 { return b.refIndex }

// Parents returns the per-ray index into the previous generation's bundle.
// Nil for an initial generation.
func (b *Bundle) Parents() []int { return b.parents }

// SetPositions replaces the position column
func (b *Bundle) SetPositions(positions []core.Vec3) error {
	if err := b.checkLen(len(positions), "positions"); err != nil {
		return err
	}
	b.positions = positions
	return nil
}

// SetDirections replaces the direction column. Directions must be
// unit-length; the bundle does not renormalize.
func (b *Bundle) SetDirections(directions []core.Vec3) error {
	if err := b.checkLen(len(directions), "directions"); err != nil {
		return err
	}
	b.directions = directions
	return nil
}

// SetEnergy replaces the energy column
func (b *Bundle) SetEnergy(energy []float64) error {
	if err := b.checkLen(len(energy), "energy"); err != nil {
		return err
	}
	b.energy = energy
	return nil
}

// SetRefIndex replaces the refractive index column
func (b *Bundle) SetRefIndex(refIndex []float64) error {
	if err := b.checkLen(len(refIndex), "ref_index"); err != nil {
		return err
	}
	b.refIndex = refIndex
	return nil
}

// SetParents replaces the lineage column
func (b *Bundle) SetParents(parents []int) error {
	if err := b.checkLen(len(parents), "parents"); err != nil {
		return err
	}
	b.parents = parents
	return nil
}

// checkLen enforces that every populated column keeps the same ray count.
// A column set on an empty bundle establishes the count.
func (b *Bundle) checkLen(n int, field string) error {
	if m, ok := b.established(); ok && n != m {
		return fmt.Errorf("%w: %d %s for %d rays", core.ErrShapeMismatch, n, field, m)
	}
	return nil
}

// TotalEnergy returns the summed energy over all rays
func (b *Bundle) TotalEnergy() float64 {
	return floats.Sum(b.energy)
}

// Select extracts the sub-bundle holding exactly the given rays, in the
// given order, preserving per-ray alignment of every column. The bundle
// must have its position, direction and energy columns populated.
func (b *Bundle) Select(indices []int) (*Bundle, error) {
	if len(indices) > 0 && (b.positions == nil || b.directions == nil || b.energy == nil) {
		return nil, fmt.Errorf("%w: select from a bundle with unpopulated columns", core.ErrShapeMismatch)
	}

	out := &Bundle{
		positions:  make([]core.Vec3, len(indices)),
		directions: make([]core.Vec3, len(indices)),
		energy:     make([]float64, len(indices)),
		refIndex:   make([]float64, len(indices)),
	}
	if b.parents != nil {
		out.parents = make([]int, len(indices))
	}

	for k, i := range indices {
		if i < 0 || i >= b.Len() {
			return nil, fmt.Errorf("%w: ray index %d out of range [0,%d)",
				core.ErrGeometryInconsistency, i, b.Len())
		}
		out.positions[k] = b.positions[i]
		out.directions[k] = b.directions[i]
		out.energy[k] = b.energy[i]
		if b.refIndex != nil {
			out.refIndex[k] = b.refIndex[i]
		} else {
			out.refIndex[k] = AmbientRefIndex
		}
		if b.parents != nil {
			out.parents[k] = b.parents[i]
		}
	}
	return out, nil
}

// Concat joins bundles along the ray axis, in argument order. Parents are
// concatenated when every non-empty part carries them; otherwise the result
// has no parent column.
func Concat(parts ...*Bundle) *Bundle {
	total := 0
	withParents := true
	for _, p := range parts {
		total += p.Len()
		if p.Len() > 0 && p.parents == nil {
			withParents = false
		}
	}

	out := &Bundle{
		positions:  make([]core.Vec3, 0, total),
		directions: make([]core.Vec3, 0, total),
		energy:     make([]float64, 0, total),
		refIndex:   make([]float64, 0, total),
	}
	if withParents {
		out.parents = make([]int, 0, total)
	}

	for _, p := range parts {
		out.positions = append(out.positions, p.positions...)
		out.directions = append(out.directions, p.directions...)
		out.energy = append(out.energy, p.energy...)
		if p.refIndex != nil {
			out.refIndex = append(out.refIndex, p.refIndex...)
		} else {
			for i := 0; i < p.Len(); i++ {
				out.refIndex = append(out.refIndex, AmbientRefIndex)
			}
		}
		if withParents {
			out.parents = append(out.parents, p.parents...)
		}
	}
	return out
}
