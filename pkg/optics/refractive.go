package optics

import (
	"fmt"
	"math"

	"github.com/df07/go-solar-tracer/pkg/bundle"
	"github.com/df07/go-solar-tracer/pkg/core"
	"github.com/df07/go-solar-tracer/pkg/geometry"
)

// refIndexTol is the tolerance for matching a ray's current medium against
// the interface's two indices
const refIndexTol = 1e-9

// RefractiveHomogenous is the interface between two homogenous media with
// refractive indices N1 and N2. Each incoming ray splits into a reflected
// branch (Fresnel reflectance fraction of its energy) and a refracted
// branch (the remainder, bent per Snell's law into the other medium).
// Beyond the critical angle the ray is only reflected, at full energy.
type RefractiveHomogenous struct {
	N1, N2 float64
}

// NewRefractiveHomogenous creates a refractive callable for the interface
// between media with the given indices
func NewRefractiveHomogenous(n1, n2 float64) (*RefractiveHomogenous, error) {
	if n1 <= 0 || n2 <= 0 {
		return nil, fmt.Errorf("%w: indices must be positive, got n1=%g n2=%g",
			core.ErrInvalidMedium, n1, n2)
	}
	return &RefractiveHomogenous{N1: n1, N2: n2}, nil
}

// mediumPair resolves, for a ray currently travelling in medium current,
// which side of the interface it is on. It returns the index it leaves and
// the index it enters.
func (r *RefractiveHomogenous) mediumPair(current float64) (from, to float64, err error) {
	switch {
	case math.Abs(current-r.N1) < refIndexTol:
		return r.N1, r.N2, nil
	case math.Abs(current-r.N2) < refIndexTol:
		return r.N2, r.N1, nil
	}
	return 0, 0, fmt.Errorf("%w: ray medium %g matches neither n1=%g nor n2=%g",
		core.ErrInvalidMedium, current, r.N1, r.N2)
}

// Apply implements the Callable interface. The outgoing bundle groups all
// reflected rays first, then all refracted rays, each group preserving the
// order of selected; parents of both groups point at the incoming rays.
func (r *RefractiveHomogenous) Apply(gm geometry.Manager, incoming *bundle.Bundle, selected []int) (*bundle.Bundle, error) {
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

	n := len(selected)
	reflPos := make([]core.Vec3, 0, n)
	reflDir := make([]core.Vec3, 0, n)
	reflEnergy := make([]float64, 0, n)
	reflIndex := make([]float64, 0, n)
	reflParents := make([]int, 0, n)

	refrPos := make([]core.Vec3, 0, n)
	refrDir := make([]core.Vec3, 0, n)
	refrEnergy := make([]float64, 0, n)
	refrIndex := make([]float64, 0, n)
	refrParents := make([]int, 0, n)

	for k := 0; k < n; k++ {
		dir := sub.Directions()[k]
		normal := normals[k]
		energy := sub.Energy()[k]

		from, to, err := r.mediumPair(sub.RefIndex()[k])
		if err != nil {
			return nil, err
		}

		ratio := from / to
		cosIn := math.Min(-dir.Dot(normal), 1.0)
		sinOutSq := ratio * ratio * (1 - cosIn*cosIn)

		if sinOutSq > 1 {
			// Total internal reflection: no refracted branch, full energy
			reflPos = append(reflPos, hits[k])
			reflDir = append(reflDir, dir.Reflect(normal))
			reflEnergy = append(reflEnergy, energy)
			reflIndex = append(reflIndex, from)
			reflParents = append(reflParents, selected[k])
			continue
		}

		cosOut := math.Sqrt(1 - sinOutSq)
		reflectance := fresnelReflectance(from, to, cosIn, cosOut)

		reflPos = append(reflPos, hits[k])
		reflDir = append(reflDir, dir.Reflect(normal))
		reflEnergy = append(reflEnergy, energy*reflectance)
		reflIndex = append(reflIndex, from)
		reflParents = append(reflParents, selected[k])

		// Snell direction: bend about the normal into the new medium
		refracted := dir.Multiply(ratio).Add(normal.Multiply(ratio*cosIn - cosOut))
		refrPos = append(refrPos, hits[k])
		refrDir = append(refrDir, refracted)
		refrEnergy = append(refrEnergy, energy*(1-reflectance))
		refrIndex = append(refrIndex, to)
		refrParents = append(refrParents, selected[k])
	}

	refl, err := newBranch(reflPos, reflDir, reflEnergy, reflIndex, reflParents)
	if err != nil {
		return nil, err
	}
	refr, err := newBranch(refrPos, refrDir, refrEnergy, refrIndex, refrParents)
	if err != nil {
		return nil, err
	}
	return bundle.Concat(refl, refr), nil
}

// newBranch assembles one output group of the split
func newBranch(pos, dir []core.Vec3, energy, refIndex []float64, parents []int) (*bundle.Bundle, error) {
	b, err := bundle.New(pos, dir, energy)
	if err != nil {
		return nil, err
	}
	if err := b.SetRefIndex(refIndex); err != nil {
		return nil, err
	}
	if err := b.SetParents(parents); err != nil {
		return nil, err
	}
	return b, nil
}

// fresnelReflectance returns the unpolarized Fresnel reflectance for an
// interface crossing from medium n1 to n2 with the given incidence and
// transmission cosines
func fresnelReflectance(n1, n2, cosIn, cosOut float64) float64 {
	rs := (n1*cosIn - n2*cosOut) / (n1*cosIn + n2*cosOut)
	rp := (n1*cosOut - n2*cosIn) / (n1*cosOut + n2*cosIn)
	return (rs*rs + rp*rp) / 2
}
