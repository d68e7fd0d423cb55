package geometry

import (
	"fmt"
	"math"

	"github.com/df07/go-solar-tracer/pkg/bundle"
	"github.com/df07/go-solar-tracer/pkg/core"
)

// Paraboloid is the geometry manager for a parabolic dish
// z = (x^2 + y^2) / (4*focal), bounded by a rim radius. Used for focusing
// mirrors and curved heliostat facets.
type Paraboloid struct {
	focal     float64
	rimRadius float64

	frame    *core.Transform
	rays     *bundle.Bundle
	localPts []core.Vec3
	localDir []core.Vec3
	selected []int
}

// NewParaboloid creates a parabolic dish manager with the given focal
// length and rim radius
func NewParaboloid(focal, rimRadius float64) *Paraboloid {
	return &Paraboloid{focal: focal, rimRadius: rimRadius}
}

// FindIntersections implements the Manager interface
func (p *Paraboloid) FindIntersections(frame *core.Transform, rays *bundle.Bundle) []float64 {
	n := rays.Len()
	p.frame = frame
	p.rays = rays
	p.localPts = make([]core.Vec3, n)
	p.localDir = make([]core.Vec3, n)
	p.selected = nil

	params := make([]float64, n)
	positions := rays.Positions()
	directions := rays.Directions()

	for i := 0; i < n; i++ {
		pos := frame.ToLocalPoint(positions[i])
		dir := frame.ToLocalDir(directions[i])
		p.localDir[i] = dir

		params[i] = Missed

		// Substitute the ray into x^2 + y^2 - 4f*z = 0
		a := dir.X*dir.X + dir.Y*dir.Y
		b := 2*(pos.X*dir.X+pos.Y*dir.Y) - 4*p.focal*dir.Z
		c := pos.X*pos.X + pos.Y*pos.Y - 4*p.focal*pos.Z

		var roots []float64
		if math.Abs(a) < Epsilon {
			// Ray parallel to the axis degenerates to a linear equation
			if math.Abs(b) < Epsilon {
				continue
			}
			roots = []float64{-c / b}
		} else {
			discriminant := b*b - 4*a*c
			if discriminant < 0 {
				continue
			}
			sqrtD := math.Sqrt(discriminant)
			roots = []float64{(-b - sqrtD) / (2 * a), (-b + sqrtD) / (2 * a)}
		}

		for _, t := range roots {
			if t < Epsilon {
				continue
			}
			hit := pos.Add(dir.Multiply(t))
			if hit.X*hit.X+hit.Y*hit.Y > p.rimRadius*p.rimRadius {
				continue
			}
			params[i] = t
			p.localPts[i] = hit
			break
		}
	}
	return params
}

// SelectRays implements the Manager interface
func (p *Paraboloid) SelectRays(indices []int) error {
	if p.rays == nil {
		return fmt.Errorf("%w: select before intersections were computed", core.ErrGeometryInconsistency)
	}
	for _, i := range indices {
		if i < 0 || i >= p.rays.Len() {
			return fmt.Errorf("%w: ray index %d out of range [0,%d)",
				core.ErrGeometryInconsistency, i, p.rays.Len())
		}
	}
	p.selected = indices
	return nil
}

// Normals implements the Manager interface. The normal is the gradient of
// x^2 + y^2 - 4f*z at the hit point, flipped to face the incoming ray.
func (p *Paraboloid) Normals() ([]core.Vec3, error) {
	if p.selected == nil {
		return nil, fmt.Errorf("%w: normals requested before ray selection", core.ErrGeometryInconsistency)
	}

	normals := make([]core.Vec3, len(p.selected))
	for k, i := range p.selected {
		hit := p.localPts[i]
		n := core.NewVec3(2*hit.X, 2*hit.Y, -4*p.focal).Normalize()
		if n.Dot(p.localDir[i]) > 0 {
			n = n.Negate()
		}
		normals[k] = p.frame.ToGlobalDir(n)
	}
	return normals, nil
}

// GlobalHitPoints implements the Manager interface
func (p *Paraboloid) GlobalHitPoints() ([]core.Vec3, error) {
	local, err := p.LocalHitPoints()
	if err != nil {
		return nil, err
	}
	global := make([]core.Vec3, len(local))
	for k, pt := range local {
		global[k] = p.frame.ToGlobalPoint(pt)
	}
	return global, nil
}

// LocalHitPoints implements the Manager interface
func (p *Paraboloid) LocalHitPoints() ([]core.Vec3, error) {
	if p.selected == nil {
		return nil, fmt.Errorf("%w: hit points requested before ray selection", core.ErrGeometryInconsistency)
	}
	local := make([]core.Vec3, len(p.selected))
	for k, i := range p.selected {
		local[k] = p.localPts[i]
	}
	return local, nil
}
