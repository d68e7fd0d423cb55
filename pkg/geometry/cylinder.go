package geometry

import (
	"fmt"
	"math"

	"github.com/df07/go-solar-tracer/pkg/bundle"
	"github.com/df07/go-solar-tracer/pkg/core"
)

// Cylinder is the geometry manager for an open-ended cylindrical shell
// around the local z axis, spanning z in [-height/2, height/2].
type Cylinder struct {
	radius float64
	height float64

	frame    *core.Transform
	rays     *bundle.Bundle
	localPts []core.Vec3
	localDir []core.Vec3
	selected []int
}

// NewCylinder creates a cylindrical shell manager
func NewCylinder(radius, height float64) *Cylinder {
	return &Cylinder{radius: radius, height: height}
}

// FindIntersections implements the Manager interface
func (c *Cylinder) FindIntersections(frame *core.Transform, rays *bundle.Bundle) []float64 {
	n := rays.Len()
	c.frame = frame
	c.rays = rays
	c.localPts = make([]core.Vec3, n)
	c.localDir = make([]core.Vec3, n)
	c.selected = nil

	params := make([]float64, n)
	positions := rays.Positions()
	directions := rays.Directions()

	for i := 0; i < n; i++ {
		pos := frame.ToLocalPoint(positions[i])
		dir := frame.ToLocalDir(directions[i])
		c.localDir[i] = dir

		params[i] = Missed

		// Quadratic for |(pos + t*dir)_xy| = radius
		a := dir.X*dir.X + dir.Y*dir.Y
		b := 2 * (pos.X*dir.X + pos.Y*dir.Y)
		cc := pos.X*pos.X + pos.Y*pos.Y - c.radius*c.radius

		if a < Epsilon {
			continue // ray parallel to the axis
		}

		discriminant := b*b - 4*a*cc
		if discriminant < 0 {
			continue
		}

		sqrtD := math.Sqrt(discriminant)
		// Nearer root first; fall through to the far root when the near
		// hit is behind the ray or outside the height bounds
		for _, t := range []float64{(-b - sqrtD) / (2 * a), (-b + sqrtD) / (2 * a)} {
			if t < Epsilon {
				continue
			}
			hit := pos.Add(dir.Multiply(t))
			if math.Abs(hit.Z) > c.height/2 {
				continue
			}
			params[i] = t
			c.localPts[i] = hit
			break
		}
	}
	return params
}

// SelectRays implements the Manager interface
func (c *Cylinder) SelectRays(indices []int) error {
	if c.rays == nil {
		return fmt.Errorf("%w: select before intersections were computed", core.ErrGeometryInconsistency)
	}
	for _, i := range indices {
		if i < 0 || i >= c.rays.Len() {
			return fmt.Errorf("%w: ray index %d out of range [0,%d)",
				core.ErrGeometryInconsistency, i, c.rays.Len())
		}
	}
	c.selected = indices
	return nil
}

// Normals implements the Manager interface. Normals are radial and vary
// per ray, flipped to face the incoming direction.
func (c *Cylinder) Normals() ([]core.Vec3, error) {
	if c.selected == nil {
		return nil, fmt.Errorf("%w: normals requested before ray selection", core.ErrGeometryInconsistency)
	}

	normals := make([]core.Vec3, len(c.selected))
	for k, i := range c.selected {
		hit := c.localPts[i]
		n := core.NewVec3(hit.X/c.radius, hit.Y/c.radius, 0)
		if n.Dot(c.localDir[i]) > 0 {
			n = n.Negate()
		}
		normals[k] = c.frame.ToGlobalDir(n)
	}
	return normals, nil
}

// GlobalHitPoints implements the Manager interface
func (c *Cylinder) GlobalHitPoints() ([]core.Vec3, error) {
	local, err := c.LocalHitPoints()
	if err != nil {
		return nil, err
	}
	global := make([]core.Vec3, len(local))
	for k, p := range local {
		global[k] = c.frame.ToGlobalPoint(p)
	}
	return global, nil
}

// LocalHitPoints implements the Manager interface
func (c *Cylinder) LocalHitPoints() ([]core.Vec3, error) {
	if c.selected == nil {
		return nil, fmt.Errorf("%w: hit points requested before ray selection", core.ErrGeometryInconsistency)
	}
	local := make([]core.Vec3, len(c.selected))
	for k, i := range c.selected {
		local[k] = c.localPts[i]
	}
	return local, nil
}
