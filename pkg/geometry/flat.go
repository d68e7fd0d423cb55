package geometry

import (
	"fmt"
	"math"

	"github.com/df07/go-solar-tracer/pkg/bundle"
	"github.com/df07/go-solar-tracer/pkg/core"
)

// Flat is the geometry manager for the z=0 plane of its placement frame,
// optionally bounded to a rectangle and optionally one-sided (receiving on
// the local +z side only).
type Flat struct {
	halfWidth  float64
	halfHeight float64
	bounded    bool
	oneSided   bool

	// per-query state, valid between FindIntersections and the next query
	frame    *core.Transform
	rays     *bundle.Bundle
	localPts []core.Vec3
	localDz  []float64
	selected []int
}

// NewFlat creates a manager for an unbounded two-sided plane
func NewFlat() *Flat {
	return &Flat{}
}

// NewRect creates a manager for a two-sided rectangle of the given full
// width (local x) and height (local y)
func NewRect(width, height float64) *Flat {
	return &Flat{halfWidth: width / 2, halfHeight: height / 2, bounded: true}
}

// NewOneSidedRect creates a rectangle that only intersects rays arriving
// from its local +z side. Rays approaching from behind report no
// intersection even where the infinite plane has one.
func NewOneSidedRect(width, height float64) *Flat {
	return &Flat{halfWidth: width / 2, halfHeight: height / 2, bounded: true, oneSided: true}
}

// FindIntersections implements the Manager interface
func (f *Flat) FindIntersections(frame *core.Transform, rays *bundle.Bundle) []float64 {
	n := rays.Len()
	f.frame = frame
	f.rays = rays
	f.localPts = make([]core.Vec3, n)
	f.localDz = make([]float64, n)
	f.selected = nil

	params := make([]float64, n)
	positions := rays.Positions()
	directions := rays.Directions()

	for i := 0; i < n; i++ {
		pos := frame.ToLocalPoint(positions[i])
		dir := frame.ToLocalDir(directions[i])
		f.localDz[i] = dir.Z

		params[i] = Missed

		// Parallel rays resolve to the miss sentinel, not an error
		if math.Abs(dir.Z) < Epsilon {
			continue
		}
		if f.oneSided && dir.Z >= 0 {
			continue
		}

		t := -pos.Z / dir.Z
		if t < Epsilon {
			continue
		}

		hit := pos.Add(dir.Multiply(t))
		if f.bounded && (math.Abs(hit.X) > f.halfWidth || math.Abs(hit.Y) > f.halfHeight) {
			continue
		}

		params[i] = t
		f.localPts[i] = hit
	}
	return params
}

// SelectRays implements the Manager interface
func (f *Flat) SelectRays(indices []int) error {
	if f.rays == nil {
		return fmt.Errorf("%w: select before intersections were computed", core.ErrGeometryInconsistency)
	}
	for _, i := range indices {
		if i < 0 || i >= f.rays.Len() {
			return fmt.Errorf("%w: ray index %d out of range [0,%d)",
				core.ErrGeometryInconsistency, i, f.rays.Len())
		}
	}
	f.selected = indices
	return nil
}

// Normals implements the Manager interface. For a two-sided plane the
// normal faces against each selected ray; a one-sided plane always reports
// its geometric +z normal.
func (f *Flat) Normals() ([]core.Vec3, error) {
	if f.selected == nil {
		return nil, fmt.Errorf("%w: normals requested before ray selection", core.ErrGeometryInconsistency)
	}

	up := f.frame.ToGlobalDir(core.NewVec3(0, 0, 1))
	normals := make([]core.Vec3, len(f.selected))
	for k, i := range f.selected {
		if !f.oneSided && f.localDz[i] > 0 {
			normals[k] = up.Negate()
		} else {
			normals[k] = up
		}
	}
	return normals, nil
}

// GlobalHitPoints implements the Manager interface
func (f *Flat) GlobalHitPoints() ([]core.Vec3, error) {
	local, err := f.LocalHitPoints()
	if err != nil {
		return nil, err
	}
	global := make([]core.Vec3, len(local))
	for k, p := range local {
		global[k] = f.frame.ToGlobalPoint(p)
	}
	return global, nil
}

// LocalHitPoints implements the Manager interface
func (f *Flat) LocalHitPoints() ([]core.Vec3, error) {
	if f.selected == nil {
		return nil, fmt.Errorf("%w: hit points requested before ray selection", core.ErrGeometryInconsistency)
	}
	local := make([]core.Vec3, len(f.selected))
	for k, i := range f.selected {
		local[k] = f.localPts[i]
	}
	return local, nil
}

// Up implements the UpOriented interface
func (f *Flat) Up() (core.Vec3, error) {
	if f.frame == nil {
		return core.Vec3{}, fmt.Errorf("%w: up queried before intersections were computed", core.ErrGeometryInconsistency)
	}
	return f.frame.ToGlobalDir(core.NewVec3(0, 0, 1)), nil
}
