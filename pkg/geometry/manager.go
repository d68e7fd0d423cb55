// Package geometry implements the per-surface intersection protocol: a
// manager computes parametric hit distances for a whole bundle at once,
// then answers hit-point and normal queries for the subset of rays the
// engine assigns to its surface.
package geometry

import (
	"math"

	"github.com/df07/go-solar-tracer/pkg/bundle"
	"github.com/df07/go-solar-tracer/pkg/core"
)

// Missed is the single invalid intersection parameter. Rays that miss the
// surface, travel away from it, or strike outside its finite bounds all
// report Missed; the engine only ever compares parameters with <.
var Missed = math.Inf(1)

// Epsilon is the minimum forward travel distance counted as a hit. Shorter
// parameters are treated as the ray grazing its own origin surface.
const Epsilon = 1e-9

// Manager computes ray-surface intersections for a bundle and serves local
// surface data for the rays selected afterwards. FindIntersections starts a
// fresh query; SelectRays must be called before normals or hit points are
// meaningful.
type Manager interface {
	// FindIntersections returns one parametric distance per ray in the
	// bundle, with Missed marking rays that do not hit this surface.
	FindIntersections(frame *core.Transform, rays *bundle.Bundle) []float64

	// SelectRays restricts subsequent queries to exactly these rays of the
	// last tested bundle, in this order.
	SelectRays(indices []int) error

	// Normals returns the outward unit normal at each selected hit, in the
	// world frame, flipped to face the incoming ray unless the surface is
	// one-sided.
	Normals() ([]core.Vec3, error)

	// GlobalHitPoints returns the selected hit points in the world frame
	GlobalHitPoints() ([]core.Vec3, error)

	// LocalHitPoints returns the selected hit points in the surface's own
	// frame, as used for finite-extent tests and receiver flux maps.
	LocalHitPoints() ([]core.Vec3, error)
}

// UpOriented is implemented by managers with a defined "up" side, letting
// one-sided optics distinguish which side a ray arrived from.
type UpOriented interface {
	// Up returns the world-frame direction of the surface's local +z axis
	// under the last tested placement. It fails with a
	// GeometryInconsistency error before any intersection query has
	// supplied a placement.
	Up() (core.Vec3, error)
}
