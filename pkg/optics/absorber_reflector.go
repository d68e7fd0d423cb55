package optics

import (
	"fmt"

	"github.com/df07/go-solar-tracer/pkg/bundle"
	"github.com/df07/go-solar-tracer/pkg/core"
	"github.com/df07/go-solar-tracer/pkg/geometry"
)

// AbsorberReflector is a one-sided mirror: rays arriving against the
// surface's up side reflect with energy*(1-a); rays arriving from behind
// are fully absorbed. It requires a geometry manager with a defined up
// orientation.
type AbsorberReflector struct {
	Reflective
}

// NewAbsorberReflector creates a one-sided reflective callable
func NewAbsorberReflector(absorptivity float64) *AbsorberReflector {
	return &AbsorberReflector{Reflective: Reflective{Absorptivity: clampUnit(absorptivity)}}
}

// Apply implements the Callable interface
func (a *AbsorberReflector) Apply(gm geometry.Manager, incoming *bundle.Bundle, selected []int) (*bundle.Bundle, error) {
	up, ok := gm.(geometry.UpOriented)
	if !ok {
		return nil, fmt.Errorf("%w: one-sided optics need an up-oriented geometry manager, got %T",
			core.ErrGeometryInconsistency, gm)
	}

	out, err := a.Reflective.Apply(gm, incoming, selected)
	if err != nil {
		return nil, err
	}

	// A ray travelling along up approaches from the non-receiving side
	upDir, err := up.Up()
	if err != nil {
		return nil, err
	}
	energy := out.Energy()
	directions := incoming.Directions()
	for k, i := range selected {
		if directions[i].Dot(upDir) > 0 {
			energy[k] = 0
		}
	}
	return out, nil
}
