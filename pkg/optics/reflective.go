package optics

import (
	"gonum.org/v1/gonum/floats"

	"github.com/df07/go-solar-tracer/pkg/bundle"
	"github.com/df07/go-solar-tracer/pkg/geometry"
)

// Reflective is a mirror surface with uniform absorptivity: each incoming
// ray continues as one reflected ray carrying energy*(1-a).
type Reflective struct {
	Absorptivity float64
}

// NewReflective creates a reflective callable, clamping absorptivity to [0,1]
func NewReflective(absorptivity float64) *Reflective {
	return &Reflective{Absorptivity: clampUnit(absorptivity)}
}

// Apply implements the Callable interface
func (r *Reflective) Apply(gm geometry.Manager, incoming *bundle.Bundle, selected []int) (*bundle.Bundle, error) {
	out, err := mirrorBundle(gm, incoming, selected)
	if err != nil {
		return nil, err
	}
	floats.Scale(1-r.Absorptivity, out.Energy())
	return out, nil
}
