package optics

import (
	"gonum.org/v1/gonum/floats"

	"github.com/df07/go-solar-tracer/pkg/bundle"
	"github.com/df07/go-solar-tracer/pkg/core"
	"github.com/df07/go-solar-tracer/pkg/geometry"
)

// ReflectiveReceiver is a reflective surface that remembers every hit it
// absorbs. The history grows across all invocations for the lifetime of
// the receiver; each call appends after any prior calls' records.
//
// A full absorber (absorptivity 1) terminates rays: the outgoing bundle
// carries zero energy everywhere.
type ReflectiveReceiver struct {
	Reflective

	energies  []float64
	hits      []core.Vec3
	localHits []core.Vec3
}

// NewReflectiveReceiver creates a perfectly absorbing receiver
func NewReflectiveReceiver() *ReflectiveReceiver {
	return &ReflectiveReceiver{Reflective: Reflective{Absorptivity: 1}}
}

// NewAbsorptiveReceiver creates a receiver that absorbs the given fraction
// of incoming energy and reflects the rest, still recording every hit
func NewAbsorptiveReceiver(absorptivity float64) *ReflectiveReceiver {
	return &ReflectiveReceiver{Reflective: Reflective{Absorptivity: clampUnit(absorptivity)}}
}

// Apply implements the Callable interface
func (r *ReflectiveReceiver) Apply(gm geometry.Manager, incoming *bundle.Bundle, selected []int) (*bundle.Bundle, error) {
	out, err := r.Reflective.Apply(gm, incoming, selected)
	if err != nil {
		return nil, err
	}

	hits, err := gm.GlobalHitPoints()
	if err != nil {
		return nil, err
	}
	local, err := gm.LocalHitPoints()
	if err != nil {
		return nil, err
	}

	energy := incoming.Energy()
	for k, i := range selected {
		r.energies = append(r.energies, energy[i]*r.Absorptivity)
		r.hits = append(r.hits, hits[k])
		r.localHits = append(r.localHits, local[k])
	}
	return out, nil
}

// AllHits returns the cumulative absorbed energies and world-frame hit
// points across the receiver's lifetime, in arrival order
func (r *ReflectiveReceiver) AllHits() ([]float64, []core.Vec3) {
	return r.energies, r.hits
}

// LocalHits returns the cumulative hit points in the receiver's own frame,
// aligned with AllHits
func (r *ReflectiveReceiver) LocalHits() []core.Vec3 {
	return r.localHits
}

// TotalAbsorbed returns the summed absorbed energy across the receiver's
// lifetime
func (r *ReflectiveReceiver) TotalAbsorbed() float64 {
	return floats.Sum(r.energies)
}

// Reset clears the accumulated hit history. Construction leaves the
// history empty; nothing resets it implicitly.
func (r *ReflectiveReceiver) Reset() {
	r.energies = nil
	r.hits = nil
	r.localHits = nil
}
