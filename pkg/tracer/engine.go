// Package tracer orchestrates full traces of a ray bundle through an
// optical assembly: per generation it finds each ray's nearest surface,
// partitions the bundle by winning surface, applies each surface's optics
// and merges the outgoing rays into the next generation.
package tracer

import (
	"fmt"
	"math"

	"github.com/df07/go-solar-tracer/pkg/bundle"
	"github.com/df07/go-solar-tracer/pkg/core"
	"github.com/df07/go-solar-tracer/pkg/geometry"
	"github.com/df07/go-solar-tracer/pkg/optics"
)

// Surface pairs a placed geometry manager with its optics callable.
// Assembly order matters: ties in intersection distance resolve to the
// surface listed first.
type Surface struct {
	Name     string
	Frame    *core.Transform
	Geometry geometry.Manager
	Optics   optics.Callable
}

// Config bounds a trace run
type Config struct {
	MaxRepetitions int     // Maximum number of generations traced
	MinEnergy      float64 // Rays below this energy are dropped
	Workers        int     // Intersection workers; <2 serial, negative means NumCPU
}

// DefaultConfig returns sensible default values
func DefaultConfig() Config {
	return Config{
		MaxRepetitions: 100,
		MinEnergy:      1e-10,
	}
}

// Termination reports how a run ended. Exhausting the repetition budget
// with live rays remaining is a normal state, not an error.
type Termination int

const (
	// TerminationDepleted means every ray was absorbed, escaped or fell
	// below the energy threshold
	TerminationDepleted Termination = iota
	// TerminationBudget means the repetition budget ran out with live rays
	// remaining
	TerminationBudget
)

// String returns a human-readable termination reason
func (t Termination) String() string {
	switch t {
	case TerminationDepleted:
		return "depleted"
	case TerminationBudget:
		return "budget exhausted"
	}
	return fmt.Sprintf("unknown(%d)", int(t))
}

// Engine traces ray bundles through one assembly. An engine is built once
// per assembly and processes one run at a time; per-run state lives in the
// run itself, so a finished engine can trace a fresh bundle immediately.
type Engine struct {
	surfaces []*Surface
	config   Config
	logger   core.Logger
}

// NewEngine creates a tracer engine for the given assembly
func NewEngine(surfaces []*Surface, config Config) (*Engine, error) {
	if len(surfaces) == 0 {
		return nil, core.ErrAssemblyEmpty
	}
	return &Engine{surfaces: surfaces, config: config}, nil
}

// SetLogger enables per-generation progress logging
func (e *Engine) SetLogger(logger core.Logger) {
	e.logger = logger
}

// Surfaces returns the assembly in iteration order
func (e *Engine) Surfaces() []*Surface {
	return e.surfaces
}

// Trace runs one bundle through the assembly to completion. The returned
// result holds every generation with parent linkage, the per-generation
// escaped rays, and the termination reason.
func (e *Engine) Trace(initial *bundle.Bundle) (*Result, error) {
	if initial == nil {
		initial = bundle.Empty()
	}

	result := &Result{
		Generations: []*bundle.Bundle{initial},
		Termination: TerminationBudget,
	}
	current := initial

	for rep := 0; rep < e.config.MaxRepetitions; rep++ {
		// Every surface tests the same bundle
		params := e.intersectAll(current)

		owner, escaped := e.nearestHits(current, params)
		result.Escaped = append(result.Escaped, escaped)

		// Partition by winning surface, preserving relative ray order
		groups := make([][]int, len(e.surfaces))
		for i, si := range owner {
			if si >= 0 {
				groups[si] = append(groups[si], i)
			}
		}

		parts := make([]*bundle.Bundle, 0, len(e.surfaces))
		for si, s := range e.surfaces {
			if len(groups[si]) == 0 {
				continue
			}
			if err := s.Geometry.SelectRays(groups[si]); err != nil {
				return nil, fmt.Errorf("surface %q: %w", s.Name, err)
			}
			out, err := s.Optics.Apply(s.Geometry, current, groups[si])
			if err != nil {
				return nil, fmt.Errorf("surface %q: %w", s.Name, err)
			}
			parts = append(parts, out)
		}
		next := bundle.Concat(parts...)

		if e.logger != nil {
			e.logger.Printf("generation %d: %d rays in, %d escaped, %d out, %.4g energy live",
				rep, current.Len(), len(escaped), next.Len(), next.TotalEnergy())
		}

		if next.Len() > 0 {
			result.Generations = append(result.Generations, next)
		}
		if next.Len() == 0 || next.TotalEnergy() < e.config.MinEnergy {
			result.Termination = TerminationDepleted
			return result, nil
		}
		current = next
	}

	return result, nil
}

// nearestHits picks, per ray, the surface with the minimum valid
// intersection parameter. Strict comparison keeps the lowest surface index
// on exact ties. Rays below the energy threshold are dropped outright;
// live rays with no valid hit anywhere are reported as escaped.
func (e *Engine) nearestHits(current *bundle.Bundle, params [][]float64) (owner []int, escaped []int) {
	energy := current.Energy()
	owner = make([]int, current.Len())

	for i := range owner {
		owner[i] = -1
		if energy[i] < e.config.MinEnergy {
			continue
		}
		best := math.Inf(1)
		for si := range params {
			if t := params[si][i]; t < best {
				best = t
				owner[i] = si
			}
		}
		if owner[i] < 0 {
			escaped = append(escaped, i)
		}
	}
	return owner, escaped
}
