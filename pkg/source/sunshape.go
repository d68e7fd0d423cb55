// Package source samples initial ray bundles from sun models: positions
// spread over a source aperture, directions spread around the nominal sun
// direction per a sunshape distribution, energy set by the direct normal
// irradiance and aperture area.
package source

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/df07/go-solar-tracer/pkg/bundle"
	"github.com/df07/go-solar-tracer/pkg/core"
)

// PillboxRect samples n rays from a width x height rectangular aperture
// centered at center and perpendicular to direction. Directions are
// distributed uniformly within a cone of angular radius sigma around the
// nominal direction (the pillbox sunshape); each ray carries
// dni*width*height/n energy.
func PillboxRect(n int, center, direction core.Vec3, width, height, sigma, dni float64, rng *rand.Rand) (*bundle.Bundle, error) {
	if err := checkAperture(n, width, height, sigma, dni); err != nil {
		return nil, err
	}

	w := direction.Normalize()
	tangent, bitangent := core.OrthonormalBasis(w)

	positions := make([]core.Vec3, n)
	directions := make([]core.Vec3, n)
	energy := make([]float64, n)
	perRay := dni * width * height / float64(n)

	cosSigma := math.Cos(sigma)
	for i := 0; i < n; i++ {
		positions[i] = samplePoint(center, tangent, bitangent, width, height, rng)

		// Uniform over the solid angle of the cone
		cosTheta := 1 - rng.Float64()*(1-cosSigma)
		sinTheta := math.Sqrt(1 - cosTheta*cosTheta)
		phi := 2 * math.Pi * rng.Float64()
		directions[i] = w.Multiply(cosTheta).
			Add(tangent.Multiply(sinTheta * math.Cos(phi))).
			Add(bitangent.Multiply(sinTheta * math.Sin(phi)))

		energy[i] = perRay
	}

	return bundle.New(positions, directions, energy)
}

// GaussianRect samples n rays like PillboxRect, but with the angular
// offsets drawn from a circular Gaussian sunshape of standard deviation
// sigma in each transverse component.
func GaussianRect(n int, center, direction core.Vec3, width, height, sigma, dni float64, rng *rand.Rand) (*bundle.Bundle, error) {
	if err := checkAperture(n, width, height, sigma, dni); err != nil {
		return nil, err
	}

	w := direction.Normalize()
	tangent, bitangent := core.OrthonormalBasis(w)
	angular := distuv.Normal{Mu: 0, Sigma: sigma, Src: rng}

	positions := make([]core.Vec3, n)
	directions := make([]core.Vec3, n)
	energy := make([]float64, n)
	perRay := dni * width * height / float64(n)

	for i := 0; i < n; i++ {
		positions[i] = samplePoint(center, tangent, bitangent, width, height, rng)

		thetaX := angular.Rand()
		thetaY := angular.Rand()
		directions[i] = w.
			Add(tangent.Multiply(math.Tan(thetaX))).
			Add(bitangent.Multiply(math.Tan(thetaY))).
			Normalize()

		energy[i] = perRay
	}

	return bundle.New(positions, directions, energy)
}

// samplePoint draws a position uniformly over the aperture rectangle
func samplePoint(center, tangent, bitangent core.Vec3, width, height float64, rng *rand.Rand) core.Vec3 {
	u := (rng.Float64() - 0.5) * width
	v := (rng.Float64() - 0.5) * height
	return center.Add(tangent.Multiply(u)).Add(bitangent.Multiply(v))
}

func checkAperture(n int, width, height, sigma, dni float64) error {
	if n <= 0 {
		return fmt.Errorf("source: ray count must be positive, got %d", n)
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("source: aperture %gx%g must be positive", width, height)
	}
	if sigma < 0 {
		return fmt.Errorf("source: angular spread %g must be non-negative", sigma)
	}
	if dni < 0 {
		return fmt.Errorf("source: irradiance %g must be non-negative", dni)
	}
	return nil
}
