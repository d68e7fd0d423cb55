package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"time"

	"golang.org/x/exp/rand"

	"github.com/df07/go-solar-tracer/pkg/bundle"
	"github.com/df07/go-solar-tracer/pkg/core"
	"github.com/df07/go-solar-tracer/pkg/scene"
	"github.com/df07/go-solar-tracer/pkg/source"
	"github.com/df07/go-solar-tracer/pkg/tracer"
)

const degree = math.Pi / 180

func main() {
	numRays := flag.Int("rays", 10000, "Number of rays to trace")
	reps := flag.Int("reps", 100, "Maximum number of trace generations")
	minEnergy := flag.Float64("min-energy", 1e-10, "Energy below which a ray is dropped")
	fieldCSV := flag.String("field", "", "CSV file with heliostat x,y,z positions (built-in grid if empty)")
	sunshape := flag.String("sunshape", "pillbox", "Sunshape model: 'pillbox' or 'gaussian'")
	sigma := flag.Float64("sigma", 4.65e-3, "Sunshape angular spread (rad)")
	dni := flag.Float64("dni", 1000, "Direct normal irradiance (W/m^2)")
	azimuth := flag.Float64("azimuth", 180, "Sun azimuth (deg from north)")
	zenith := flag.Float64("zenith", 15, "Sun zenith angle (deg)")
	seed := flag.Uint64("seed", 42, "Random seed for the source sampler")
	workers := flag.Int("workers", 1, "Parallel intersection workers (-1 = all CPUs)")
	output := flag.String("out", "flux.png", "Output flux map image")
	verbose := flag.Bool("v", false, "Log per-generation progress")
	help := flag.Bool("help", false, "Show help information")
	flag.Parse()

	if *help {
		fmt.Println("Solar Tracer")
		fmt.Println("Usage: solartrace [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		fmt.Println()
		fmt.Println("Traces a heliostat field onto a tower receiver and writes the")
		fmt.Println("receiver flux map to the output image.")
		return
	}

	// Field layout
	var positions []core.Vec3
	if *fieldCSV != "" {
		var err error
		positions, err = scene.LoadPositions(*fieldCSV)
		if err != nil {
			fmt.Printf("Error loading field layout: %v\n", err)
			os.Exit(1)
		}
	} else {
		positions = defaultFieldLayout()
	}

	sunVec := scene.SolarVector(*azimuth*degree, *zenith*degree)

	// Heliostats and receiver mirror the reference tower plant: ~1.85x2.44 m
	// mirrors at 90% reflectivity, a 1.3 m receiver tilted toward the field
	// at 26.8 m
	field := scene.FieldConfig{
		Heliostat: scene.HeliostatConfig{Width: 1.85, Height: 2.44, Absorptivity: 0.1},
		AimPoint:  core.NewVec3(0, 0, 26.8),
	}
	receiverCfg := scene.ReceiverConfig{
		Width:        1.3,
		Height:       1.3,
		Absorptivity: 0.96,
		Position:     core.NewVec3(0, 0, 26.8),
		RotX:         -106 * degree, // receiving side faces the northern field, tilted down
	}

	surfaces := scene.Heliostats(field, positions, sunVec)
	recSurface, receiver := scene.Receiver(receiverCfg)
	surfaces = append(surfaces, recSurface)

	engine, err := tracer.NewEngine(surfaces, tracer.Config{
		MaxRepetitions: *reps,
		MinEnergy:      *minEnergy,
		Workers:        *workers,
	})
	if err != nil {
		fmt.Printf("Error building engine: %v\n", err)
		os.Exit(1)
	}
	if *verbose {
		engine.SetLogger(stdoutLogger{})
	}

	rays, err := sampleSource(*sunshape, *numRays, positions, sunVec, *sigma, *dni, *seed)
	if err != nil {
		fmt.Printf("Error sampling source: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Tracing %d rays through %d surfaces...\n", rays.Len(), len(surfaces))
	startTime := time.Now()
	result, err := engine.Trace(rays)
	if err != nil {
		fmt.Printf("Error tracing: %v\n", err)
		os.Exit(1)
	}
	elapsed := time.Since(startTime)

	fmt.Printf("Traced %d generations in %v (%s)\n", len(result.Generations), elapsed, result.Termination)
	fmt.Printf("Receiver absorbed %.1f W over %d hits\n", receiver.TotalAbsorbed(), len(receiver.LocalHits()))

	fluxMap, err := scene.NewFluxMap(receiver, receiverCfg.Width, receiverCfg.Height, 50, 50)
	if err != nil {
		fmt.Printf("Error binning flux map: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Peak flux %.1f W/m^2\n", fluxMap.Peak())

	if err := fluxMap.WritePNG(*output); err != nil {
		fmt.Printf("Error writing flux map: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Flux map saved to: %s\n", *output)
}

// sampleSource builds the initial bundle from a rectangular aperture
// hovering sunward of the field and covering its full extent
func sampleSource(sunshape string, numRays int, positions []core.Vec3, sunVec core.Vec3, sigma, dni float64, seed uint64) (*bundle.Bundle, error) {
	center, width, height := fieldAperture(positions)
	center = center.Add(sunVec.Multiply(200))
	rng := rand.New(rand.NewSource(seed))

	switch sunshape {
	case "gaussian":
		return source.GaussianRect(numRays, center, sunVec.Negate(), width, height, sigma, dni, rng)
	case "pillbox":
		return source.PillboxRect(numRays, center, sunVec.Negate(), width, height, sigma, dni, rng)
	}
	return nil, fmt.Errorf("unknown sunshape %q", sunshape)
}

// fieldAperture returns the center of the field and a rectangle generously
// covering it
func fieldAperture(positions []core.Vec3) (center core.Vec3, width, height float64) {
	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, p := range positions {
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}

	width = math.Max((maxX-minX)*1.2, 4)
	height = math.Max((maxY-minY)*1.2, 4)
	center = core.NewVec3((minX+maxX)/2, (minY+maxY)/2, 0)
	return center, width, height
}

// defaultFieldLayout is a small north-field grid used when no CSV is given
func defaultFieldLayout() []core.Vec3 {
	var positions []core.Vec3
	for row := 0; row < 3; row++ {
		for col := -2; col <= 2; col++ {
			positions = append(positions, core.NewVec3(
				float64(col)*4,
				20+float64(row)*5,
				0,
			))
		}
	}
	return positions
}

type stdoutLogger struct{}

func (stdoutLogger) Printf(format string, args ...interface{}) {
	fmt.Printf(format+"\n", args...)
}
