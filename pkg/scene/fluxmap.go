package scene

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"

	"gonum.org/v1/gonum/floats"

	"github.com/df07/go-solar-tracer/pkg/optics"
)

// FluxMap bins a receiver's accumulated hits into a regular grid over its
// aperture, cell values in energy per unit area.
type FluxMap struct {
	Nx, Ny int
	Width  float64
	Height float64
	Cells  []float64 // row-major, Nx*Ny
}

// NewFluxMap bins the receiver's local-frame hit history into an nx by ny
// grid over a width x height aperture centered on the receiver origin.
// Hits outside the aperture are ignored.
func NewFluxMap(rec *optics.ReflectiveReceiver, width, height float64, nx, ny int) (*FluxMap, error) {
	if nx <= 0 || ny <= 0 {
		return nil, fmt.Errorf("flux map grid %dx%d must be positive", nx, ny)
	}

	fm := &FluxMap{
		Nx:     nx,
		Ny:     ny,
		Width:  width,
		Height: height,
		Cells:  make([]float64, nx*ny),
	}

	energies, _ := rec.AllHits()
	cellArea := (width / float64(nx)) * (height / float64(ny))
	for k, p := range rec.LocalHits() {
		ix := int(math.Floor((p.X/width + 0.5) * float64(nx)))
		iy := int(math.Floor((p.Y/height + 0.5) * float64(ny)))
		if ix < 0 || ix >= nx || iy < 0 || iy >= ny {
			continue
		}
		fm.Cells[iy*nx+ix] += energies[k] / cellArea
	}
	return fm, nil
}

// Peak returns the highest cell flux
func (f *FluxMap) Peak() float64 {
	if len(f.Cells) == 0 {
		return 0
	}
	return floats.Max(f.Cells)
}

// WritePNG renders the map as a grayscale image, white at peak flux, and
// writes it to the given path
func (f *FluxMap) WritePNG(path string) error {
	img := image.NewGray(image.Rect(0, 0, f.Nx, f.Ny))
	peak := f.Peak()

	for iy := 0; iy < f.Ny; iy++ {
		for ix := 0; ix < f.Nx; ix++ {
			v := 0.0
			if peak > 0 {
				v = f.Cells[iy*f.Nx+ix] / peak
			}
			// Image rows run top-down; the map's y axis runs bottom-up
			img.SetGray(ix, f.Ny-1-iy, color.Gray{Y: uint8(v * 255)})
		}
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create flux map file: %w", err)
	}
	defer out.Close()

	if err := png.Encode(out, img); err != nil {
		return fmt.Errorf("failed to encode flux map: %w", err)
	}
	return nil
}
