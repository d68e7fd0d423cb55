package scene

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/df07/go-solar-tracer/pkg/core"
	"github.com/df07/go-solar-tracer/pkg/geometry"
	"github.com/df07/go-solar-tracer/pkg/optics"
	"github.com/df07/go-solar-tracer/pkg/tracer"
)

// HeliostatConfig describes one mirror of the field
type HeliostatConfig struct {
	Width        float64 // Mirror width (m)
	Height       float64 // Mirror height (m)
	Absorptivity float64 // 1 - reflectivity
	Focal        float64 // Focal length for curved mirrors; 0 means flat
}

// FieldConfig describes a heliostat field aimed at a single point
type FieldConfig struct {
	Heliostat HeliostatConfig
	AimPoint  core.Vec3
}

// ReceiverConfig describes a tilted flat one-sided receiver
type ReceiverConfig struct {
	Width        float64
	Height       float64
	Absorptivity float64
	Position     core.Vec3
	// Rotation angles (radians) applied about x, then y, then z; the
	// receiving side is the rotated local +z
	RotX, RotY, RotZ float64
}

// LoadPositions reads heliostat positions from a CSV file whose rows carry
// x,y,z coordinates. A non-numeric first row is treated as a header and
// skipped.
func LoadPositions(path string) ([]core.Vec3, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open field layout: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse field layout %s: %w", path, err)
	}

	positions := make([]core.Vec3, 0, len(records))
	for row, record := range records {
		if len(record) < 3 {
			return nil, fmt.Errorf("field layout %s row %d: want 3 coordinates, got %d", path, row+1, len(record))
		}
		var coords [3]float64
		bad := false
		for j := 0; j < 3; j++ {
			coords[j], err = strconv.ParseFloat(record[j], 64)
			if err != nil {
				bad = true
				break
			}
		}
		if bad {
			if row == 0 {
				continue // header row
			}
			return nil, fmt.Errorf("field layout %s row %d: %w", path, row+1, err)
		}
		positions = append(positions, core.NewVec3(coords[0], coords[1], coords[2]))
	}
	return positions, nil
}

// Heliostats builds one tracked mirror surface per field position. Each
// mirror normal is the bisector of the sun vector and the direction to the
// aim point, so the nominal reflected ray hits the aim point.
func Heliostats(cfg FieldConfig, positions []core.Vec3, sunVec core.Vec3) []*tracer.Surface {
	sun := sunVec.Normalize()
	surfaces := make([]*tracer.Surface, 0, len(positions))

	for i, pos := range positions {
		toAim := cfg.AimPoint.Subtract(pos).Normalize()
		normal := sun.Add(toAim).Normalize()
		frame := core.NewTransform(core.RotationToZ(normal), pos)

		var gm geometry.Manager
		if cfg.Heliostat.Focal > 0 {
			rim := math.Hypot(cfg.Heliostat.Width, cfg.Heliostat.Height) / 2
			gm = geometry.NewParaboloid(cfg.Heliostat.Focal, rim)
		} else {
			gm = geometry.NewRect(cfg.Heliostat.Width, cfg.Heliostat.Height)
		}

		surfaces = append(surfaces, &tracer.Surface{
			Name:     fmt.Sprintf("heliostat-%d", i),
			Frame:    frame,
			Geometry: gm,
			Optics:   optics.NewReflective(cfg.Heliostat.Absorptivity),
		})
	}
	return surfaces
}

// Receiver builds the mounted one-sided receiver surface. The returned
// optics callable accumulates every absorbed hit for flux reporting.
func Receiver(cfg ReceiverConfig) (*tracer.Surface, *optics.ReflectiveReceiver) {
	rec := optics.NewAbsorptiveReceiver(cfg.Absorptivity)
	frame := core.NewTransform(core.EulerXYZ(cfg.RotX, cfg.RotY, cfg.RotZ), cfg.Position)

	surface := &tracer.Surface{
		Name:     "receiver",
		Frame:    frame,
		Geometry: geometry.NewOneSidedRect(cfg.Width, cfg.Height),
		Optics:   rec,
	}
	return surface, rec
}
