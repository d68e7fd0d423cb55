// Package scene builds optical assemblies for concentrating solar plants:
// tracked heliostat fields, mounted receivers and the solar geometry that
// drives them. The tracer core only sees the resulting surfaces.
package scene

import (
	"math"
	"time"

	"github.com/sixdouglas/suncalc"

	"github.com/df07/go-solar-tracer/pkg/core"
)

// SolarVector returns the unit vector pointing from the ground toward the
// sun for the given azimuth (radians clockwise from north) and zenith
// angle (radians from vertical).
func SolarVector(azimuth, zenith float64) core.Vec3 {
	altitude := math.Pi/2 - zenith
	return core.NewVec3(
		math.Sin(azimuth)*math.Cos(altitude),
		math.Cos(azimuth)*math.Cos(altitude),
		math.Sin(altitude),
	)
}

// SolarVectorAt returns the sun vector for a time and location. Latitude
// and longitude are in degrees, north and east positive.
func SolarVectorAt(t time.Time, latitude, longitude float64) core.Vec3 {
	p := suncalc.GetPosition(t, latitude, longitude)
	// suncalc reports radians with azimuth measured from south; shift to
	// the north-referenced convention used here
	azimuth := p.Azimuth + math.Pi
	return SolarVector(azimuth, math.Pi/2-p.Altitude)
}
