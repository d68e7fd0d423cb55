package core

import "errors"

// Sentinel errors for construction-time and call-time faults. These mark
// programming or configuration mistakes, so callers surface them
// immediately rather than retrying.
var (
	// ErrShapeMismatch reports bundle field lengths that disagree
	ErrShapeMismatch = errors.New("bundle field lengths disagree")

	// ErrGeometryInconsistency reports a violated selection/query protocol,
	// such as normals requested before rays were selected
	ErrGeometryInconsistency = errors.New("geometry selection protocol violated")

	// ErrInvalidMedium reports refraction requested with a missing or
	// non-positive refractive index
	ErrInvalidMedium = errors.New("invalid refractive medium")

	// ErrAssemblyEmpty reports a trace started with zero surfaces
	ErrAssemblyEmpty = errors.New("assembly has no surfaces")
)
