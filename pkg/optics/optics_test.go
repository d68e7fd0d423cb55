package optics

import (
	"errors"
	"math"
	"testing"

	"github.com/df07/go-solar-tracer/pkg/bundle"
	"github.com/df07/go-solar-tracer/pkg/core"
	"github.com/df07/go-solar-tracer/pkg/geometry"
)

// quadBundle builds four rays at z=1 heading down toward the z=0 plane
// with energies 100/200/300/400
func quadBundle(t *testing.T) *bundle.Bundle {
	t.Helper()
	s := 1 / math.Sqrt(3)
	positions := []core.Vec3{
		core.NewVec3(0, 0, 1),
		core.NewVec3(1, -1, 1),
		core.NewVec3(1, 1, 1),
		core.NewVec3(-1, 1, 1),
	}
	directions := []core.Vec3{
		core.NewVec3(s, s, -s),
		core.NewVec3(-s, s, -s),
		core.NewVec3(-s, -s, -s),
		core.NewVec3(s, -s, -s),
	}
	b, err := bundle.New(positions, directions, []float64{100, 200, 300, 400})
	if err != nil {
		t.Fatalf("Unexpected error creating bundle: %v", err)
	}
	return b
}

// intersectAll runs a flat geometry query at the identity frame and
// selects all rays
func intersectAll(t *testing.T, rays *bundle.Bundle) *geometry.Flat {
	t.Helper()
	gm := geometry.NewFlat()
	gm.FindIntersections(core.IdentityTransform(), rays)
	indices := make([]int, rays.Len())
	for i := range indices {
		indices[i] = i
	}
	if err := gm.SelectRays(indices); err != nil {
		t.Fatalf("SelectRays: %v", err)
	}
	return gm
}

func TestReflective_WithAbsorptivity(t *testing.T) {
	rays := quadBundle(t)
	gm := intersectAll(t, rays)

	outg, err := NewReflective(0.1).Apply(gm, rays, []int{0, 1, 2, 3})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	expectedPts := []core.Vec3{
		core.NewVec3(1, 1, 0),
		core.NewVec3(0, 0, 0),
		core.NewVec3(0, 0, 0),
		core.NewVec3(0, 0, 0),
	}
	expectedEnergy := []float64{90, 180, 270, 360}
	s := 1 / math.Sqrt(3)
	expectedDirs := []core.Vec3{
		core.NewVec3(s, s, s),
		core.NewVec3(-s, s, s),
		core.NewVec3(-s, -s, s),
		core.NewVec3(s, -s, s),
	}

	const tolerance = 1e-9
	for i := 0; i < 4; i++ {
		if outg.Positions()[i].Subtract(expectedPts[i]).Length() > tolerance {
			t.Errorf("Ray %d: expected position %v, got %v", i, expectedPts[i], outg.Positions()[i])
		}
		if outg.Directions()[i].Subtract(expectedDirs[i]).Length() > tolerance {
			t.Errorf("Ray %d: expected direction %v, got %v", i, expectedDirs[i], outg.Directions()[i])
		}
		if math.Abs(outg.Energy()[i]-expectedEnergy[i]) > tolerance {
			t.Errorf("Ray %d: expected energy %v, got %v", i, expectedEnergy[i], outg.Energy()[i])
		}
		if outg.Parents()[i] != i {
			t.Errorf("Ray %d: expected parent %d, got %d", i, i, outg.Parents()[i])
		}
	}
}

func TestReflective_PerfectMirror(t *testing.T) {
	rays := quadBundle(t)
	gm := intersectAll(t, rays)

	outg, err := NewReflective(0).Apply(gm, rays, []int{0, 1, 2, 3})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	expected := []float64{100, 200, 300, 400}
	for i, e := range outg.Energy() {
		if math.Abs(e-expected[i]) > 1e-9 {
			t.Errorf("Ray %d: expected energy %v, got %v", i, expected[i], e)
		}
	}
}

func TestReceiver_MemorizesLifetimeHits(t *testing.T) {
	rays := quadBundle(t)
	gm := intersectAll(t, rays)
	receiver := NewReflectiveReceiver()

	// Round one
	outg, err := receiver.Apply(gm, rays, []int{0, 1, 2, 3})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	for i, e := range outg.Energy() {
		if e != 0 {
			t.Errorf("Ray %d: full absorber should terminate rays, got energy %v", i, e)
		}
	}

	absorbed, hits := receiver.AllHits()
	expectedEnergy := []float64{100, 200, 300, 400}
	expectedPts := []core.Vec3{
		core.NewVec3(1, 1, 0),
		core.NewVec3(0, 0, 0),
		core.NewVec3(0, 0, 0),
		core.NewVec3(0, 0, 0),
	}
	if len(absorbed) != 4 {
		t.Fatalf("Expected 4 recorded hits, got %d", len(absorbed))
	}
	for i := range absorbed {
		if math.Abs(absorbed[i]-expectedEnergy[i]) > 1e-9 {
			t.Errorf("Hit %d: expected absorbed %v, got %v", i, expectedEnergy[i], absorbed[i])
		}
		if hits[i].Subtract(expectedPts[i]).Length() > 1e-9 {
			t.Errorf("Hit %d: expected point %v, got %v", i, expectedPts[i], hits[i])
		}
	}

	// Round two appends after round one, never overwrites
	if _, err := receiver.Apply(gm, rays, []int{0, 1, 2, 3}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	absorbed, hits = receiver.AllHits()
	if len(absorbed) != 8 || len(hits) != 8 {
		t.Fatalf("Expected 8 recorded hits after two rounds, got %d/%d", len(absorbed), len(hits))
	}
	for i := 0; i < 4; i++ {
		if absorbed[i+4] != absorbed[i] {
			t.Errorf("Round two absorbed %v at %d, want %v", absorbed[i+4], i+4, absorbed[i])
		}
		if hits[i+4] != hits[i] {
			t.Errorf("Round two hit %v at %d, want %v", hits[i+4], i+4, hits[i])
		}
	}

	if math.Abs(receiver.TotalAbsorbed()-2000) > 1e-9 {
		t.Errorf("Expected 2000 total absorbed, got %v", receiver.TotalAbsorbed())
	}
}

func TestRefractive_SplitConservation(t *testing.T) {
	rays := quadBundle(t)
	gm := geometry.NewFlat()
	gm.FindIntersections(core.IdentityTransform(), rays)

	selector := []int{0, 1, 3}
	if err := gm.SelectRays(selector); err != nil {
		t.Fatalf("SelectRays: %v", err)
	}

	refractive, err := NewRefractiveHomogenous(1, 1.5)
	if err != nil {
		t.Fatalf("NewRefractiveHomogenous: %v", err)
	}
	outg, err := refractive.Apply(gm, rays, selector)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	// 1-to-2 split: reflected group first, then refracted, both aligned
	// with the selector
	if outg.Len() != 6 {
		t.Fatalf("Expected 6 outgoing rays, got %d", outg.Len())
	}
	for k := 0; k < 3; k++ {
		if outg.Parents()[k] != selector[k] || outg.Parents()[k+3] != selector[k] {
			t.Errorf("Group %d: parents %d/%d, want both %d",
				k, outg.Parents()[k], outg.Parents()[k+3], selector[k])
		}
	}

	normal := core.NewVec3(0, 0, 1)
	const tolerance = 1e-9
	for k, sel := range selector {
		cosIn := -rays.Directions()[sel].Dot(normal)
		wantRefrCos := -math.Sqrt(1 - (1/1.5)*(1/1.5)*(1-cosIn*cosIn))

		reflCos := outg.Directions()[k].Dot(normal)
		refrCos := outg.Directions()[k+3].Dot(normal)
		if math.Abs(reflCos-cosIn) > tolerance {
			t.Errorf("Reflected ray %d: cosine %v, want %v", k, reflCos, cosIn)
		}
		if math.Abs(refrCos-wantRefrCos) > tolerance {
			t.Errorf("Refracted ray %d: cosine %v, want %v", k, refrCos, wantRefrCos)
		}

		// Both branches leave from the same hit point
		if outg.Positions()[k] != outg.Positions()[k+3] {
			t.Errorf("Branches of ray %d leave from different points: %v vs %v",
				k, outg.Positions()[k], outg.Positions()[k+3])
		}

		// Reflection and refraction sum to the full incoming energy
		total := outg.Energy()[k] + outg.Energy()[k+3]
		want := rays.Energy()[sel]
		if math.Abs(total-want) > tolerance {
			t.Errorf("Ray %d: energy split sums to %v, want %v", k, total, want)
		}

		// The refracted branch travels in the new medium
		if outg.RefIndex()[k] != 1 || outg.RefIndex()[k+3] != 1.5 {
			t.Errorf("Ray %d: ref indices %v/%v, want 1/1.5",
				k, outg.RefIndex()[k], outg.RefIndex()[k+3])
		}
	}
}

func TestRefractive_TotalInternalReflection(t *testing.T) {
	// A single ray at 89 degrees incidence inside the dense medium
	dir := core.NewVec3(0, math.Cos(math.Pi/180), -math.Sin(math.Pi/180))
	rays, err := bundle.New(
		[]core.Vec3{core.NewVec3(0, 0, 1)}, []core.Vec3{dir}, []float64{100})
	if err != nil {
		t.Fatalf("Unexpected error creating bundle: %v", err)
	}
	if err := rays.SetRefIndex([]float64{1.5}); err != nil {
		t.Fatalf("SetRefIndex: %v", err)
	}

	gm := geometry.NewFlat()
	gm.FindIntersections(core.IdentityTransform(), rays)
	if err := gm.SelectRays([]int{0}); err != nil {
		t.Fatalf("SelectRays: %v", err)
	}

	refractive, err := NewRefractiveHomogenous(1, 1.5)
	if err != nil {
		t.Fatalf("NewRefractiveHomogenous: %v", err)
	}
	outg, err := refractive.Apply(gm, rays, []int{0})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	// Only the reflected branch exists, at full energy
	if outg.Len() != 1 {
		t.Fatalf("Expected exactly 1 outgoing ray, got %d", outg.Len())
	}
	if math.Abs(outg.Energy()[0]-100) > 1e-9 {
		t.Errorf("Expected full energy 100, got %v", outg.Energy()[0])
	}
	expectedDir := core.NewVec3(0, math.Cos(math.Pi/180), math.Sin(math.Pi/180))
	if outg.Directions()[0].Subtract(expectedDir).Length() > 1e-9 {
		t.Errorf("Expected mirrored direction %v, got %v", expectedDir, outg.Directions()[0])
	}
	if outg.Parents()[0] != 0 {
		t.Errorf("Expected parent 0, got %d", outg.Parents()[0])
	}
}

func TestRefractive_InvalidMedium(t *testing.T) {
	if _, err := NewRefractiveHomogenous(0, 1.5); !errors.Is(err, core.ErrInvalidMedium) {
		t.Errorf("Expected ErrInvalidMedium for n1=0, got %v", err)
	}
	if _, err := NewRefractiveHomogenous(1, -2); !errors.Is(err, core.ErrInvalidMedium) {
		t.Errorf("Expected ErrInvalidMedium for negative n2, got %v", err)
	}

	// A ray travelling in a medium matching neither side of the interface
	rays := quadBundle(t)
	if err := rays.SetRefIndex([]float64{2.4, 2.4, 2.4, 2.4}); err != nil {
		t.Fatalf("SetRefIndex: %v", err)
	}
	gm := intersectAll(t, rays)

	refractive, err := NewRefractiveHomogenous(1, 1.5)
	if err != nil {
		t.Fatalf("NewRefractiveHomogenous: %v", err)
	}
	if _, err := refractive.Apply(gm, rays, []int{0, 1, 2, 3}); !errors.Is(err, core.ErrInvalidMedium) {
		t.Errorf("Expected ErrInvalidMedium for mismatched medium, got %v", err)
	}
}

func TestAbsorberReflector_UpDown(t *testing.T) {
	// Four rays going down from above, four going up from below
	s := 1 / math.Sqrt(3)
	positions := []core.Vec3{
		core.NewVec3(0, 0, 1), core.NewVec3(1, -1, 1), core.NewVec3(1, 1, 1), core.NewVec3(-1, 1, 1),
		core.NewVec3(0, 0, -1), core.NewVec3(1, -1, -1), core.NewVec3(1, 1, -1), core.NewVec3(-1, 1, -1),
	}
	directions := []core.Vec3{
		core.NewVec3(s, s, -s), core.NewVec3(-s, s, -s), core.NewVec3(-s, -s, -s), core.NewVec3(s, -s, -s),
		core.NewVec3(s, s, s), core.NewVec3(-s, s, s), core.NewVec3(-s, -s, s), core.NewVec3(s, -s, s),
	}
	energy := make([]float64, 8)
	for i := range energy {
		energy[i] = 100
	}
	rays, err := bundle.New(positions, directions, energy)
	if err != nil {
		t.Fatalf("Unexpected error creating bundle: %v", err)
	}

	gm := intersectAll(t, rays)
	outg, err := NewAbsorberReflector(0).Apply(gm, rays, []int{0, 1, 2, 3, 4, 5, 6, 7})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	for i := 0; i < 4; i++ {
		if math.Abs(outg.Energy()[i]-100) > 1e-9 {
			t.Errorf("Ray %d from above: expected energy 100, got %v", i, outg.Energy()[i])
		}
	}
	for i := 4; i < 8; i++ {
		if outg.Energy()[i] != 0 {
			t.Errorf("Ray %d from below: expected absorption, got energy %v", i, outg.Energy()[i])
		}
	}
}

func TestCallable_ProtocolErrors(t *testing.T) {
	rays := quadBundle(t)

	// Selection never happened on this manager
	gm := geometry.NewFlat()
	gm.FindIntersections(core.IdentityTransform(), rays)
	if _, err := NewReflective(0.1).Apply(gm, rays, []int{0, 1}); !errors.Is(err, core.ErrGeometryInconsistency) {
		t.Errorf("Expected ErrGeometryInconsistency without selection, got %v", err)
	}

	// Selected indices outside the bundle
	gm2 := intersectAll(t, rays)
	if _, err := NewReflective(0.1).Apply(gm2, rays, []int{0, 9}); !errors.Is(err, core.ErrGeometryInconsistency) {
		t.Errorf("Expected ErrGeometryInconsistency for out-of-range index, got %v", err)
	}

	// One-sided optics on a manager without an up orientation
	cyl := geometry.NewCylinder(1, 2)
	cyl.FindIntersections(core.IdentityTransform(), rays)
	if _, err := NewAbsorberReflector(0).Apply(cyl, rays, nil); !errors.Is(err, core.ErrGeometryInconsistency) {
		t.Errorf("Expected ErrGeometryInconsistency for up-less geometry, got %v", err)
	}
}
