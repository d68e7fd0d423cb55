package bundle

import (
	"errors"
	"math"
	"testing"

	"github.com/df07/go-solar-tracer/pkg/core"
)

func testBundle(t *testing.T, n int) *Bundle {
	t.Helper()
	positions := make([]core.Vec3, n)
	directions := make([]core.Vec3, n)
	energy := make([]float64, n)
	for i := 0; i < n; i++ {
		positions[i] = core.NewVec3(float64(i), 0, 1)
		directions[i] = core.NewVec3(0, 0, -1)
		energy[i] = float64(100 * (i + 1))
	}
	b, err := New(positions, directions, energy)
	if err != nil {
		t.Fatalf("Unexpected error creating bundle: %v", err)
	}
	return b
}

func TestNew_ShapeMismatch(t *testing.T) {
	positions := []core.Vec3{{}, {}}
	directions := []core.Vec3{{Z: -1}}
	energy := []float64{100, 200}

	_, err := New(positions, directions, energy)
	if !errors.Is(err, core.ErrShapeMismatch) {
		t.Errorf("Expected ErrShapeMismatch, got %v", err)
	}
}

func TestNew_DefaultsRefIndex(t *testing.T) {
	b := testBundle(t, 3)
	for i, ri := range b.RefIndex() {
		if ri != AmbientRefIndex {
			t.Errorf("Ray %d: expected ambient ref index, got %v", i, ri)
		}
	}
	if b.Parents() != nil {
		t.Errorf("Initial generation should carry no parents, got %v", b.Parents())
	}
}

func TestSetters_ShapeMismatch(t *testing.T) {
	b := testBundle(t, 4)

	if err := b.SetEnergy([]float64{1, 2}); !errors.Is(err, core.ErrShapeMismatch) {
		t.Errorf("SetEnergy: expected ErrShapeMismatch, got %v", err)
	}
	if err := b.SetParents([]int{0}); !errors.Is(err, core.ErrShapeMismatch) {
		t.Errorf("SetParents: expected ErrShapeMismatch, got %v", err)
	}
	if err := b.SetRefIndex([]float64{1, 1, 1, 1.5}); err != nil {
		t.Errorf("Matching SetRefIndex should succeed, got %v", err)
	}
}

func TestSetters_BuildFromEmpty(t *testing.T) {
	b := Empty()
	if err := b.SetDirections([]core.Vec3{{Z: -1}, {Z: 1}}); err != nil {
		t.Fatalf("First column should establish the count: %v", err)
	}
	if err := b.SetPositions([]core.Vec3{{}, {}, {}}); !errors.Is(err, core.ErrShapeMismatch) {
		t.Errorf("Expected ErrShapeMismatch for disagreeing column, got %v", err)
	}
	if err := b.SetPositions([]core.Vec3{{}, {}}); err != nil {
		t.Errorf("Matching column should succeed, got %v", err)
	}
	if b.Len() != 2 {
		t.Errorf("Expected 2 rays, got %d", b.Len())
	}
}

func TestSelect(t *testing.T) {
	b := testBundle(t, 4)
	if err := b.SetParents([]int{5, 6, 7, 8}); err != nil {
		t.Fatalf("SetParents: %v", err)
	}

	sub, err := b.Select([]int{2, 0})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}

	if sub.Len() != 2 {
		t.Fatalf("Expected 2 rays, got %d", sub.Len())
	}
	if sub.Energy()[0] != 300 || sub.Energy()[1] != 100 {
		t.Errorf("Selection did not preserve order: energies %v", sub.Energy())
	}
	if sub.Positions()[0] != b.Positions()[2] {
		t.Errorf("Selected position %v, want %v", sub.Positions()[0], b.Positions()[2])
	}
	if sub.Parents()[0] != 7 || sub.Parents()[1] != 5 {
		t.Errorf("Selection did not align parents: %v", sub.Parents())
	}
}

func TestSelect_OutOfRange(t *testing.T) {
	b := testBundle(t, 2)
	if _, err := b.Select([]int{0, 2}); !errors.Is(err, core.ErrGeometryInconsistency) {
		t.Errorf("Expected ErrGeometryInconsistency, got %v", err)
	}
	if _, err := b.Select([]int{-1}); !errors.Is(err, core.ErrGeometryInconsistency) {
		t.Errorf("Expected ErrGeometryInconsistency for negative index, got %v", err)
	}
}

func TestSelect_UnpopulatedColumns(t *testing.T) {
	// A bundle mid-build has an energy column only; selecting from it must
	// fail instead of touching the missing columns
	b := Empty()
	if err := b.SetEnergy([]float64{100, 200}); err != nil {
		t.Fatalf("SetEnergy: %v", err)
	}
	if _, err := b.Select([]int{0}); !errors.Is(err, core.ErrShapeMismatch) {
		t.Errorf("Expected ErrShapeMismatch, got %v", err)
	}
}

func TestConcat(t *testing.T) {
	a := testBundle(t, 2)
	b := testBundle(t, 3)

	joined := Concat(a, b)
	if joined.Len() != 5 {
		t.Fatalf("Expected 5 rays, got %d", joined.Len())
	}

	expected := []float64{100, 200, 100, 200, 300}
	for i, e := range joined.Energy() {
		if e != expected[i] {
			t.Errorf("Ray %d: expected energy %v, got %v", i, expected[i], e)
		}
	}
	if math.Abs(joined.TotalEnergy()-900) > 1e-9 {
		t.Errorf("Expected total energy 900, got %v", joined.TotalEnergy())
	}
}

func TestConcat_Parents(t *testing.T) {
	a := testBundle(t, 2)
	b := testBundle(t, 2)
	if err := a.SetParents([]int{0, 1}); err != nil {
		t.Fatalf("SetParents: %v", err)
	}
	if err := b.SetParents([]int{3, 2}); err != nil {
		t.Fatalf("SetParents: %v", err)
	}

	joined := Concat(a, b)
	want := []int{0, 1, 3, 2}
	for i, p := range joined.Parents() {
		if p != want[i] {
			t.Errorf("Parent %d: expected %d, got %d", i, want[i], p)
		}
	}

	// A part without parents drops the column from the result
	mixed := Concat(a, testBundle(t, 1))
	if mixed.Parents() != nil {
		t.Errorf("Expected no parents when a part lacks them, got %v", mixed.Parents())
	}
}

func TestConcat_Empty(t *testing.T) {
	joined := Concat()
	if joined.Len() != 0 {
		t.Errorf("Expected empty bundle, got %d rays", joined.Len())
	}
	if joined.TotalEnergy() != 0 {
		t.Errorf("Expected zero energy, got %v", joined.TotalEnergy())
	}
}
