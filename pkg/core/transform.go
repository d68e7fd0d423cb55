package core

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Transform is a rigid placement (rotation + translation) stored as a 4x4
// homogeneous matrix, with the world-to-local inverse cached so that frame
// changes cost a single matrix-vector product in either direction.
type Transform struct {
	m   *mat.Dense // local -> world
	inv *mat.Dense // world -> local
}

// IdentityTransform returns the identity placement
func IdentityTransform() *Transform {
	eye := mat.NewDense(4, 4, nil)
	for i := 0; i < 4; i++ {
		eye.Set(i, i, 1)
	}
	return &Transform{m: eye, inv: mat.DenseCopyOf(eye)}
}

// NewTransform creates a placement from a 3x3 rotation matrix and a position.
// The inverse is built directly from the rigid structure (R^T, -R^T*p)
// rather than by numeric inversion.
func NewTransform(rot *mat.Dense, pos Vec3) *Transform {
	m := mat.NewDense(4, 4, nil)
	inv := mat.NewDense(4, 4, nil)

	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			m.Set(i, j, rot.At(i, j))
			inv.Set(i, j, rot.At(j, i))
		}
	}

	p := [3]float64{pos.X, pos.Y, pos.Z}
	for i := 0; i < 3; i++ {
		m.Set(i, 3, p[i])
		ip := 0.0
		for j := 0; j < 3; j++ {
			ip -= rot.At(j, i) * p[j]
		}
		inv.Set(i, 3, ip)
	}
	m.Set(3, 3, 1)
	inv.Set(3, 3, 1)

	return &Transform{m: m, inv: inv}
}

// TranslateTransform creates a placement that only translates
func TranslateTransform(pos Vec3) *Transform {
	return NewTransform(identity3(), pos)
}

// Compose returns the placement obtained by applying child within this
// placement's frame (parent * child)
func (t *Transform) Compose(child *Transform) *Transform {
	m := mat.NewDense(4, 4, nil)
	m.Mul(t.m, child.m)
	inv := mat.NewDense(4, 4, nil)
	inv.Mul(child.inv, t.inv)
	return &Transform{m: m, inv: inv}
}

// Position returns the placement's origin in world coordinates
func (t *Transform) Position() Vec3 {
	return NewVec3(t.m.At(0, 3), t.m.At(1, 3), t.m.At(2, 3))
}

// ToLocalPoint re-expresses a world-frame point in the placement's frame
func (t *Transform) ToLocalPoint(p Vec3) Vec3 {
	return applyMat(t.inv, p, 1)
}

// ToLocalDir re-expresses a world-frame direction in the placement's frame
func (t *Transform) ToLocalDir(d Vec3) Vec3 {
	return applyMat(t.inv, d, 0)
}

// ToGlobalPoint re-expresses a local-frame point in world coordinates
func (t *Transform) ToGlobalPoint(p Vec3) Vec3 {
	return applyMat(t.m, p, 1)
}

// ToGlobalDir re-expresses a local-frame direction in world coordinates
func (t *Transform) ToGlobalDir(d Vec3) Vec3 {
	return applyMat(t.m, d, 0)
}

// applyMat multiplies a homogeneous 4x4 matrix with (v, w); w=1 transforms
// points, w=0 transforms directions
func applyMat(m *mat.Dense, v Vec3, w float64) Vec3 {
	in := mat.NewVecDense(4, []float64{v.X, v.Y, v.Z, w})
	out := mat.NewVecDense(4, nil)
	out.MulVec(m, in)
	return NewVec3(out.AtVec(0), out.AtVec(1), out.AtVec(2))
}

func identity3() *mat.Dense {
	eye := mat.NewDense(3, 3, nil)
	for i := 0; i < 3; i++ {
		eye.Set(i, i, 1)
	}
	return eye
}

// RotateX returns the 3x3 rotation matrix about the x axis
func RotateX(angle float64) *mat.Dense {
	s, c := math.Sin(angle), math.Cos(angle)
	return mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, c, -s,
		0, s, c,
	})
}

// RotateY returns the 3x3 rotation matrix about the y axis
func RotateY(angle float64) *mat.Dense {
	s, c := math.Sin(angle), math.Cos(angle)
	return mat.NewDense(3, 3, []float64{
		c, 0, s,
		0, 1, 0,
		-s, 0, c,
	})
}

// RotateZ returns the 3x3 rotation matrix about the z axis
func RotateZ(angle float64) *mat.Dense {
	s, c := math.Sin(angle), math.Cos(angle)
	return mat.NewDense(3, 3, []float64{
		c, -s, 0,
		s, c, 0,
		0, 0, 1,
	})
}

// EulerXYZ returns the rotation Rz*Ry*Rx applied as intrinsic rotations
// about x, then y, then z
func EulerXYZ(rx, ry, rz float64) *mat.Dense {
	out := mat.NewDense(3, 3, nil)
	out.Mul(RotateZ(rz), RotateY(ry))
	res := mat.NewDense(3, 3, nil)
	res.Mul(out, RotateX(rx))
	return res
}

// RotationToZ returns a rotation matrix whose third column is the given
// unit vector, so the local +z axis maps onto w. Used to orient surfaces
// whose shape is defined in the z-up frame.
func RotationToZ(w Vec3) *mat.Dense {
	tangent, bitangent := OrthonormalBasis(w)
	return mat.NewDense(3, 3, []float64{
		tangent.X, bitangent.X, w.X,
		tangent.Y, bitangent.Y, w.Y,
		tangent.Z, bitangent.Z, w.Z,
	})
}
