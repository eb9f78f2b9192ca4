package dope

import (
	"math"
	"testing"

	"github.com/gonum/floats"
)

func vec3Equal(a, b Vec3) bool {
	return floats.EqualWithinAbs(a.X, b.X, 1e-12) &&
		floats.EqualWithinAbs(a.Y, b.Y, 1e-12) &&
		floats.EqualWithinAbs(a.Z, b.Z, 1e-12)
}

func TestVec3Cross(t *testing.T) {
	i := Vec3{X: 1}
	j := Vec3{Y: 1}
	k := Vec3{Z: 1}
	if !vec3Equal(i.Cross(j), k) {
		t.Fatal("i x j != k")
	}
	if !vec3Equal(j.Cross(k), i) {
		t.Fatal("j x k != i")
	}
	if !vec3Equal(Vec3{2, 3, 4}.Cross(Vec3{5, 6, 7}), Vec3{-3, 6, -3}) {
		t.Fatal("cross fail")
	}
	if !floats.EqualWithinAbs(Vec3{2, 3, 4}.Dot(Vec3{5, 6, 7}), 56, 1e-12) {
		t.Fatal("dot fail")
	}
}

func TestVec3NormalizeOrZero(t *testing.T) {
	if n := (Vec3{3, 0, 4}).NormalizeOrZero(); !floats.EqualWithinAbs(n.Norm(), 1, 1e-12) {
		t.Fatal("unit norm fail")
	}
	if !vec3Equal((Vec3{1e-13, 0, 0}).NormalizeOrZero(), Vec3{}) {
		t.Fatal("degenerate vector must normalize to zero")
	}
}

func TestQuaternionAxisAngle(t *testing.T) {
	// 90° about z takes x onto y.
	q := NewQuaternionFromAxisAngle(Vec3{Z: 1}, math.Pi/2)
	if !floats.EqualWithinAbs(q.Norm(), 1, 1e-12) {
		t.Fatal("axis angle quaternion must be unit norm")
	}
	got := q.RotateVec(Vec3{X: 1})
	if !floats.EqualWithinAbs(got.X, 0, 1e-12) || !floats.EqualWithinAbs(got.Y, 1, 1e-12) {
		t.Fatalf("R_z(90°) x = %s", got)
	}
	// Rotation preserves norms.
	v := Vec3{0.3, -1.2, 2.5}
	if !floats.EqualWithinAbs(q.RotateVec(v).Norm(), v.Norm(), 1e-12) {
		t.Fatal("rotation must preserve the norm")
	}
	// Conjugate undoes the rotation.
	if !vec3Equal(q.Conjugate().RotateVec(q.RotateVec(v)), v) {
		t.Fatal("conjugate must invert the rotation")
	}
}

func TestQuaternionMulIdentity(t *testing.T) {
	q := NewQuaternionFromAxisAngle(Vec3{1, 2, 3}, 0.7)
	id := IdentityQuaternion()
	if q.Mul(id) != q || id.Mul(q) != q {
		t.Fatal("identity must be neutral for the Hamilton product")
	}
	// q ⊗ q* = identity for unit quaternions.
	r := q.Mul(q.Conjugate())
	if !floats.EqualWithinAbs(r.W, 1, 1e-12) || !floats.EqualWithinAbs(r.X, 0, 1e-12) {
		t.Fatalf("q ⊗ q* = %s", r)
	}
}

func TestQuaternionNormalize(t *testing.T) {
	q := Quaternion{W: 2, X: 0, Y: 0, Z: 0}.Normalize()
	if q != IdentityQuaternion() {
		t.Fatalf("normalize fail: %s", q)
	}
	if (Quaternion{}).Normalize() != IdentityQuaternion() {
		t.Fatal("degenerate quaternion must normalize to identity")
	}
	q = Quaternion{0.3, -0.2, 0.8, 0.1}.Normalize()
	if !floats.EqualWithinAbs(q.Norm(), 1, 1e-12) {
		t.Fatal("normalize must produce unit norm")
	}
}

func TestQuaternionDCMAgrees(t *testing.T) {
	q := NewQuaternionFromAxisAngle(Vec3{1, -1, 0.5}, 1.1)
	dcm := q.DCM()
	v := Vec3{0.5, -2, 1}
	want := q.RotateVec(v)
	sl := v.Slice()
	for i := 0; i < 3; i++ {
		got := dcm.At(i, 0)*sl[0] + dcm.At(i, 1)*sl[1] + dcm.At(i, 2)*sl[2]
		if !floats.EqualWithinAbs(got, []float64{want.X, want.Y, want.Z}[i], 1e-12) {
			t.Fatalf("DCM row %d disagrees with the sandwich product", i)
		}
	}
}

func TestAngleConversions(t *testing.T) {
	if !floats.EqualWithinAbs(Deg2rad(180), math.Pi, 1e-12) {
		t.Fatal("Deg2rad fail")
	}
	if !floats.EqualWithinAbs(Rad2deg(math.Pi/2), 90, 1e-12) {
		t.Fatal("Rad2deg fail")
	}
	if !floats.EqualWithinAbs(Deg2rad(-90), Deg2rad(270), 1e-12) {
		t.Fatal("negative angles must wrap")
	}
}
