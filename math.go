package dope

import (
	"fmt"
	"math"

	"github.com/gonum/floats"
	"github.com/gonum/matrix/mat64"
)

const (
	deg2rad = math.Pi / 180
	// vectorε is the norm below which a vector has no meaningful direction.
	vectorε = 1e-12
	// quaternionε is the norm below which a quaternion is degenerate.
	quaternionε = 1e-15
)

// Vec3 is a three component vector. Units and frame are contextual.
type Vec3 struct {
	X, Y, Z float64
}

// Add returns the sum of this vector and b.
func (v Vec3) Add(b Vec3) Vec3 {
	return Vec3{v.X + b.X, v.Y + b.Y, v.Z + b.Z}
}

// Sub returns the difference of this vector and b.
func (v Vec3) Sub(b Vec3) Vec3 {
	return Vec3{v.X - b.X, v.Y - b.Y, v.Z - b.Z}
}

// Scale returns this vector scaled by k.
func (v Vec3) Scale(k float64) Vec3 {
	return Vec3{v.X * k, v.Y * k, v.Z * k}
}

// Dot returns the inner product with b.
func (v Vec3) Dot(b Vec3) float64 {
	return v.X*b.X + v.Y*b.Y + v.Z*b.Z
}

// Cross returns the cross product with b.
func (v Vec3) Cross(b Vec3) Vec3 {
	return Vec3{v.Y*b.Z - v.Z*b.Y,
		v.Z*b.X - v.X*b.Z,
		v.X*b.Y - v.Y*b.X}
}

// Norm returns the Euclidean norm.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.Dot(v))
}

// NormalizeOrZero returns the unit vector, or the zero vector if the norm
// is negligible. A zero direction is a meaningful degenerate result, not an
// error (e.g. no rotation needed).
func (v Vec3) NormalizeOrZero() Vec3 {
	n := v.Norm()
	if floats.EqualWithinAbs(n, 0, vectorε) {
		return Vec3{}
	}
	return v.Scale(1 / n)
}

// Slice returns the components as a new slice, for mat64 interoperability.
func (v Vec3) Slice() []float64 {
	return []float64{v.X, v.Y, v.Z}
}

func (v Vec3) String() string {
	return fmt.Sprintf("[%f %f %f]", v.X, v.Y, v.Z)
}

// Quaternion represents a rotation, here always the body to inertial frame
// mapping. Stored as (w, x, y, z). All consumers assume unit norm, which the
// stepper restores after every integration step.
type Quaternion struct {
	W, X, Y, Z float64
}

// IdentityQuaternion returns the no-rotation quaternion.
func IdentityQuaternion() Quaternion {
	return Quaternion{W: 1}
}

// NewQuaternionFromAxisAngle returns the quaternion rotating by the given
// angle (in radians) about the given axis. The axis need not be unit length.
func NewQuaternionFromAxisAngle(axis Vec3, angle float64) Quaternion {
	s, c := math.Sincos(0.5 * angle)
	n := axis.NormalizeOrZero()
	return Quaternion{W: c, X: n.X * s, Y: n.Y * s, Z: n.Z * s}
}

// Norm returns the Euclidean norm over all four components.
func (q Quaternion) Norm() float64 {
	return math.Sqrt(q.W*q.W + q.X*q.X + q.Y*q.Y + q.Z*q.Z)
}

// Normalize returns the unit quaternion, or identity if the norm is
// degenerate. This is the numerical hygiene contract the stepper relies on:
// it never produces NaN components.
func (q Quaternion) Normalize() Quaternion {
	n := q.Norm()
	if n < quaternionε {
		return IdentityQuaternion()
	}
	return Quaternion{q.W / n, q.X / n, q.Y / n, q.Z / n}
}

// Mul returns the Hamilton product q ⊗ b.
func (q Quaternion) Mul(b Quaternion) Quaternion {
	return Quaternion{
		W: q.W*b.W - q.X*b.X - q.Y*b.Y - q.Z*b.Z,
		X: q.W*b.X + q.X*b.W + q.Y*b.Z - q.Z*b.Y,
		Y: q.W*b.Y - q.X*b.Z + q.Y*b.W + q.Z*b.X,
		Z: q.W*b.Z + q.X*b.Y - q.Y*b.X + q.Z*b.W,
	}
}

// Conjugate returns the conjugate, which is the inverse for unit quaternions.
func (q Quaternion) Conjugate() Quaternion {
	return Quaternion{q.W, -q.X, -q.Y, -q.Z}
}

// Add returns the component wise sum. Only sensible inside the RK4 blend,
// where quaternion rates are summed like vectors.
func (q Quaternion) Add(b Quaternion) Quaternion {
	return Quaternion{q.W + b.W, q.X + b.X, q.Y + b.Y, q.Z + b.Z}
}

// Scale returns the component wise scaling. Same caveat as Add.
func (q Quaternion) Scale(k float64) Quaternion {
	return Quaternion{q.W * k, q.X * k, q.Y * k, q.Z * k}
}

// RotateVec rotates v by this quaternion via the sandwich product
// q ⊗ (0,v) ⊗ q*. The caller must guarantee q is unit norm.
func (q Quaternion) RotateVec(v Vec3) Vec3 {
	qv := Quaternion{X: v.X, Y: v.Y, Z: v.Z}
	r := q.Mul(qv).Mul(q.Conjugate())
	return Vec3{r.X, r.Y, r.Z}
}

// DCM returns the direction cosine matrix equivalent to this quaternion,
// mapping body frame vectors to the inertial frame.
func (q Quaternion) DCM() *mat64.Dense {
	xx, yy, zz := q.X*q.X, q.Y*q.Y, q.Z*q.Z
	xy, xz, yz := q.X*q.Y, q.X*q.Z, q.Y*q.Z
	wx, wy, wz := q.W*q.X, q.W*q.Y, q.W*q.Z
	return mat64.NewDense(3, 3, []float64{
		1 - 2*(yy+zz), 2 * (xy - wz), 2 * (xz + wy),
		2 * (xy + wz), 1 - 2*(xx+zz), 2 * (yz - wx),
		2 * (xz - wy), 2 * (yz + wx), 1 - 2*(xx+yy)})
}

func (q Quaternion) String() string {
	return fmt.Sprintf("[%f %f %f %f]", q.W, q.X, q.Y, q.Z)
}

// Deg2rad converts degrees to radians, and enforces only positive numbers.
func Deg2rad(a float64) float64 {
	if a < 0 {
		a += 360
	}
	return math.Mod(a*deg2rad, 2*math.Pi)
}

// Rad2deg converts radians to degrees, and enforces only positive numbers.
func Rad2deg(a float64) float64 {
	if a < 0 {
		a += 2 * math.Pi
	}
	return math.Mod(a/deg2rad, 360)
}
