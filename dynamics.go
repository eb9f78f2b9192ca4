package dope

import "math"

const (
	// speedFloor avoids division degeneracy at the rest limit.
	speedFloor = 1e-6
	// inertiaFloor avoids a singular inertia tensor inversion.
	inertiaFloor = 1e-9
)

// flowNumbers derives the flow scalars from the current rigid body state:
// Mach number, dynamic pressure, density, angle of attack and sideslip.
// With the body z axis pointing down, lift up is -z, hence α = atan2(-w, u).
func flowNumbers(s State, atmos Atmosphere, env Environment) (mach, qbar, ρ, α, β float64) {
	vBody := s.Q.Conjugate().RotateVec(s.V)
	u, v, w := vBody.X, vBody.Y, vBody.Z
	speed := math.Max(vBody.Norm(), speedFloor)

	α = math.Atan2(-w, u)
	β = math.Atan2(v, math.Sqrt(u*u+w*w))

	// Flight z is relative to the launch site, which itself sits at the
	// configured site altitude.
	ρ, a := atmos.DensityAndSpeedOfSound(env, env.AltitudeM+s.R.Z)
	mach = speed / math.Max(a, speedFloor)
	qbar = 0.5 * ρ * speed * speed
	return
}

// dynamics is the right-hand side of the coupled ODE. The returned State
// reuses the state shape to carry rates: position rate (velocity), velocity
// rate (inertial acceleration), orientation rate (quaternion derivative,
// not a second orientation), and angular acceleration.
//
// No error is ever signaled; degeneracies are floored, trading a small
// physical inaccuracy at the rest limit for robustness.
func dynamics(s State, proj Projectile, aero AeroModel, grav Gravity, atmos Atmosphere, env Environment) State {
	mach, qbar, _, α, β := flowNumbers(s, atmos, env)

	vBody := s.Q.Conjugate().RotateVec(s.V)
	// Recomputed at every RK4 stage on purpose: the damping moment
	// nondimensionalization must track the perturbed stage states.
	vMag := math.Max(vBody.Norm(), speedFloor)

	cd := aero.Cd(mach, α, β)
	clα := aero.ClAlpha(mach)
	cyβ := aero.CyBeta(mach)
	cmα := aero.CmAlpha(mach)
	cmq := aero.CmQ(mach)
	clp := aero.ClP(mach)
	cmag := aero.CMagnus(mach)

	sref := proj.Area
	dref := proj.Diameter

	// Body frame force buildup: drag along -x, small angle lift along -z,
	// side force along +y.
	fDragX := -qbar * sref * cd
	fLiftZ := -qbar * sref * clα * α
	fSideY := qbar * sref * cyβ * β

	// Magnus side force couples only the y and z components of ω × v_body.
	// The force is perpendicular to the velocity, so there is no bore axis
	// contribution; do not complete this into a full cross product force.
	wxv := s.W.Cross(vBody)
	fBody := Vec3{X: fDragX, Y: fSideY + cmag*wxv.Y, Z: fLiftZ - cmag*wxv.Z}

	// To inertial, plus gravity on the vertical axis only.
	fInertial := s.Q.RotateVec(fBody)
	fInertial.Z += grav.G
	accel := fInertial.Scale(1 / proj.Mass)

	// Body frame moment buildup: overturning moments proportional to α
	// (pitch) and β (yaw), damping moments nondimensionalized by D/(2V).
	mPitch := qbar * sref * dref * cmα * α
	mYaw := qbar * sref * dref * cmα * β
	rateND := 0.5 * dref / vMag
	mBody := Vec3{
		X: qbar * sref * dref * clp * s.W.X * rateND,
		Y: mPitch + qbar*sref*dref*cmq*s.W.Y*rateND,
		Z: mYaw + qbar*sref*dref*cmq*s.W.Z*rateND,
	}

	// Euler rigid body equation with a diagonal inertia tensor:
	// ωdot = I⁻¹(M - ω×(Iω)), component wise since I is diagonal.
	ixx := math.Max(proj.Ixx, inertiaFloor)
	iyy := math.Max(proj.Iyy, inertiaFloor)
	izz := math.Max(proj.Izz, inertiaFloor)
	iω := Vec3{X: ixx * s.W.X, Y: iyy * s.W.Y, Z: izz * s.W.Z}
	ωxiω := s.W.Cross(iω)
	ωdot := Vec3{
		X: (mBody.X - ωxiω.X) / ixx,
		Y: (mBody.Y - ωxiω.Y) / iyy,
		Z: (mBody.Z - ωxiω.Z) / izz,
	}

	// Quaternion kinematics: qdot = ½ q ⊗ (0, p, q, r).
	ωq := Quaternion{X: s.W.X, Y: s.W.Y, Z: s.W.Z}
	qdot := s.Q.Mul(ωq).Scale(0.5)

	return State{R: s.V, V: accel, Q: qdot, W: ωdot}
}

// rk4Step advances the state by one classical fourth order Runge-Kutta step
// of the provided derivative function. All four state fields are blended as
// one flat vector space; in particular the orientation quaternions are
// summed and scaled like vectors, then renormalized to restore the unit
// norm invariant. The renormalization is mandatory: a linear combination of
// unit quaternions is not unit norm, and every downstream consumer assumes
// it is. Switching to a geometrically exact scheme (e.g. exponential map)
// would be a deliberate behavioral change, not a fix.
func rk4Step(f func(State) State, s State, dt float64) State {
	blend := func(k State, h float64) State {
		return State{
			R: s.R.Add(k.R.Scale(h)),
			V: s.V.Add(k.V.Scale(h)),
			Q: s.Q.Add(k.Q.Scale(h)),
			W: s.W.Add(k.W.Scale(h)),
		}
	}
	k1 := f(s)
	k2 := f(blend(k1, dt*0.5))
	k3 := f(blend(k2, dt*0.5))
	k4 := f(blend(k3, dt))

	oneSixth := dt / 6
	return State{
		R: s.R.Add(k1.R.Add(k2.R.Add(k3.R).Scale(2)).Add(k4.R).Scale(oneSixth)),
		V: s.V.Add(k1.V.Add(k2.V.Add(k3.V).Scale(2)).Add(k4.V).Scale(oneSixth)),
		Q: s.Q.Add(k1.Q.Add(k2.Q.Add(k3.Q).Scale(2)).Add(k4.Q).Scale(oneSixth)).Normalize(),
		W: s.W.Add(k1.W.Add(k2.W.Add(k3.W).Scale(2)).Add(k4.W).Scale(oneSixth)),
	}
}
