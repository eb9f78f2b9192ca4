package dope

import (
	"fmt"
	"math"
	"os"

	kitlog "github.com/go-kit/kit/log"
)

// Projectile stores the physical parameters of the flying body. It is
// constructed once per trajectory and read only during integration.
type Projectile struct {
	Mass     float64 // kg
	Diameter float64 // reference diameter (m)
	Area     float64 // reference area S = π(d/2)² (m²)
	Ixx      float64 // moment of inertia about the spin axis (kg·m²)
	Iyy      float64 // pitch moment of inertia (kg·m²)
	Izz      float64 // yaw moment of inertia (kg·m²)
	SpinRate float64 // initial spin about +x body (rad/s)
}

// NewCylindricalProjectile builds a typical rifle projectile with derived
// reference area and a slender body inertia approximation (solid of
// revolution about x). It panics on non-positive mass, diameter or length:
// invalid physics must fail at construction, not as NaNs mid-flight.
func NewCylindricalProjectile(mass, diameter, length, spinRate float64) Projectile {
	if mass <= 0 {
		panic(fmt.Errorf("projectile mass must be positive (got %f)", mass))
	}
	if diameter <= 0 || length <= 0 {
		panic(fmt.Errorf("projectile dimensions must be positive (got d=%f l=%f)", diameter, length))
	}
	radius := 0.5 * diameter
	area := math.Pi * radius * radius
	ixx := 0.5 * mass * radius * radius
	iyy := (1 / 12.) * mass * (3*radius*radius + length*length)
	return Projectile{Mass: mass, Diameter: diameter, Area: area,
		Ixx: ixx, Iyy: iyy, Izz: iyy, SpinRate: spinRate}
}

// IntegrateOpts configures one integration. Configuration only, no mutation.
type IntegrateOpts struct {
	Dt       float64 // step size (s)
	MaxTime  float64 // maximum flight time (s)
	MaxSteps int     // step budget
	GroundZ  float64 // stop once altitude drops to this level (m)
}

// validate panics if the options cannot drive an integration.
func (o IntegrateOpts) validate() {
	if o.Dt <= 0 {
		panic(fmt.Errorf("integration step size must be positive (got %f)", o.Dt))
	}
	if o.MaxSteps <= 0 {
		panic(fmt.Errorf("step budget must be positive (got %d)", o.MaxSteps))
	}
}

// State is the complete 13 scalar rigid body state. It is produced
// immutably at each step: the stepper consumes the previous State and
// returns a new one, so no partial update is ever visible.
type State struct {
	R Vec3       // inertial position (m)
	V Vec3       // inertial velocity (m/s)
	Q Quaternion // orientation, body to inertial
	W Vec3       // body angular rates p, q, r (rad/s)
}

// NewStateFromMuzzle builds the initial state from the muzzle position,
// speed, bore elevation and azimuth (radians, z-up convention), and spin
// rate. The orientation is the minimal axis-angle rotation taking the body
// x axis onto the bore direction.
func NewStateFromMuzzle(muzzlePos Vec3, muzzleSpeed, elevation, azimuth, spinRate float64) State {
	sa, ca := math.Sincos(azimuth)
	se, ce := math.Sincos(elevation)
	forward := Vec3{X: ce * ca, Y: ce * sa, Z: se}

	xBody := Vec3{X: 1}
	axis := xBody.Cross(forward).NormalizeOrZero()
	angle := math.Acos(math.Max(-1, math.Min(1, xBody.Dot(forward))))
	q := IdentityQuaternion()
	if math.Abs(angle) >= 1e-9 {
		q = NewQuaternionFromAxisAngle(axis, angle)
	}
	return State{R: muzzlePos, V: forward.Scale(muzzleSpeed), Q: q, W: Vec3{X: spinRate}}
}

// Sample is a read only snapshot of the state and its derived flow scalars
// at one instant of the trajectory.
type Sample struct {
	T     float64 // simulation time (s)
	State State
	Mach  float64
	Qbar  float64 // dynamic pressure (Pa)
	Rho   float64 // air density (kg/m³)
	Alpha float64 // angle of attack (rad)
	Beta  float64 // sideslip (rad)
}

/* Handles the six degree of freedom propagation. */

// Trajectory drives one 6DoF integration: it advances the stepper, records
// samples, and halts on ground impact, elapsed time, or step budget. One
// Trajectory owns its state sequence; independent trajectories share no
// mutable state and may run in parallel.
type Trajectory struct {
	Proj     Projectile
	Env      Environment
	Grav     Gravity
	Atmos    Atmosphere
	Aero     AeroModel
	Opts     IntegrateOpts
	state    State
	elapsed  float64
	steps    int
	samples  []Sample
	histChan chan<- Sample
	stopChan chan bool
	logger   kitlog.Logger
}

// NewTrajectory returns a trajectory ready to propagate from the provided
// initial state. A nil aero model panics: the integrator cannot run without
// its coefficient provider.
func NewTrajectory(proj Projectile, env Environment, grav Gravity, atmos Atmosphere, aero AeroModel, initial State, opts IntegrateOpts) *Trajectory {
	opts.validate()
	if aero == nil {
		panic("aero model may not be nil")
	}
	klog := kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(os.Stdout))
	klog = kitlog.With(klog, "subsys", "sixdof")
	// The step budget bounds the sample count even when the time cap is
	// effectively unbounded, so it clamps the preallocation too.
	sampleCap := int(math.Ceil(opts.MaxTime/opts.Dt)) + 8
	if sampleCap > opts.MaxSteps+1 || sampleCap < 0 {
		sampleCap = opts.MaxSteps + 1
	}
	return &Trajectory{Proj: proj, Env: env, Grav: grav, Atmos: atmos,
		Aero: aero, Opts: opts, state: initial,
		samples:  make([]Sample, 0, sampleCap),
		stopChan: make(chan bool, 1),
		logger:   klog,
	}
}

// StreamTo also sends every recorded sample to the provided channel during
// propagation. The channel is closed when the propagation terminates.
func (t *Trajectory) StreamTo(histChan chan<- Sample) {
	t.histChan = histChan
}

// StopPropagation requests an early stop; the request is honored between
// two steps, which is the natural cancellation point of the loop.
func (t *Trajectory) StopPropagation() {
	t.stopChan <- true
}

// Propagate runs the integration to termination and returns the ordered
// sample sequence. All terminal conditions (ground impact, time budget,
// step budget, caller stop) are normal termination, not errors.
func (t *Trajectory) Propagate() []Sample {
	f := func(s State) State {
		return dynamics(s, t.Proj, t.Aero, t.Grav, t.Atmos, t.Env)
	}
	for t.elapsed <= t.Opts.MaxTime && t.steps < t.Opts.MaxSteps {
		mach, qbar, ρ, α, β := flowNumbers(t.state, t.Atmos, t.Env)
		t.record(Sample{T: t.elapsed, State: t.state, Mach: mach, Qbar: qbar, Rho: ρ, Alpha: α, Beta: β})

		// Ground hit. The t > 0 guard keeps a launch point at or below the
		// ground threshold from terminating before the first step.
		if t.state.R.Z <= t.Opts.GroundZ && t.elapsed > 0 {
			t.logger.Log("level", "info", "status", "impact", "t(s)", t.elapsed, "x(m)", t.state.R.X)
			break
		}
		if t.stopRequested() {
			t.logger.Log("level", "notice", "status", "stopped", "t(s)", t.elapsed)
			break
		}

		t.state = rk4Step(f, t.state, t.Opts.Dt)
		// Unit norm must hold at every recorded sample.
		t.state.Q = t.state.Q.Normalize()
		t.elapsed += t.Opts.Dt
		t.steps++
	}
	if t.histChan != nil {
		close(t.histChan)
	}
	return t.samples
}

func (t *Trajectory) record(s Sample) {
	t.samples = append(t.samples, s)
	if t.histChan != nil {
		t.histChan <- s
	}
}

func (t *Trajectory) stopRequested() bool {
	select {
	case <-t.stopChan:
		return true
	default:
		return false
	}
}

// Integrate6DoF is the one call entry point: it builds the trajectory and
// propagates it to termination.
func Integrate6DoF(proj Projectile, env Environment, grav Gravity, atmos Atmosphere, aero AeroModel, initial State, opts IntegrateOpts) []Sample {
	return NewTrajectory(proj, env, grav, atmos, aero, initial, opts).Propagate()
}
