package dope

import (
	"fmt"
	"math"
	"os"

	"github.com/ChristopherRabotin/ode"
	kitlog "github.com/go-kit/kit/log"
)

const (
	// seaLevelDensity is the reference density for retardation scaling (kg/m³).
	seaLevelDensity = 1.225
	// pmMinVelocity stops the point mass integration once the projectile is
	// too slow for the retardation tables to mean anything (m/s).
	pmMinVelocity = 50.0
	// pmMaxFlightTime is a hard cap on the point mass time of flight (s).
	pmMaxFlightTime = 20.0
	// pmMaxDrop stops the integration once far below the sight line (m).
	pmMaxDrop = -50.0
	// standardGravity is the gravity magnitude used by the point mass solver (m/s²).
	standardGravity = 9.80665
)

// PointMassInputs configures a point mass (drag only) solve. The launch
// angle is supplied directly by the caller; this solver does not search for
// a zeroing angle.
type PointMassInputs struct {
	BC            float64     // ballistic coefficient, same family as Drag
	MuzzleSpeed   float64     // m/s
	LaunchAngle   float64     // bore elevation above the sight line (rad)
	SightHeightCm float64     // height of the sight line over the bore (cm)
	Env           Environment // launch atmosphere
	Wind          Wind        // constant wind
	Drag          DragModel   // retardation source
	Dt            float64     // integration time step (s)
	MaxRange      float64     // stop once this downrange distance is reached (m)
}

// validate panics on inputs which cannot drive an integration.
func (in PointMassInputs) validate() {
	if in.BC <= 0 {
		panic(fmt.Errorf("ballistic coefficient must be positive (got %f)", in.BC))
	}
	if in.Dt <= 0 {
		panic(fmt.Errorf("integration step size must be positive (got %f)", in.Dt))
	}
	if in.Drag == nil {
		panic("drag model may not be nil")
	}
}

// PointMassState is one integration node of the point mass trajectory,
// in the solver frame: x downrange, y up relative to the sight line, z right.
type PointMassState struct {
	T          float64 // time of flight (s)
	X, Y, Z    float64 // position (m)
	Vx, Vy, Vz float64 // velocity (m/s)
	Speed      float64 // |v| (m/s)
}

// Row is the DOPE table entry sampled at one requested range.
type Row struct {
	RangeM         float64
	TOF            float64
	ImpactVelocity float64
	DropM          float64
	DriftM         float64
	HoldMil        float64
	HoldMOA        float64
}

// PointMass is an ode.Integrable point mass trajectory. Drag comes from the
// retardation function scaled by the air density ratio and the ballistic
// coefficient; gravity and a constant wind vector complete the force model.
type PointMass struct {
	inputs  PointMassInputs
	ρRatio  float64
	aSound  float64
	wx, wz  float64 // wind components: tailwind positive, rightward positive
	current PointMassState
	nodes   []PointMassState
	logger  kitlog.Logger
}

// NewPointMass returns a solver ready to integrate the given inputs.
func NewPointMass(inputs PointMassInputs) *PointMass {
	inputs.validate()
	klog := kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(os.Stdout))
	klog = kitlog.With(klog, "subsys", "pointmass", "drag", inputs.Drag.Kind())
	ρRatio := math.Max(AirDensity(inputs.Env)/seaLevelDensity, 0.01)
	s, c := math.Sincos(inputs.LaunchAngle)
	initial := PointMassState{
		Y:     -inputs.SightHeightCm / 100,
		Vx:    inputs.MuzzleSpeed * c,
		Vy:    inputs.MuzzleSpeed * s,
		Speed: inputs.MuzzleSpeed,
	}
	return &PointMass{
		inputs:  inputs,
		ρRatio:  ρRatio,
		aSound:  SpeedOfSoundDryAir(inputs.Env.TemperatureC),
		wx:      -inputs.Wind.Headwind(),
		wz:      inputs.Wind.Crosswind(),
		current: initial,
		nodes:   []PointMassState{initial},
		logger:  klog,
	}
}

// Solve integrates the trajectory to termination and returns the node
// sequence. Termination (max range, minimum speed, time cap, drop cap) is
// normal, never an error.
func (pm *PointMass) Solve() []PointMassState {
	ode.NewRK4(0, pm.inputs.Dt, pm).Solve()
	pm.logger.Log("level", "info", "status", "finished", "nodes", len(pm.nodes),
		"tof(s)", pm.current.T, "x(m)", pm.current.X)
	return pm.nodes
}

// GetState implements the ode.Integrable interface.
func (pm *PointMass) GetState() []float64 {
	s := pm.current
	return []float64{s.X, s.Y, s.Z, s.Vx, s.Vy, s.Vz}
}

// SetState implements the ode.Integrable interface. The integrator hands
// the iteration index as t, so the flight clock advances by Dt here.
func (pm *PointMass) SetState(t float64, s []float64) {
	pm.current = PointMassState{
		T: pm.current.T + pm.inputs.Dt,
		X: s[0], Y: s[1], Z: s[2],
		Vx: s[3], Vy: s[4], Vz: s[5],
		Speed: math.Sqrt(s[3]*s[3] + s[4]*s[4] + s[5]*s[5]),
	}
	pm.nodes = append(pm.nodes, pm.current)
}

// Stop implements the ode.Integrable interface.
func (pm *PointMass) Stop(t float64) bool {
	s := pm.current
	return s.X > pm.inputs.MaxRange || s.Speed < pmMinVelocity ||
		s.T > pmMaxFlightTime || s.Y < pmMaxDrop
}

// Func implements the ode.Integrable interface: drag along the unit
// air-relative velocity with magnitude (ρ/ρ0)·i(v)/BC, plus gravity on the
// vertical axis.
func (pm *PointMass) Func(t float64, f []float64) []float64 {
	vrx := f[3] - pm.wx
	vry := f[4]
	vrz := f[5] - pm.wz
	vr := math.Max(math.Sqrt(vrx*vrx+vry*vry+vrz*vrz), speedFloor)
	mach := vr / pm.aSound
	k := pm.ρRatio * pm.inputs.Drag.RetardationMach(mach, pm.aSound) / pm.inputs.BC
	return []float64{
		f[3], f[4], f[5],
		-k * vrx / vr,
		-standardGravity - k*vry/vr,
		-k * vrz / vr,
	}
}

// RangeRows samples the solved trajectory at the requested ranges (m) by
// linear interpolation and produces the DOPE rows. Ranges beyond the solved
// trajectory are skipped.
func RangeRows(nodes []PointMassState, rangesM []float64) []Row {
	rows := make([]Row, 0, len(rangesM))
	for _, r := range rangesM {
		if r <= 0 {
			continue
		}
		s, found := sampleAtRange(nodes, r)
		if !found {
			continue
		}
		drop := -s.Y
		holdMil := (drop / r) * 1000
		rows = append(rows, Row{
			RangeM:         r,
			TOF:            s.T,
			ImpactVelocity: s.Speed,
			DropM:          drop,
			DriftM:         s.Z,
			HoldMil:        holdMil,
			HoldMOA:        Mil2MOA(holdMil),
		})
	}
	return rows
}

// sampleAtRange interpolates the state at the exact downrange distance r.
func sampleAtRange(nodes []PointMassState, r float64) (PointMassState, bool) {
	if len(nodes) == 0 || r < nodes[0].X || r > nodes[len(nodes)-1].X {
		return PointMassState{}, false
	}
	idx := len(nodes) - 1
	for i, s := range nodes {
		if s.X >= r {
			idx = i
			break
		}
	}
	if idx == 0 {
		return nodes[0], true
	}
	a, b := nodes[idx-1], nodes[idx]
	dx := math.Max(b.X-a.X, 1e-9)
	u := (r - a.X) / dx
	return PointMassState{
		T:     a.T + u*(b.T-a.T),
		X:     r,
		Y:     a.Y + u*(b.Y-a.Y),
		Z:     a.Z + u*(b.Z-a.Z),
		Vx:    a.Vx + u*(b.Vx-a.Vx),
		Vy:    a.Vy + u*(b.Vy-a.Vy),
		Vz:    a.Vz + u*(b.Vz-a.Vz),
		Speed: a.Speed + u*(b.Speed-a.Speed),
	}, true
}
