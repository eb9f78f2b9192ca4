package dope

// AeroModel provides the dimensionless aerodynamic coefficients of a
// projectile at the current flight condition. Implement it to supply bullet
// specific aerodynamic tables; every query is pure and called once per
// dynamics evaluation (four times per RK4 step).
//
// All angles are in radians, in the body frame aerodynamic convention
// (x along the bore, z down, lift up is -z).
type AeroModel interface {
	// Cd returns the drag coefficient.
	Cd(mach, α, β float64) float64
	// ClAlpha returns the lift curve slope (per radian).
	ClAlpha(mach float64) float64
	// CyBeta returns the side force slope (per radian).
	CyBeta(mach float64) float64
	// CmAlpha returns the overturning (pitch) moment slope. Negative restores.
	CmAlpha(mach float64) float64
	// CmQ returns the pitch and yaw damping coefficient.
	CmQ(mach float64) float64
	// ClP returns the roll (spin) damping coefficient.
	ClP(mach float64) float64
	// CMagnus returns the Magnus side force factor.
	CMagnus(mach float64) float64
}

// DefaultAeroApprox is a slender body style approximation which works
// without any external aerodynamic data. The drag curve is a coarse four
// band Mach split; replace with a table driven AeroModel for production
// fidelity.
type DefaultAeroApprox struct{}

// Cd implements the AeroModel interface.
func (DefaultAeroApprox) Cd(mach, α, β float64) float64 {
	switch {
	case mach < 0.8:
		return 0.25
	case mach < 1.2:
		return 0.40
	case mach < 2.0:
		return 0.30
	default:
		return 0.25
	}
}

// ClAlpha implements the AeroModel interface.
func (DefaultAeroApprox) ClAlpha(mach float64) float64 { return 2.8 }

// CyBeta implements the AeroModel interface.
func (DefaultAeroApprox) CyBeta(mach float64) float64 { return 2.8 }

// CmAlpha implements the AeroModel interface.
func (DefaultAeroApprox) CmAlpha(mach float64) float64 { return -0.9 }

// CmQ implements the AeroModel interface.
func (DefaultAeroApprox) CmQ(mach float64) float64 { return -20.0 }

// ClP implements the AeroModel interface.
func (DefaultAeroApprox) ClP(mach float64) float64 { return -0.02 }

// CMagnus implements the AeroModel interface.
func (DefaultAeroApprox) CMagnus(mach float64) float64 { return 0.1 }
