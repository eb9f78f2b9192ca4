package dope

import "math"

// Environment stores the ambient conditions at the launch point. It is
// immutable for the duration of one integration.
type Environment struct {
	TemperatureC float64 // near-launch ambient temperature (°C)
	PressureHPa  float64 // sea-level station pressure (hPa)
	HumidityPct  float64 // relative humidity (0-100)
	AltitudeM    float64 // launch site altitude offset (m)
}

// SeaLevelStandard returns the 15 °C / 1013 hPa / 50% RH environment.
func SeaLevelStandard() Environment {
	return Environment{TemperatureC: 15, PressureHPa: 1013, HumidityPct: 50}
}

// Gravity is the signed acceleration along the inertial vertical axis, in
// m/s². Negative is down.
type Gravity struct {
	G float64
}

// EarthGravity returns standard gravity pointing down.
func EarthGravity() Gravity {
	return Gravity{G: -9.80665}
}

// Atmosphere maps altitude and a launch environment to air density and speed
// of sound via an ISA style lapse rate. The physical constants are explicit
// fields rather than package globals so that alternate atmospheres (or
// planets) remain testable.
type Atmosphere struct {
	G         float64 // gravity magnitude for the barometric formula (m/s²)
	R         float64 // specific gas constant of the air (J/(kg·K))
	Gamma     float64 // ratio of specific heats
	LapseRate float64 // temperature lapse (K/m), negative means cooling
	TempFloor float64 // absolute temperature floor (K)
}

// StandardAtmosphere returns the ISA-like atmosphere used by default.
func StandardAtmosphere() Atmosphere {
	return Atmosphere{G: 9.80665, R: 287.05, Gamma: 1.4, LapseRate: -0.0065, TempFloor: 150}
}

// DensityAndSpeedOfSound returns the air density (kg/m³) and speed of sound
// (m/s) at the given altitude (m). The temperature lapse is floored so that
// extreme altitude extrapolation never yields an unphysical absolute
// temperature; there are no failure modes.
func (a Atmosphere) DensityAndSpeedOfSound(env Environment, altitude float64) (ρ, speedOfSound float64) {
	t0 := env.TemperatureC + 273.15
	p0 := env.PressureHPa * 100

	t := math.Max(t0+a.LapseRate*altitude, a.TempFloor)
	var p float64
	if math.Abs(a.LapseRate) > 1e-9 {
		p = p0 * math.Pow(t/t0, -a.G/(a.LapseRate*a.R))
	} else {
		p = p0 * math.Exp(-a.G*altitude/(a.R*t0))
	}
	ρ = p / (a.R * t)
	speedOfSound = math.Sqrt(a.Gamma * a.R * t)
	return
}
