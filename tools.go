package dope

import "math"

const (
	// EarthRotationRate is the average Earth rotation rate in radians per second.
	EarthRotationRate = 7.2921159e-5
	// rDryAir is the specific gas constant of dry air in J/(kg·K).
	rDryAir = 287.05
	// rVapor is the specific gas constant of water vapor in J/(kg·K).
	rVapor = 461.495
)

// M2Yards converts meters to yards.
func M2Yards(m float64) float64 { return m * 1.09361 }

// Yards2M converts yards to meters.
func Yards2M(y float64) float64 { return y / 1.09361 }

// Mps2Fps converts meters per second to feet per second.
func Mps2Fps(v float64) float64 { return v * 3.28084 }

// Fps2Mps converts feet per second to meters per second.
func Fps2Mps(v float64) float64 { return v / 3.28084 }

// Mil2MOA converts milliradians to minutes of angle.
func Mil2MOA(mil float64) float64 { return mil * 3.43775 }

// MOA2Mil converts minutes of angle to milliradians.
func MOA2Mil(moa float64) float64 { return moa / 3.43775 }

// AirDensity returns the humid air density (kg/m³) from the environment,
// accounting for the water vapor partial pressure (Tetens saturation
// formula). Humidity is clamped to [0, 100].
func AirDensity(env Environment) float64 {
	tK := env.TemperatureC + 273.15
	pPa := env.PressureHPa * 100
	rh := math.Max(0, math.Min(env.HumidityPct, 100)) / 100

	// Saturation vapor pressure over water.
	es := 610.94 * math.Exp((17.625*env.TemperatureC)/(env.TemperatureC+243.04))
	e := rh * es
	pd := math.Max(pPa-e, 0)

	return pd/(rDryAir*tK) + e/(rVapor*tK)
}

// SpeedOfSoundDryAir approximates the speed of sound (m/s) from the ambient
// temperature in °C, within about 0.2% around typical conditions.
func SpeedOfSoundDryAir(tempC float64) float64 {
	return 331.3 + 0.606*tempC
}

// Wind is a constant wind given as a speed and a direction angle:
// 0° is a headwind, 90° blows left to right.
type Wind struct {
	SpeedMps float64
	AngleDeg float64
}

// Crosswind returns the left to right component in m/s.
func (w Wind) Crosswind() float64 {
	return w.SpeedMps * math.Sin(w.AngleDeg*deg2rad)
}

// Headwind returns the headwind (positive) or tailwind (negative) component in m/s.
func (w Wind) Headwind() float64 {
	return w.SpeedMps * math.Cos(w.AngleDeg*deg2rad)
}

// Vector returns the wind as an inertial frame vector for a shot fired
// along +x: a headwind opposes the flight, a 90° wind pushes toward +y.
func (w Wind) Vector() Vec3 {
	return Vec3{X: -w.Headwind(), Y: w.Crosswind()}
}

// CoriolisDrift returns the approximate horizontal Coriolis deflection in
// meters for the given range, time of flight and shooter latitude.
func CoriolisDrift(rangeM, tof, latitudeDeg float64) float64 {
	return EarthRotationRate * tof * rangeM * math.Cos(latitudeDeg*deg2rad)
}
