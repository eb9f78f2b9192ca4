package dope

import (
	"fmt"

	"github.com/spf13/viper"
)

// Scenario is a fully described shot, loaded from a TOML configuration.
// It carries everything the solvers need plus the output directory for the
// exporters.
type Scenario struct {
	Projectile Projectile
	Muzzle     MuzzleConfig
	Env        Environment
	Wind       Wind
	Opts       IntegrateOpts
	DragFamily DragFamily
	BC         float64
	Ranges     []float64
	OutputDir  string
}

// MuzzleConfig stores the launch condition of a scenario.
type MuzzleConfig struct {
	Position     Vec3
	Speed        float64 // m/s
	ElevationDeg float64
	AzimuthDeg   float64
	SpinRate     float64 // rad/s
}

// LoadScenario reads a scenario from the conf.toml in the provided
// directory. It panics if the file is missing or inconsistent, in keeping
// with the rest of the construction time validation.
func LoadScenario(confPath string) Scenario {
	v := viper.New()
	v.SetConfigName("conf")
	v.AddConfigPath(confPath)
	if err := v.ReadInConfig(); err != nil {
		panic(fmt.Errorf("%s/conf.toml not found", confPath))
	}

	v.SetDefault("environment.temperature_c", 15.0)
	v.SetDefault("environment.pressure_hpa", 1013.0)
	v.SetDefault("environment.humidity_pct", 50.0)
	v.SetDefault("integration.dt", 0.002)
	v.SetDefault("integration.max_time", 10.0)
	v.SetDefault("integration.max_steps", 100000)
	v.SetDefault("drag.family", "G7")
	v.SetDefault("drag.bc", 0.25)
	v.SetDefault("general.output_path", ".")

	proj := NewCylindricalProjectile(
		v.GetFloat64("projectile.mass_kg"),
		v.GetFloat64("projectile.diameter_m"),
		v.GetFloat64("projectile.length_m"),
		v.GetFloat64("projectile.spin_rad_s"),
	)
	family, err := ParseDragFamily(v.GetString("drag.family"))
	if err != nil {
		panic(err)
	}
	return Scenario{
		Projectile: proj,
		Muzzle: MuzzleConfig{
			Position: Vec3{
				X: v.GetFloat64("muzzle.x"),
				Y: v.GetFloat64("muzzle.y"),
				Z: v.GetFloat64("muzzle.z"),
			},
			Speed:        v.GetFloat64("muzzle.speed_ms"),
			ElevationDeg: v.GetFloat64("muzzle.elevation_deg"),
			AzimuthDeg:   v.GetFloat64("muzzle.azimuth_deg"),
			SpinRate:     v.GetFloat64("projectile.spin_rad_s"),
		},
		Env: Environment{
			TemperatureC: v.GetFloat64("environment.temperature_c"),
			PressureHPa:  v.GetFloat64("environment.pressure_hpa"),
			HumidityPct:  v.GetFloat64("environment.humidity_pct"),
			AltitudeM:    v.GetFloat64("environment.altitude_m"),
		},
		Wind: Wind{
			SpeedMps: v.GetFloat64("wind.speed_ms"),
			AngleDeg: v.GetFloat64("wind.angle_deg"),
		},
		Opts: IntegrateOpts{
			Dt:       v.GetFloat64("integration.dt"),
			MaxTime:  v.GetFloat64("integration.max_time"),
			MaxSteps: v.GetInt("integration.max_steps"),
			GroundZ:  v.GetFloat64("integration.ground_z"),
		},
		DragFamily: family,
		BC:         v.GetFloat64("drag.bc"),
		Ranges:     floatSlice(v.GetStringSlice("pointmass.ranges_m")),
		OutputDir:  v.GetString("general.output_path"),
	}
}

// InitialState builds the 6DoF initial state from the muzzle configuration.
func (s Scenario) InitialState() State {
	return NewStateFromMuzzle(s.Muzzle.Position, s.Muzzle.Speed,
		Deg2rad(s.Muzzle.ElevationDeg), Deg2rad(s.Muzzle.AzimuthDeg), s.Muzzle.SpinRate)
}

func floatSlice(strs []string) []float64 {
	out := make([]float64, 0, len(strs))
	for _, s := range strs {
		var f float64
		if _, err := fmt.Sscanf(s, "%f", &f); err != nil {
			panic(fmt.Errorf("invalid range value %q", s))
		}
		out = append(out, f)
	}
	return out
}
