package main

import (
	"flag"
	"log"
	"time"

	dope "github.com/Okay-tre/Long-range-DOPE-app"
)

// This code only reads the scenario file and runs the requested solver.

var (
	confPath   string
	name       string
	pointMass  bool
	dispersion int
	speedStd   float64
	angleStd   float64
	seed       int64
)

func init() {
	flag.StringVar(&confPath, "conf", ".", "directory holding conf.toml")
	flag.StringVar(&name, "name", "shot", "base name for the output files")
	flag.BoolVar(&pointMass, "pointmass", false, "also solve the point mass range card")
	flag.IntVar(&dispersion, "dispersion", 0, "number of Monte Carlo dispersion runs (0 disables)")
	flag.Float64Var(&speedStd, "speedStd", 3.0, "muzzle speed standard deviation in m/s")
	flag.Float64Var(&angleStd, "angleStd", 0.05, "pointing standard deviation in degrees")
	flag.Int64Var(&seed, "seed", 1, "dispersion random seed")
}

func main() {
	flag.Parse()
	scen := dope.LoadScenario(confPath)
	aero := dope.DefaultAeroApprox{}
	epoch := time.Now()

	traj := dope.NewTrajectory(scen.Projectile, scen.Env, dope.EarthGravity(),
		dope.StandardAtmosphere(), aero, scen.InitialState(), scen.Opts)
	samples := make(chan dope.Sample)
	traj.StreamTo(samples)
	exportDone := make(chan struct{})
	go func() {
		dope.StreamSamples(dope.ExportConfig{Filename: name, OutputDir: scen.OutputDir,
			Epoch: epoch, Timestamp: true}, samples)
		close(exportDone)
	}()
	traj.Propagate()
	<-exportDone

	if pointMass {
		drag := dope.NewDragModel(scen.DragFamily)
		pm := dope.NewPointMass(dope.PointMassInputs{
			BC:          scen.BC,
			MuzzleSpeed: scen.Muzzle.Speed,
			LaunchAngle: dope.Deg2rad(scen.Muzzle.ElevationDeg),
			Env:         scen.Env,
			Wind:        scen.Wind,
			Drag:        drag,
			Dt:          scen.Opts.Dt,
			MaxRange:    scen.Opts.MaxTime * scen.Muzzle.Speed,
		})
		nodes := pm.Solve()
		rows := dope.RangeRows(nodes, scen.Ranges)
		if err := dope.WriteRangeCard(dope.ExportConfig{Filename: name + "-rangecard",
			OutputDir: scen.OutputDir}, rows); err != nil {
			log.Fatalf("range card: %s", err)
		}
	}

	if dispersion > 0 {
		dope.RunDispersion(scen, aero, dope.DispersionConfig{
			Runs:            dispersion,
			SpeedStdMps:     speedStd,
			ElevationStdDeg: angleStd,
			AzimuthStdDeg:   angleStd,
			Seed:            seed,
		})
	}
}
