package dope

import (
	"fmt"
	"math"
	"math/rand"
	"os"
	"runtime"
	"sync"

	kitlog "github.com/go-kit/kit/log"
	"github.com/gonum/matrix/mat64"
	"github.com/gonum/stat/distmv"
)

// DispersionConfig describes a Monte Carlo dispersion study. The muzzle
// speed and the two pointing angles are drawn from an uncorrelated normal
// distribution around the nominal scenario.
type DispersionConfig struct {
	Runs            int
	SpeedStdMps     float64
	ElevationStdDeg float64
	AzimuthStdDeg   float64
	Seed            int64
	Workers         int // defaults to GOMAXPROCS
}

// Impact is the terminal point of one dispersion run.
type Impact struct {
	Run   int
	T     float64
	R     Vec3
	Speed float64
}

// DispersionResult aggregates the impact points of a study. Statistics
// cover only the finite impacts; a diverged integration is counted, not
// folded into the mean and spread.
type DispersionResult struct {
	Impacts    []Impact
	MeanX      float64
	MeanY      float64
	StdX       float64
	StdY       float64
	ShortfallN int // runs which hit MaxTime or MaxSteps instead of ground
	DivergedN  int // runs whose impact point is NaN or Inf
}

func (imp Impact) finite() bool {
	for _, v := range []float64{imp.R.X, imp.R.Y, imp.R.Z} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// RunDispersion propagates cfg.Runs perturbed copies of the scenario and
// returns the impact statistics. Runs are fanned out over a worker pool.
func RunDispersion(scen Scenario, aero AeroModel, cfg DispersionConfig) DispersionResult {
	if cfg.Runs <= 0 {
		panic("dispersion needs at least one run")
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	logger := kitlog.With(kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(os.Stdout)), "subsys", "dispersion")
	logger.Log("level", "info", "runs", cfg.Runs, "workers", workers)

	mu := []float64{scen.Muzzle.Speed, scen.Muzzle.ElevationDeg, scen.Muzzle.AzimuthDeg}
	sigma := mat64.NewSymDense(3, []float64{
		cfg.SpeedStdMps * cfg.SpeedStdMps, 0, 0,
		0, cfg.ElevationStdDeg * cfg.ElevationStdDeg, 0,
		0, 0, cfg.AzimuthStdDeg * cfg.AzimuthStdDeg,
	})
	normal, ok := distmv.NewNormal(mu, sigma, rand.New(rand.NewSource(cfg.Seed)))
	if !ok {
		panic("dispersion covariance is not positive definite")
	}

	// Draw all perturbations up front so the result only depends on the seed,
	// not on worker scheduling.
	draws := make([][]float64, cfg.Runs)
	for i := range draws {
		draws[i] = normal.Rand(nil)
	}

	jobs := make(chan int, cfg.Runs)
	impacts := make([]Impact, cfg.Runs)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for run := range jobs {
				d := draws[run]
				state := NewStateFromMuzzle(scen.Muzzle.Position, d[0],
					Deg2rad(d[1]), Deg2rad(d[2]), scen.Muzzle.SpinRate)
				traj := NewTrajectory(scen.Projectile, scen.Env, EarthGravity(),
					StandardAtmosphere(), aero, state, scen.Opts)
				samples := traj.Propagate()
				last := samples[len(samples)-1]
				impacts[run] = Impact{Run: run, T: last.T, R: last.State.R, Speed: last.State.V.Norm()}
			}
		}()
	}
	for run := 0; run < cfg.Runs; run++ {
		jobs <- run
	}
	close(jobs)
	wg.Wait()

	res := DispersionResult{Impacts: impacts}
	var finiteN int
	for _, imp := range impacts {
		if imp.T >= scen.Opts.MaxTime-scen.Opts.Dt {
			res.ShortfallN++
		}
		if !imp.finite() {
			res.DivergedN++
			continue
		}
		finiteN++
		res.MeanX += imp.R.X
		res.MeanY += imp.R.Y
	}
	if finiteN > 0 {
		res.MeanX /= float64(finiteN)
		res.MeanY /= float64(finiteN)
	}
	for _, imp := range impacts {
		if !imp.finite() {
			continue
		}
		res.StdX += (imp.R.X - res.MeanX) * (imp.R.X - res.MeanX)
		res.StdY += (imp.R.Y - res.MeanY) * (imp.R.Y - res.MeanY)
	}
	if finiteN > 1 {
		res.StdX = math.Sqrt(res.StdX / float64(finiteN-1))
		res.StdY = math.Sqrt(res.StdY / float64(finiteN-1))
	} else {
		res.StdX, res.StdY = 0, 0
	}
	logger.Log("level", "info", "meanX", fmt.Sprintf("%.2f", res.MeanX),
		"meanY", fmt.Sprintf("%.2f", res.MeanY),
		"stdX", fmt.Sprintf("%.3f", res.StdX), "stdY", fmt.Sprintf("%.3f", res.StdY),
		"shortfall", res.ShortfallN, "diverged", res.DivergedN)
	return res
}
