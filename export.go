package dope

import (
	"fmt"
	"os"
	"time"

	kitlog "github.com/go-kit/kit/log"
	"github.com/soniakeys/meeus/julian"
)

// ExportConfig configures a trajectory export.
type ExportConfig struct {
	Filename  string
	OutputDir string
	Epoch     time.Time // wall clock time of the muzzle exit
	Timestamp bool      // append the epoch to the filename
}

// StreamSamples consumes samples from the provided channel and writes them
// to a CSV file until the channel is closed. Columns are the flight time,
// the Julian date of the sample, position, velocity, attitude quaternion,
// body rates and the flow quantities. This function blocks and is meant to
// be started on its own goroutine ahead of Propagate.
func StreamSamples(conf ExportConfig, samples <-chan Sample) {
	logger := kitlog.With(kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(os.Stdout)), "subsys", "export")
	if conf.OutputDir == "" {
		conf.OutputDir = "."
	}
	name := conf.Filename
	if conf.Timestamp {
		name += "-" + conf.Epoch.UTC().Format("2006-01-02T15.04.05")
	}
	path := fmt.Sprintf("%s/%s.csv", conf.OutputDir, name)
	f, err := os.Create(path)
	if err != nil {
		panic(err)
	}
	defer f.Close()
	logger.Log("level", "info", "action", "writing", "path", path)

	fmt.Fprintln(f, "t_s,jd,x_m,y_m,z_m,vx_ms,vy_ms,vz_ms,qw,qx,qy,qz,p_rads,q_rads,r_rads,mach,qbar_pa,rho_kgm3,alpha_rad,beta_rad")
	var count int
	for sample := range samples {
		jd := julian.TimeToJD(conf.Epoch.Add(time.Duration(sample.T * float64(time.Second))))
		fmt.Fprintf(f, "%f,%.8f,%f,%f,%f,%f,%f,%f,%.12f,%.12f,%.12f,%.12f,%f,%f,%f,%f,%f,%f,%.8f,%.8f\n",
			sample.T, jd,
			sample.State.R.X, sample.State.R.Y, sample.State.R.Z,
			sample.State.V.X, sample.State.V.Y, sample.State.V.Z,
			sample.State.Q.W, sample.State.Q.X, sample.State.Q.Y, sample.State.Q.Z,
			sample.State.W.X, sample.State.W.Y, sample.State.W.Z,
			sample.Mach, sample.Qbar, sample.Rho, sample.Alpha, sample.Beta)
		count++
	}
	logger.Log("level", "info", "action", "done", "samples", count)
}

// WriteRangeCard writes point mass rows as a CSV range card.
func WriteRangeCard(conf ExportConfig, rows []Row) error {
	if conf.OutputDir == "" {
		conf.OutputDir = "."
	}
	path := fmt.Sprintf("%s/%s.csv", conf.OutputDir, conf.Filename)
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	fmt.Fprintln(f, "range_m,tof_s,impact_ms,drop_m,drift_m,hold_mil,hold_moa")
	for _, r := range rows {
		fmt.Fprintf(f, "%.1f,%.3f,%.1f,%.4f,%.4f,%.3f,%.3f\n",
			r.RangeM, r.TOF, r.ImpactVelocity, r.DropM, r.DriftM, r.HoldMil, r.HoldMOA)
	}
	return nil
}
