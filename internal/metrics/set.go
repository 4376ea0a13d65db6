package metrics

import (
	"github.com/san-kum/mpmsim/internal/mpm"
	"github.com/san-kum/mpmsim/internal/sim"
)

// Defaults returns the metrics recorded for every run.
func Defaults(params mpm.Params) []sim.Metric {
	return []sim.Metric{
		NewKineticEnergy(params.ParticleMass()),
		NewCenterOfMassHeight(),
		NewMaxSpeed(),
		NewMeanVolumeRatio(),
		NewBoundingHeight(),
		NewStability(params.Dx() / params.Dt),
	}
}
