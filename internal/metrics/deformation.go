package metrics

import "github.com/san-kum/mpmsim/internal/mpm"

// MeanVolumeRatio is the mean det(F): 1 for an undeformed body, below 1
// under compression.
type MeanVolumeRatio struct {
	name  string
	value float64
}

func NewMeanVolumeRatio() *MeanVolumeRatio {
	return &MeanVolumeRatio{name: "volume_ratio", value: 1}
}

func (m *MeanVolumeRatio) Name() string { return m.name }

func (m *MeanVolumeRatio) Observe(frame int, t float64, p *mpm.Particles) {
	if p.Len() == 0 {
		m.value = 1
		return
	}
	sum := 0.0
	for _, f := range p.F {
		sum += f.Det()
	}
	m.value = sum / float64(p.Len())
}

func (m *MeanVolumeRatio) Value() float64 { return m.value }
func (m *MeanVolumeRatio) Reset()         { m.value = 1 }
