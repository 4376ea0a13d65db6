package analysis

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// FFT returns the discrete Fourier transform of a real series.
func FFT(data []float64) []complex128 {
	return fft.FFTReal(data)
}

// PowerSpectrum returns |FFT| for the first half of the bins of data,
// zero-padded to a power of two.
func PowerSpectrum(data []float64) []float64 {
	spectrum := FFT(padPow2(data))
	ps := make([]float64, len(spectrum)/2)

	for i := range ps {
		ps[i] = cmplx.Abs(spectrum[i])
	}

	return ps
}

// DominantFrequency returns the frequency in Hz of the strongest non-DC
// component of a series sampled every sampleDt seconds. The mean is removed
// first. It returns 0 for series too short to have a spectrum.
func DominantFrequency(series []float64, sampleDt float64) float64 {
	if len(series) < 4 || sampleDt <= 0 {
		return 0
	}
	mean := 0.0
	for _, v := range series {
		mean += v
	}
	mean /= float64(len(series))

	centred := make([]float64, len(series))
	for i, v := range series {
		centred[i] = v - mean
	}

	padded := padPow2(centred)
	ps := PowerSpectrum(padded)
	best := 0
	for k := 1; k < len(ps); k++ {
		if ps[k] > ps[best] || best == 0 {
			best = k
		}
	}
	if best == 0 || ps[best] == 0 {
		return 0
	}
	return float64(best) / (float64(len(padded)) * sampleDt)
}

func padPow2(data []float64) []float64 {
	n := 1
	for n < len(data) {
		n <<= 1
	}
	if n == len(data) {
		return data
	}
	out := make([]float64, n)
	copy(out, data)
	return out
}
