package dsp

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
)

// FFTShift returns the FFT output shifted so that DC is centered.
func FFTShift(data []complex128) []complex128 {
	n := len(data)
	if n == 0 {
		return []complex128{}
	}
	half := n / 2
	shifted := make([]complex128, 0, n)
	shifted = append(shifted, data[half:]...)
	shifted = append(shifted, data[:half]...)
	return shifted
}

// FFTFreqs returns the frequency in Hz of each FFT bin for the given block
// length and sample rate, in natural (unshifted) bin order.
func FFTFreqs(n int, sampleRate float64) []float64 {
	if n <= 0 {
		return []float64{}
	}
	freqs := make([]float64, n)
	step := sampleRate / float64(n)
	for i := 0; i < n; i++ {
		if i <= (n-1)/2 {
			freqs[i] = float64(i) * step
		} else {
			freqs[i] = float64(i-n) * step
		}
	}
	return freqs
}

// Spectrum computes the complex FFT of the samples and the per-bin magnitude,
// both in natural bin order.
func Spectrum(samples []complex128) ([]complex128, []float64) {
	if len(samples) == 0 {
		return []complex128{}, []float64{}
	}
	buf := make([]complex128, len(samples))
	copy(buf, samples)
	coeffs := fourier.NewCmplxFFT(len(buf)).Coefficients(nil, buf)
	mags := make([]float64, len(coeffs))
	for i, v := range coeffs {
		mags[i] = cmplx.Abs(v)
	}
	return coeffs, mags
}

// PowerDB converts a linear power ratio to decibels.
// Zero or negative input maps to -Inf.
func PowerDB(p float64) float64 {
	if p <= 0 {
		return math.Inf(-1)
	}
	return 10 * math.Log10(p)
}

// MeanPower returns the mean of |s[n]|^2 over the block.
func MeanPower(samples []complex128) float64 {
	if len(samples) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range samples {
		sum += real(v)*real(v) + imag(v)*imag(v)
	}
	return sum / float64(len(samples))
}
