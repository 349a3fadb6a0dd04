package chirp

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/tmylab/goisac/internal/dsp"
)

// TimeStats summarizes a signal in the time domain.
type TimeStats struct {
	Duration      float64
	Samples       int
	AmplitudeMax  float64
	AmplitudeMean float64
	Power         float64
}

// FreqStats summarizes a signal's spectrum.
type FreqStats struct {
	PeakFreq         float64
	Bandwidth3dB     float64
	SpectralCentroid float64
}

// Spectrogram is a short-time power spectrum. Empty when the signal is
// shorter than one analysis segment.
type Spectrogram struct {
	Freqs []float64
	Times []float64
	Power [][]float64
}

// Analysis is the full report produced by Analyze.
type Analysis struct {
	Time        TimeStats
	Freq        FreqStats
	Spectrogram Spectrogram
	Info        Info
}

// DefaultSegmentLength is the spectrogram segment size used by Analyze.
const DefaultSegmentLength = 256

// Analyze computes time-domain statistics, a spectrum summary and a
// short-time spectrogram for the signal.
func Analyze(sig *Signal) Analysis {
	mags := make([]float64, len(sig.Samples))
	power := 0.0
	maxAmp := 0.0
	for i, v := range sig.Samples {
		m := math.Hypot(real(v), imag(v))
		mags[i] = m
		power += m * m
		if m > maxAmp {
			maxAmp = m
		}
	}
	n := len(sig.Samples)

	ts := TimeStats{
		Duration:     sig.Info.Duration,
		Samples:      n,
		AmplitudeMax: maxAmp,
	}
	if n > 0 {
		ts.AmplitudeMean = stat.Mean(mags, nil)
		ts.Power = power / float64(n)
	}

	return Analysis{
		Time:        ts,
		Freq:        analyzeSpectrum(sig),
		Spectrogram: ComputeSpectrogram(sig.Samples, sig.Info.SampleRate, DefaultSegmentLength),
		Info:        sig.Info,
	}
}

func analyzeSpectrum(sig *Signal) FreqStats {
	if len(sig.Samples) == 0 {
		return FreqStats{}
	}
	_, mags := dsp.Spectrum(sig.Samples)
	freqs := dsp.FFTFreqs(len(sig.Samples), sig.Info.SampleRate)

	peakIdx := 0
	peakMag := 0.0
	sumMag := 0.0
	centroid := 0.0
	for i, m := range mags {
		sumMag += m
		centroid += freqs[i] * m
		if m > peakMag {
			peakMag = m
			peakIdx = i
		}
	}
	if sumMag > 0 {
		centroid /= sumMag
	}

	// -3 dB span between the first and last bin above half power.
	half := peakMag / math.Sqrt2
	first, last := -1, -1
	for i, m := range mags {
		if m >= half {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	bw := 0.0
	if first >= 0 {
		bw = freqs[last] - freqs[first]
	}

	return FreqStats{
		PeakFreq:         freqs[peakIdx],
		Bandwidth3dB:     bw,
		SpectralCentroid: centroid,
	}
}

// ComputeSpectrogram slices the samples into Hann-windowed segments with 50%
// overlap and returns the power spectrum of each. Blocks shorter than one
// segment yield an empty spectrogram rather than an error, so callers that
// only need the scalar analysis still get a result.
func ComputeSpectrogram(samples []complex128, sampleRate float64, segLen int) Spectrogram {
	if segLen <= 0 || len(samples) < segLen || sampleRate <= 0 {
		return Spectrogram{}
	}
	hop := segLen / 2
	win := dsp.Hann(segLen)

	var times []float64
	var power [][]float64
	for start := 0; start+segLen <= len(samples); start += hop {
		seg := dsp.ApplyWindow(samples[start:start+segLen], win)
		_, mags := dsp.Spectrum(seg)
		row := make([]float64, len(mags))
		for i, m := range mags {
			row[i] = m * m
		}
		power = append(power, row)
		times = append(times, (float64(start)+float64(segLen)/2)/sampleRate)
	}

	return Spectrogram{
		Freqs: dsp.FFTFreqs(segLen, sampleRate),
		Times: times,
		Power: power,
	}
}
