// Package isac contains the simplified sensing and communication processors
// that operate on received sample blocks. Both are stateless per call.
package isac

import (
	"math/cmplx"
	"time"

	"github.com/tmylab/goisac/internal/config"
)

// MinBlockSamples is the smallest block either processor will act on;
// shorter blocks carry too little of a chirp to be meaningful.
const MinBlockSamples = 100

// DefaultThresholdFraction is the detection threshold as a fraction of the
// correlation peak magnitude.
const DefaultThresholdFraction = 0.5

// Detection is one estimated target, ephemeral and recomputed per block.
type Detection struct {
	RangeMeters float64   `json:"range_meters"`
	PeakIndex   int       `json:"peak_index"`
	Magnitude   float64   `json:"magnitude"`
	Timestamp   time.Time `json:"timestamp"`
}

// RadarProcessor runs a matched-filter style detector over sample blocks:
// full autocorrelation, threshold peak picking and a one-way range
// conversion. It performs no Doppler processing and no CFAR thresholding;
// the CFAR parameters declared in configuration are deliberately unused
// here, and the detector assumes a single dominant scatterer per block.
type RadarProcessor struct {
	sampleRate float64
	threshold  float64
}

// NewRadarProcessor builds a detector for blocks captured at the given
// sample rate. A zero threshold selects DefaultThresholdFraction.
func NewRadarProcessor(sampleRate, threshold float64) *RadarProcessor {
	if threshold <= 0 {
		threshold = DefaultThresholdFraction
	}
	return &RadarProcessor{sampleRate: sampleRate, threshold: threshold}
}

// Process runs detection over one block. It returns nil when the block is
// shorter than MinBlockSamples or no correlation peak clears the threshold.
func (p *RadarProcessor) Process(block []complex128) []Detection {
	if len(block) < MinBlockSamples {
		return nil
	}

	corr := autocorrelate(block)
	peaks := detectPeaks(corr, p.threshold)
	if len(peaks) == 0 {
		return nil
	}

	now := time.Now()
	detections := make([]Detection, 0, len(peaks))
	for _, peak := range peaks {
		delay := float64(peak.index) / p.sampleRate
		detections = append(detections, Detection{
			RangeMeters: delay * config.SpeedOfLight / 2,
			PeakIndex:   peak.index,
			Magnitude:   peak.magnitude,
			Timestamp:   now,
		})
	}
	return detections
}

// autocorrelate computes the full autocorrelation of the block: output
// length 2n-1, with output index m covering lag m-(n-1).
func autocorrelate(x []complex128) []complex128 {
	n := len(x)
	out := make([]complex128, 2*n-1)
	for m := 0; m < 2*n-1; m++ {
		lag := m - (n - 1)
		var sum complex128
		for i := 0; i < n; i++ {
			j := i + lag
			if j < 0 || j >= n {
				continue
			}
			sum += x[j] * cmplx.Conj(x[i])
		}
		out[m] = sum
	}
	return out
}

type peak struct {
	index     int
	magnitude float64
}

// detectPeaks returns strict local maxima whose magnitude exceeds the
// fraction of the global maximum.
func detectPeaks(corr []complex128, fraction float64) []peak {
	mags := make([]float64, len(corr))
	maxMag := 0.0
	for i, v := range corr {
		mags[i] = cmplx.Abs(v)
		if mags[i] > maxMag {
			maxMag = mags[i]
		}
	}
	threshold := maxMag * fraction

	var peaks []peak
	for i := 1; i < len(mags)-1; i++ {
		if mags[i] > threshold && mags[i] > mags[i-1] && mags[i] > mags[i+1] {
			peaks = append(peaks, peak{index: i, magnitude: mags[i]})
		}
	}
	return peaks
}
