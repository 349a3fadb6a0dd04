package isac

import (
	"math"
	"math/rand"
	"testing"

	"pgregory.net/rapid"
)

// directionChirp sweeps 0..B for bit 0 and 0..-B for bit 1, mirroring the
// direction encoding used by the transmitter.
func directionChirp(bit, n int, bandwidth, sampleRate float64) []complex128 {
	duration := float64(n) / sampleRate
	k := bandwidth / duration
	if bit == 1 {
		k = -k
	}
	out := make([]complex128, n)
	for i := 0; i < n; i++ {
		t := float64(i) / sampleRate
		phase := 2 * math.Pi * 0.5 * k * t * t
		out[i] = complex(math.Cos(phase), math.Sin(phase))
	}
	return out
}

func TestCommDecodesDirection(t *testing.T) {
	p := NewCommProcessor()
	for bit := 0; bit <= 1; bit++ {
		res, ok := p.Process(directionChirp(bit, 1000, 5e6, 30e6))
		if !ok {
			t.Fatalf("bit %d: block rejected", bit)
		}
		if res.Bit != bit {
			t.Fatalf("bit %d decoded as %d (mean phase step %v)", bit, res.Bit, res.MeanPhaseStep)
		}
		if bit == 0 && res.MeanPhaseStep <= 0 {
			t.Fatalf("up sweep should have positive mean phase step, got %v", res.MeanPhaseStep)
		}
	}
}

func TestCommShortBlockRejected(t *testing.T) {
	p := NewCommProcessor()
	if _, ok := p.Process(make([]complex128, MinBlockSamples-1)); ok {
		t.Fatalf("short block should be rejected")
	}
}

func TestCommBitstreamUnderNoise(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		bits := rapid.SliceOfN(rapid.IntRange(0, 1), 1, 16).Draw(t, "bits")
		seed := rapid.Int64().Draw(t, "seed")
		rng := rand.New(rand.NewSource(seed))

		p := NewCommProcessor()
		for i, bit := range bits {
			block := directionChirp(bit, 1000, 5e6, 30e6)
			// Light channel noise, roughly 20 dB SNR.
			for j := range block {
				block[j] += complex(rng.NormFloat64()*0.07, rng.NormFloat64()*0.07)
			}
			res, ok := p.Process(block)
			if !ok {
				t.Fatalf("bit %d rejected", i)
			}
			if res.Bit != bit {
				t.Fatalf("bit %d: sent %d decoded %d", i, bit, res.Bit)
			}
		}
	})
}
