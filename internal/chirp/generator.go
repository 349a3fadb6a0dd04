// Package chirp synthesizes swept-frequency waveforms for the ISAC testbed:
// linear and nonlinear sweeps, multi-chirp composites, data-to-chirp encoding
// and calibrated noise injection. Every call allocates and returns fresh
// buffers, so a single Generator may be shared across goroutines.
package chirp

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
	"math/rand"

	"github.com/tmylab/goisac/internal/config"
	"github.com/tmylab/goisac/internal/dsp"
)

// ErrInvalidParameter reports an unusable waveform parameter, such as an
// unknown sweep law or a zero nonlinearity coefficient.
var ErrInvalidParameter = errors.New("invalid chirp parameter")

// Direction selects the sweep sense of a linear chirp.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// Law selects the frequency trajectory of a nonlinear chirp.
type Law string

const (
	Quadratic   Law = "quadratic"
	Logarithmic Law = "logarithmic"
	Exponential Law = "exponential"
)

// Encoding selects which waveform dimension carries one data bit.
type Encoding string

const (
	ByDirection Encoding = "direction"
	ByFrequency Encoding = "frequency"
	ByPhase     Encoding = "phase"
	ByDuration  Encoding = "duration"
)

// Params defines one chirp. Zero-valued fields are filled from the
// generator's defaults.
type Params struct {
	Duration   float64 // seconds
	Bandwidth  float64 // Hz
	SampleRate float64 // Hz
	StartFreq  float64 // Hz, relative to carrier
	Direction  Direction
}

// Info is the flat parameter record attached to a generated signal. It is
// what gets persisted alongside the sample arrays.
type Info struct {
	Duration   float64   `json:"duration"`
	Bandwidth  float64   `json:"bandwidth"`
	StartFreq  float64   `json:"start_freq"`
	StopFreq   float64   `json:"stop_freq"`
	SampleRate float64   `json:"sample_rate"`
	Samples    int       `json:"samples"`
	ChirpRate  float64   `json:"chirp_rate"`
	Direction  Direction `json:"direction,omitempty"`
	Law        Law       `json:"law,omitempty"`
	Alpha      float64   `json:"alpha,omitempty"`
}

// Signal is one generated chirp: complex baseband samples, the instantaneous
// frequency at each sample, and the parameters that produced it. A Signal is
// immutable once returned.
type Signal struct {
	Samples []complex128
	Freq    []float64
	Info    Info
}

// Windowed returns a copy of the samples tapered by a Hann window.
func (s *Signal) Windowed() []complex128 {
	return dsp.ApplyWindow(s.Samples, dsp.Hann(len(s.Samples)))
}

// Generator produces chirp signals using configured defaults for any
// parameter the caller leaves zero.
type Generator struct {
	def Params
	rng *rand.Rand
}

// NewGenerator builds a generator whose defaults come from the testbed
// configuration. rng drives noise injection and randomized multi-chirp
// spacing; pass nil for a fixed-seed source.
func NewGenerator(cfg config.B210Config, rng *rand.Rand) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &Generator{
		def: Params{
			Duration:   cfg.ChirpDuration,
			Bandwidth:  cfg.ChirpBandwidth,
			SampleRate: cfg.SampleRate,
			Direction:  Up,
		},
		rng: rng,
	}
}

func (g *Generator) fill(p Params) Params {
	if p.Duration == 0 {
		p.Duration = g.def.Duration
	}
	if p.Bandwidth == 0 {
		p.Bandwidth = g.def.Bandwidth
	}
	if p.SampleRate == 0 {
		p.SampleRate = g.def.SampleRate
	}
	if p.Direction == "" {
		p.Direction = Up
	}
	return p
}

// Linear synthesizes a linear frequency sweep. The instantaneous frequency is
// f(t) = f0 + k*t with k = ±B/T, and the phase is its exact integral
// phi(t) = 2*pi*(f0*t + k*t^2/2).
func (g *Generator) Linear(p Params) *Signal {
	p = g.fill(p)
	n := int(p.Duration * p.SampleRate)
	dt := 1 / p.SampleRate

	k := p.Bandwidth / p.Duration
	stop := p.StartFreq + p.Bandwidth
	if p.Direction == Down {
		k = -k
		stop = p.StartFreq - p.Bandwidth
	}

	samples := make([]complex128, n)
	freq := make([]float64, n)
	for i := 0; i < n; i++ {
		t := float64(i) * dt
		freq[i] = p.StartFreq + k*t
		phase := 2 * math.Pi * (p.StartFreq*t + 0.5*k*t*t)
		samples[i] = cmplx.Exp(complex(0, phase))
	}

	return &Signal{
		Samples: samples,
		Freq:    freq,
		Info: Info{
			Duration:   p.Duration,
			Bandwidth:  p.Bandwidth,
			StartFreq:  p.StartFreq,
			StopFreq:   stop,
			SampleRate: p.SampleRate,
			Samples:    n,
			ChirpRate:  k,
			Direction:  p.Direction,
		},
	}
}

// Nonlinear synthesizes a chirp whose frequency follows the chosen law.
// Each law uses a closed-form phase integral; the phase is never obtained by
// numerically accumulating per-sample frequency.
//
//	quadratic:   f(t) = k*t^alpha            phi = 2*pi*k*t^(alpha+1)/(alpha+1)
//	logarithmic: f(t) = k*ln(1+alpha*t)      phi = 2*pi*k*((1+alpha*t)*ln(1+alpha*t)-alpha*t)/alpha
//	exponential: f(t) = k*(e^(alpha*t)-1)    phi = 2*pi*k*(e^(alpha*t)/alpha - t)
//
// The logarithmic and exponential laws are undefined at alpha == 0 and fail
// with ErrInvalidParameter instead of producing NaN samples.
func (g *Generator) Nonlinear(p Params, law Law, alpha float64) (*Signal, error) {
	p = g.fill(p)
	n := int(p.Duration * p.SampleRate)
	dt := 1 / p.SampleRate

	var k float64
	var freqAt, phaseAt func(t float64) float64

	switch law {
	case Quadratic:
		k = p.Bandwidth / math.Pow(p.Duration, alpha)
		freqAt = func(t float64) float64 { return k * math.Pow(t, alpha) }
		phaseAt = func(t float64) float64 {
			return 2 * math.Pi * k * math.Pow(t, alpha+1) / (alpha + 1)
		}
	case Logarithmic:
		if alpha == 0 {
			return nil, fmt.Errorf("%w: alpha must be nonzero for a logarithmic sweep", ErrInvalidParameter)
		}
		k = p.Bandwidth / math.Log(1+alpha*p.Duration)
		freqAt = func(t float64) float64 { return k * math.Log(1+alpha*t) }
		phaseAt = func(t float64) float64 {
			u := 1 + alpha*t
			return 2 * math.Pi * k * (u*math.Log(u) - alpha*t) / alpha
		}
	case Exponential:
		if alpha == 0 {
			return nil, fmt.Errorf("%w: alpha must be nonzero for an exponential sweep", ErrInvalidParameter)
		}
		k = p.Bandwidth / (math.Exp(alpha*p.Duration) - 1)
		freqAt = func(t float64) float64 { return k * (math.Exp(alpha*t) - 1) }
		phaseAt = func(t float64) float64 {
			return 2 * math.Pi * k * (math.Exp(alpha*t)/alpha - t)
		}
	default:
		return nil, fmt.Errorf("%w: unknown sweep law %q", ErrInvalidParameter, law)
	}

	samples := make([]complex128, n)
	freq := make([]float64, n)
	for i := 0; i < n; i++ {
		t := float64(i) * dt
		freq[i] = freqAt(t)
		samples[i] = cmplx.Exp(complex(0, phaseAt(t)))
	}

	return &Signal{
		Samples: samples,
		Freq:    freq,
		Info: Info{
			Duration:   p.Duration,
			Bandwidth:  p.Bandwidth,
			SampleRate: p.SampleRate,
			Samples:    n,
			Law:        law,
			Alpha:      alpha,
		},
	}, nil
}

// Spacing selects how Multi distributes sub-chirp center frequencies.
type Spacing string

const (
	EqualSpacing  Spacing = "equal"
	RandomSpacing Spacing = "random"
)

// Multi partitions the default bandwidth across count sub-chirps, generates
// each with alternating sweep direction and sums them samplewise. The
// composite has the same length as a single chirp.
func (g *Generator) Multi(count int, spacing Spacing) (*Signal, []*Signal, error) {
	if count <= 0 {
		return nil, nil, fmt.Errorf("%w: sub-chirp count must be positive, got %d", ErrInvalidParameter, count)
	}
	total := g.def.Bandwidth
	sub := total / float64(count)

	parts := make([]*Signal, 0, count)
	for i := 0; i < count; i++ {
		var start float64
		switch spacing {
		case EqualSpacing:
			start = float64(i)*sub - total/2
		case RandomSpacing:
			start = (g.rng.Float64() - 0.5) * total
		default:
			return nil, nil, fmt.Errorf("%w: unknown spacing %q", ErrInvalidParameter, spacing)
		}
		dir := Up
		if i%2 == 1 {
			dir = Down
		}
		parts = append(parts, g.Linear(Params{StartFreq: start, Bandwidth: sub, Direction: dir}))
	}

	combined := make([]complex128, len(parts[0].Samples))
	for _, part := range parts {
		for i, v := range part.Samples {
			combined[i] += v
		}
	}

	composite := &Signal{
		Samples: combined,
		Info: Info{
			Duration:   g.def.Duration,
			Bandwidth:  total,
			SampleRate: g.def.SampleRate,
			Samples:    len(combined),
		},
	}
	return composite, parts, nil
}

// EncodeBits maps each data bit onto one chirp using the chosen encoding.
// There is no framing and no error correction: one bit, one chirp.
func (g *Generator) EncodeBits(bits []int, enc Encoding) ([]*Signal, error) {
	signals := make([]*Signal, 0, len(bits))
	for _, bit := range bits {
		if bit != 0 && bit != 1 {
			return nil, fmt.Errorf("%w: data bit must be 0 or 1, got %d", ErrInvalidParameter, bit)
		}
		var sig *Signal
		switch enc {
		case ByDirection:
			dir := Up
			if bit == 1 {
				dir = Down
			}
			sig = g.Linear(Params{Direction: dir})
		case ByFrequency:
			start := 0.0
			if bit == 1 {
				start = g.def.Bandwidth / 2
			}
			sig = g.Linear(Params{StartFreq: start})
		case ByPhase:
			sig = g.Linear(Params{})
			if bit == 1 {
				rotated := make([]complex128, len(sig.Samples))
				rot := cmplx.Exp(complex(0, math.Pi))
				for i, v := range sig.Samples {
					rotated[i] = v * rot
				}
				sig = &Signal{Samples: rotated, Freq: sig.Freq, Info: sig.Info}
			}
		case ByDuration:
			dur := g.def.Duration
			if bit == 1 {
				dur *= 1.5
			}
			sig = g.Linear(Params{Duration: dur})
		default:
			return nil, fmt.Errorf("%w: unknown encoding %q", ErrInvalidParameter, enc)
		}
		signals = append(signals, sig)
	}
	return signals, nil
}

// NoiseResult reports the outcome of AddNoise.
type NoiseResult struct {
	Noisy       []complex128
	SignalPower float64
	NoisePower  float64
	SNRdB       float64
}

// AddNoise adds complex white Gaussian noise scaled for the requested SNR.
// Noise power is signal power / 10^(snr/10), split evenly between the real
// and imaginary components.
func (g *Generator) AddNoise(samples []complex128, snrDB float64) NoiseResult {
	signalPower := dsp.MeanPower(samples)
	noisePower := signalPower / math.Pow(10, snrDB/10)
	sigma := math.Sqrt(noisePower / 2)

	noisy := make([]complex128, len(samples))
	for i, v := range samples {
		noisy[i] = v + complex(g.rng.NormFloat64()*sigma, g.rng.NormFloat64()*sigma)
	}
	return NoiseResult{
		Noisy:       noisy,
		SignalPower: signalPower,
		NoisePower:  noisePower,
		SNRdB:       snrDB,
	}
}
