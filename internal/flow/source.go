// Package flow provides the streaming blocks of the testbed: a chirp
// source that emits the transmit waveform and a processor that runs the
// sensing and demodulation chains over received blocks. Blocks connect
// through plain sample slices so a graph can run entirely in memory,
// with no hardware attached.
package flow

import (
	"fmt"
	"sync"

	"github.com/tmylab/goisac/internal/chirp"
)

// Mode selects what the source emits.
type Mode string

const (
	ModeRadar  Mode = "radar"         // sensing chirps only
	ModeComm   Mode = "communication" // data-carrying chirps only
	ModeHybrid Mode = "hybrid"        // time-shared sensing and data
)

// hybridRadarSlots of every hybridFrameSlots chirps carry sensing
// waveforms in hybrid mode; the rest carry data.
const (
	hybridFrameSlots = 10
	hybridRadarSlots = 7
)

// SourceStats counts what the source has produced so far.
type SourceStats struct {
	ChirpsGenerated int `json:"chirps_generated"`
	RadarChirps     int `json:"radar_chirps"`
	DataChirps      int `json:"data_chirps"`
	BitsModulated   int `json:"bits_modulated"`
	BeamSteps       int `json:"beam_steps"`
}

// Source generates the transmit sample stream one chirp at a time. Data
// bits are queued with PushBits and consumed in order; when the queue runs
// dry in a data slot the source falls back to a sensing chirp so the
// stream never stalls.
type Source struct {
	mu       sync.Mutex
	gen      *chirp.Generator
	mode     Mode
	encoding chirp.Encoding

	bits    []int
	pending []complex128
	slot    int

	angles   []float64
	angleIdx int

	stats SourceStats
}

// NewSource builds a source in the given mode. The encoding applies to
// data chirps only.
func NewSource(gen *chirp.Generator, mode Mode, encoding chirp.Encoding) (*Source, error) {
	switch mode {
	case ModeRadar, ModeComm, ModeHybrid:
	default:
		return nil, fmt.Errorf("unknown source mode %q", mode)
	}
	return &Source{gen: gen, mode: mode, encoding: encoding}, nil
}

// PushBits queues data bits for modulation, one bit per chirp.
func (s *Source) PushBits(bits ...int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bits = append(s.bits, bits...)
}

// QueuedBits reports how many bits are waiting for a data slot.
func (s *Source) QueuedBits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.bits)
}

// SetBeamAngles installs the scan grid the source steps through, one step
// per sensing chirp. An empty grid pins the beam at boresight.
func (s *Source) SetBeamAngles(angles []float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.angles = append([]float64(nil), angles...)
	s.angleIdx = 0
}

// BeamAngle returns the azimuth the current chirp should be steered to.
func (s *Source) BeamAngle() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.angles) == 0 {
		return 0
	}
	return s.angles[s.angleIdx]
}

// Read fills and returns a block of n samples, generating chirps as
// needed. Leftover samples from the last chirp carry over to the next
// call so chirp boundaries need not align with block boundaries.
func (s *Source) Read(n int) ([]complex128, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]complex128, 0, n)
	for len(out) < n {
		if len(s.pending) == 0 {
			sig, err := s.nextChirp()
			if err != nil {
				return nil, err
			}
			s.pending = sig.Samples
		}
		take := n - len(out)
		if take > len(s.pending) {
			take = len(s.pending)
		}
		out = append(out, s.pending[:take]...)
		s.pending = s.pending[take:]
	}
	return out, nil
}

// Stats returns a snapshot of the production counters.
func (s *Source) Stats() SourceStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// nextChirp picks the waveform for the current slot. Caller holds the lock.
func (s *Source) nextChirp() (*chirp.Signal, error) {
	slot := s.slot
	s.slot++

	wantData := false
	switch s.mode {
	case ModeComm:
		wantData = true
	case ModeHybrid:
		wantData = slot%hybridFrameSlots >= hybridRadarSlots
	}

	if wantData && len(s.bits) > 0 {
		bit := s.bits[0]
		s.bits = s.bits[1:]
		sigs, err := s.gen.EncodeBits([]int{bit}, s.encoding)
		if err != nil {
			return nil, fmt.Errorf("encode bit: %w", err)
		}
		s.stats.ChirpsGenerated++
		s.stats.DataChirps++
		s.stats.BitsModulated++
		return sigs[0], nil
	}

	// Sensing chirp; also the fallback when the bit queue is empty.
	sig := s.gen.Linear(chirp.Params{Direction: chirp.Up})
	s.stats.ChirpsGenerated++
	s.stats.RadarChirps++
	if len(s.angles) > 0 {
		s.angleIdx = (s.angleIdx + 1) % len(s.angles)
		s.stats.BeamSteps++
	}
	return sig, nil
}
