package isac

import (
	"math/cmplx"
	"time"
)

// BitResult is one decoded bit, ephemeral like a radar detection.
type BitResult struct {
	Bit           int       `json:"bit"`
	MeanPhaseStep float64   `json:"mean_phase_step"`
	Timestamp     time.Time `json:"timestamp"`
}

// CommProcessor classifies the sweep direction of a received chirp block as
// a single bit: a rising instantaneous frequency (positive mean phase step)
// decodes as 0, a falling one as 1. There is no synchronization and no
// error checking; one block, one bit.
type CommProcessor struct{}

// NewCommProcessor builds a direction classifier.
func NewCommProcessor() *CommProcessor { return &CommProcessor{} }

// Process decodes one bit from the block. ok is false for blocks shorter
// than MinBlockSamples.
func (p *CommProcessor) Process(block []complex128) (BitResult, bool) {
	if len(block) < MinBlockSamples {
		return BitResult{}, false
	}

	// Per-step phase advance, wrapped to (-pi, pi] through the conjugate
	// product. Subtracting raw angles instead would telescope into the
	// endpoint difference and carry no direction information.
	sum := 0.0
	for i := 1; i < len(block); i++ {
		sum += cmplx.Phase(block[i] * cmplx.Conj(block[i-1]))
	}
	mean := sum / float64(len(block)-1)

	bit := 1
	if mean > 0 {
		bit = 0
	}
	return BitResult{Bit: bit, MeanPhaseStep: mean, Timestamp: time.Now()}, true
}
