package flow

import (
	"sync"
	"time"

	"github.com/tmylab/goisac/internal/isac"
	"github.com/tmylab/goisac/internal/telemetry"
)

// ProcessorStats counts what has flowed through the processing block.
type ProcessorStats struct {
	BlocksProcessed int `json:"blocks_processed"`
	SamplesSeen     int `json:"samples_seen"`
	Detections      int `json:"detections"`
	BitsDecoded     int `json:"bits_decoded"`
}

// Processor is a pass-through block: samples leave it untouched while a
// copy runs through the radar and demodulation chains. Results go to the
// reporter; the block itself keeps only counters.
type Processor struct {
	mu    sync.Mutex
	radar *isac.RadarProcessor
	comm  *isac.CommProcessor
	rep   telemetry.Reporter
	stats ProcessorStats
}

// NewProcessor wires the sensing and demodulation chains to a reporter.
// Either chain may be nil to disable it; a nil reporter discards results.
func NewProcessor(radar *isac.RadarProcessor, comm *isac.CommProcessor, rep telemetry.Reporter) *Processor {
	return &Processor{radar: radar, comm: comm, rep: rep}
}

// Process consumes one block and returns it unchanged. beamAngle tags the
// emitted results with the azimuth the block was captured at.
func (p *Processor) Process(block []complex128, beamAngle float64) []complex128 {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stats.BlocksProcessed++
	p.stats.SamplesSeen += len(block)
	now := time.Now()

	if p.radar != nil {
		if dets := p.radar.Process(block); len(dets) > 0 {
			p.stats.Detections += len(dets)
			p.report(telemetry.Result{
				Kind:       telemetry.KindRadar,
				Detections: dets,
				BeamAngle:  beamAngle,
				Timestamp:  now,
			})
		}
	}

	if p.comm != nil {
		if bit, ok := p.comm.Process(block); ok {
			p.stats.BitsDecoded++
			p.report(telemetry.Result{
				Kind:      telemetry.KindComm,
				Bit:       &bit,
				BeamAngle: beamAngle,
				Timestamp: now,
			})
		}
	}

	return block
}

// Stats returns a snapshot of the processing counters.
func (p *Processor) Stats() ProcessorStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

func (p *Processor) report(r telemetry.Result) {
	if p.rep != nil {
		p.rep.Report(r)
	}
}
