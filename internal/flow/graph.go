package flow

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tmylab/goisac/internal/chirp"
)

// GraphConfig tunes the loopback run loop.
type GraphConfig struct {
	BlockSize int           // samples per iteration
	Interval  time.Duration // pacing between blocks; zero runs flat out
	SNRdB     float64       // channel noise injected between source and processor
	AddNoise  bool
}

// DefaultGraphConfig paces blocks slowly enough to watch the log output.
func DefaultGraphConfig() GraphConfig {
	return GraphConfig{
		BlockSize: 4096,
		Interval:  50 * time.Millisecond,
		SNRdB:     20,
		AddNoise:  true,
	}
}

// Graph connects a source to a processor through a simulated loopback
// channel. It stands in for the hardware path during bench-free runs.
type Graph struct {
	cfg    GraphConfig
	src    *Source
	proc   *Processor
	gen    *chirp.Generator
	logger *log.Logger
}

// NewGraph assembles a loopback graph. The generator is used only for
// channel noise injection and may be nil when AddNoise is off.
func NewGraph(cfg GraphConfig, src *Source, proc *Processor, gen *chirp.Generator, logger *log.Logger) *Graph {
	if logger == nil {
		logger = log.Default()
	}
	if cfg.BlockSize <= 0 {
		cfg.BlockSize = DefaultGraphConfig().BlockSize
	}
	return &Graph{cfg: cfg, src: src, proc: proc, gen: gen, logger: logger}
}

// Run pumps blocks from source to processor until the context is done or
// maxBlocks iterations have completed. maxBlocks <= 0 means run until
// cancelled.
func (g *Graph) Run(ctx context.Context, maxBlocks int) error {
	var tick <-chan time.Time
	if g.cfg.Interval > 0 {
		t := time.NewTicker(g.cfg.Interval)
		defer t.Stop()
		tick = t.C
	}

	g.logger.Info("flow graph started",
		"block_size", g.cfg.BlockSize, "noise", g.cfg.AddNoise, "snr_db", g.cfg.SNRdB)

	for n := 0; maxBlocks <= 0 || n < maxBlocks; n++ {
		select {
		case <-ctx.Done():
			g.logger.Info("flow graph stopped", "blocks", n)
			return ctx.Err()
		default:
		}

		block, err := g.src.Read(g.cfg.BlockSize)
		if err != nil {
			return err
		}
		if g.cfg.AddNoise && g.gen != nil {
			block = g.gen.AddNoise(block, g.cfg.SNRdB).Noisy
		}
		g.proc.Process(block, g.src.BeamAngle())

		if tick != nil {
			select {
			case <-ctx.Done():
				g.logger.Info("flow graph stopped", "blocks", n+1)
				return ctx.Err()
			case <-tick:
			}
		}
	}

	g.logger.Info("flow graph finished", "blocks", maxBlocks)
	return nil
}
