// beamscan exercises the beam controller against the simulated mmWave
// front end: basic steering, a power sweep across the horizontal scan
// range, and a coarse-to-fine search for the strongest direction. With
// --discover it instead browses the local network for real controllers.
package main

import (
	"fmt"
	"math"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"github.com/tmylab/goisac/internal/beam"
	"github.com/tmylab/goisac/internal/discovery"
)

func main() {
	var (
		target      = pflag.Float64("target", 17, "simulated target azimuth in degrees")
		coarseStep  = pflag.Float64("coarse-step", 10, "coarse sweep step in degrees")
		fineSpan    = pflag.Float64("fine-span", 10, "half-width of the fine sweep around the coarse peak")
		fineStep    = pflag.Float64("fine-step", 1, "fine sweep step in degrees")
		callTimeout = pflag.Duration("call-timeout", 0, "bound on each vendor call; 0 disables")
		discover    = pflag.Bool("discover", false, "browse mDNS for beamformer controllers and exit")
		verbose     = pflag.Bool("verbose", false, "debug logging")
	)
	pflag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true, Prefix: "beamscan"})
	if *verbose {
		logger.SetLevel(log.DebugLevel)
	}

	if *discover {
		hosts, err := discovery.DiscoverBeamformers(3)
		if err != nil {
			logger.Fatal("discovery", "err", err)
		}
		if len(hosts) == 0 {
			logger.Info("no beamformer controllers found")
			return
		}
		for _, h := range hosts {
			fmt.Printf("%-30s %s\n", h.Instance, h.Addr())
		}
		return
	}

	cfg := beam.DefaultConfig()
	cfg.CallTimeout = *callTimeout
	ctl := beam.NewController(beam.NewSimDevice(*target), cfg, logger)
	if err := ctl.Initialize(); err != nil {
		logger.Fatal("initialize", "err", err)
	}
	defer func() {
		if err := ctl.EmergencyStop(); err != nil {
			logger.Error("stop", "err", err)
		}
	}()

	// Basic steering checks, including the rejection paths.
	for _, theta := range []float64{-45, 0, 45} {
		if err := ctl.SetBeamAngle(theta, 0); err != nil {
			logger.Fatal("steer", "theta", theta, "err", err)
		}
	}
	if err := ctl.SetBeamAngle(46, 0); err != nil {
		logger.Info("out-of-range azimuth rejected as expected", "err", err)
	}
	if err := ctl.SetBeamAngle(0, 90); err != nil {
		logger.Info("unsupported elevation rejected as expected", "err", err)
	}

	if err := ctl.SetMode("RX"); err != nil {
		logger.Fatal("rx mode", "err", err)
	}

	// Coarse sweep across the full horizontal range.
	start := time.Now()
	bestTheta, bestPower := sweep(ctl, logger, cfg.ScanMin, cfg.ScanMax, *coarseStep)
	logger.Info("coarse sweep done", "peak_theta", bestTheta, "peak_dbm",
		fmt.Sprintf("%.2f", bestPower), "elapsed", time.Since(start))

	// Fine sweep around the coarse peak, clamped to the scan range.
	lo := math.Max(cfg.ScanMin, bestTheta-*fineSpan)
	hi := math.Min(cfg.ScanMax, bestTheta+*fineSpan)
	fineTheta, finePower := sweep(ctl, logger, lo, hi, *fineStep)

	fmt.Printf("strongest direction: %.1f deg (%.2f dBm)\n", fineTheta, finePower)
	fmt.Printf("simulated target:    %.1f deg\n", *target)
	if math.Abs(fineTheta-*target) > *fineStep {
		logger.Error("fine scan missed the target", "found", fineTheta, "target", *target)
		os.Exit(1)
	}
}

// sweep measures power at each azimuth from lo to hi inclusive and returns
// the strongest direction.
func sweep(ctl *beam.Controller, logger *log.Logger, lo, hi, step float64) (float64, float64) {
	bestTheta := lo
	bestPower := math.Inf(-1)
	for theta := lo; theta <= hi+1e-9; theta += step {
		p, err := ctl.MeasurePower(theta, 0)
		if err != nil {
			logger.Error("measure", "theta", theta, "err", err)
			continue
		}
		logger.Debug("measured", "theta", theta, "dbm", fmt.Sprintf("%.2f", p))
		if p > bestPower {
			bestPower = p
			bestTheta = theta
		}
	}
	return bestTheta, bestPower
}
