// chirpgen generates a single chirp waveform, prints its measured
// characteristics and optionally persists it for replay.
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"github.com/tmylab/goisac/internal/chirp"
	"github.com/tmylab/goisac/internal/config"
	"github.com/tmylab/goisac/internal/sigio"
)

func main() {
	var (
		configPath = pflag.String("config", "", "configuration file (json or yaml); defaults used when empty")
		duration   = pflag.Float64("duration", 0, "chirp duration in seconds (0 = config default)")
		bandwidth  = pflag.Float64("bandwidth", 0, "sweep bandwidth in Hz (0 = config default)")
		direction  = pflag.String("direction", "up", "sweep direction: up or down")
		law        = pflag.String("law", "linear", "sweep law: linear, quadratic, logarithmic, exponential")
		alpha      = pflag.Float64("alpha", 2.0, "nonlinearity coefficient for nonlinear laws")
		outJSON    = pflag.String("out", "", "save signal record as JSON under the data dir")
		outIQ      = pflag.String("iq", "", "save raw interleaved float32 IQ under the data dir")
		verbose    = pflag.Bool("verbose", false, "debug logging")
	)
	pflag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true, Prefix: "chirpgen"})
	if *verbose {
		logger.SetLevel(log.DebugLevel)
	}

	cfg := config.DefaultB210()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			logger.Fatal("load config", "err", err)
		}
	}
	if res := cfg.Validate(); !res.Valid {
		for _, e := range res.Errors {
			logger.Error("config", "err", e)
		}
		os.Exit(1)
	}

	gen := chirp.NewGenerator(cfg, nil)
	params := chirp.Params{
		Duration:  *duration,
		Bandwidth: *bandwidth,
		Direction: chirp.Direction(*direction),
	}

	var sig *chirp.Signal
	var err error
	if *law == "linear" {
		sig = gen.Linear(params)
	} else {
		sig, err = gen.Nonlinear(params, chirp.Law(*law), *alpha)
		if err != nil {
			logger.Fatal("generate", "err", err)
		}
	}

	a := chirp.Analyze(sig)
	fmt.Printf("samples:        %d\n", sig.Info.Samples)
	fmt.Printf("duration:       %.6f s\n", sig.Info.Duration)
	fmt.Printf("bandwidth:      %.0f Hz\n", sig.Info.Bandwidth)
	fmt.Printf("sweep:          %.0f -> %.0f Hz (%s)\n", sig.Info.StartFreq, sig.Info.StopFreq, *law)
	fmt.Printf("peak frequency: %.0f Hz\n", a.Freq.PeakFreq)
	fmt.Printf("-3 dB span:     %.0f Hz\n", a.Freq.Bandwidth3dB)
	fmt.Printf("centroid:       %.0f Hz\n", a.Freq.SpectralCentroid)
	fmt.Printf("mean power:     %.3f\n", a.Time.Power)

	store := sigio.NewStore(cfg)
	if *outJSON != "" {
		path, err := store.SaveJSON(*outJSON, sigio.NewRecord(sig))
		if err != nil {
			logger.Fatal("save json", "err", err)
		}
		logger.Info("signal record written", "path", path)
	}
	if *outIQ != "" {
		path, err := store.WriteIQ(*outIQ, sig.Samples)
		if err != nil {
			logger.Fatal("save iq", "err", err)
		}
		logger.Info("iq capture written", "path", path)
	}
}
