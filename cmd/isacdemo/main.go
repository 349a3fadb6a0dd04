// isacdemo runs the full testbed pipeline without hardware: waveform
// synthesis, noise injection, the sensing and demodulation chains, the
// loopback flow graph and the simulated beam controller. Each stage
// reports pass or fail independently; the process exits non-zero when any
// stage failed.
package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"github.com/tmylab/goisac/internal/beam"
	"github.com/tmylab/goisac/internal/chirp"
	"github.com/tmylab/goisac/internal/config"
	"github.com/tmylab/goisac/internal/flow"
	"github.com/tmylab/goisac/internal/isac"
	"github.com/tmylab/goisac/internal/sigio"
	"github.com/tmylab/goisac/internal/telemetry"
)

type stage struct {
	name string
	run  func(*demo) error
}

type demo struct {
	cfg     config.B210Config
	gen     *chirp.Generator
	logger  *log.Logger
	webAddr string
}

func main() {
	var (
		configPath = pflag.String("config", "", "configuration file (json or yaml); defaults used when empty")
		webAddr    = pflag.String("web", "", "serve live results on this address, e.g. :8080")
		verbose    = pflag.Bool("verbose", false, "debug logging")
	)
	pflag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true, Prefix: "isacdemo"})
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

	d := &demo{cfg: cfg, gen: chirp.NewGenerator(cfg, nil), logger: logger, webAddr: *webAddr}

	stages := []stage{
		{"configuration validation", (*demo).stageConfig},
		{"linear chirp synthesis", (*demo).stageLinear},
		{"nonlinear sweep laws", (*demo).stageNonlinear},
		{"multi-chirp composite", (*demo).stageMulti},
		{"data encoding and demodulation", (*demo).stageCommLoopback},
		{"radar detection", (*demo).stageRadar},
		{"hybrid flow graph", (*demo).stageFlowGraph},
		{"beam steering", (*demo).stageBeam},
		{"signal persistence", (*demo).stagePersistence},
	}

	failed := 0
	for i, st := range stages {
		logger.Info(fmt.Sprintf("[%d/%d] %s", i+1, len(stages), st.name))
		if err := st.run(d); err != nil {
			logger.Error("stage failed", "stage", st.name, "err", err)
			failed++
			continue
		}
		logger.Info("stage passed", "stage", st.name)
	}

	if failed > 0 {
		logger.Error("demo finished with failures", "failed", failed, "total", len(stages))
		os.Exit(1)
	}
	logger.Info("all stages passed", "total", len(stages))
}

func (d *demo) stageConfig() error {
	res := d.cfg.Validate()
	for _, w := range res.Warnings {
		d.logger.Warn("config", "warning", w)
	}
	if !res.Valid {
		return fmt.Errorf("invalid configuration: %v", res.Errors)
	}
	d.logger.Info("configuration verified",
		"sample_rate", d.cfg.SampleRate,
		"range_resolution_m", fmt.Sprintf("%.2f", d.cfg.RangeResolution()),
		"max_range_m", fmt.Sprintf("%.0f", d.cfg.MaxRange()))

	// Validation must flag a rate beyond the hardware ceiling.
	hot := d.cfg
	hot.SampleRate = hot.Limits.MaxSampleRate * 2
	if hot.Validate().Valid {
		return fmt.Errorf("over-limit sample rate passed validation")
	}
	return nil
}

func (d *demo) stageLinear() error {
	for _, dir := range []chirp.Direction{chirp.Up, chirp.Down} {
		sig := d.gen.Linear(chirp.Params{Direction: dir})
		want := int(d.cfg.ChirpDuration * d.cfg.SampleRate)
		if sig.Info.Samples != want {
			return fmt.Errorf("%s chirp: %d samples, want %d", dir, sig.Info.Samples, want)
		}
		a := chirp.Analyze(sig)
		d.logger.Debug("chirp analyzed", "direction", dir,
			"peak_hz", a.Freq.PeakFreq, "bw3db_hz", a.Freq.Bandwidth3dB)
	}
	return nil
}

func (d *demo) stageNonlinear() error {
	for _, law := range []chirp.Law{chirp.Quadratic, chirp.Logarithmic, chirp.Exponential} {
		sig, err := d.gen.Nonlinear(chirp.Params{}, law, 2.0)
		if err != nil {
			return fmt.Errorf("%s law: %w", law, err)
		}
		d.logger.Debug("nonlinear chirp", "law", law, "samples", sig.Info.Samples)
	}
	// Zero alpha has no closed-form phase for these laws and must refuse.
	if _, err := d.gen.Nonlinear(chirp.Params{}, chirp.Logarithmic, 0); err == nil {
		return fmt.Errorf("alpha=0 accepted for logarithmic law")
	}
	return nil
}

func (d *demo) stageMulti() error {
	composite, parts, err := d.gen.Multi(4, chirp.EqualSpacing)
	if err != nil {
		return err
	}
	if len(parts) != 4 {
		return fmt.Errorf("got %d component chirps, want 4", len(parts))
	}
	d.logger.Debug("composite built", "samples", composite.Info.Samples,
		"total_bandwidth", composite.Info.Bandwidth)
	return nil
}

func (d *demo) stageCommLoopback() error {
	bits := []int{0, 1, 1, 0, 1, 0, 0, 1}
	signals, err := d.gen.EncodeBits(bits, chirp.ByDirection)
	if err != nil {
		return err
	}

	proc := isac.NewCommProcessor()
	errors := 0
	for i, sig := range signals {
		noisy := d.gen.AddNoise(sig.Samples, 15).Noisy
		res, ok := proc.Process(noisy)
		if !ok {
			return fmt.Errorf("bit %d: block rejected", i)
		}
		if res.Bit != bits[i] {
			errors++
		}
	}
	if errors > 0 {
		return fmt.Errorf("%d of %d bits decoded wrong at 15 dB SNR", errors, len(bits))
	}
	d.logger.Info("bitstream recovered", "bits", len(bits), "snr_db", 15)
	return nil
}

func (d *demo) stageRadar() error {
	// A short chirp keeps the O(n^2) correlation quick here.
	sig := d.gen.Linear(chirp.Params{Duration: 100e-6})
	block := d.gen.AddNoise(sig.Samples, 20).Noisy

	radar := isac.NewRadarProcessor(d.cfg.SampleRate, 0)
	dets := radar.Process(block)
	if len(dets) == 0 {
		return fmt.Errorf("no detection on a clean chirp block")
	}
	d.logger.Info("targets detected", "count", len(dets),
		"first_range_m", fmt.Sprintf("%.1f", dets[0].RangeMeters))

	// Short blocks must be ignored, not processed.
	if got := radar.Process(block[:isac.MinBlockSamples-1]); got != nil {
		return fmt.Errorf("short block produced %d detections", len(got))
	}
	return nil
}

func (d *demo) stageFlowGraph() error {
	src, err := flow.NewSource(d.gen, flow.ModeHybrid, chirp.ByDirection)
	if err != nil {
		return err
	}
	src.PushBits(1, 0, 1, 1, 0, 0, 1, 0)
	src.SetBeamAngles(d.cfg.ScanAngles)

	hub, err := telemetry.NewHub(200)
	if err != nil {
		return err
	}
	reporters := telemetry.MultiReporter{hub, telemetry.NewLogReporter(d.logger)}
	proc := flow.NewProcessor(
		isac.NewRadarProcessor(d.cfg.SampleRate, 0),
		isac.NewCommProcessor(),
		reporters,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if d.webAddr != "" {
		go telemetry.NewWebServer(d.webAddr, hub, d.logger).Start(ctx)
		d.logger.Info("live results", "url", "http://localhost"+d.webAddr+"/api/results")
	}

	gcfg := flow.DefaultGraphConfig()
	graph := flow.NewGraph(gcfg, src, proc, d.gen, d.logger)
	if err := graph.Run(ctx, 40); err != nil {
		return err
	}

	ss, ps := src.Stats(), proc.Stats()
	d.logger.Info("graph statistics",
		"chirps", ss.ChirpsGenerated, "radar_chirps", ss.RadarChirps,
		"bits_modulated", ss.BitsModulated, "blocks", ps.BlocksProcessed,
		"detections", ps.Detections, "bits_decoded", ps.BitsDecoded)
	if ps.BlocksProcessed == 0 {
		return fmt.Errorf("graph processed no blocks")
	}
	if len(hub.History()) == 0 {
		return fmt.Errorf("no results reached the telemetry hub")
	}
	return nil
}

func (d *demo) stageBeam() error {
	ctl := beam.NewController(beam.NewSimDevice(-20), beam.DefaultConfig(), d.logger)
	if err := ctl.Initialize(); err != nil {
		return err
	}
	defer ctl.EmergencyStop()

	if err := ctl.SetBeamAngle(30, 180); err != nil {
		return fmt.Errorf("rear steering: %w", err)
	}
	if err := ctl.SetBeamAngle(50, 0); err == nil {
		return fmt.Errorf("azimuth beyond scan range accepted")
	}
	if err := ctl.SetBeamAngle(0, 45); err == nil {
		return fmt.Errorf("unsupported elevation accepted")
	}

	if err := ctl.SetMode("RX"); err != nil {
		return err
	}
	best, bestPower := 0.0, math.Inf(-1)
	for theta := -45.0; theta <= 45; theta += 5 {
		p, err := ctl.MeasurePower(theta, 0)
		if err != nil {
			return err
		}
		if p > bestPower {
			best, bestPower = theta, p
		}
	}
	d.logger.Info("scan complete", "peak_theta", best,
		"peak_dbm", fmt.Sprintf("%.2f", bestPower))
	if math.Abs(best-(-20)) > 5 {
		return fmt.Errorf("scan peak at %.0f deg, simulated target at -20", best)
	}
	return nil
}

func (d *demo) stagePersistence() error {
	sig := d.gen.Linear(chirp.Params{})
	store := sigio.NewStore(d.cfg)

	path, err := store.SaveJSON("demo_chirp.json", sigio.NewRecord(sig))
	if err != nil {
		return err
	}
	rec, err := store.LoadJSON("demo_chirp.json")
	if err != nil {
		return err
	}
	if got := len(rec.Samples()); got != sig.Info.Samples {
		return fmt.Errorf("round trip lost samples: %d != %d", got, sig.Info.Samples)
	}
	if rec.Info != sig.Info {
		return fmt.Errorf("round trip changed parameters")
	}

	iqPath, err := store.WriteIQ("demo_chirp.iq", sig.Samples)
	if err != nil {
		return err
	}
	back, err := store.ReadIQ("demo_chirp.iq")
	if err != nil {
		return err
	}
	if len(back) != len(sig.Samples) {
		return fmt.Errorf("iq round trip lost samples")
	}
	d.logger.Info("signal persisted", "json", path, "iq", iqPath)
	return nil
}
