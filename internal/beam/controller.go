package beam

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/charmbracelet/log"
)

// Config tunes the controller's local checks and retry behavior.
type Config struct {
	TargetFreqGHz float64
	ScanMin       float64 // lowest accepted azimuth, degrees
	ScanMax       float64 // highest accepted azimuth, degrees
	DefaultGain   float64 // used when the device reports no gain range

	// ScanRetries and RetryInterval bound the device-scan retry loop
	// during Initialize. Every other vendor call is attempted once.
	ScanRetries   uint64
	RetryInterval time.Duration

	// CallTimeout bounds the wait on each vendor call. Zero disables the
	// bound and callers wait as long as the vendor library takes.
	CallTimeout time.Duration
}

// DefaultConfig returns the standard ±45° horizontal scan setup at 28 GHz.
func DefaultConfig() Config {
	return Config{
		TargetFreqGHz: 28,
		ScanMin:       -45,
		ScanMax:       45,
		DefaultGain:   15,
		ScanRetries:   3,
		RetryInterval: 10 * time.Millisecond,
	}
}

// Status is a snapshot of the controller state.
type Status struct {
	Initialized  bool    `json:"initialized"`
	Mode         RFMode  `json:"mode"`
	Theta        float64 `json:"theta"`
	Phi          float64 `json:"phi"`
	BBoxSerial   string  `json:"bbox_serial"`
	PDSerial     string  `json:"pd_serial"`
	GainMax      float64 `json:"gain_max"`
	OperatingGHz float64 `json:"operating_ghz"`
}

// Controller validates beam commands and forwards them to the vendor
// device. Every hardware call is serialized behind one mutex; callers block
// until the lock is free, with no queueing or priority.
type Controller struct {
	mu     sync.Mutex
	dev    Device
	cfg    Config
	logger *log.Logger

	initialized  bool
	bboxSerial   string
	pdSerial     string
	mode         RFMode
	theta        float64
	phi          float64
	gainMax      float64
	operatingGHz float64
}

// NewController wires a controller to one device handle. The handle may be
// the simulator or a real SDK adapter; the controller does not care which.
func NewController(dev Device, cfg Config, logger *log.Logger) *Controller {
	if logger == nil {
		logger = log.Default()
	}
	return &Controller{dev: dev, cfg: cfg, logger: logger}
}

// call runs one vendor operation under the hardware lock, bounded by the
// configured timeout. On timeout the operation is abandoned; the vendor
// library has no cancellation hook.
func (c *Controller) call(fn func() error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cfg.CallTimeout <= 0 {
		return fn()
	}
	done := make(chan error, 1)
	go func() { done <- fn() }()
	select {
	case err := <-done:
		return err
	case <-time.After(c.cfg.CallTimeout):
		return ErrCallTimeout
	}
}

// Initialize scans for devices, assigns the beamformer and power-detector
// roles by reported type, and prepares the beamformer: TX mode, operating
// frequency and gain range. The scan itself is retried on a fixed interval
// up to ScanRetries times.
func (c *Controller) Initialize() error {
	var devices []DeviceInfo
	scan := func() error {
		var err error
		devices, err = c.dev.Scan()
		if err != nil {
			return err
		}
		if len(devices) == 0 {
			return fmt.Errorf("no devices found")
		}
		return nil
	}
	policy := backoff.WithMaxRetries(backoff.NewConstantBackOff(c.cfg.RetryInterval), c.cfg.ScanRetries)
	if err := backoff.Retry(func() error { return c.call(scan) }, policy); err != nil {
		return fmt.Errorf("device scan: %w", err)
	}

	for _, dev := range devices {
		if dev.InDFU {
			c.logger.Warn("skipping device in DFU mode", "serial", dev.Serial)
			continue
		}
		if err := c.call(func() error { return c.dev.Init(dev.Serial) }); err != nil {
			c.logger.Warn("device init failed", "serial", dev.Serial, "err", err)
			continue
		}
		switch {
		case strings.Contains(dev.Type, "PD"):
			c.setState(func() { c.pdSerial = dev.Serial })
			c.logger.Info("power detector assigned", "serial", dev.Serial)
		case strings.Contains(dev.Type, "BBox"):
			if c.bboxSerial == "" {
				c.setState(func() { c.bboxSerial = dev.Serial })
				c.logger.Info("beamformer assigned", "serial", dev.Serial, "type", dev.Type)
			}
		}
	}
	if c.bboxSerial == "" {
		return fmt.Errorf("no beamformer found among %d devices", len(devices))
	}

	if err := c.setupBBox(); err != nil {
		return fmt.Errorf("beamformer setup: %w", err)
	}

	c.setState(func() { c.initialized = true })
	c.logger.Info("beam controller ready",
		"bbox", c.bboxSerial, "pd", c.pdSerial,
		"freq_ghz", c.operatingGHz, "gain_max", c.gainMax)
	return nil
}

func (c *Controller) setupBBox() error {
	sn := c.bboxSerial

	if err := c.call(func() error { return c.dev.SetRFMode(sn, ModeTX) }); err != nil {
		return fmt.Errorf("set RF mode: %w", err)
	}
	c.setState(func() { c.mode = ModeTX })

	var freqs []float64
	if err := c.call(func() error {
		var err error
		freqs, err = c.dev.FrequencyList(sn)
		return err
	}); err != nil {
		return fmt.Errorf("frequency list: %w", err)
	}
	target := c.cfg.TargetFreqGHz
	supported := false
	for _, f := range freqs {
		if f == target {
			supported = true
			break
		}
	}
	if !supported {
		if len(freqs) == 0 {
			return fmt.Errorf("device reports no operating frequencies")
		}
		c.logger.Warn("target frequency unsupported, falling back",
			"target_ghz", target, "using_ghz", freqs[0])
		target = freqs[0]
	}
	if err := c.call(func() error { return c.dev.SetOperatingFreq(sn, target) }); err != nil {
		return fmt.Errorf("set operating frequency: %w", err)
	}
	c.setState(func() { c.operatingGHz = target })

	var gmax float64
	err := c.call(func() error {
		_, hi, err := c.dev.GainRange(sn, ModeTX)
		gmax = hi
		return err
	})
	if err != nil {
		c.logger.Warn("gain range unavailable, using default", "err", err, "gain", c.cfg.DefaultGain)
		gmax = c.cfg.DefaultGain
	}
	c.setState(func() { c.gainMax = gmax })
	return nil
}

// SetMode switches the beamformer between TX and RX.
func (c *Controller) SetMode(mode string) error {
	if !c.initialized {
		return ErrNotInitialized
	}
	var rf RFMode
	switch strings.ToUpper(mode) {
	case "TX":
		rf = ModeTX
	case "RX":
		rf = ModeRX
	default:
		return fmt.Errorf("unsupported mode %q", mode)
	}
	if err := c.call(func() error { return c.dev.SetRFMode(c.bboxSerial, rf) }); err != nil {
		c.logger.Error("set RF mode failed", "mode", rf, "err", err)
		return err
	}
	c.setState(func() { c.mode = rf })
	c.logger.Debug("RF mode set", "mode", rf)
	return nil
}

// setState applies a state mutation under the hardware lock so Status sees
// consistent snapshots.
func (c *Controller) setState(fn func()) {
	c.mu.Lock()
	fn()
	c.mu.Unlock()
}

// SetBeamAngle steers the beam after checking the two local invariants:
// theta must lie within the configured scan range and phi must be exactly
// 0 or 180.
func (c *Controller) SetBeamAngle(theta, phi float64) error {
	if !c.initialized {
		return ErrNotInitialized
	}
	if theta < c.cfg.ScanMin || theta > c.cfg.ScanMax {
		return fmt.Errorf("theta %.1f outside scan range [%.1f, %.1f]",
			theta, c.cfg.ScanMin, c.cfg.ScanMax)
	}
	if phi != 0 && phi != 180 {
		return fmt.Errorf("phi %.1f unsupported, must be 0 or 180", phi)
	}

	if err := c.call(func() error {
		return c.dev.SetBeamAngle(c.bboxSerial, c.gainMax, theta, phi)
	}); err != nil {
		c.logger.Error("set beam angle failed", "theta", theta, "phi", phi, "err", err)
		return err
	}
	c.setState(func() {
		c.theta = theta
		c.phi = phi
	})
	c.logger.Debug("beam angle set", "theta", theta, "phi", phi)
	return nil
}

// MeasurePower steers the beam to (theta, phi) and reads the power detector.
func (c *Controller) MeasurePower(theta, phi float64) (float64, error) {
	if !c.initialized {
		return 0, ErrNotInitialized
	}
	if c.pdSerial == "" {
		return 0, fmt.Errorf("no power detector available")
	}
	if err := c.SetBeamAngle(theta, phi); err != nil {
		return 0, err
	}

	var power float64
	err := c.call(func() error {
		var err error
		power, err = c.dev.ReadPower(c.pdSerial, c.operatingGHz)
		return err
	})
	if err != nil {
		c.logger.Error("power read failed", "theta", theta, "phi", phi, "err", err)
		return 0, err
	}
	c.logger.Debug("power measured", "theta", theta, "phi", phi, "dbm", power)
	return power, nil
}

// EmergencyStop steers the beam back to boresight.
func (c *Controller) EmergencyStop() error {
	c.logger.Warn("emergency stop, steering to boresight")
	return c.SetBeamAngle(0, 0)
}

// Status returns a snapshot of the controller state.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Status{
		Initialized:  c.initialized,
		Mode:         c.mode,
		Theta:        c.theta,
		Phi:          c.phi,
		BBoxSerial:   c.bboxSerial,
		PDSerial:     c.pdSerial,
		GainMax:      c.gainMax,
		OperatingGHz: c.operatingGHz,
	}
}
