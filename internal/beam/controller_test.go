package beam

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"
)

func newTestController(t *testing.T, target float64) *Controller {
	t.Helper()
	ctl := NewController(NewSimDevice(target), DefaultConfig(), nil)
	if err := ctl.Initialize(); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	return ctl
}

func TestInitializeAssignsRoles(t *testing.T) {
	ctl := newTestController(t, 0)
	st := ctl.Status()
	if !st.Initialized {
		t.Fatalf("controller should report initialized")
	}
	if st.BBoxSerial != simBBoxSerial {
		t.Fatalf("beamformer serial %q, want %q", st.BBoxSerial, simBBoxSerial)
	}
	if st.PDSerial != simPDSerial {
		t.Fatalf("power detector serial %q, want %q", st.PDSerial, simPDSerial)
	}
	if st.Mode != ModeTX {
		t.Fatalf("mode after init %q, want TX", st.Mode)
	}
	if st.OperatingGHz != 28 {
		t.Fatalf("operating frequency %v, want 28", st.OperatingGHz)
	}
	if st.GainMax != 15 {
		t.Fatalf("gain max %v, want 15 from the TX gain range", st.GainMax)
	}
}

func TestUseBeforeInitialize(t *testing.T) {
	ctl := NewController(NewSimDevice(0), DefaultConfig(), nil)
	if err := ctl.SetBeamAngle(0, 0); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}
	if err := ctl.SetMode("RX"); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}
	if _, err := ctl.MeasurePower(0, 0); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}
}

func TestSetBeamAngleBoundaries(t *testing.T) {
	ctl := newTestController(t, 0)

	for _, theta := range []float64{-45, 0, 45} {
		if err := ctl.SetBeamAngle(theta, 0); err != nil {
			t.Fatalf("theta %v should be accepted: %v", theta, err)
		}
	}
	if err := ctl.SetBeamAngle(0, 180); err != nil {
		t.Fatalf("phi 180 should be accepted: %v", err)
	}

	for _, theta := range []float64{-46, 46, 90} {
		if err := ctl.SetBeamAngle(theta, 0); err == nil {
			t.Fatalf("theta %v should be rejected", theta)
		}
	}
	for _, phi := range []float64{45, 90, 179.9, -180} {
		if err := ctl.SetBeamAngle(0, phi); err == nil {
			t.Fatalf("phi %v should be rejected", phi)
		}
	}

	// Rejected commands must leave the last accepted state untouched.
	if err := ctl.SetBeamAngle(30, 0); err != nil {
		t.Fatalf("steer: %v", err)
	}
	_ = ctl.SetBeamAngle(60, 0)
	st := ctl.Status()
	if st.Theta != 30 || st.Phi != 0 {
		t.Fatalf("state changed by rejected command: theta %v phi %v", st.Theta, st.Phi)
	}
}

func TestMeasurePowerFindsTarget(t *testing.T) {
	target := 15.0
	ctl := newTestController(t, target)
	if err := ctl.SetMode("RX"); err != nil {
		t.Fatalf("rx mode: %v", err)
	}

	best, bestPower := 0.0, math.Inf(-1)
	for theta := -45.0; theta <= 45; theta += 5 {
		p, err := ctl.MeasurePower(theta, 0)
		if err != nil {
			t.Fatalf("measure at %v: %v", theta, err)
		}
		if p > bestPower {
			best, bestPower = theta, p
		}
	}
	if math.Abs(best-target) > 5 {
		t.Fatalf("power peak at %v, simulated target at %v", best, target)
	}

	// The rear hemisphere is heavily attenuated in the simulator.
	rear, err := ctl.MeasurePower(best, 180)
	if err != nil {
		t.Fatalf("rear measure: %v", err)
	}
	if rear >= bestPower-20 {
		t.Fatalf("rear power %v should be far below front peak %v", rear, bestPower)
	}
}

func TestSetModeRejectsUnknown(t *testing.T) {
	ctl := newTestController(t, 0)
	if err := ctl.SetMode("FDX"); err == nil {
		t.Fatalf("unknown mode should be rejected")
	}
	if err := ctl.SetMode("rx"); err != nil {
		t.Fatalf("lowercase mode should be accepted: %v", err)
	}
	if st := ctl.Status(); st.Mode != ModeRX {
		t.Fatalf("mode %q, want RX", st.Mode)
	}
}

func TestEmergencyStop(t *testing.T) {
	ctl := newTestController(t, 0)
	if err := ctl.SetBeamAngle(40, 180); err != nil {
		t.Fatalf("steer: %v", err)
	}
	if err := ctl.EmergencyStop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	st := ctl.Status()
	if st.Theta != 0 || st.Phi != 0 {
		t.Fatalf("stop should return to boresight, got theta %v phi %v", st.Theta, st.Phi)
	}
}

// flakyDevice fails its first scans to exercise the retry policy.
type flakyDevice struct {
	*SimDevice
	mu       sync.Mutex
	failures int
}

func (d *flakyDevice) Scan() ([]DeviceInfo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failures > 0 {
		d.failures--
		return nil, fmt.Errorf("transient bus error")
	}
	return d.SimDevice.Scan()
}

func TestInitializeRetriesScan(t *testing.T) {
	dev := &flakyDevice{SimDevice: NewSimDevice(0), failures: 2}
	cfg := DefaultConfig()
	cfg.RetryInterval = time.Millisecond
	ctl := NewController(dev, cfg, nil)
	if err := ctl.Initialize(); err != nil {
		t.Fatalf("initialize should survive transient scan failures: %v", err)
	}
}

func TestInitializeGivesUpAfterRetries(t *testing.T) {
	dev := &flakyDevice{SimDevice: NewSimDevice(0), failures: 10}
	cfg := DefaultConfig()
	cfg.ScanRetries = 2
	cfg.RetryInterval = time.Millisecond
	ctl := NewController(dev, cfg, nil)
	if err := ctl.Initialize(); err == nil {
		t.Fatalf("initialize should fail once retries are exhausted")
	}
}

// slowDevice delays beam commands to exercise the bounded wait.
type slowDevice struct {
	*SimDevice
	delay time.Duration
}

func (d *slowDevice) SetBeamAngle(serial string, gainDB, thetaDeg, phiDeg float64) error {
	time.Sleep(d.delay)
	return d.SimDevice.SetBeamAngle(serial, gainDB, thetaDeg, phiDeg)
}

func TestCallTimeout(t *testing.T) {
	dev := &slowDevice{SimDevice: NewSimDevice(0), delay: 200 * time.Millisecond}
	cfg := DefaultConfig()
	cfg.CallTimeout = 20 * time.Millisecond
	ctl := NewController(dev, cfg, nil)
	if err := ctl.Initialize(); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if err := ctl.SetBeamAngle(10, 0); !errors.Is(err, ErrCallTimeout) {
		t.Fatalf("expected ErrCallTimeout, got %v", err)
	}
}

func TestZeroTimeoutWaitsIndefinitely(t *testing.T) {
	dev := &slowDevice{SimDevice: NewSimDevice(0), delay: 50 * time.Millisecond}
	ctl := NewController(dev, DefaultConfig(), nil)
	if err := ctl.Initialize(); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if err := ctl.SetBeamAngle(10, 0); err != nil {
		t.Fatalf("unbounded wait should complete: %v", err)
	}
}

func TestConcurrentCallsSerialized(t *testing.T) {
	ctl := newTestController(t, 0)

	var wg sync.WaitGroup
	errs := make(chan error, 40)
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			theta := float64(i%19*5 - 45)
			errs <- ctl.SetBeamAngle(theta, 0)
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent steer: %v", err)
		}
	}
	st := ctl.Status()
	if st.Theta < -45 || st.Theta > 45 {
		t.Fatalf("final state outside scan range: %v", st.Theta)
	}
}
