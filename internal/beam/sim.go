package beam

import (
	"fmt"
	"math"
	"sync"
)

const (
	simBBoxSerial = "TMYSIM-BBOX01"
	simPDSerial   = "TMYSIM-PD01"
)

// SimDevice is a deterministic stand-in for the vendor control library. It
// models one beamformer and one power detector, and synthesizes a beam
// pattern around a fixed target direction so power sweeps have structure.
type SimDevice struct {
	mu sync.RWMutex

	initialized map[string]bool
	mode        RFMode
	freqGHz     float64
	theta       float64
	phi         float64

	// TargetAngle is the azimuth at which the simulated power pattern
	// peaks. Exported so demos and tests can place the "emitter".
	TargetAngle float64
}

// NewSimDevice builds a simulator with the emitter at the given azimuth.
func NewSimDevice(targetAngle float64) *SimDevice {
	return &SimDevice{
		initialized: make(map[string]bool),
		freqGHz:     28,
		TargetAngle: targetAngle,
	}
}

func (d *SimDevice) Scan() ([]DeviceInfo, error) {
	return []DeviceInfo{
		{Serial: simBBoxSerial, Type: "BBoxOne28", Address: "usb:0"},
		{Serial: simPDSerial, Type: "PD28", Address: "usb:1"},
	}, nil
}

func (d *SimDevice) Init(serial string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.initialized[serial] = true
	return nil
}

func (d *SimDevice) check(serial string) error {
	if !d.initialized[serial] {
		return fmt.Errorf("device %s not initialized", serial)
	}
	return nil
}

func (d *SimDevice) SetRFMode(serial string, mode RFMode) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.check(serial); err != nil {
		return err
	}
	if mode != ModeTX && mode != ModeRX {
		return fmt.Errorf("unsupported RF mode %q", mode)
	}
	d.mode = mode
	return nil
}

func (d *SimDevice) FrequencyList(serial string) ([]float64, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if err := d.check(serial); err != nil {
		return nil, err
	}
	return []float64{26, 27, 28, 29}, nil
}

func (d *SimDevice) SetOperatingFreq(serial string, freqGHz float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.check(serial); err != nil {
		return err
	}
	d.freqGHz = freqGHz
	return nil
}

func (d *SimDevice) GainRange(serial string, mode RFMode) (float64, float64, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if err := d.check(serial); err != nil {
		return 0, 0, err
	}
	if mode == ModeRX {
		return -25, 10, nil
	}
	return -20, 15, nil
}

func (d *SimDevice) SetBeamAngle(serial string, gainDB, thetaDeg, phiDeg float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.check(serial); err != nil {
		return err
	}
	d.theta = thetaDeg
	d.phi = phiDeg
	return nil
}

// ReadPower returns a quadratic beam pattern around TargetAngle with a
// deterministic ripple, in dBm.
func (d *SimDevice) ReadPower(serial string, freqGHz float64) (float64, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if err := d.check(serial); err != nil {
		return 0, err
	}
	delta := d.theta - d.TargetAngle
	if d.phi == 180 {
		// Rear hemisphere: strong attenuation regardless of azimuth.
		return -60 + 0.1*math.Cos(d.theta/7), nil
	}
	power := -10 - 0.02*delta*delta + 0.3*math.Cos(d.theta/5)
	return power, nil
}
