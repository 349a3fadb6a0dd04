// Package beam wraps the vendor beamformer control library behind a small
// capability interface. The controller only adds angle validation and call
// serialization; device semantics, calibration and error codes belong to the
// vendor.
package beam

import "errors"

// RFMode selects the beamformer chain direction.
type RFMode string

const (
	ModeTX RFMode = "TX"
	ModeRX RFMode = "RX"
)

// DeviceInfo describes one unit found by a device scan.
type DeviceInfo struct {
	Serial  string
	Type    string
	Address string
	InDFU   bool
}

// Device is the vendor control surface the testbed consumes, keyed by device
// serial number. Implementations: the simulator in this package, and a real
// SDK adapter supplied out of tree. Which one a Controller uses is decided
// at construction time.
type Device interface {
	Scan() ([]DeviceInfo, error)
	Init(serial string) error
	SetRFMode(serial string, mode RFMode) error
	FrequencyList(serial string) ([]float64, error)
	SetOperatingFreq(serial string, freqGHz float64) error
	GainRange(serial string, mode RFMode) (min, max float64, err error)
	SetBeamAngle(serial string, gainDB, thetaDeg, phiDeg float64) error
	ReadPower(serial string, freqGHz float64) (float64, error)
}

// ErrCallTimeout reports a vendor call that exceeded the configured bounded
// wait. The underlying call is abandoned, not canceled; the vendor library
// offers no cancellation.
var ErrCallTimeout = errors.New("vendor call timed out")

// ErrNotInitialized reports use of a controller before Initialize succeeded.
var ErrNotInitialized = errors.New("beam controller not initialized")
