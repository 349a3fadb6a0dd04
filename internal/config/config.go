// Package config holds the radio and waveform parameter sets for the ISAC
// testbed. Values are plain structs passed explicitly into component
// constructors; there is no process-wide configuration state.
package config

import (
	"fmt"
)

// SpeedOfLight is the propagation speed used for range conversion, in m/s.
const SpeedOfLight = 3e8

// HardwareLimits describes the verified operating envelope of a USRP B210.
type HardwareLimits struct {
	FreqMin       float64 `json:"freq_min" yaml:"freq_min"`
	FreqMax       float64 `json:"freq_max" yaml:"freq_max"`
	MaxSampleRate float64 `json:"max_sample_rate" yaml:"max_sample_rate"`
	// VerifiedSampleRate is the highest rate observed stable on real
	// hardware; rates above it validate with a warning, not an error.
	VerifiedSampleRate float64 `json:"verified_sample_rate" yaml:"verified_sample_rate"`
	MaxBandwidth       float64 `json:"max_bandwidth" yaml:"max_bandwidth"`
	TxGainMin          float64 `json:"tx_gain_min" yaml:"tx_gain_min"`
	TxGainMax          float64 `json:"tx_gain_max" yaml:"tx_gain_max"`
	RxGainMin          float64 `json:"rx_gain_min" yaml:"rx_gain_min"`
	RxGainMax          float64 `json:"rx_gain_max" yaml:"rx_gain_max"`
}

// CFARParams are declared for the radar chain but not consumed by the
// simplified peak detector. They are kept so a saved configuration matches
// the full testbed layout.
type CFARParams struct {
	Guard    [2]int  `json:"guard" yaml:"guard"`
	Training [2]int  `json:"training" yaml:"training"`
	PFA      float64 `json:"pfa" yaml:"pfa"`
}

// B210Config is the full parameter set for a B210-based ISAC node.
type B210Config struct {
	DeviceArgs   string  `json:"device_args" yaml:"device_args"`
	SampleRate   float64 `json:"sample_rate" yaml:"sample_rate"`
	CenterFreqIF float64 `json:"center_freq_if" yaml:"center_freq_if"`
	CenterFreqRF float64 `json:"center_freq_rf" yaml:"center_freq_rf"`
	TxGain       float64 `json:"tx_gain" yaml:"tx_gain"`
	RxGain       float64 `json:"rx_gain" yaml:"rx_gain"`
	TxAntenna    string  `json:"tx_antenna" yaml:"tx_antenna"`
	RxAntenna    string  `json:"rx_antenna" yaml:"rx_antenna"`

	Limits HardwareLimits `json:"limits" yaml:"limits"`

	ChirpDuration  float64 `json:"chirp_duration" yaml:"chirp_duration"`
	ChirpBandwidth float64 `json:"chirp_bandwidth" yaml:"chirp_bandwidth"`

	// Mode selects the ISAC operating mode: radar, communication or hybrid.
	Mode           string  `json:"mode" yaml:"mode"`
	RadarDutyCycle float64 `json:"radar_duty_cycle" yaml:"radar_duty_cycle"`
	CommDutyCycle  float64 `json:"comm_duty_cycle" yaml:"comm_duty_cycle"`

	BeamScanEnabled bool      `json:"beam_scan_enabled" yaml:"beam_scan_enabled"`
	ScanAngles      []float64 `json:"scan_angles" yaml:"scan_angles"`
	BeamDwellTime   float64   `json:"beam_dwell_time" yaml:"beam_dwell_time"`

	FFTSize       int     `json:"fft_size" yaml:"fft_size"`
	OverlapFactor float64 `json:"overlap_factor" yaml:"overlap_factor"`
	WindowType    string  `json:"window_type" yaml:"window_type"`

	RangeBins   int        `json:"range_bins" yaml:"range_bins"`
	DopplerBins int        `json:"doppler_bins" yaml:"doppler_bins"`
	CFAR        CFARParams `json:"cfar" yaml:"cfar"`

	Modulation string  `json:"modulation" yaml:"modulation"`
	DataRate   float64 `json:"data_rate" yaml:"data_rate"`
	FrameSize  int     `json:"frame_size" yaml:"frame_size"`

	BaseDir string `json:"base_dir" yaml:"base_dir"`
}

// TDMConfig is the time-division frame structure used by the X410 variant of
// the testbed: one frame is split between a radar slot and a comms slot with
// a guard interval, while the beamformer steps through a fixed set of beams.
type TDMConfig struct {
	FrameDuration float64 `json:"frame_duration" yaml:"frame_duration"`
	RadarSlot     float64 `json:"radar_slot" yaml:"radar_slot"`
	CommsSlot     float64 `json:"comms_slot" yaml:"comms_slot"`
	GuardTime     float64 `json:"guard_time" yaml:"guard_time"`

	NumBeams     int        `json:"num_beams" yaml:"num_beams"`
	AzimuthRange [2]float64 `json:"azimuth_range" yaml:"azimuth_range"`
	BeamDwell    float64    `json:"beam_dwell" yaml:"beam_dwell"`
	BeamSettle   float64    `json:"beam_settle" yaml:"beam_settle"`

	PRF         float64    `json:"prf" yaml:"prf"`
	RangeBins   int        `json:"range_bins" yaml:"range_bins"`
	DopplerBins int        `json:"doppler_bins" yaml:"doppler_bins"`
	CFAR        CFARParams `json:"cfar" yaml:"cfar"`
}

// DefaultB210 returns the hardware-verified B210 parameter set.
func DefaultB210() B210Config {
	return B210Config{
		DeviceArgs:   "type=b200",
		SampleRate:   30e6,
		CenterFreqIF: 2e9,
		CenterFreqRF: 28e9,
		TxGain:       20,
		RxGain:       20,
		TxAntenna:    "TX/RX",
		RxAntenna:    "RX2",
		Limits: HardwareLimits{
			FreqMin:            50e6,
			FreqMax:            6e9,
			MaxSampleRate:      56e6,
			VerifiedSampleRate: 30e6,
			MaxBandwidth:       20e6,
			TxGainMin:          0,
			TxGainMax:          89.8,
			RxGainMin:          0,
			RxGainMax:          76,
		},
		ChirpDuration:   100e-6,
		ChirpBandwidth:  20e6,
		Mode:            "hybrid",
		RadarDutyCycle:  0.7,
		CommDutyCycle:   0.3,
		BeamScanEnabled: true,
		ScanAngles:      scanGrid(-45, 45, 10),
		BeamDwellTime:   100e-3,
		FFTSize:         1024,
		OverlapFactor:   0.5,
		WindowType:      "hann",
		RangeBins:       512,
		DopplerBins:     64,
		CFAR: CFARParams{
			Guard:    [2]int{2, 2},
			Training: [2]int{8, 8},
			PFA:      1e-3,
		},
		Modulation: "chirp_bpsk",
		DataRate:   200e3,
		FrameSize:  1024,
		BaseDir:    ".",
	}
}

// DefaultTDM returns the X410 TDM-ISAC frame defaults.
func DefaultTDM() TDMConfig {
	return TDMConfig{
		FrameDuration: 10e-3,
		RadarSlot:     2e-3,
		CommsSlot:     7.85e-3,
		GuardTime:     50e-6,
		NumBeams:      9,
		AzimuthRange:  [2]float64{-45, 45},
		BeamDwell:     180e-6,
		BeamSettle:    30e-6,
		PRF:           5000,
		RangeBins:     1024,
		DopplerBins:   128,
		CFAR: CFARParams{
			Guard:    [2]int{2, 2},
			Training: [2]int{8, 8},
			PFA:      1e-3,
		},
	}
}

// RangeResolution returns the radar range resolution in meters implied by the
// chirp bandwidth.
func (c B210Config) RangeResolution() float64 {
	if c.ChirpBandwidth <= 0 {
		return 0
	}
	return SpeedOfLight / (2 * c.ChirpBandwidth)
}

// MaxRange returns the unambiguous detection range in meters.
func (c B210Config) MaxRange() float64 {
	return c.RangeResolution() * float64(c.RangeBins)
}

// ChirpSamples returns the sample count of one chirp at the configured rate.
func (c B210Config) ChirpSamples() int {
	return int(c.ChirpDuration * c.SampleRate)
}

// ValidationResult collects configuration findings. Errors make the
// configuration unusable; warnings flag values that work but degrade
// performance.
type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (r *ValidationResult) errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Validate checks the configuration against the hardware limits. It always
// returns a result and never fails hard; callers decide what to do with the
// findings.
func (c B210Config) Validate() ValidationResult {
	res := ValidationResult{}
	lim := c.Limits

	if c.SampleRate > lim.MaxSampleRate {
		res.errorf("sample rate %.1f Msps exceeds hardware maximum %.1f Msps",
			c.SampleRate/1e6, lim.MaxSampleRate/1e6)
	} else if lim.VerifiedSampleRate > 0 && c.SampleRate > lim.VerifiedSampleRate {
		res.warnf("sample rate %.1f Msps exceeds verified stable rate %.1f Msps",
			c.SampleRate/1e6, lim.VerifiedSampleRate/1e6)
	}

	if c.ChirpBandwidth > lim.MaxBandwidth {
		res.errorf("chirp bandwidth %.1f MHz exceeds hardware maximum %.1f MHz",
			c.ChirpBandwidth/1e6, lim.MaxBandwidth/1e6)
	}

	if c.CenterFreqIF < lim.FreqMin || c.CenterFreqIF > lim.FreqMax {
		res.errorf("IF frequency %.3f GHz outside hardware range %.2f-%.2f GHz",
			c.CenterFreqIF/1e9, lim.FreqMin/1e9, lim.FreqMax/1e9)
	}

	if c.TxGain < lim.TxGainMin || c.TxGain > lim.TxGainMax {
		res.errorf("TX gain %.1f dB outside hardware range %.1f-%.1f dB",
			c.TxGain, lim.TxGainMin, lim.TxGainMax)
	}
	if c.RxGain < lim.RxGainMin || c.RxGain > lim.RxGainMax {
		res.errorf("RX gain %.1f dB outside hardware range %.1f-%.1f dB",
			c.RxGain, lim.RxGainMin, lim.RxGainMax)
	}

	if float64(c.ChirpSamples()) < 10 {
		res.warnf("chirp of %d samples is too short for reliable processing", c.ChirpSamples())
	}
	if rr := c.RangeResolution(); rr > 10 {
		res.warnf("range resolution %.1f m is coarse and may degrade radar performance", rr)
	}
	if len(c.ScanAngles) > 0 && float64(len(c.ScanAngles))*c.BeamDwellTime > 5 {
		res.warnf("beam sweep of %d angles takes %.1f s, which hurts update rate",
			len(c.ScanAngles), float64(len(c.ScanAngles))*c.BeamDwellTime)
	}

	res.Valid = len(res.Errors) == 0
	return res
}

func scanGrid(from, to, step float64) []float64 {
	var angles []float64
	for a := from; a <= to; a += step {
		angles = append(angles, a)
	}
	return angles
}
