package config

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultB210Valid(t *testing.T) {
	res := DefaultB210().Validate()
	if !res.Valid {
		t.Fatalf("default configuration invalid: %v", res.Errors)
	}
	if len(res.Warnings) != 0 {
		t.Fatalf("default configuration should have no warnings, got %v", res.Warnings)
	}
}

func TestValidateSampleRate(t *testing.T) {
	cfg := DefaultB210()
	cfg.SampleRate = 61.44e6
	res := cfg.Validate()
	if res.Valid {
		t.Fatalf("sample rate above hardware maximum should be an error")
	}

	cfg.SampleRate = 40e6
	res = cfg.Validate()
	if !res.Valid {
		t.Fatalf("rate within hardware maximum should validate: %v", res.Errors)
	}
	if len(res.Warnings) == 0 {
		t.Fatalf("rate above verified stable rate should warn")
	}
}

func TestValidateGainAndFrequency(t *testing.T) {
	cfg := DefaultB210()
	cfg.TxGain = 95
	cfg.RxGain = -1
	cfg.CenterFreqIF = 10e9
	res := cfg.Validate()
	if res.Valid {
		t.Fatalf("expected validation errors")
	}
	if len(res.Errors) != 3 {
		t.Fatalf("expected 3 errors, got %v", res.Errors)
	}
}

func TestValidateShortChirpWarns(t *testing.T) {
	cfg := DefaultB210()
	cfg.ChirpDuration = 100e-9
	res := cfg.Validate()
	if !res.Valid {
		t.Fatalf("short chirp should warn, not fail: %v", res.Errors)
	}
	found := false
	for _, w := range res.Warnings {
		if strings.Contains(w, "too short") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected short-chirp warning, got %v", res.Warnings)
	}
}

func TestDerivedQuantities(t *testing.T) {
	cfg := DefaultB210()
	if rr := cfg.RangeResolution(); math.Abs(rr-7.5) > 1e-9 {
		t.Fatalf("range resolution expected 7.5 m got %v", rr)
	}
	if mr := cfg.MaxRange(); math.Abs(mr-7.5*512) > 1e-6 {
		t.Fatalf("max range expected %v got %v", 7.5*512, mr)
	}
	if n := cfg.ChirpSamples(); n != 3000 {
		t.Fatalf("chirp samples expected 3000 got %d", n)
	}

	cfg.ChirpBandwidth = 0
	if rr := cfg.RangeResolution(); rr != 0 {
		t.Fatalf("zero bandwidth should give zero resolution, got %v", rr)
	}
}

func TestLoadOrCreateRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	created, err := LoadOrCreate(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	created.TxGain = 42
	if err := Save(path, created); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := LoadOrCreate(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if loaded.TxGain != 42 {
		t.Fatalf("expected saved gain 42, got %v", loaded.TxGain)
	}
	if loaded.SampleRate != created.SampleRate {
		t.Fatalf("sample rate changed across round trip")
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "sample_rate: 15000000\ntx_gain: 31\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.SampleRate != 15e6 {
		t.Fatalf("yaml sample rate not applied: %v", cfg.SampleRate)
	}
	if cfg.TxGain != 31 {
		t.Fatalf("yaml gain not applied: %v", cfg.TxGain)
	}
	// Fields absent from the file keep their defaults.
	if cfg.ChirpBandwidth != 20e6 {
		t.Fatalf("default bandwidth lost: %v", cfg.ChirpBandwidth)
	}
}

func TestScanGrid(t *testing.T) {
	cfg := DefaultB210()
	if len(cfg.ScanAngles) != 10 {
		t.Fatalf("expected 10 scan angles, got %d", len(cfg.ScanAngles))
	}
	if cfg.ScanAngles[0] != -45 {
		t.Fatalf("scan should start at -45, got %v", cfg.ScanAngles[0])
	}
}
