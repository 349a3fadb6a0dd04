package dsp

import (
	"math"
	"testing"
)

func TestSpectrumPeakBin(t *testing.T) {
	n := 64
	bin := 5
	data := make([]complex128, n)
	for i := 0; i < n; i++ {
		phase := 2 * math.Pi * float64(bin) * float64(i) / float64(n)
		data[i] = complex(math.Cos(phase), math.Sin(phase))
	}
	coeffs, mags := Spectrum(data)
	if len(coeffs) != n || len(mags) != n {
		t.Fatalf("unexpected lengths %d %d", len(coeffs), len(mags))
	}
	maxIdx := 0
	for i, m := range mags {
		if m > mags[maxIdx] {
			maxIdx = i
		}
	}
	if maxIdx != bin {
		t.Fatalf("expected peak at bin %d got %d", bin, maxIdx)
	}
}

func TestSpectrumEmpty(t *testing.T) {
	coeffs, mags := Spectrum(nil)
	if len(coeffs) != 0 || len(mags) != 0 {
		t.Fatalf("expected empty spectrum for empty input")
	}
}

func TestFFTShift(t *testing.T) {
	in := []complex128{0, 1, 2, 3}
	out := FFTShift(in)
	expected := []complex128{2, 3, 0, 1}
	for i := range expected {
		if out[i] != expected[i] {
			t.Fatalf("index %d expected %v got %v", i, expected[i], out[i])
		}
	}
}

func TestFFTFreqs(t *testing.T) {
	freqs := FFTFreqs(4, 1000)
	expected := []float64{0, 250, -500, -250}
	for i := range expected {
		if freqs[i] != expected[i] {
			t.Fatalf("bin %d expected %v got %v", i, expected[i], freqs[i])
		}
	}
	if got := FFTFreqs(0, 1000); len(got) != 0 {
		t.Fatalf("expected empty freqs for n=0")
	}
}

func TestPowerDB(t *testing.T) {
	if db := PowerDB(100); math.Abs(db-20) > 1e-12 {
		t.Fatalf("expected 20 dB got %v", db)
	}
	if db := PowerDB(0); !math.IsInf(db, -1) {
		t.Fatalf("expected -Inf for zero power, got %v", db)
	}
}

func TestMeanPower(t *testing.T) {
	samples := []complex128{complex(3, 4), complex(0, 0)}
	if got := MeanPower(samples); math.Abs(got-12.5) > 1e-12 {
		t.Fatalf("expected 12.5 got %v", got)
	}
}
