package sigio

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmylab/goisac/internal/chirp"
	"github.com/tmylab/goisac/internal/config"
)

func testStore(t *testing.T) (*Store, config.B210Config) {
	t.Helper()
	cfg := config.DefaultB210()
	cfg.BaseDir = t.TempDir()
	return NewStore(cfg), cfg
}

func testSignal() *chirp.Signal {
	gen := chirp.NewGenerator(config.DefaultB210(), nil)
	return gen.Linear(chirp.Params{Duration: 10e-6})
}

func TestJSONRoundTrip(t *testing.T) {
	store, cfg := testStore(t)
	sig := testSignal()

	path, err := store.SaveJSON("capture.json", NewRecord(sig))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cfg.DataDir(), "capture.json"), path)

	rec, err := store.LoadJSON("capture.json")
	require.NoError(t, err)

	got := rec.Samples()
	require.Len(t, got, len(sig.Samples))
	for i := range got {
		assert.Equal(t, sig.Samples[i], got[i], "sample %d", i)
	}
	assert.Equal(t, sig.Info, rec.Info)
}

func TestJSONExplicitPathBypassesDataDir(t *testing.T) {
	store, _ := testStore(t)
	explicit := filepath.Join(t.TempDir(), "elsewhere.json")

	path, err := store.SaveJSON(explicit, NewRecord(testSignal()))
	require.NoError(t, err)
	assert.Equal(t, explicit, path)

	_, err = store.LoadJSON(explicit)
	require.NoError(t, err)
}

func TestIQRoundTrip(t *testing.T) {
	store, _ := testStore(t)
	sig := testSignal()

	_, err := store.WriteIQ("capture.iq", sig.Samples)
	require.NoError(t, err)

	back, err := store.ReadIQ("capture.iq")
	require.NoError(t, err)
	require.Len(t, back, len(sig.Samples))

	// float32 storage loses precision but stays well within 1e-6.
	for i := range back {
		assert.InDelta(t, real(sig.Samples[i]), real(back[i]), 1e-6, "sample %d real", i)
		assert.InDelta(t, imag(sig.Samples[i]), imag(back[i]), 1e-6, "sample %d imag", i)
	}
}

func TestRecordMismatchedArrays(t *testing.T) {
	rec := Record{Real: []float64{1, 2, 3}, Imag: []float64{4}}
	got := rec.Samples()
	require.Len(t, got, 1)
	assert.Equal(t, complex(1.0, 4.0), got[0])
}

func TestEmptyNameRejected(t *testing.T) {
	store, _ := testStore(t)
	_, err := store.SaveJSON("", Record{})
	assert.Error(t, err)
	_, err = store.ReadIQ("")
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	store, _ := testStore(t)
	_, err := store.LoadJSON("missing.json")
	assert.Error(t, err)
}

func TestNoiseSurvivesIQStorage(t *testing.T) {
	store, _ := testStore(t)
	gen := chirp.NewGenerator(config.DefaultB210(), nil)
	sig := gen.Linear(chirp.Params{Duration: 10e-6})
	noisy := gen.AddNoise(sig.Samples, 10).Noisy

	_, err := store.WriteIQ("noisy.iq", noisy)
	require.NoError(t, err)
	back, err := store.ReadIQ("noisy.iq")
	require.NoError(t, err)

	var power float64
	for _, v := range back {
		power += real(v)*real(v) + imag(v)*imag(v)
	}
	power /= float64(len(back))
	// Unit signal plus 10 dB SNR noise means roughly 1.1x power.
	if math.Abs(power-1.1) > 0.1 {
		t.Fatalf("stored power %v drifted from expected 1.1", power)
	}
}
