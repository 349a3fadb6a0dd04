// Package sigio persists generated signals so captures can be replayed
// without hardware. JSON records carry the waveform plus its generation
// parameters; the raw IQ format is interleaved little-endian float32, the
// layout most SDR tooling accepts directly.
package sigio

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/tmylab/goisac/internal/chirp"
	"github.com/tmylab/goisac/internal/config"
)

// Record is the on-disk JSON layout for one generated signal.
type Record struct {
	Real []float64  `json:"signal_real"`
	Imag []float64  `json:"signal_imag"`
	Info chirp.Info `json:"parameters"`
}

// NewRecord splits a signal into the serializable component arrays.
func NewRecord(sig *chirp.Signal) Record {
	re := make([]float64, len(sig.Samples))
	im := make([]float64, len(sig.Samples))
	for i, s := range sig.Samples {
		re[i] = real(s)
		im[i] = imag(s)
	}
	return Record{Real: re, Imag: im, Info: sig.Info}
}

// Samples reassembles the complex waveform from the component arrays.
func (r Record) Samples() []complex128 {
	n := len(r.Real)
	if len(r.Imag) < n {
		n = len(r.Imag)
	}
	out := make([]complex128, n)
	for i := 0; i < n; i++ {
		out[i] = complex(r.Real[i], r.Imag[i])
	}
	return out
}

// Store resolves bare filenames against a configuration's data directory.
// Paths containing separators are used as given.
type Store struct {
	cfg config.B210Config
}

// NewStore binds signal persistence to one configuration.
func NewStore(cfg config.B210Config) *Store {
	return &Store{cfg: cfg}
}

// SaveJSON writes the record under the data directory.
func (s *Store) SaveJSON(name string, rec Record) (string, error) {
	path, err := s.resolve(name)
	if err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal record: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write record: %w", err)
	}
	return path, nil
}

// LoadJSON reads a record previously written by SaveJSON.
func (s *Store) LoadJSON(name string) (Record, error) {
	path, err := s.resolve(name)
	if err != nil {
		return Record{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Record{}, fmt.Errorf("read record: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("parse record %s: %w", path, err)
	}
	return rec, nil
}

// WriteIQ stores samples as interleaved little-endian float32 pairs.
func (s *Store) WriteIQ(name string, samples []complex128) (string, error) {
	path, err := s.resolve(name)
	if err != nil {
		return "", err
	}
	buf := make([]byte, 8*len(samples))
	for i, c := range samples {
		binary.LittleEndian.PutUint32(buf[8*i:], math.Float32bits(float32(real(c))))
		binary.LittleEndian.PutUint32(buf[8*i+4:], math.Float32bits(float32(imag(c))))
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return "", fmt.Errorf("write iq: %w", err)
	}
	return path, nil
}

// ReadIQ loads an interleaved float32 capture. Trailing bytes that do not
// form a full IQ pair are dropped.
func (s *Store) ReadIQ(name string) ([]complex128, error) {
	path, err := s.resolve(name)
	if err != nil {
		return nil, err
	}
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read iq: %w", err)
	}
	n := len(buf) / 8
	out := make([]complex128, n)
	for i := 0; i < n; i++ {
		re := math.Float32frombits(binary.LittleEndian.Uint32(buf[8*i:]))
		im := math.Float32frombits(binary.LittleEndian.Uint32(buf[8*i+4:]))
		out[i] = complex(float64(re), float64(im))
	}
	return out, nil
}

func (s *Store) resolve(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("empty file name")
	}
	if filepath.Dir(name) != "." {
		return name, nil
	}
	if err := s.cfg.EnsureDirs(); err != nil {
		return "", err
	}
	return filepath.Join(s.cfg.DataDir(), name), nil
}
