// Package telemetry collects processing results from the ISAC chain and
// fans them out to console reporters, live subscribers and an optional HTTP
// endpoint. The hub keeps a bounded ring of recent results; nothing is
// persisted.
package telemetry

import (
	"fmt"
	"sync"
	"time"

	"github.com/tmylab/goisac/internal/isac"
)

// Kind labels one processing result.
type Kind string

const (
	KindRadar Kind = "radar"
	KindComm  Kind = "comm"
)

// Result is one entry in the hub's history: a radar detection set or a
// decoded bit, stamped at publish time.
type Result struct {
	Kind       Kind             `json:"kind"`
	Detections []isac.Detection `json:"detections,omitempty"`
	Bit        *isac.BitResult  `json:"bit,omitempty"`
	BeamAngle  float64          `json:"beam_angle"`
	Timestamp  time.Time        `json:"timestamp"`
}

// Reporter receives every published result.
type Reporter interface {
	Report(res Result)
}

const (
	minHistoryLimit = 1
	maxHistoryLimit = 10_000
	defaultHistory  = 500
)

func clampHistoryLimit(limit int) (int, error) {
	if limit == 0 {
		return defaultHistory, nil
	}
	if limit < minHistoryLimit || limit > maxHistoryLimit {
		return 0, fmt.Errorf("history limit must be between %d and %d", minHistoryLimit, maxHistoryLimit)
	}
	return limit, nil
}

// Hub stores recent results and forwards live updates to subscribers.
type Hub struct {
	mu           sync.RWMutex
	history      []Result
	historyLimit int
	subscribers  map[chan Result]struct{}
}

// NewHub builds a hub with the given history limit; zero selects the
// default, and out-of-range limits are rejected.
func NewHub(historyLimit int) (*Hub, error) {
	limit, err := clampHistoryLimit(historyLimit)
	if err != nil {
		return nil, err
	}
	return &Hub{
		historyLimit: limit,
		subscribers:  make(map[chan Result]struct{}),
	}, nil
}

// Report implements Reporter and records a new result.
func (h *Hub) Report(res Result) {
	if res.Timestamp.IsZero() {
		res.Timestamp = time.Now()
	}

	h.mu.Lock()
	h.history = append(h.history, res)
	if len(h.history) > h.historyLimit {
		h.history = h.history[len(h.history)-h.historyLimit:]
	}
	for ch := range h.subscribers {
		select {
		case ch <- res:
		default:
		}
	}
	h.mu.Unlock()
}

// History returns a copy of the stored results, oldest first.
func (h *Hub) History() []Result {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]Result, len(h.history))
	copy(out, h.history)
	return out
}

// Latest returns up to n of the most recent results, oldest first.
func (h *Hub) Latest(n int) []Result {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if n <= 0 || n > len(h.history) {
		n = len(h.history)
	}
	out := make([]Result, n)
	copy(out, h.history[len(h.history)-n:])
	return out
}

// Subscribe registers a listener for live updates. Slow listeners drop
// results rather than blocking the publisher.
func (h *Hub) Subscribe() (chan Result, func()) {
	ch := make(chan Result, 16)
	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	h.mu.Unlock()
	cancel := func() {
		h.mu.Lock()
		delete(h.subscribers, ch)
		close(ch)
		h.mu.Unlock()
	}
	return ch, cancel
}

// MultiReporter fans results out to several destinations.
type MultiReporter []Reporter

// Report forwards the result to each configured reporter.
func (m MultiReporter) Report(res Result) {
	for _, r := range m {
		if r != nil {
			r.Report(res)
		}
	}
}
