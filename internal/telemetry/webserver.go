package telemetry

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
)

// WebServer exposes the hub's result history over HTTP for quick inspection
// while the testbed runs.
type WebServer struct {
	srv    *http.Server
	hub    *Hub
	logger *log.Logger
}

// NewWebServer builds an HTTP server with JSON result endpoints.
func NewWebServer(addr string, hub *Hub, logger *log.Logger) *WebServer {
	if logger == nil {
		logger = log.Default()
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/results", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(hub.History())
	})
	mux.HandleFunc("/api/latest", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(hub.Latest(25))
	})

	return &WebServer{
		hub:    hub,
		logger: logger,
		srv:    &http.Server{Addr: addr, Handler: mux},
	}
}

// Start begins listening and shuts down when the context is canceled.
func (w *WebServer) Start(ctx context.Context) {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := w.srv.Shutdown(shutdownCtx); err != nil {
			w.logger.Error("telemetry server shutdown", "err", err)
		}
	}()

	if err := w.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		w.logger.Error("telemetry server", "err", err)
	}
}
