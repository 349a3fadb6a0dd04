package telemetry

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
)

func TestWebServerResults(t *testing.T) {
	hub, _ := NewHub(10)
	for i := 0; i < 3; i++ {
		hub.Report(radarResult(float64(i)))
	}
	ws := NewWebServer(":0", hub, nil)

	srv := httptest.NewServer(ws.srv.Handler)
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL + "/api/results")
	if err != nil {
		t.Fatalf("get results: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type %q", ct)
	}
	var results []Result
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}

	resp2, err := srv.Client().Get(srv.URL + "/api/latest")
	if err != nil {
		t.Fatalf("get latest: %v", err)
	}
	defer resp2.Body.Close()
	var latest []Result
	if err := json.NewDecoder(resp2.Body).Decode(&latest); err != nil {
		t.Fatalf("decode latest: %v", err)
	}
	if len(latest) != 3 {
		t.Fatalf("got %d latest results, want 3", len(latest))
	}
}
