package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"odte-scanner/config"
	"odte-scanner/internal/model"
)

func testServer() *Server {
	cfg := config.Default()
	cfg.HistoryDays = 3
	return NewServer(cfg, nil, nil)
}

func doJSON(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, map[string]json.RawMessage) {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	testServer().Router().ServeHTTP(w, req)

	var out map[string]json.RawMessage
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON response (%d): %s", w.Code, w.Body.String())
	}
	return w, out
}

func TestHealth(t *testing.T) {
	w, out := doJSON(t, http.MethodGet, "/api/v1/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var status string
	json.Unmarshal(out["status"], &status)
	if status != "ok" {
		t.Errorf("status = %q", status)
	}
}

func TestPatternsListsFullRegistry(t *testing.T) {
	w, out := doJSON(t, http.MethodGet, "/api/v1/patterns", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var patterns []struct {
		Tag   string `json:"tag"`
		Title string `json:"title"`
	}
	if err := json.Unmarshal(out["patterns"], &patterns); err != nil {
		t.Fatal(err)
	}
	if len(patterns) != len(model.AllPatterns()) {
		t.Errorf("got %d patterns, want %d", len(patterns), len(model.AllPatterns()))
	}
	if patterns[0].Tag != string(model.OpeningRangeBreakout) {
		t.Errorf("first pattern = %s, want registry order", patterns[0].Tag)
	}
}

func TestScanRejectsUnknownPattern(t *testing.T) {
	w, _ := doJSON(t, http.MethodPost, "/api/v1/scan", `{"patterns":["head_and_shoulders"]}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestScanRejectsHugeWindow(t *testing.T) {
	w, _ := doJSON(t, http.MethodPost, "/api/v1/scan", `{"days":100000}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestBacktestEndToEnd(t *testing.T) {
	w, out := doJSON(t, http.MethodPost, "/api/v1/backtest", `{"days":5}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %v", w.Code, out)
	}
	var finalCapital float64
	if err := json.Unmarshal(out["final_capital"], &finalCapital); err != nil {
		t.Fatal(err)
	}
	if _, ok := out["stats"]; !ok {
		t.Error("response missing stats")
	}
	if _, ok := out["by_pattern"]; !ok {
		t.Error("response missing per-pattern breakdown")
	}
}

func TestRecentSignalsWithoutStore(t *testing.T) {
	w, _ := doJSON(t, http.MethodGet, "/api/v1/signals/recent", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}

func TestLatestBarWithoutStore(t *testing.T) {
	w, _ := doJSON(t, http.MethodGet, "/api/v1/bars/latest", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}
