package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"tsdash/internal/config"
	"tsdash/internal/dashboard"
	"tsdash/internal/engine"
	"tsdash/internal/storage"
)

const testLayout = `
title: Test board
widgets:
  - id: cpu
    series:
      - name: user
  - id: share
    kind: pie
`

func newTestServer(t *testing.T, withStorage bool) (*Server, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	layout, err := dashboard.ParseLayout([]byte(testLayout))
	if err != nil {
		t.Fatalf("Failed to parse layout: %v", err)
	}
	d, err := dashboard.New(layout, dashboard.DefaultRegistry(), engine.DefaultOptions())
	if err != nil {
		t.Fatalf("Failed to create dashboard: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go d.Run(ctx)

	cfg := &config.Config{Port: "0", Environment: "test", LocalFramesDir: t.TempDir()}
	var st storage.StorageClient
	if withStorage {
		st, err = storage.NewLocalStorageClient(t.TempDir())
		if err != nil {
			t.Fatalf("Failed to create storage: %v", err)
		}
	}
	s, err := NewServer(cfg, d, st)
	if err != nil {
		t.Fatalf("Failed to create server: %v", err)
	}
	return s, s.SetupRoutes()
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func pushCPU(t *testing.T, r http.Handler) {
	t.Helper()
	body := `{"metrics":[{"name":"user","datapoints":[{"x":10,"y":1},{"x":15,"y":2},{"x":20,"y":3},{"x":25,"y":4},{"x":30,"y":5}]},{"name":"ignored","datapoints":[{"x":10,"y":9}]}]}`
	w := do(r, http.MethodPost, "/snapshots/cpu", body)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 for snapshot push, got %d: %s", w.Code, w.Body.String())
	}
	var resp snapshotResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Series != 1 {
		t.Errorf("Expected only the declared series to be merged, got %d", resp.Series)
	}
}

func TestHandleHealth(t *testing.T) {
	_, r := newTestServer(t, false)
	w := do(r, http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if body["status"] != "healthy" {
		t.Errorf("Expected healthy status, got %v", body["status"])
	}
}

func TestHandleRoot(t *testing.T) {
	_, r := newTestServer(t, false)
	w := do(r, http.MethodGet, "/", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Test board") || !strings.Contains(w.Body.String(), "/widgets/cpu/frame.svg") {
		t.Error("Expected dashboard page with frame links")
	}
}

func TestHandleListWidgets(t *testing.T) {
	_, r := newTestServer(t, false)
	w := do(r, http.MethodGet, "/widgets", "")
	var widgets []widgetResponse
	if err := json.Unmarshal(w.Body.Bytes(), &widgets); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(widgets) != 2 || widgets[0].Kind != "line" || widgets[1].Kind != "pie" {
		t.Errorf("Unexpected widgets %+v", widgets)
	}
	if widgets[0].State != engine.Rendered.String() {
		t.Errorf("Expected rendered state, got %s", widgets[0].State)
	}
}

func TestHandleFrame(t *testing.T) {
	_, r := newTestServer(t, false)

	w := do(r, http.MethodGet, "/widgets/cpu/frame.svg", "")
	if w.Code != http.StatusOK || w.Header().Get("Content-Type") != "image/svg+xml" {
		t.Fatalf("Expected SVG frame, got %d %s", w.Code, w.Header().Get("Content-Type"))
	}
	w = do(r, http.MethodGet, "/widgets/cpu/frame.png", "")
	if w.Code != http.StatusOK || !bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")) {
		t.Errorf("Expected PNG frame, got %d", w.Code)
	}
	w = do(r, http.MethodGet, "/widgets/nope/frame.svg", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown widget, got %d", w.Code)
	}
}

func TestPointerFlow(t *testing.T) {
	s, r := newTestServer(t, false)
	pushCPU(t, r)

	left := s.Dashboard.Widgets()[0].Spec.Options.Apply(engine.DefaultOptions()).Margin.Left
	w := do(r, http.MethodPost, "/widgets/cpu/pointer", `{"x":`+jsonNumber(left)+`,"y":50}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp pointerResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !resp.Hover.Valid || resp.Hover.DomainX != 10 {
		t.Errorf("Expected hover at domain 10, got %+v", resp.Hover)
	}
	if resp.State != engine.Hovered.String() || resp.Legend[0].Value != "1.00" {
		t.Errorf("Expected hovered legend 1.00, got %s %+v", resp.State, resp.Legend)
	}

	w = do(r, http.MethodDelete, "/widgets/cpu/pointer", "")
	var left2 widgetResponse
	json.Unmarshal(w.Body.Bytes(), &left2)
	if left2.State != engine.Rendered.String() || left2.Legend[0].Value != "5.00" {
		t.Errorf("Expected rendered state with last value 5.00, got %s %+v", left2.State, left2.Legend)
	}

	w = do(r, http.MethodGet, "/widgets/cpu/legend", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"5.00"`) {
		t.Errorf("Expected legend with last value, got %s", w.Body.String())
	}
}

func TestPointerValidation(t *testing.T) {
	_, r := newTestServer(t, false)
	tests := []struct {
		name string
		body string
	}{
		{"missing y", `{"x":10}`},
		{"not json", `{x`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, http.MethodPost, "/widgets/cpu/pointer", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("Expected 400, got %d", w.Code)
			}
		})
	}
}

func TestSnapshotUnknownWidget(t *testing.T) {
	_, r := newTestServer(t, false)
	w := do(r, http.MethodPost, "/snapshots/nope", `{"metrics":[]}`)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}
}

func TestRemoveSeries(t *testing.T) {
	_, r := newTestServer(t, false)
	pushCPU(t, r)

	w := do(r, http.MethodDelete, "/widgets/cpu/series/user", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp widgetResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(resp.Legend) != 0 {
		t.Errorf("Expected empty legend after removal, got %+v", resp.Legend)
	}

	tests := []struct {
		path string
		code string
	}{
		{"/widgets/cpu/series/user", "NOT_FOUND"},
		{"/widgets/nope/series/user", "NOT_FOUND"},
	}
	for _, tt := range tests {
		w := do(r, http.MethodDelete, tt.path, "")
		if w.Code != http.StatusNotFound {
			t.Errorf("Expected 404 for %s, got %d", tt.path, w.Code)
		}
		var body errResponse
		json.Unmarshal(w.Body.Bytes(), &body)
		if body.Error != tt.code {
			t.Errorf("Expected %s for %s, got %s", tt.code, tt.path, body.Error)
		}
	}
}

func TestHandleExport(t *testing.T) {
	_, r := newTestServer(t, false)
	if w := do(r, http.MethodPost, "/export", ""); w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503 without storage, got %d", w.Code)
	}

	_, r = newTestServer(t, true)
	pushCPU(t, r)
	w := do(r, http.MethodPost, "/export", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp exportResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	// svg + png per widget, the page and the manifest
	if !resp.OK || resp.Files != 6 {
		t.Errorf("Expected 6 stored files, got %+v", resp)
	}

	w = do(r, http.MethodGet, "/exports/latest", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), resp.Folder) {
		t.Errorf("Expected latest export %s, got %s", resp.Folder, w.Body.String())
	}
}

func jsonNumber(v float64) string {
	b, _ := json.Marshal(v)
	return string(b)
}
