package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/echome-smart/focus-device/internal/app"
	"github.com/echome-smart/focus-device/internal/config"
	"github.com/echome-smart/focus-device/internal/dispatch"
	"github.com/echome-smart/focus-device/internal/display"
	"github.com/echome-smart/focus-device/internal/storage"
)

func newTestServer(t *testing.T, store storage.Store) (*RESTServer, *app.Core) {
	t.Helper()

	cfg := config.Default()
	cfg.Session.TickPeriod = time.Hour

	dispatcher := dispatch.NewDispatcher(nil, nil)
	t.Cleanup(dispatcher.Close)

	core := app.New(cfg, display.Log{}, dispatcher, store)
	return NewRESTServer(cfg, core), core
}

func doRequest(t *testing.T, s *RESTServer, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func TestHandleHealth(t *testing.T) {
	s, _ := newTestServer(t, nil)

	w := doRequest(t, s, http.MethodGet, "/api/v1/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp["status"] != "healthy" {
		t.Fatalf("status field = %v, want healthy", resp["status"])
	}
}

func TestHandleStatus(t *testing.T) {
	s, _ := newTestServer(t, nil)

	w := doRequest(t, s, http.MethodGet, "/api/v1/status", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var snap app.Snapshot
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if snap.Page != "wakeup" {
		t.Fatalf("page = %q, want wakeup", snap.Page)
	}
	if snap.SelectedHours != 1.0 {
		t.Fatalf("selectedHours = %v, want 1.0", snap.SelectedHours)
	}
}

func TestHandleControl(t *testing.T) {
	s, core := newTestServer(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go core.Run(ctx)

	w := doRequest(t, s, http.MethodPost, "/api/v1/control", `{"action":"wakeup"}`)
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", w.Code)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if core.Snapshot().Page == "navigation" {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("page = %q, want navigation", core.Snapshot().Page)
}

func TestHandleControlRejectsUnknownAction(t *testing.T) {
	s, _ := newTestServer(t, nil)

	w := doRequest(t, s, http.MethodPost, "/api/v1/control", `{"action":"explode"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestHandleControlRejectsBadDuration(t *testing.T) {
	s, _ := newTestServer(t, nil)

	w := doRequest(t, s, http.MethodPost, "/api/v1/control", `{"action":"duration","value":150}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestHandleListSessionsEmpty(t *testing.T) {
	store, err := storage.NewSQLiteStore(t.TempDir() + "/sessions.db")
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	s, _ := newTestServer(t, store)

	w := doRequest(t, s, http.MethodGet, "/api/v1/sessions?limit=5", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp struct {
		Sessions []json.RawMessage `json:"sessions"`
		Total    int64             `json:"total"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Total != 0 {
		t.Fatalf("total = %d, want 0", resp.Total)
	}
}
