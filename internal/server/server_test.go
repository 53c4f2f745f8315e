package server

import (
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/emotereactor/internal/app"
	"github.com/ayusman/emotereactor/internal/gesture"
	"github.com/ayusman/emotereactor/internal/store"
)

// fakeSource is a Source with a fixed status and frame.
type fakeSource struct {
	mu     sync.Mutex
	status app.Status
	jpeg   []byte
}

func (f *fakeSource) Status() app.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

func (f *fakeSource) LatestJPEG() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.jpeg
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		status: app.Status{
			Label:     gesture.LabelSixSeven,
			Candidate: gesture.LabelNeutral,
			Debug:     true,
			Running:   true,
			Frames:    42,
			Metrics:   gesture.DebugMetrics{Present: true, SixSevenTimer: 12},
		},
		jpeg: []byte{0xFF, 0xD8, 0x01, 0x02, 0xFF, 0xD9},
	}
}

func TestServer_Health(t *testing.T) {
	s := New(Config{})

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", ct)
	}

	var response struct {
		Status string  `json:"status"`
		Uptime *string `json:"uptime"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Status != "ok" || response.Uptime == nil {
		t.Errorf("unexpected health response %+v", response)
	}
}

func TestServer_Routing(t *testing.T) {
	staticDir := t.TempDir()
	files := map[string]string{
		"index.html": "<html><body>Emote Reactor</body></html>",
		"style.css":  "body { color: red; }",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(staticDir, name), []byte(content), 0644); err != nil {
			t.Fatalf("failed to create %s: %v", name, err)
		}
	}

	withStatic := New(Config{StaticDir: staticDir})
	bare := New(Config{})

	tests := []struct {
		name     string
		server   *Server
		method   string
		path     string
		wantCode int
		wantBody string
	}{
		{"health rejects POST", bare, http.MethodPost, "/api/health", http.StatusMethodNotAllowed, ""},
		{"health rejects DELETE", bare, http.MethodDelete, "/api/health", http.StatusMethodNotAllowed, ""},
		{"unknown api path", bare, http.MethodGet, "/api/nonexistent", http.StatusNotFound, ""},
		{"root without static dir", bare, http.MethodGet, "/", http.StatusNotFound, ""},
		{"index at root", withStatic, http.MethodGet, "/", http.StatusOK, files["index.html"]},
		{"static file", withStatic, http.MethodGet, "/style.css", http.StatusOK, files["style.css"]},
		{"missing static file", withStatic, http.MethodGet, "/nonexistent.html", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			rec := httptest.NewRecorder()
			tt.server.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Errorf("%s %s: status = %d, want %d", tt.method, tt.path, rec.Code, tt.wantCode)
			}
			if tt.wantBody != "" && rec.Body.String() != tt.wantBody {
				t.Errorf("%s %s: body = %q, want %q", tt.method, tt.path, rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestServer_Status(t *testing.T) {
	s := New(Config{Source: newFakeSource()})
	defer s.Close()

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var status app.Status
	if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if status.Label != gesture.LabelSixSeven || status.Frames != 42 {
		t.Errorf("unexpected status %+v", status)
	}
	if status.Metrics.SixSevenTimer != 12 {
		t.Errorf("metrics not forwarded: %+v", status.Metrics)
	}
}

func TestServer_LiveRoutesNeedSource(t *testing.T) {
	s := New(Config{})

	for _, path := range []string{"/api/status", "/api/stream", "/api/metrics", "/api/events"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("%s: expected status %d, got %d", path, http.StatusNotFound, rec.Code)
		}
	}
}

func TestServer_HistoryRoutes(t *testing.T) {
	st, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer st.Close()

	sess, _ := st.Sessions().Create(0)
	st.Events().Create(&store.Event{SessionID: sess.ID, Label: "jawline", PreviousLabel: "neutral"})

	ts := httptest.NewServer(New(Config{Store: st}))
	defer ts.Close()

	for _, path := range []string{"/api/events?limit=5", "/api/sessions", "/api/sessions/" + sess.ID + "/events"} {
		resp, err := ts.Client().Get(ts.URL + path)
		if err != nil {
			t.Fatalf("GET %s error = %v", path, err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s status = %d, want %d", path, resp.StatusCode, http.StatusOK)
		}
		if path != "/api/sessions" && !strings.Contains(string(body), "jawline") {
			t.Errorf("GET %s body missing event: %s", path, body)
		}
	}
}

func TestServer_Stream(t *testing.T) {
	src := newFakeSource()
	s := New(Config{Source: src})
	defer s.Close()

	ts := httptest.NewServer(s)
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + "/api/stream")
	if err != nil {
		t.Fatalf("GET /api/stream error = %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "multipart/x-mixed-replace") {
		t.Fatalf("Content-Type = %s, want multipart/x-mixed-replace", ct)
	}

	part, err := multipart.NewReader(resp.Body, "frame").NextPart()
	if err != nil {
		t.Fatalf("NextPart() error = %v", err)
	}
	if part.Header.Get("Content-Type") != "image/jpeg" {
		t.Errorf("part Content-Type = %s, want image/jpeg", part.Header.Get("Content-Type"))
	}

	data := make([]byte, len(src.jpeg))
	if _, err := io.ReadFull(part, data); err != nil {
		t.Fatalf("read part: %v", err)
	}
	if string(data) != string(src.jpeg) {
		t.Errorf("part body = %x, want %x", data, src.jpeg)
	}
}

func TestServer_MetricsWebSocket(t *testing.T) {
	s := New(Config{Source: newFakeSource()})
	defer s.Close()

	ts := httptest.NewServer(s)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/metrics"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}

	var payload struct {
		Status    app.Status `json:"status"`
		Timestamp int64      `json:"timestamp"`
	}
	if err := json.Unmarshal(msg, &payload); err != nil {
		t.Fatalf("failed to decode message: %v", err)
	}
	if payload.Status.Label != gesture.LabelSixSeven {
		t.Errorf("label = %s, want six_seven", payload.Status.Label)
	}
	if payload.Timestamp == 0 {
		t.Error("expected a timestamp")
	}
}
