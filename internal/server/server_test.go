package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bilal/speedcheck/internal/capture"
	"github.com/bilal/speedcheck/internal/config"
	"github.com/bilal/speedcheck/internal/interpret"
	"github.com/bilal/speedcheck/internal/metrics"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, ratePerSec float64, burst int, opts ...capture.Option) *Server {
	t.Helper()
	cfg := config.ServerConfig{
		Address:            "127.0.0.1:0",
		ReadTimeoutSeconds: 5,
		RateLimitPerSecond: ratePerSec,
		RateLimitBurst:     burst,
	}
	reg := capture.NewRegistry(time.Minute, "All done", opts...)
	s := New(cfg, reg, metrics.NewTrend(10))
	s.SetRunning(true)
	return s
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	h.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, 100, 100)
	w := do(t, s.Handler(), http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Running  bool           `json:"running"`
		Sessions map[string]int `json:"sessions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Running)
	assert.Equal(t, 0, body.Sessions["waiting"])
}

func TestInterpretEndpoint(t *testing.T) {
	s := newTestServer(t, 100, 100)
	w := do(t, s.Handler(), http.MethodPost, "/api/interpret", `{"download": 5, "upload": "0", "ping": 150}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")

	var res interpret.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, interpret.Poor, res.OverallRating)
	assert.Equal(t, interpret.Download, res.LimitingFactor)
	assert.Equal(t, interpret.NotApplicable, res.Metrics.Upload.Rating)
}

func TestInterpretEndpoint_BadRequests(t *testing.T) {
	s := newTestServer(t, 100, 100)

	w := do(t, s.Handler(), http.MethodPost, "/api/interpret", `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, s.Handler(), http.MethodGet, "/api/interpret", "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestReportEndpoint(t *testing.T) {
	s := newTestServer(t, 100, 100)
	w := do(t, s.Handler(), http.MethodGet, "/report?download=150&upload=25&ping=10", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "Excellent Connection")
}

func TestSessionFlow(t *testing.T) {
	s := newTestServer(t, 100, 100)
	h := s.Handler()

	w := do(t, h, http.MethodPost, "/api/sessions", "")
	require.Equal(t, http.StatusCreated, w.Code)
	var begun map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &begun))
	id := begun["session_id"]
	require.NotEmpty(t, id)
	assert.Equal(t, "WAITING", begun["state"])

	w = do(t, h, http.MethodPost, "/api/sessions/"+id+"/events", `{"status": "All done"}`)
	assert.Equal(t, http.StatusAccepted, w.Code)

	w = do(t, h, http.MethodGet, "/api/sessions/"+id+"/report", "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, h, http.MethodPost, "/api/sessions/"+id+"/events",
		`{"status": "All done", "results": {"download": 15, "upload": 5, "ping": 60, "downloadData": 30}}`)
	require.Equal(t, http.StatusOK, w.Code)
	var c capture.Capture
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &c))
	assert.Equal(t, id, c.SessionID)
	assert.Equal(t, interpret.Fair, c.Result.OverallRating)

	w = do(t, h, http.MethodPost, "/api/sessions/"+id+"/events", `{"results": {"download": 500}}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, h, http.MethodGet, "/api/sessions/"+id+"/report", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Fair Connection")

	w = do(t, h, http.MethodPost, "/api/sessions/"+id+"/reset", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"state":"IDLE"`)

	w = do(t, h, http.MethodPost, "/api/sessions/"+id+"/events", `{"results": {"download": 500}}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "idle")
}

func TestSession_Unknown(t *testing.T) {
	s := newTestServer(t, 100, 100)

	w := do(t, s.Handler(), http.MethodPost, "/api/sessions/does-not-exist/events", `{}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSession_ExpiredIsNotFound(t *testing.T) {
	var mu sync.Mutex
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	s := newTestServer(t, 100, 100, capture.WithClock(clock))
	h := s.Handler()

	w := do(t, h, http.MethodPost, "/api/sessions", "")
	require.Equal(t, http.StatusCreated, w.Code)
	var begun map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &begun))
	id := begun["session_id"]

	mu.Lock()
	now = now.Add(61 * time.Second)
	mu.Unlock()

	for i := 0; i < 2; i++ {
		w = do(t, h, http.MethodPost, "/api/sessions/"+id+"/events", `{"results": {"download": 50}}`)
		assert.Equal(t, http.StatusNotFound, w.Code)
	}
	w = do(t, h, http.MethodGet, "/api/sessions/"+id, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, 0.001, 1)
	h := s.Handler()

	w := do(t, h, http.MethodPost, "/api/interpret", `{"download": 50}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, h, http.MethodPost, "/api/interpret", `{"download": 50}`)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	w = do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code, "health is not rate limited")
}

func TestWebSocket_PushesCapturedResult(t *testing.T) {
	s := newTestServer(t, 100, 100)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	tr := s.registry.Begin()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/sessions/" + tr.ID()

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var first struct {
		Type    string `json:"type"`
		Payload string `json:"payload"`
	}
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, "state", first.Type)
	assert.Equal(t, "WAITING", first.Payload)

	_, outcome := tr.Observe(capture.Event{Results: map[string]any{"download": 150.0, "upload": 25.0, "ping": 10.0}})
	require.Equal(t, capture.OutcomeCaptured, outcome)

	var second struct {
		Type    string          `json:"type"`
		Payload capture.Capture `json:"payload"`
	}
	require.NoError(t, conn.ReadJSON(&second))
	assert.Equal(t, "result", second.Type)
	assert.Equal(t, interpret.Excellent, second.Payload.Result.OverallRating)
}

func TestWebSocket_UnknownSession(t *testing.T) {
	s := newTestServer(t, 100, 100)
	w := do(t, s.Handler(), http.MethodGet, "/ws/sessions/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
