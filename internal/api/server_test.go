package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"equity-signal-bot/internal/events"
	"equity-signal-bot/internal/gates"
	"equity-signal-bot/internal/scanner"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// newTestServer wires a server around an idle scanner and no database, the
// shape the API degrades to when persistence is disabled.
func newTestServer() *Server {
	gin.SetMode(gin.TestMode)

	sc := scanner.NewScanner(nil, gates.MacroConfig{}, nil, nil, nil, nil, nil,
		scanner.Config{Watchlist: []string{"NVDA", "AAPL"}}, zerolog.Nop())

	s := &Server{
		router:  gin.New(),
		config:  ServerConfig{Port: 8080},
		scanner: sc,
		watchlist: []WatchlistEntry{
			{Ticker: "NVDA", Group: "A", OversoldRSI: 25, OverboughtRSI: 65},
			{Ticker: "AAPL", Group: "C", OversoldRSI: 35, OverboughtRSI: 75},
		},
		rateLimiter: NewRateLimiter(120, time.Minute),
		logger:      zerolog.Nop(),
		startedAt:   time.Now(),
	}
	s.setupRoutes()
	InitWebSocket(events.NewEventBus(), zerolog.Nop())
	return s
}

func doRequest(s *Server, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	s.router.ServeHTTP(w, req)
	return w
}

func TestRateLimiterAllowsUnderLimit(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		if !rl.Allow("/api/signals") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.Allow("/api/signals") {
		t.Error("request over the limit should be denied")
	}
}

func TestRateLimiterKeysAreIndependent(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)

	rl.Allow("/api/signals")
	if !rl.Allow("/api/runs") {
		t.Error("one endpoint's limit must not affect another")
	}
}

func TestRateLimiterWindowExpiry(t *testing.T) {
	rl := NewRateLimiter(1, 10*time.Millisecond)

	if !rl.Allow("/api/signals") {
		t.Fatal("first request should be allowed")
	}
	if rl.Allow("/api/signals") {
		t.Fatal("second request inside the window should be denied")
	}

	time.Sleep(20 * time.Millisecond)

	if !rl.Allow("/api/signals") {
		t.Error("request after the window elapsed should be allowed")
	}
}

func TestHealthWithoutDatabase(t *testing.T) {
	s := newTestServer()
	w := doRequest(s, http.MethodGet, "/health")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var response map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if response["status"] != "healthy" {
		t.Errorf("expected status healthy, got %v", response["status"])
	}
	if response["database"] != "disabled" {
		t.Errorf("expected database disabled, got %v", response["database"])
	}
}

func TestWatchlistEndpoint(t *testing.T) {
	s := newTestServer()
	w := doRequest(s, http.MethodGet, "/api/watchlist")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var response struct {
		Success bool             `json:"success"`
		Data    []WatchlistEntry `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if !response.Success {
		t.Error("expected success response")
	}
	if len(response.Data) != 2 {
		t.Fatalf("expected 2 watchlist entries, got %d", len(response.Data))
	}
	if response.Data[0].Ticker != "NVDA" || response.Data[0].OversoldRSI != 25 {
		t.Errorf("unexpected first entry: %+v", response.Data[0])
	}
}

func TestScannerStatusEndpoint(t *testing.T) {
	s := newTestServer()
	w := doRequest(s, http.MethodGet, "/api/scanner/status")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var response struct {
		Data scanner.Status `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if response.Data.Running {
		t.Error("scanner should report not running")
	}
	if len(response.Data.Watchlist) != 2 {
		t.Errorf("expected 2 watchlist tickers, got %d", len(response.Data.Watchlist))
	}
}

func TestGetSignalsWithoutPersistence(t *testing.T) {
	// No database and no completed scan: the endpoint serves an empty list
	// rather than an error.
	s := newTestServer()
	w := doRequest(s, http.MethodGet, "/api/signals")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var response struct {
		Success bool              `json:"success"`
		Data    []json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if !response.Success {
		t.Error("expected success response")
	}
	if len(response.Data) != 0 {
		t.Errorf("expected no cached signals, got %d", len(response.Data))
	}
}

func TestGetSignalsRejectsUnknownClassification(t *testing.T) {
	s := newTestServer()
	w := doRequest(s, http.MethodGet, "/api/signals?classification=sell")

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestGetTickerSignalsNotCached(t *testing.T) {
	s := newTestServer()
	w := doRequest(s, http.MethodGet, "/api/signals/NVDA")

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for an unevaluated ticker, got %d", w.Code)
	}
}

func TestGetRunsWithoutPersistence(t *testing.T) {
	s := newTestServer()
	w := doRequest(s, http.MethodGet, "/api/runs")

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without persistence, got %d", w.Code)
	}
}

func TestAuthStatusReportsDisabled(t *testing.T) {
	s := newTestServer()
	w := doRequest(s, http.MethodGet, "/api/auth/status")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var response map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if enabled, ok := response["auth_enabled"].(bool); !ok || enabled {
		t.Errorf("expected auth_enabled false, got %v", response["auth_enabled"])
	}
}

func TestLimitQueryClamping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name  string
		query string
		want  int
	}{
		{"default", "", 50},
		{"explicit", "limit=10", 10},
		{"over maximum", "limit=9999", 50},
		{"not a number", "limit=abc", 50},
		{"negative", "limit=-5", 50},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/api/signals?"+tc.query, nil)

			if got := limitQuery(c, 50); got != tc.want {
				t.Errorf("limitQuery(%q) = %d, want %d", tc.query, got, tc.want)
			}
		})
	}
}
