package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/R3E-Network/data_harmony/pkg/logger"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
})

func TestCORSAllowAll(t *testing.T) {
	h := NewCORSMiddleware([]string{"*"}).Handler(okHandler)

	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req.Header.Set("Origin", "http://example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Expose-Headers"), "Location")
}

func TestCORSOriginList(t *testing.T) {
	h := NewCORSMiddleware([]string{"http://app.local", ".example.com"}).Handler(okHandler)

	tests := []struct {
		origin string
		want   string
	}{
		{"http://app.local", "http://app.local"},
		{"https://ui.example.com", "https://ui.example.com"},
		{"http://evil.test", ""},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", tt.origin)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, tt.want, rec.Header().Get("Access-Control-Allow-Origin"), tt.origin)
	}
}

func TestCORSPreflight(t *testing.T) {
	called := false
	h := NewCORSMiddleware([]string{"*"}).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/users", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.False(t, called)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "PUT")
}

func TestCORSDisabled(t *testing.T) {
	h := NewCORSMiddleware(nil).Handler(okHandler)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(1, 2, logger.NewDefault("test"))
	h := rl.Handler(okHandler)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
		req.RemoteAddr = "10.0.0.1:5000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
		if rec.Code == http.StatusTooManyRequests {
			var body struct {
				Status int    `json:"status"`
				Error  string `json:"error"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, http.StatusTooManyRequests, body.Status)
			assert.Equal(t, "Too many requests", body.Error)
		}
	}
	assert.Equal(t, []int{200, 200, 429}, codes)

	// a different client has its own bucket
	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req.RemoteAddr = "10.0.0.2:5000"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimiterCleanup(t *testing.T) {
	rl := NewRateLimiter(10, 10, nil)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.getLimiter("a")
	now = now.Add(time.Minute)
	rl.getLimiter("b")

	rl.Cleanup(30 * time.Second)
	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.NotContains(t, rl.limiters, "a")
	assert.Contains(t, rl.limiters, "b")
}

func TestRateLimiterStartCleanupStops(t *testing.T) {
	rl := NewRateLimiter(10, 10, nil)
	ctx, cancel := context.WithCancel(context.Background())
	rl.StartCleanup(ctx, time.Millisecond)
	cancel()
}

func TestRecoverWritesEnvelope(t *testing.T) {
	h := Recover(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/users", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"status":500,"error":"Internal server error"}`, rec.Body.String())
}

func TestRecoverAfterWrite(t *testing.T) {
	h := Recover(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		panic("late")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestRecoverAbortHandler(t *testing.T) {
	h := Recover(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

func TestTracingPropagatesID(t *testing.T) {
	var seen string
	h := NewTracingMiddleware(nil).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logger.TraceIDFrom(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(TraceHeader, "abc")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "abc", seen)
	assert.Equal(t, "abc", rec.Header().Get(TraceHeader))
}

func TestMetricsMiddlewareKeepsStatus(t *testing.T) {
	h := MetricsMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/users", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestWrapReusesWriter(t *testing.T) {
	rw := wrap(httptest.NewRecorder())
	assert.Same(t, rw, wrap(rw))
}
