package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, cfg ServerConfig, m *mockRouter) *httptest.Server {
	t.Helper()
	logger, _ := test.NewNullLogger()
	srv := httptest.NewServer(NewServer(cfg, NewHandlers(m, logger), logger).Handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestServerRoutes(t *testing.T) {
	srv := newTestServer(t, DefaultConfig(""), &mockRouter{route: sampleRoute()})

	tests := []struct {
		method, path string
		status       int
	}{
		{http.MethodGet, "/api/v1/health", http.StatusOK},
		{http.MethodGet, "/api/v1/stats", http.StatusOK},
		{http.MethodGet, "/api/v1/graph", http.StatusOK},
		{http.MethodGet, "/api/v1/route?from=A&to=C", http.StatusOK},
		{http.MethodGet, "/api/v2/health", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, srv.URL+tt.path, nil)
			require.NoError(t, err)
			resp, err := srv.Client().Do(req)
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestServerSecurityHeaders(t *testing.T) {
	srv := newTestServer(t, DefaultConfig(""), &mockRouter{})

	resp, err := srv.Client().Get(srv.URL + "/api/v1/health")
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
}

func TestServerCORS(t *testing.T) {
	cfg := DefaultConfig("")
	cfg.CORSOrigins = []string{"http://ui.local"}
	srv := newTestServer(t, cfg, &mockRouter{})

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/v1/health", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://ui.local")
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "http://ui.local", resp.Header.Get("Access-Control-Allow-Origin"))

	req.Header.Set("Origin", "http://evil.local")
	resp, err = srv.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestMiddlewareLimit(t *testing.T) {
	logger, _ := test.NewNullLogger()
	m := &middleware{sem: make(chan struct{}, 1), log: logger}
	m.sem <- struct{}{}

	h := m.limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
}

func TestMiddlewareRecover(t *testing.T) {
	logger, hook := test.NewNullLogger()
	m := &middleware{log: logger}

	h := m.recoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/route", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
	assert.Contains(t, hook.LastEntry().Message, "boom")
}

func TestMiddlewareDeadline(t *testing.T) {
	m := &middleware{timeout: time.Second}

	var deadline time.Time
	var ok bool
	h := m.deadline(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deadline, ok = r.Context().Deadline()
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Second), deadline, time.Second)
}

func TestListenAndServeStops(t *testing.T) {
	logger, _ := test.NewNullLogger()
	srv := NewServer(ServerConfig{Addr: "127.0.0.1:0", MaxConcurrent: 1}, NewHandlers(&mockRouter{}, logger), logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ListenAndServe(ctx, srv, logger) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
