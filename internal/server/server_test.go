package server

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/finanzas-be/internal/config"
	"github.com/hongminglow/finanzas-be/internal/session"
	"github.com/hongminglow/finanzas-be/internal/storage/memory"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := config.Config{
		Env:         "test",
		Port:        "0",
		CORSOrigins: []string{"*"},
		JWTSecret:   "test-secret",
		JWTIssuer:   "finanzas-test",
		JWTTTL:      time.Hour,
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(cfg, memory.NewDirectory(), session.NewStore(memory.NewKV()), log, prometheus.NewRegistry())
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return ts
}

func TestLoginIsCountedInMetrics(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/login", "application/json",
		bytes.NewBufferString(`{"email":"admin@finanzas.com","password":"123456"}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `finanzas_auth_login_attempts_total{outcome="success"} 1`)
	assert.Contains(t, string(body), `finanzas_http_requests_total{method="POST",route="/login",status="200"} 1`)
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/login", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://app.example")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestNewBindsConfiguredAddress(t *testing.T) {
	cfg := config.Config{Port: "9191", JWTSecret: "x", JWTTTL: time.Minute}
	srv := New(cfg, memory.NewDirectory(), session.NewStore(memory.NewKV()), slog.Default(), prometheus.NewRegistry())
	assert.Equal(t, ":9191", srv.inner.Addr)
}
