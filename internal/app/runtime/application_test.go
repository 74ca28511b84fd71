package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/R3E-Network/data_harmony/internal/app/domain/user"
	"github.com/R3E-Network/data_harmony/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Server.AssetRoot = t.TempDir()
	cfg.Metrics.Addr = ""
	cfg.Logging.Level = "error"
	cfg.Store.ConnectTimeout = 500 * time.Millisecond
	return cfg
}

func getUsers(t *testing.T, h http.Handler) []user.User {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/users", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data []user.User `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Data
}

func TestFallsBackToSeededMemory(t *testing.T) {
	cfg := testConfig(t)
	cfg.Store.Driver = config.DriverPostgres
	cfg.Store.DSN = "postgres://harmony@127.0.0.1:1/harmony?sslmode=disable&connect_timeout=1"

	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	assert.False(t, a.UsingPrimaryStore())

	users := getUsers(t, a.Handler())
	require.Len(t, users, 1)
	assert.Equal(t, "John Doe", users[0].Name)
}

func TestSQLitePrimaryIsSeeded(t *testing.T) {
	cfg := testConfig(t)
	cfg.Store.Driver = config.DriverSQLite
	cfg.Store.DSN = filepath.Join(t.TempDir(), "harmony.db")

	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Shutdown(context.Background()) })
	assert.True(t, a.UsingPrimaryStore())

	users := getUsers(t, a.Handler())
	require.Len(t, users, 1)
	assert.Equal(t, int64(1), users[0].ID)
	require.Len(t, users[0].Posts, 1)
	assert.Equal(t, "Great post!", users[0].Posts[0].Comments[0].Body)
}

func TestMemoryDriverWithoutSeed(t *testing.T) {
	cfg := testConfig(t)
	cfg.Store.Driver = config.DriverMemory
	cfg.Store.SeedSample = false

	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	assert.True(t, a.UsingPrimaryStore())
	assert.Empty(t, getUsers(t, a.Handler()))
}

func TestRunServesUntilCancelled(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	cfg := testConfig(t)
	cfg.Store.Driver = config.DriverMemory
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = port

	a, err := New(context.Background(), cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	url := fmt.Sprintf("http://127.0.0.1:%d/api/users/1", port)
	var resp *http.Response
	require.Eventually(t, func() bool {
		resp, err = http.Get(url)
		return err == nil
	}, 2*time.Second, 20*time.Millisecond)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Trace-ID"))

	cancel()
	require.NoError(t, <-done)
	require.NoError(t, a.Shutdown(context.Background()))
}
