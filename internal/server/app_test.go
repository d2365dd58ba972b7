package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/here/internal/common"
	"github.com/dmitrijs2005/here/internal/models"
	"github.com/dmitrijs2005/here/internal/server/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.StorePath = filepath.Join(t.TempDir(), "client-info.db")
	cfg.Bind = "127.0.0.1:0"
	cfg.Metrics = true
	return cfg
}

func TestNewApp_RejectsUnusableStore(t *testing.T) {
	cfg := testConfig(t)
	cfg.StorePath = t.TempDir()

	_, err := NewApp(context.Background(), cfg, "test", &bytes.Buffer{})
	require.ErrorIs(t, err, common.ErrStoreIO)
}

func TestApp_ServeAndStop(t *testing.T) {
	var logs bytes.Buffer
	app, err := NewApp(context.Background(), testConfig(t), "1.0.0", &logs)
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	base := "http://" + ln.Addr().String()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Serve(ctx, ln) }()

	resp, err := http.Get(base + common.APIPrefix + common.PathServerInfo)
	require.NoError(t, err)
	var info models.AppInfo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&info))
	resp.Body.Close()
	assert.Equal(t, models.AppInfo{Name: "Here", Version: "1.0.0"}, info)

	body := `{"id":"7f0c2c7e-4d8b-4a55-8a4c-2f1e9f0d6b11","account":"alice","ipv4s":["192.0.2.9"],"ipv6s":[]}`
	resp, err = http.Post(base+common.APIPrefix+common.PathPostClientInfo, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(base + common.PathMetrics)
	require.NoError(t, err)
	var metricsBody bytes.Buffer
	_, _ = metricsBody.ReadFrom(resp.Body)
	resp.Body.Close()
	assert.Contains(t, metricsBody.String(), `here_registrations_total{result="ok"} 1`)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
	assert.Contains(t, logs.String(), "server stopped")
}
