package client

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"net/netip"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/here/internal/client/agent"
	"github.com/dmitrijs2005/here/internal/client/config"
	"github.com/dmitrijs2005/here/internal/clock"
	"github.com/dmitrijs2005/here/internal/common"
	"github.com/dmitrijs2005/here/internal/logging"
	"github.com/dmitrijs2005/here/internal/models"
	"github.com/dmitrijs2005/here/internal/server/httpapi"
	"github.com/dmitrijs2005/here/internal/server/registry"
	"github.com/dmitrijs2005/here/internal/server/storage"
)

func newRegistry(t *testing.T) string {
	t.Helper()
	opts := storage.Options{Backend: storage.BackendJSONFile, Path: filepath.Join(t.TempDir(), "client-info.db")}
	svc := registry.NewService(opts, 60, "1.0.0", clock.Real{}, logging.Nop(), nil)
	srv := httptest.NewServer(httpapi.NewHandler(svc, logging.Nop(), httpapi.Options{}))
	t.Cleanup(srv.Close)
	return srv.URL + common.APIPrefix
}

func newConfig(apiURL, account string, passwd *string) *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.Account = account
	cfg.Passwd = passwd
	cfg.APIURL = apiURL
	cfg.RetryDelay = 10 * time.Millisecond
	return cfg
}

var testAddrs = agent.WithAddrSource(func() ([]netip.Addr, error) {
	return []netip.Addr{netip.MustParseAddr("10.1.2.3"), netip.MustParseAddr("2001:db8::7")}, nil
})

func TestNewApp_BadLogLevel(t *testing.T) {
	cfg := newConfig("http://localhost/here", "alice", nil)
	cfg.LogLevel = "loud"

	_, err := NewApp(cfg, &bytes.Buffer{})
	require.Error(t, err)
}

func TestRunThenLookup(t *testing.T) {
	apiURL := newRegistry(t)
	pw := "pass123"
	id := uuid.New()

	app, err := NewApp(newConfig(apiURL, "bob", &pw), &bytes.Buffer{}, testAddrs, agent.WithSessionID(id))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	var out bytes.Buffer
	require.Eventually(t, func() bool {
		out.Reset()
		return app.Lookup(context.Background(), "bob", &pw, &out) == nil
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("app did not stop")
	}

	var got models.PresenceRecord
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "bob", got.Account)
	assert.Equal(t, []netip.Addr{netip.MustParseAddr("10.1.2.3")}, got.IPv4s)
	assert.Equal(t, []netip.Addr{netip.MustParseAddr("2001:db8::7")}, got.IPv6s)

	wrong := "nope"
	err = app.Lookup(context.Background(), "bob", &wrong, &out)
	assert.ErrorIs(t, err, common.ErrInvalidPassword)
	err = app.Lookup(context.Background(), "bob", nil, &out)
	assert.ErrorIs(t, err, common.ErrInvalidPassword)
}

func TestLookup_UnprotectedWithoutPassword(t *testing.T) {
	apiURL := newRegistry(t)
	app, err := NewApp(newConfig(apiURL, "alice", nil), &bytes.Buffer{}, testAddrs)
	require.NoError(t, err)

	require.Equal(t, agent.StateProbing, app.agent.State())
	ctx := context.Background()
	for app.agent.State() != agent.StateRegistering {
		app.agent.Step(ctx)
	}
	assert.Equal(t, 60*time.Second, app.agent.Step(ctx))

	var out bytes.Buffer
	require.NoError(t, app.Lookup(ctx, "alice", nil, &out))
	assert.Equal(t, "alice: registered, no details disclosed\n", out.String())
}

func TestLookup_NotFound(t *testing.T) {
	apiURL := newRegistry(t)
	app, err := NewApp(newConfig(apiURL, "alice", nil), &bytes.Buffer{})
	require.NoError(t, err)

	err = app.Lookup(context.Background(), "nobody", nil, &bytes.Buffer{})
	assert.ErrorIs(t, err, common.ErrNotFound)
}
