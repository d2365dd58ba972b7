package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/here/internal/common"
	"github.com/dmitrijs2005/here/internal/models"
)

func newServer(t *testing.T, h http.HandlerFunc) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewHTTPClient(srv.URL+"/here/", time.Second)
}

func TestGetServerInfo(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/here/server", r.URL.Path)
		_, _ = io.WriteString(w, `{"name":"Here","version":"1.0.0"}`)
	})

	info, err := c.GetServerInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Here, version 1.0.0.", info.String())
}

func TestPostClientInfo(t *testing.T) {
	rec := models.NewPresenceRecord(models.RecordConfig{
		ID:      uuid.New(),
		Account: "alice",
		Addrs:   []netip.Addr{netip.MustParseAddr("192.0.2.1")},
	})
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/here/client/post", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var got models.PresenceRecord
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.True(t, rec.Equal(got))

		_ = json.NewEncoder(w).Encode(models.PostClientInfoResponse{
			ID: got.ID.String(), Account: got.Account, IsOK: true, Lifetime: 60,
		})
	})

	resp, err := c.PostClientInfo(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, int64(60), resp.Lifetime)
}

func TestPostClientInfo_ServerFault(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"is_ok":false,"message":"DatabaseError","lifetime":0}`)
	})

	_, err := c.PostClientInfo(context.Background(), models.PresenceRecord{Account: "alice"})
	require.ErrorIs(t, err, common.ErrTransport)
	assert.NotErrorIs(t, err, ErrUnavailable)
	assert.Contains(t, err.Error(), "DatabaseError")
}

func TestPostClientInfo_NotOK(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"is_ok":false,"lifetime":0}`)
	})

	_, err := c.PostClientInfo(context.Background(), models.PresenceRecord{Account: "alice"})
	require.ErrorIs(t, err, common.ErrTransport)
}

func TestGetClientInfo(t *testing.T) {
	var gotQuery map[string][]string
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		switch r.URL.Query().Get("passwd") {
		case "secret":
			_, _ = io.WriteString(w, `{"is_ok":true,"data":{"id":"7f0c2c7e-4d8b-4a55-8a4c-2f1e9f0d6b11","account":"bob","passwd":"d","ipv4s":["192.0.2.1"],"ipv6s":[]}}`)
		case "":
			if _, ok := r.URL.Query()["passwd"]; !ok && r.URL.Query().Get("account") == "ghost" {
				w.WriteHeader(http.StatusNotFound)
				_, _ = io.WriteString(w, `{"is_ok":false,"message":"NotFound"}`)
				return
			}
			fallthrough
		default:
			w.WriteHeader(http.StatusForbidden)
			_, _ = io.WriteString(w, `{"is_ok":false,"message":"InvalidPassword"}`)
		}
	})
	ctx := context.Background()
	secret, wrong := "secret", "wrong"

	resp, err := c.GetClientInfo(ctx, "bob", &secret)
	require.NoError(t, err)
	require.NotNil(t, resp.Data)
	assert.Equal(t, "bob", resp.Data.Account)
	assert.Equal(t, []string{"bob"}, gotQuery["account"])

	_, err = c.GetClientInfo(ctx, "bob", &wrong)
	require.ErrorIs(t, err, common.ErrInvalidPassword)

	_, err = c.GetClientInfo(ctx, "ghost", nil)
	require.ErrorIs(t, err, common.ErrNotFound)
	_, sent := gotQuery["passwd"]
	assert.False(t, sent, "nil password must not be sent")
}

func TestUnknownRouteIsTransportError(t *testing.T) {
	c := newServer(t, http.NotFound)

	_, err := c.GetServerInfo(context.Background())
	require.ErrorIs(t, err, common.ErrTransport)
	assert.NotErrorIs(t, err, common.ErrNotFound)
}

func TestMalformedBodyIsTransportError(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `<html>`)
	})

	_, err := c.GetServerInfo(context.Background())
	require.ErrorIs(t, err, common.ErrTransport)
}

func TestServerDown(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewHTTPClient(url+"/here", time.Second).GetServerInfo(context.Background())
	require.ErrorIs(t, err, ErrUnavailable)
	require.ErrorIs(t, err, common.ErrTransport)
}

func TestCancelledContext(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.GetServerInfo(ctx)
	require.ErrorIs(t, err, common.ErrTransport)
	require.ErrorIs(t, err, context.Canceled)
}
