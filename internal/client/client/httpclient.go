package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/here/internal/common"
	"github.com/dmitrijs2005/here/internal/models"
	"github.com/dmitrijs2005/here/internal/netx"
)

// DefaultRequestTimeout bounds a single API call.
const DefaultRequestTimeout = 10 * time.Second

// HTTPClient talks to the registry over JSON/HTTP.
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

// NewHTTPClient returns a client for the API rooted at baseURL, for example
// "http://localhost:8080/here".
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) GetServerInfo(ctx context.Context) (models.AppInfo, error) {
	var info models.AppInfo
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+common.PathServerInfo, nil)
	if err != nil {
		return info, fmt.Errorf("%w: %v", common.ErrTransport, err)
	}
	if err := c.do(req, &info); err != nil {
		return info, err
	}
	return info, nil
}

// PostClientInfo registers record. A response with is_ok=false is an error.
func (c *HTTPClient) PostClientInfo(ctx context.Context, record models.PresenceRecord) (*models.PostClientInfoResponse, error) {
	body, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("%w: encode record: %v", common.ErrTransport, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+common.PathPostClientInfo, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")

	var resp models.PostClientInfoResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	if !resp.IsOK {
		return nil, fmt.Errorf("%w: registration rejected: %s", common.ErrTransport, resp.Message)
	}
	return &resp, nil
}

// GetClientInfo looks up account. passwd is sent in plain text when set.
func (c *HTTPClient) GetClientInfo(ctx context.Context, account string, passwd *string) (*models.GetClientInfoResponse, error) {
	q := url.Values{}
	q.Set(common.QueryParamAccount, account)
	if passwd != nil {
		q.Set(common.QueryParamPassword, *passwd)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+common.PathGetClientInfo+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrTransport, err)
	}

	var resp models.GetClientInfoResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return mapError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return statusError(resp)
	}
	if err := netx.DecodeResponse(resp.Body, out); err != nil {
		return fmt.Errorf("%w: %v", common.ErrTransport, err)
	}
	return nil
}

// mapError classifies a failed round trip.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %w", common.ErrTransport, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return fmt.Errorf("%w: %v", common.ErrTransport, err)
}

// statusError turns a non-2xx response into an error. The JSON message, when
// present, picks the sentinel.
func statusError(resp *http.Response) error {
	var body struct {
		Message models.ResponseMessage `json:"message"`
	}
	raw := netx.ErrorBody(resp.Body)
	_ = json.Unmarshal([]byte(raw), &body)

	switch {
	case resp.StatusCode == http.StatusNotFound && body.Message == models.MessageNotFound:
		return common.ErrNotFound
	case resp.StatusCode == http.StatusForbidden && body.Message == models.MessageInvalidPassword:
		return common.ErrInvalidPassword
	}
	if body.Message != "" {
		return fmt.Errorf("%w: %s: %s", common.ErrTransport, resp.Status, body.Message)
	}
	return fmt.Errorf("%w: %s", common.ErrTransport, resp.Status)
}
