package autolab

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DeviceCode is the platform's answer to a device flow start. UserCode and
// VerificationURI are shown to the administrator completing the flow.
type DeviceCode struct {
	DeviceCode      string `json:"device_code"`
	UserCode        string `json:"user_code"`
	VerificationURI string `json:"verification_uri"`
}

// StartDeviceFlow begins the OAuth device flow used to provision the first
// refresh token.
func (c *Client) StartDeviceFlow(ctx context.Context) (*DeviceCode, error) {
	var out DeviceCode
	status, err := c.oauthGet(ctx, "/oauth/device_flow_init", url.Values{"client_id": {c.clientID}}, &out)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK || out.DeviceCode == "" {
		return nil, &APIError{Status: status, Body: "device flow init returned no device code"}
	}
	return &out, nil
}

// AwaitAuthorization polls until the device code is approved and returns
// the authorization code. It gives up when ctx ends.
func (c *Client) AwaitAuthorization(ctx context.Context, deviceCode string, interval time.Duration) (string, error) {
	if interval <= 0 {
		interval = time.Second
	}
	params := url.Values{"client_id": {c.clientID}, "device_code": {deviceCode}}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("waiting for device authorization: %w", ctx.Err())
		case <-ticker.C:
		}

		var out struct {
			Code string `json:"code"`
		}
		// Pending answers carry an error body and no code.
		if _, err := c.oauthGet(ctx, "/oauth/device_flow_authorize", params, &out); err != nil {
			return "", err
		}
		if out.Code != "" {
			return out.Code, nil
		}
	}
}

// ExchangeAuthorizationCode trades an authorization code for the first
// token pair and saves the refresh token.
func (c *Client) ExchangeAuthorizationCode(ctx context.Context, code string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	tok, err := c.grant(ctx, url.Values{
		"grant_type":   {"authorization_code"},
		"code":         {code},
		"redirect_uri": {c.redirectURI},
	})
	if err != nil {
		return fmt.Errorf("exchange authorization code: %w", err)
	}
	if tok.RefreshToken == "" {
		return ErrNoRefreshToken
	}
	c.accessToken = tok.AccessToken
	return nil
}

// oauthGet decodes a JSON answer from an OAuth endpoint regardless of its
// status, which it returns alongside.
func (c *Client) oauthGet(ctx context.Context, path string, params url.Values, out any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return 0, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("GET %s: %w", path, redactURL(err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return resp.StatusCode, err
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return resp.StatusCode, &APIError{Status: resp.StatusCode, Body: string(raw)}
	}
	_ = json.Unmarshal(raw, out)
	return resp.StatusCode, nil
}
