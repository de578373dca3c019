// Package api is the operator's client for the FileKeeper server: JSON over
// HTTP for authentication and uploads, gRPC for the file admin service.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/filekeeper/internal/netx"
)

type HTTPClient struct {
	baseURL string
	http    *http.Client
	token   string
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) Token() string { return c.token }

func (c *HTTPClient) SetToken(token string) { c.token = token }

type credentials struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// Login authenticates and keeps the returned token for later calls.
func (c *HTTPClient) Login(ctx context.Context, login string, password []byte) error {
	return c.authenticate(ctx, "/api/auth/login", login, password)
}

// Register creates an account and logs in with it.
func (c *HTTPClient) Register(ctx context.Context, login string, password []byte) error {
	return c.authenticate(ctx, "/api/auth/registration", login, password)
}

func (c *HTTPClient) authenticate(ctx context.Context, path, login string, password []byte) error {
	var out tokenResponse
	err := c.doJSON(ctx, http.MethodPost, path, credentials{Login: login, Password: string(password)}, &out, false)
	if err != nil {
		return err
	}
	c.token = out.Token
	return nil
}

// Upload stores data as a new unassociated file.
func (c *HTTPClient) Upload(ctx context.Context, filename string, data io.Reader) (*File, error) {
	if c.token == "" {
		return nil, ErrNotLoggedIn
	}

	resp, err := netx.PostMultipart(ctx, c.http, c.baseURL+"/api/file", "file", filename, data, c.authHeader())
	if err != nil {
		return nil, transportError(err)
	}
	defer resp.Body.Close()

	var f File
	if err := decodeResponse(resp, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// Sweep asks the server to purge orphans now. A negative retention uses the
// server's configured window.
func (c *HTTPClient) Sweep(ctx context.Context, retention time.Duration) (*SweepResult, error) {
	path := "/api/file"
	if retention >= 0 {
		path += "?retention=" + url.QueryEscape(retention.String())
	}

	var res SweepResult
	if err := c.doJSON(ctx, http.MethodDelete, path, nil, &res, true); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *HTTPClient) authHeader() http.Header {
	h := http.Header{}
	h.Set("Authorization", "Bearer "+c.token)
	return h
}

func (c *HTTPClient) doJSON(ctx context.Context, method, path string, in, out any, auth bool) error {
	if auth && c.token == "" {
		return ErrNotLoggedIn
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return transportError(err)
	}
	defer resp.Body.Close()

	return decodeResponse(resp, out)
}

func decodeResponse(resp *http.Response, out any) error {
	if resp.StatusCode >= 300 {
		apiErr := &Error{Status: resp.StatusCode}
		var envelope struct {
			Error struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil {
			apiErr.Code = envelope.Error.Code
			apiErr.Message = envelope.Error.Message
		}
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// transportError marks connection level failures as ErrUnavailable.
func transportError(err error) error {
	var netErr net.Error
	var opErr *net.OpError
	if errors.As(err, &opErr) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return err
}
