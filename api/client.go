package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// SessionHandle is the slice of the session manager the query layer depends
// on. Refresh is expected to coalesce concurrent callers and to tear the
// session down on an irrecoverable failure.
type SessionHandle interface {
	AccessToken() string
	Refresh(ctx context.Context) (string, error)
	Logout(ctx context.Context)
}

// Client is the base request layer for all resource services. It attaches the
// current bearer token, and on a 401 performs exactly one refresh and one
// retry before giving up.
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    SessionHandle
	log        zerolog.Logger
}

// NewClient creates an authenticated API client. httpClient may be nil, in
// which case http.DefaultClient is used.
func NewClient(baseURL string, session SessionHandle, httpClient *http.Client, log zerolog.Logger) (*Client, error) {
	if session == nil {
		return nil, errors.New("[api.NewClient] session is required")
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		session:    session,
		log:        log,
	}, nil
}

// Get issues an authenticated GET request
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodGet, path, nil, out)
}

// Post issues an authenticated POST request
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, body, out)
}

// Put issues an authenticated PUT request
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPut, path, body, out)
}

// Patch issues an authenticated PATCH request
func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPatch, path, body, out)
}

// Delete issues an authenticated DELETE request
func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodDelete, path, nil, out)
}

// Do sends a request with the current access token attached. On a 401 it
// triggers a session refresh and retries the original request exactly once
// with the token that refresh produced; the retry's result is returned as-is.
// If the refresh fails the session is torn down and ErrSessionExpired is
// returned. A 204 response leaves out untouched.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "[Client.Do] marshal request body")
		}
	}

	requestID := uuid.New().String()
	logger := c.log.With().Str("request_id", requestID).Str("method", method).Str("path", path).Logger()

	resp, err := c.send(ctx, method, path, payload, c.session.AccessToken(), requestID)
	if err != nil {
		return errors.Wrap(err, "[Client.Do] send")
	}

	if resp.StatusCode == http.StatusUnauthorized {
		drain(resp)
		logger.Debug().Msg("unauthorized, attempting token refresh")

		newToken, refreshErr := c.session.Refresh(ctx)
		if refreshErr != nil {
			c.session.Logout(ctx)
			return errors.Wrap(ErrSessionExpired, refreshErr.Error())
		}

		// Exactly one retry, with the token minted by the refresh this 401
		// triggered. A second 401 falls through as a plain request failure.
		resp, err = c.send(ctx, method, path, payload, newToken, requestID)
		if err != nil {
			return errors.Wrap(err, "[Client.Do] retry send")
		}
	}

	return c.handleResponse(resp, out, logger)
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte, accessToken, requestID string) (*http.Response, error) {
	var bodyReader *bytes.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	} else {
		bodyReader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}

	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Request-ID", requestID)

	return c.httpClient.Do(req)
}

func (c *Client) handleResponse(resp *http.Response, out any, logger zerolog.Logger) error {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		failure := &RequestFailure{
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("request failed with status %d", resp.StatusCode),
		}

		var errorData struct {
			Message string `json:"message"`
			Detail  string `json:"detail"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errorData); err == nil {
			if errorData.Message != "" {
				failure.Message = errorData.Message
			} else if errorData.Detail != "" {
				failure.Message = errorData.Detail
			}
		}

		logger.Warn().Int("status", resp.StatusCode).Str("message", failure.Message).Msg("request failed")
		return failure
	}

	if resp.StatusCode == http.StatusNoContent || out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "[Client.handleResponse] decode response")
	}
	return nil
}

// drain discards the response body so the connection can be reused before the
// retry
func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
