// Package transport is the authenticated HTTP layer. Client attaches the
// stored bearer token to every request and recovers from an expired access
// token exactly once: a 401 drives one shared refresh through the session and
// one retry of the original request. The retry budget is modeled as an
// explicit state machine so the at-most-once invariant is visible in one
// place rather than buried in control flow.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/dayvoid97/gurkha-go/session"
)

const (
	defaultTimeout   = 30 * time.Second
	maxErrorBodySize = 64 * 1024
)

// requestState tracks one request through the refresh-and-retry cycle.
// Sent → Unauthorized → Refreshing → Retried; a request in Retried never
// refreshes again, whatever the retry's status.
type requestState int

const (
	stateSent requestState = iota
	stateUnauthorized
	stateRefreshing
	stateRetried
)

func (s requestState) String() string {
	switch s {
	case stateSent:
		return "sent"
	case stateUnauthorized:
		return "unauthorized"
	case stateRefreshing:
		return "refreshing"
	case stateRetried:
		return "retried"
	}
	return "unknown"
}

// Client issues authenticated requests against the backend.
type Client struct {
	session *session.AuthSession
	base    *http.Client
}

type ClientOption func(*Client)

// WithBaseClient overrides the underlying http.Client (timeouts, proxies,
// test doubles).
func WithBaseClient(base *http.Client) ClientOption {
	return func(c *Client) {
		c.base = base
	}
}

func New(sess *session.AuthSession, options ...ClientOption) (*Client, error) {
	if sess == nil {
		return nil, errors.New("[transport.New] session is required")
	}

	c := &Client{
		session: sess,
		base:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// Do sends req with the current access token attached. On a 401 it refreshes
// once through the shared session and retries once with the new token; the
// retried response is returned as-is, even if it is another 401. Responses
// with other statuses pass through untouched — use DoJSON for taxonomy
// classification.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if err := c.snapshotBody(req); err != nil {
		return nil, err
	}

	state := stateSent
	resp, err := c.attempt(req, c.session.AccessToken())
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	state = stateUnauthorized
	drainAndClose(resp.Body)
	log.Debug().Str("url", req.URL.String()).Str("state", state.String()).
		Msg("access token rejected, refreshing")

	state = stateRefreshing
	token, err := c.session.Refresh(req.Context())
	if err != nil {
		// Session has already cleared the stored pair; surface the
		// auth-required condition untouched.
		return nil, err
	}

	state = stateRetried
	log.Debug().Str("url", req.URL.String()).Str("state", state.String()).
		Msg("retrying with refreshed token")
	resp, err = c.attempt(req, token)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	return resp, nil
}

// DoJSON performs a JSON request/response cycle and applies the failure
// taxonomy: *NetworkError for transport failures, session.AuthRequiredErr
// when recovery failed, *UpstreamError for any remaining non-2xx status.
func (c *Client) DoJSON(ctx context.Context, method, url string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "[Client.DoJSON] marshal request body")
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return errors.Wrap(err, "[Client.DoJSON] build request")
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return &UpstreamError{Status: resp.StatusCode, Body: detail}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "[Client.DoJSON] decode response")
	}
	return nil
}

// snapshotBody makes the request body replayable so the single retry can
// resend it. Requests built with http.NewRequest from an in-memory reader
// already carry GetBody.
func (c *Client) snapshotBody(req *http.Request) error {
	if req.Body == nil || req.GetBody != nil {
		return nil
	}
	payload, err := io.ReadAll(req.Body)
	req.Body.Close()
	if err != nil {
		return errors.Wrap(err, "[Client.snapshotBody] read body")
	}
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(payload)), nil
	}
	return nil
}

// attempt sends one copy of the request with the given token. The original
// request is never mutated, so each attempt gets a fresh body.
func (c *Client) attempt(req *http.Request, token string) (*http.Response, error) {
	attempt := req.Clone(req.Context())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		attempt.Body = body
	}
	if token != "" {
		attempt.Header.Set("Authorization", "Bearer "+token)
	}
	return c.base.Do(attempt)
}

func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, maxErrorBodySize))
	_ = body.Close()
}
