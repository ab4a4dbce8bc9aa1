// Package api is the HTTP client for the VibeCheck service. It owns status
// classification into the structured error codes, retry policy (idempotent
// reads retry with backoff, submissions never), and the refresh-once-on-401
// token rotation for authenticated calls.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/vibecheckapp/vibecheck-cli/internal/errors"
	"github.com/vibecheckapp/vibecheck-cli/internal/vibe"
)

const (
	defaultTimeout     = 30 * time.Second
	defaultRetryBudget = 15 * time.Second
)

// CredentialStore supplies and rotates the session token pair. It is
// implemented by session.Manager.
type CredentialStore interface {
	AccessToken(ctx context.Context) (string, bool, error)
	RefreshToken(ctx context.Context) (string, bool, error)
	StoreTokens(ctx context.Context, accessToken, refreshToken string) error
}

// Options configures a Client.
type Options struct {
	BaseURL     string
	Timeout     time.Duration
	RetryBudget time.Duration
	Credentials CredentialStore
	Logger      zerolog.Logger
}

// Client talks to the VibeCheck API.
type Client struct {
	baseURL     string
	http        *http.Client
	creds       CredentialStore
	log         zerolog.Logger
	retryBudget time.Duration
}

// New creates a Client. BaseURL must not have a trailing slash.
func New(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	budget := opts.RetryBudget
	if budget <= 0 {
		budget = defaultRetryBudget
	}
	return &Client{
		baseURL:     opts.BaseURL,
		http:        &http.Client{Timeout: timeout},
		creds:       opts.Credentials,
		log:         opts.Logger,
		retryBudget: budget,
	}
}

// CheckVibeGuest submits a guest analysis. A 403 maps to RateLimited, not
// QuotaExceeded: the server's guest ceiling is authoritative and the local
// counter may simply be behind it.
func (c *Client) CheckVibeGuest(ctx context.Context, moodText, deviceID string) (*vibe.VibeCheck, error) {
	var out vibe.VibeCheck
	err := c.do(ctx, http.MethodPost, "/api/vibes/guest",
		guestCheckRequest{MoodText: moodText, DeviceID: deviceID}, &out,
		doOpts{guestSubmit: true, wantStatus: http.StatusCreated})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// CheckVibe submits an authenticated analysis.
func (c *Client) CheckVibe(ctx context.Context, moodText string) (*vibe.VibeCheck, error) {
	var out vibe.VibeCheck
	err := c.do(ctx, http.MethodPost, "/api/vibes",
		checkVibeRequest{MoodText: moodText}, &out,
		doOpts{authed: true, wantStatus: http.StatusCreated})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Today returns today's check, or nil when none exists yet.
func (c *Client) Today(ctx context.Context) (*vibe.VibeCheck, error) {
	var out vibe.VibeCheck
	err := c.doWithRetry(ctx, http.MethodGet, "/api/vibes/today", nil, &out,
		doOpts{authed: true, wantStatus: http.StatusOK, nilOn404: true})
	if err != nil {
		return nil, err
	}
	if out.ID == "" {
		return nil, nil
	}
	return &out, nil
}

// History fetches one page of the server-side history.
func (c *Client) History(ctx context.Context, limit, offset int) (*HistoryPage, error) {
	var out HistoryPage
	path := fmt.Sprintf("/api/vibes/history?limit=%d&offset=%d", limit, offset)
	err := c.doWithRetry(ctx, http.MethodGet, path, nil, &out,
		doOpts{authed: true, wantStatus: http.StatusOK})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Stats fetches the server-computed stats for the signed-in user.
func (c *Client) Stats(ctx context.Context) (*vibe.Stats, error) {
	var out vibe.Stats
	err := c.doWithRetry(ctx, http.MethodGet, "/api/vibes/stats", nil, &out,
		doOpts{authed: true, wantStatus: http.StatusOK})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Trend fetches the score-over-time series.
func (c *Client) Trend(ctx context.Context) ([]vibe.TrendPoint, error) {
	var out trendResponse
	err := c.doWithRetry(ctx, http.MethodGet, "/api/vibes/trend", nil, &out,
		doOpts{authed: true, wantStatus: http.StatusOK})
	if err != nil {
		return nil, err
	}
	if out.Data == nil {
		return []vibe.TrendPoint{}, nil
	}
	return out.Data, nil
}

// Login exchanges credentials for a token pair.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	var out AuthResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/login",
		loginRequest{Email: email, Password: password}, &out,
		doOpts{wantStatus: http.StatusOK})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates an account and returns its first token pair.
func (c *Client) Register(ctx context.Context, email, password string) (*AuthResponse, error) {
	var out AuthResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/register",
		registerRequest{Email: email, Password: password}, &out,
		doOpts{wantStatus: http.StatusCreated})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout revokes the stored refresh token server-side. Best effort: the
// caller clears local state regardless.
func (c *Client) Logout(ctx context.Context) error {
	refresh, ok, err := c.creds.RefreshToken(ctx)
	if err != nil || !ok {
		return nil
	}
	return c.do(ctx, http.MethodPost, "/api/auth/logout",
		refreshRequest{RefreshToken: refresh}, nil,
		doOpts{wantStatus: http.StatusOK})
}

// DeleteAccount removes the account on the server.
func (c *Client) DeleteAccount(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/api/auth/account", nil, nil,
		doOpts{authed: true, wantStatus: http.StatusOK})
}

type doOpts struct {
	authed      bool
	guestSubmit bool
	nilOn404    bool
	wantStatus  int
}

// doWithRetry wraps do with exponential backoff for idempotent reads. Only
// transport failures and 5xx responses retry; everything else is final.
func (c *Client) doWithRetry(ctx context.Context, method, path string, body, out any, opts doOpts) error {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = c.retryBudget
	return backoff.Retry(func() error {
		err := c.do(ctx, method, path, body, out, opts)
		if err == nil {
			return nil
		}
		if errors.Is(err, errors.ErrNetwork) || errors.Is(err, errors.ErrInternal) {
			c.log.Debug().Err(err).Str("path", path).Msg("retryable request failure")
			return err
		}
		return backoff.Permanent(err)
	}, backoff.WithContext(bo, ctx))
}

// do performs one request. For authed requests a 401 triggers a single token
// refresh followed by one replay; if the refresh itself fails the original
// 401 is returned.
func (c *Client) do(ctx context.Context, method, path string, body, out any, opts doOpts) error {
	status, err := c.roundTrip(ctx, method, path, body, out, opts, "")
	if err == nil || !opts.authed || status != http.StatusUnauthorized {
		return err
	}

	token, refreshErr := c.refreshTokens(ctx)
	if refreshErr != nil {
		c.log.Debug().Err(refreshErr).Msg("token refresh failed")
		return err
	}
	_, err = c.roundTrip(ctx, method, path, body, out, opts, token)
	return err
}

// refreshTokens rotates the token pair through the refresh endpoint and
// persists the new pair.
func (c *Client) refreshTokens(ctx context.Context) (string, error) {
	refresh, ok, err := c.creds.RefreshToken(ctx)
	if err != nil {
		return "", err
	}
	if !ok || refresh == "" {
		return "", errors.NewUnauthorized("")
	}

	var out AuthResponse
	if _, err := c.roundTrip(ctx, http.MethodPost, "/api/auth/refresh",
		refreshRequest{RefreshToken: refresh}, &out,
		doOpts{wantStatus: http.StatusOK}, ""); err != nil {
		return "", err
	}
	if err := c.creds.StoreTokens(ctx, out.AccessToken, out.RefreshToken); err != nil {
		c.log.Warn().Err(err).Msg("rotated tokens could not be persisted")
	}
	return out.AccessToken, nil
}

// roundTrip sends the request once and decodes the response or classifies the
// failure.
func (c *Client) roundTrip(ctx context.Context, method, path string, body, out any, opts doOpts, token string) (int, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return 0, errors.NewInternal(err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if opts.authed {
		if token == "" {
			token, _, err = c.creds.AccessToken(ctx)
			if err != nil {
				return 0, errors.NewInternal(err)
			}
		}
		if token == "" {
			return 0, errors.NewUnauthorized("")
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, errors.NewNetwork(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == opts.wantStatus {
		if out == nil {
			return resp.StatusCode, nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, errors.NewInternal(fmt.Errorf("decode response: %w", err))
		}
		return resp.StatusCode, nil
	}

	if opts.nilOn404 && resp.StatusCode == http.StatusNotFound {
		return resp.StatusCode, nil
	}

	return resp.StatusCode, c.classify(resp.StatusCode, decodeErrorMessage(resp), opts)
}

// classify maps a non-success status to a structured error.
func (c *Client) classify(status int, msg string, opts doOpts) error {
	switch {
	case status == http.StatusBadRequest:
		return errors.NewInvalidRequest(msg)
	case status == http.StatusUnauthorized:
		return errors.NewUnauthorized(msg)
	case status == http.StatusForbidden && opts.guestSubmit:
		return errors.NewRateLimited(msg)
	case status == http.StatusForbidden:
		return errors.NewUnauthorized(msg)
	case status == http.StatusConflict:
		return errors.NewConflict(msg)
	case status == http.StatusTooManyRequests:
		return errors.NewRateLimited(msg)
	default:
		return errors.NewInternal(fmt.Errorf("unexpected status %d: %s", status, msg))
	}
}

// decodeErrorMessage pulls the message out of the server's error envelope.
func decodeErrorMessage(resp *http.Response) string {
	var envelope errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil || envelope.Message == "" {
		return http.StatusText(resp.StatusCode)
	}
	return envelope.Message
}
