// Package api is the HTTP client for the auth service. It owns the request
// pipeline (token attachment, 401 handling, timeouts) and translates the
// service's nested snake_case envelopes into the application's flat shapes.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/beaconapp/authcore/internal/keystore"
)

const (
	requestTimeout = 10 * time.Second

	// DefaultCountryCode is applied when a signup request leaves the
	// country code blank.
	DefaultCountryCode = "+1"
)

// Client talks to the auth service. Build it once at startup and share it;
// every request goes through the same interception pipeline.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient builds a client rooted at baseURL. The token store is consulted
// before every request and cleared whenever the service answers 401.
func NewClient(baseURL string, tokens keystore.Store, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: requestTimeout,
			Transport: &sessionTransport{
				base:   http.DefaultTransport,
				tokens: tokens,
				logger: logger,
			},
		},
		logger: logger,
	}
}

// Login exchanges credentials for a token and the account's user record.
func (c *Client) Login(ctx context.Context, email, password string) (AuthResult, error) {
	body := map[string]any{
		"user": map[string]any{
			"email":    email,
			"password": password,
		},
	}

	var env successEnvelope
	if err := c.do(ctx, http.MethodPost, "/auth/login", body, &env); err != nil {
		return AuthResult{}, err
	}
	return AuthResult{Token: env.Data.Token, User: normalizeUser(env.Data.User)}, nil
}

// Register creates an account and returns the same token/user pair a login
// does. A blank country code defaults to DefaultCountryCode.
func (c *Client) Register(ctx context.Context, req SignupRequest) (AuthResult, error) {
	countryCode := req.CountryCode
	if countryCode == "" {
		countryCode = DefaultCountryCode
	}
	body := map[string]any{
		"user": map[string]any{
			"first_name":            req.FirstName,
			"last_name":             req.LastName,
			"email":                 req.Email,
			"phone":                 req.Phone,
			"country_code":          countryCode,
			"password":              req.Password,
			"password_confirmation": req.PasswordConfirmation,
		},
	}

	var env successEnvelope
	if err := c.do(ctx, http.MethodPost, "/auth/register", body, &env); err != nil {
		return AuthResult{}, err
	}
	return AuthResult{Token: env.Data.Token, User: normalizeUser(env.Data.User)}, nil
}

// Logout invalidates the session on the server side.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/auth/logout", nil, nil)
}

// UpdatePassword changes the account password. The session token stays valid.
func (c *Client) UpdatePassword(ctx context.Context, current, updated string) error {
	body := map[string]any{
		"user": map[string]any{
			"current_password": current,
			"new_password":     updated,
		},
	}
	return c.do(ctx, http.MethodPut, "/auth/password", body, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// decodeError maps an error response onto *Error. Bodies that are not JSON
// still yield a status-only Error rather than a decode failure.
func decodeError(resp *http.Response) error {
	apiErr := &Error{Status: resp.StatusCode}

	var body struct {
		Error   string   `json:"error"`
		Message string   `json:"message"`
		Errors  []string `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
		apiErr.ErrorText = body.Error
		apiErr.Message = body.Message
		apiErr.Errors = body.Errors
	}

	return apiErr
}
