package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/MrEthical07/dashAuth/session"
)

// ErrUnavailable indicates the backend could not be reached or failed
// without a usable response (dial error, timeout, 5xx).
var ErrUnavailable = errors.New("transport: auth backend unreachable")

// Backend error codes. The set mirrors the backend contract; unknown codes
// pass through and map to the Unknown taxonomy member upstream.
const (
	CodeInvalidCredentials = "invalid_credentials"
	CodeEmailNotVerified   = "email_not_verified"
	CodeAccountLocked      = "account_locked"
	CodeAccountExists      = "account_exists"
	CodeInvalidRefresh     = "invalid_refresh"
)

// APIError is a structured backend rejection (4xx with a decoded body).
type APIError struct {
	Status  int
	Code    string
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("backend rejected request (status %d)", e.Status)
	}
	return fmt.Sprintf("backend rejected request: %s (status %d)", e.Code, e.Status)
}

// LoginResponse is the payload of a successful login or register call.
type LoginResponse struct {
	User         session.User `json:"user"`
	Token        string       `json:"token"`
	RefreshToken string       `json:"refreshToken"`
	// ExpiresIn is the access token lifetime in seconds. Optional; when
	// absent the expiry is derived from the token itself.
	ExpiresIn int64 `json:"expiresIn,omitempty"`
}

// RefreshResponse is the payload of a successful token refresh.
type RefreshResponse struct {
	Token string `json:"token"`
	// RefreshToken is present only when the backend rotates refresh tokens.
	RefreshToken string `json:"refreshToken,omitempty"`
	ExpiresIn    int64  `json:"expiresIn,omitempty"`
}

// Client issues requests against the backend authentication endpoints.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a backend client. A nil httpClient gets a default with
// a 15s timeout; hosts wanting different timeout or proxy behavior inject
// their own.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

type credentialsRequest struct {
	Identity string `json:"identity"`
	Secret   string `json:"secret"`
}

// Login exchanges credentials for a token pair.
func (c *Client) Login(ctx context.Context, identity, secret string) (*LoginResponse, error) {
	var out LoginResponse
	if err := c.post(ctx, "/auth/login", credentialsRequest{Identity: identity, Secret: secret}, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates an account and returns a token pair (auto-login).
func (c *Client) Register(ctx context.Context, identity, secret string) (*LoginResponse, error) {
	var out LoginResponse
	if err := c.post(ctx, "/auth/register", credentialsRequest{Identity: identity, Secret: secret}, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Refresh exchanges a refresh token for a new access token.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*RefreshResponse, error) {
	var out RefreshResponse
	body := struct {
		RefreshToken string `json:"refreshToken"`
	}{RefreshToken: refreshToken}
	if err := c.post(ctx, "/auth/refresh", body, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ResetPassword asks the backend to start a password reset for identity.
func (c *Client) ResetPassword(ctx context.Context, identity string) error {
	body := struct {
		Identity string `json:"identity"`
	}{Identity: identity}
	return c.post(ctx, "/auth/reset-password", body, "", nil)
}

// Logout notifies the backend that the session is ending.
func (c *Client) Logout(ctx context.Context, accessToken string) error {
	return c.post(ctx, "/auth/logout", struct{}{}, accessToken, nil)
}

func (c *Client) post(ctx context.Context, path string, body any, bearer string, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("transport: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("transport: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%w: undecodable response: %v", ErrUnavailable, err)
		}
		return nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return decodeAPIError(resp)
	default:
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}

	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err == nil && json.Unmarshal(data, &body) == nil {
		apiErr.Code = body.Error
		apiErr.Message = body.Message
	}
	return apiErr
}
