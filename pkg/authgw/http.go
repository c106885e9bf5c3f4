package authgw

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
)

// Ensure HTTPClient implements Client
var _ Client = (*HTTPClient)(nil)

const probeAttempts = 3

// HTTPClient talks to the auth gateway's REST API. All requests share one
// connection pool and authenticate with the service's own bearer token.
type HTTPClient struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
}

// NewHTTPClient creates a gateway client for the given base URL.
func NewHTTPClient(baseURL string, tokens TokenSource) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *HTTPClient) AddUser(ctx context.Context, name string) error {
	body, err := json.Marshal(User{Name: name})
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, "/users", body, nil)
}

func (c *HTTPClient) DeleteUser(ctx context.Context, name string) error {
	return c.do(ctx, http.MethodDelete, userPath(name), nil, nil)
}

// GetUser is an idempotent probe, so transient gateway failures are retried
// a few times before giving up.
func (c *HTTPClient) GetUser(ctx context.Context, name string) (*User, error) {
	var user User
	err := retry.Do(
		func() error {
			return c.do(ctx, http.MethodGet, userPath(name), nil, &user)
		},
		retry.Context(ctx),
		retry.Attempts(probeAttempts),
		retry.LastErrorOnly(true),
		retry.RetryIf(isTransient),
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *HTTPClient) GetUserToken(ctx context.Context, name string) (string, error) {
	var payload struct {
		AccessToken string `json:"access_token"`
	}
	err := c.do(ctx, http.MethodPost, userPath(name)+"/token", nil, &payload)
	if err != nil {
		return "", err
	}
	return payload.AccessToken, nil
}

func userPath(name string) string {
	return "/users/" + url.PathEscape(name)
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body []byte, out interface{}) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	token, err := c.tokens.Token()
	if err != nil {
		return fmt.Errorf("failed to load auth gateway token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrUserNotFound
	case resp.StatusCode == http.StatusForbidden:
		return ErrNoAccess
	case resp.StatusCode >= 300:
		summary, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{
			Method: method,
			Path:   path,
			Status: resp.StatusCode,
			Body:   string(summary),
		}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to parse auth gateway response: %w", err)
		}
	}
	return nil
}

// StatusError reports an unexpected gateway response.
type StatusError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("auth gateway %s %s returned %d: %s", e.Method, e.Path, e.Status, e.Body)
}

// isTransient reports whether an error is worth retrying: network failures
// and gateway-side 5xx responses.
func isTransient(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Status >= 500
	}
	// Not an HTTP status error, so the request never completed.
	return !errors.Is(err, ErrUserNotFound) && !errors.Is(err, ErrNoAccess)
}
