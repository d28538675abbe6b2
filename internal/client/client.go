// Package client is a typed Go client for the gatehouse HTTP API.
package client

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
)

var (
	ErrBadRequest       = errors.New("client: bad request")
	ErrConflict         = errors.New("client: identifier already registered")
	ErrUnauthorized     = errors.New("client: unauthorized")
	ErrForbidden        = errors.New("client: forbidden")
	ErrNotAuthenticated = errors.New("client: no session token")
)

// APIError carries a non-2xx response. It unwraps to one of the sentinel
// errors when the status has one.
type APIError struct {
	Status    int
	Message   string
	RequestID string
}

func (e *APIError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("gatehouse: %d %s (request %s)", e.Status, e.Message, e.RequestID)
	}
	return fmt.Sprintf("gatehouse: %d %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusBadRequest, http.StatusRequestEntityTooLarge:
		return ErrBadRequest
	case http.StatusConflict:
		return ErrConflict
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	default:
		return nil
	}
}

// Grant is the body returned by the protected endpoint.
type Grant struct {
	Message string         `json:"message"`
	Claims  map[string]any `json:"claims"`
}

// Identifier returns the identifier claim, if present.
func (g Grant) Identifier() string {
	id, _ := g.Claims["identifier"].(string)
	return id
}

// Client talks to a gatehouse server and keeps the session token it obtains.
type Client struct {
	baseURL string
	http    *http.Client
	session *Session
}

// Option configures Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithSession shares an existing session between clients.
func WithSession(s *Session) Option {
	return func(c *Client) {
		if s != nil {
			c.session = s
		}
	}
}

// New creates a client for the server at baseURL, e.g. "http://localhost:5000".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		session: &Session{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session returns the session state shared by this client.
func (c *Client) Session() *Session { return c.session }

type credentials struct {
	Identifier string `json:"identifier"`
	Secret     string `json:"secret"`
}

// Signup registers identifier with secret.
func (c *Client) Signup(ctx context.Context, identifier, secret string) error {
	return c.do(ctx, http.MethodPost, "/signup", credentials{identifier, secret}, "", nil)
}

// Login exchanges credentials for a token and stores it in the session.
func (c *Client) Login(ctx context.Context, identifier, secret string) (string, error) {
	var out struct {
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expires_at"`
	}
	if err := c.do(ctx, http.MethodPost, "/login", credentials{identifier, secret}, "", &out); err != nil {
		return "", err
	}
	if out.Token == "" {
		return "", errors.New("gatehouse: login response has no token")
	}
	c.session.SetToken(out.Token)
	return out.Token, nil
}

// Logout forgets the session token. The token itself stays valid until it expires.
func (c *Client) Logout() {
	c.session.Clear()
}

// Protected calls the protected endpoint with the session token. A 401 or 403
// clears the session.
func (c *Client) Protected(ctx context.Context) (Grant, error) {
	token, ok := c.session.Token()
	if !ok {
		return Grant{}, ErrNotAuthenticated
	}
	var g Grant
	err := c.do(ctx, http.MethodGet, "/protected", nil, token, &g)
	if errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrForbidden) {
		c.session.Clear()
	}
	if err != nil {
		return Grant{}, err
	}
	return g, nil
}

func (c *Client) do(ctx context.Context, method, path string, in any, token string, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Message   string `json:"message"`
			RequestID string `json:"request_id"`
		}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&e)
		if e.RequestID == "" {
			e.RequestID = resp.Header.Get("X-Request-ID")
		}
		if e.Message == "" {
			e.Message = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: e.Message, RequestID: e.RequestID}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
