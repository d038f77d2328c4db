package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultTimeout bounds every backend call.
const DefaultTimeout = 10 * time.Second

// ErrNoToken is returned by protected calls when no bearer token is available.
// No request is attempted in that case.
var ErrNoToken = errors.New("authorization token not found, please log in")

// Error is a non-2xx backend response.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// MessageOf extracts a user-facing message from err, falling back to fallback.
func MessageOf(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	if errors.Is(err, ErrNoToken) {
		return ErrNoToken.Error()
	}
	return fallback
}

// TokenSource supplies the bearer token of the current user.
type TokenSource interface {
	Token() string
}

// StaticToken is a TokenSource with a fixed value.
type StaticToken string

// Token returns the token value.
func (t StaticToken) Token() string { return string(t) }

// Client talks JSON over HTTP to the learning-platform backend.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a backend client. A zero timeout means DefaultTimeout.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Session binds the client to one user's credentials.
func (c *Client) Session(tokens TokenSource) *Session {
	return &Session{client: c, tokens: tokens}
}

// Anonymous returns a session without credentials for public endpoints.
func (c *Client) Anonymous() *Session {
	return &Session{client: c, tokens: StaticToken("")}
}

// Session issues requests on behalf of one user.
type Session struct {
	client *Client
	tokens TokenSource
}

type envelope struct {
	Data json.RawMessage `json:"data"`
}

type errorBody struct {
	Message string `json:"message"`
}

// call describes one backend request.
type call struct {
	name   string // metrics label
	method string
	path   string
	body   any
	out    any
	auth   bool
}

func (s *Session) do(ctx context.Context, c call) error {
	token := ""
	if s.tokens != nil {
		token = s.tokens.Token()
	}
	if c.auth && token == "" {
		return ErrNoToken
	}

	var reader io.Reader
	if c.body != nil {
		data, err := json.Marshal(c.body)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", c.name, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, c.method, s.client.baseURL+c.path, reader)
	if err != nil {
		return fmt.Errorf("build %s request: %w", c.name, err)
	}
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return s.send(req, c)
}

func (s *Session) send(req *http.Request, c call) error {
	start := time.Now()
	resp, err := s.client.http.Do(req)
	if err != nil {
		observe(c.name, "error", start)
		slog.Warn("backend request failed", "call", c.name, "path", c.path, "error", err)
		return fmt.Errorf("%s: %w", c.name, err)
	}
	defer resp.Body.Close()
	observe(c.name, strconv.Itoa(resp.StatusCode), start)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", c.name, err)
	}
	slog.Debug("backend response", "call", c.name, "status", resp.StatusCode, "bytes", len(raw))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp.StatusCode, raw)
	}
	if c.out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err == nil && len(env.Data) > 0 && string(env.Data) != "null" {
		raw = env.Data
	}
	if err := json.Unmarshal(raw, c.out); err != nil {
		return fmt.Errorf("decode %s response: %w", c.name, err)
	}
	return nil
}

func decodeError(status int, raw []byte) error {
	var body errorBody
	if err := json.Unmarshal(raw, &body); err == nil && body.Message != "" {
		return &Error{Status: status, Message: body.Message}
	}
	return &Error{Status: status, Message: fmt.Sprintf("request failed with status %d", status)}
}
