package connection

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

	"github.com/yndnr/gridwire-go/internal/infra/buildinfo"
	"github.com/yndnr/gridwire-go/internal/infra/tlsroots"
)

// DefaultTimeout bounds one admin request. Two-phase operations wait for a
// full ring pass, so it is longer than a plain read needs.
const DefaultTimeout = 45 * time.Second

// SubjectHeader carries the security subject of an operation.
const SubjectHeader = "X-Security-Subject"

// APIError is an error envelope returned by the admin API.
type APIError struct {
	Status    int
	Code      string
	Message   string
	RequestID string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("request failed with status %d", e.Status)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// IsCode reports whether err is an APIError with code.
func IsCode(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}

// envelope mirrors the admin response wrapper.
type envelope struct {
	Code      string          `json:"code"`
	Message   string          `json:"message"`
	RequestID string          `json:"request_id"`
	Data      json.RawMessage `json:"data"`
}

// Client calls the admin API of one node.
type Client struct {
	baseURL string
	client  *http.Client
	token   string
	subject string
}

// NewClient builds a client for conn. A server without a scheme uses
// https when a CA file or insecure mode is configured, http otherwise.
func NewClient(conn Connection, timeout time.Duration) (*Client, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	baseURL := strings.TrimRight(conn.Server, "/")
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		if conn.CAFile != "" || conn.Insecure {
			baseURL = "https://" + baseURL
		} else {
			baseURL = "http://" + baseURL
		}
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if strings.HasPrefix(baseURL, "https://") {
		tlsCfg, err := tlsroots.LoadClientConfig(conn.CAFile, conn.Insecure)
		if err != nil {
			return nil, fmt.Errorf("tls config: %w", err)
		}
		transport.TLSClientConfig = tlsCfg
	}

	return &Client{
		baseURL: baseURL,
		token:   conn.Token,
		subject: conn.Subject,
		client:  &http.Client{Timeout: timeout, Transport: transport},
	}, nil
}

// BaseURL returns the base URL of the client.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get performs a GET and decodes the envelope data into target.
func (c *Client) Get(ctx context.Context, path string, target any) error {
	return c.do(ctx, http.MethodGet, path, nil, target)
}

// Post performs a POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, target any) error {
	return c.do(ctx, http.MethodPost, path, body, target)
}

// Delete performs a DELETE.
func (c *Client) Delete(ctx context.Context, path string, target any) error {
	return c.do(ctx, http.MethodDelete, path, nil, target)
}

func (c *Client) do(ctx context.Context, method, path string, body, target any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.addHeaders(req)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	return ParseResponse(resp, target)
}

func (c *Client) addHeaders(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.subject != "" {
		req.Header.Set(SubjectHeader, c.subject)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", buildinfo.UserAgent("cli"))
}

// ParseResponse decodes an admin envelope, returning an *APIError for
// error statuses.
func ParseResponse(resp *http.Response, target any) error {
	defer resp.Body.Close()

	var env envelope
	decErr := json.NewDecoder(resp.Body).Decode(&env)
	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode}
		if decErr == nil {
			apiErr.Code, apiErr.Message, apiErr.RequestID = env.Code, env.Message, env.RequestID
		}
		return apiErr
	}
	if decErr != nil {
		return fmt.Errorf("parse response: %w", decErr)
	}
	if target != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, target); err != nil {
			return fmt.Errorf("parse response data: %w", err)
		}
	}
	return nil
}
