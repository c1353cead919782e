// Package portal talks to the government GST portal gateway. Only two
// operations are exposed: credential authentication and fetching filed
// records for a registration number.
package portal

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
)

var (
	// ErrRejected means the portal refused the credentials or session.
	ErrRejected = errors.New("portal rejected credentials")
	// ErrUnavailable means the portal could not be reached or answered
	// with a server error.
	ErrUnavailable = errors.New("portal unavailable")
	// ErrNotConfigured is returned when no portal base URL is set.
	ErrNotConfigured = errors.New("portal integration not configured")
)

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Range bounds a record query by tax period (YYYY-MM), both ends inclusive.
type Range struct {
	From string
	To   string
}

// Record is one filing as reported by the portal.
type Record struct {
	ReturnType string `json:"return_type"`
	Period     string `json:"period"`
	Status     string `json:"status"`
	ARN        string `json:"arn"`
	FiledOn    string `json:"filed_on"`
}

type Client interface {
	Authenticate(ctx context.Context, creds Credentials) (*Session, error)
	FetchRecords(ctx context.Context, session, registrationNumber string, rng Range) ([]Record, error)
}

type httpClient struct {
	baseURL string
	http    *http.Client
}

// NewHTTPClient returns a Client for the gateway at baseURL. An empty
// baseURL yields a client that fails every call with ErrNotConfigured.
func NewHTTPClient(baseURL string, timeout time.Duration) Client {
	return &httpClient{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *httpClient) Authenticate(ctx context.Context, creds Credentials) (*Session, error) {
	body, err := json.Marshal(creds)
	if err != nil {
		return nil, err
	}
	var session Session
	if err := c.do(ctx, http.MethodPost, "/auth", nil, "", body, &session); err != nil {
		return nil, err
	}
	if session.Token == "" {
		return nil, fmt.Errorf("%w: empty session token", ErrUnavailable)
	}
	return &session, nil
}

func (c *httpClient) FetchRecords(ctx context.Context, session, registrationNumber string, rng Range) ([]Record, error) {
	params := url.Values{}
	params.Set("from", rng.From)
	params.Set("to", rng.To)

	var parsed struct {
		Records []Record `json:"records"`
	}
	path := "/registrations/" + url.PathEscape(registrationNumber) + "/records"
	if err := c.do(ctx, http.MethodGet, path, params, session, nil, &parsed); err != nil {
		return nil, err
	}
	if parsed.Records == nil {
		parsed.Records = []Record{}
	}
	return parsed.Records, nil
}

func (c *httpClient) do(ctx context.Context, method, path string, params url.Values, session string, payload []byte, out interface{}) error {
	if c.baseURL == "" {
		return ErrNotConfigured
	}
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint = endpoint + "?" + params.Encode()
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if session != "" {
		req.Header.Set("Authorization", "Bearer "+session)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ErrRejected
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	return nil
}
