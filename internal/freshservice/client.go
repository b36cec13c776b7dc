package freshservice

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
)

// Endpoint labels used for logging and metrics.
const (
	EndpointView           = "view"
	EndpointRequestedItems = "requested_items"
)

const maxErrorBody = 512

// RequestObserver is told about every finished request. code is 0 when no
// response was received.
type RequestObserver interface {
	ObserveRequest(endpoint string, code int, elapsed time.Duration)
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("GET %s: unexpected status %d", e.Path, e.StatusCode)
	}
	return fmt.Sprintf("GET %s: unexpected status %d: %s", e.Path, e.StatusCode, e.Body)
}

// Client talks to the Freshservice ticket resource. One Client and its
// http.Client are shared by every concurrent fetch of a run.
type Client struct {
	BaseURL  string
	Token    string
	HTTP     *http.Client
	Logger   logrus.FieldLogger
	Observer RequestObserver
}

func NewClient(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTP:    &http.Client{Timeout: timeout},
		Logger:  logrus.StandardLogger(),
	}
}

// get issues an authenticated GET for path below BaseURL and returns the body
// of a 2xx response.
func (c *Client) get(ctx context.Context, endpoint, path string, query url.Values, jsonHeader bool, fields logrus.Fields) ([]byte, error) {
	u := c.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	// Freshservice API keys go in the username, the password is ignored.
	req.SetBasicAuth(c.Token, "X")
	if jsonHeader {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient().Do(req)
	if err != nil {
		c.observe(endpoint, 0, time.Since(start))
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	elapsed := time.Since(start)
	c.observe(endpoint, resp.StatusCode, elapsed)
	if err != nil {
		return nil, fmt.Errorf("GET %s: read body: %w", path, err)
	}

	loggerFromContext(ctx, c.Logger).WithFields(fields).WithFields(logrus.Fields{
		"endpoint": endpoint,
		"path":     path,
		"status":   resp.StatusCode,
		"duration": elapsed,
	}).Debug("Freshservice request finished")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := truncateUTF8(strings.TrimSpace(string(body)), maxErrorBody)
		return nil, &StatusError{Path: path, StatusCode: resp.StatusCode, Body: snippet}
	}
	return body, nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func (c *Client) observe(endpoint string, code int, elapsed time.Duration) {
	if c.Observer != nil {
		c.Observer.ObserveRequest(endpoint, code, elapsed)
	}
}
