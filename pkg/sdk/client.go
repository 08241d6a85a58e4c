package indexgate

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

// Client is the indexgate API entry point. It is safe for concurrent use.
type Client struct {
	baseURL   string
	http      *http.Client
	adminKey  string
	userAgent string
	calls     *tracker
	now       func() time.Time
}

// New creates a Client for the server at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	cfg := &clientConfig{timeout: defaultTimeout}
	for _, o := range opts {
		o.apply(cfg)
	}

	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("indexgate: invalid base URL %q", baseURL)
	}

	hc := cfg.httpClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.timeout}
	}

	calls, err := newTracker(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	return &Client{
		baseURL:   strings.TrimRight(u.String(), "/"),
		http:      hc,
		adminKey:  cfg.adminKey,
		userAgent: cfg.userAgent,
		calls:     calls,
		now:       time.Now,
	}, nil
}

// Health reports the server's aggregated health. A degraded server answers
// 503 with a body; that is returned as a status, not an error.
func (c *Client) Health(ctx context.Context) (status HealthStatus, err error) {
	start := time.Now()
	defer func() { c.calls.done("health", start, err) }()

	code, body, err := c.roundTrip(ctx, http.MethodGet, "/health", "", nil)
	if err != nil {
		return HealthStatus{}, err
	}
	if code != http.StatusOK && code != http.StatusServiceUnavailable {
		return HealthStatus{}, apiError("health", code, body)
	}
	if err := json.Unmarshal(body, &status); err != nil {
		return HealthStatus{}, fmt.Errorf("indexgate: health: decode: %w", err)
	}
	return status, nil
}

// Ping fails unless every health check passes.
func (c *Client) Ping(ctx context.Context) error {
	st, err := c.Health(ctx)
	if err != nil {
		return err
	}
	if st.Status != "ok" {
		return fmt.Errorf("indexgate: ping: status %s", st.Status)
	}
	return nil
}

// Admin returns the administration service. Requests carry the key given
// with WithAdminKey.
func (c *Client) Admin() *AdminService {
	return &AdminService{c: c}
}

// call sends in as JSON and decodes a 2xx body into out. Non-2xx responses
// become *APIError.
func (c *Client) call(ctx context.Context, op, method, path, bearer string, in, out any) (err error) {
	start := time.Now()
	defer func() { c.calls.done(op, start, err) }()

	var body io.Reader
	if in != nil {
		data, err := encodeBody(in)
		if err != nil {
			return fmt.Errorf("indexgate: %s: encode: %w", op, err)
		}
		body = bytes.NewReader(data)
	}

	code, resp, err := c.roundTrip(ctx, method, path, bearer, body)
	if err != nil {
		return err
	}
	if code < 200 || code > 299 {
		return apiError(op, code, resp)
	}
	if out == nil || len(resp) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp, out); err != nil {
		return fmt.Errorf("indexgate: %s: decode: %w", op, err)
	}
	return nil
}

func (c *Client) roundTrip(ctx context.Context, method, path, bearer string, body io.Reader) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, nil, fmt.Errorf("indexgate: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("indexgate: %s %s: %w", method, path, err)
	}
	defer func() { _ = res.Body.Close() }()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return res.StatusCode, nil, fmt.Errorf("indexgate: %s %s: read body: %w", method, path, err)
	}
	return res.StatusCode, data, nil
}

func encodeBody(in any) ([]byte, error) {
	switch v := in.(type) {
	case json.RawMessage:
		return v, nil
	case []byte:
		return v, nil
	default:
		return json.Marshal(v) //nolint:wrapcheck // wrapped by caller
	}
}

func apiError(op string, status int, body []byte) error {
	apiErr := &APIError{Op: op, Status: status, Message: http.StatusText(status)}
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil && eb.Code != "" {
		apiErr.Code = eb.Code
		apiErr.Message = eb.Message
		apiErr.Report = eb.Report
	}
	return apiErr
}

// segment escapes one path element.
func segment(s string) string { return url.PathEscape(s) }

// IsNotFound reports whether err is a 404 of either kind.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrUnknownIndex)
}
