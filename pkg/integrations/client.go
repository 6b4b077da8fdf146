package integrations

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/matzehuels/orgchart/pkg/buildinfo"
	"github.com/matzehuels/orgchart/pkg/cache"
	"github.com/matzehuels/orgchart/pkg/errors"
	"github.com/matzehuels/orgchart/pkg/httputil"
	"github.com/matzehuels/orgchart/pkg/observability"
)

// Client provides shared HTTP functionality for backend API clients.
// It handles the response envelope, bearer auth, retries, and the
// offline fallback cache.
type Client struct {
	http    *http.Client
	cache   cache.Cache
	headers map[string]string
	retry   httputil.Policy
}

// NewClient creates a Client with the given cache and default headers.
// Headers are applied to all requests made through this client.
// A nil cache disables the offline fallback.
func NewClient(c cache.Cache, headers map[string]string) *Client {
	if c == nil {
		c = cache.NewNullCache()
	}
	return &Client{
		http:    httputil.NewHTTPClient(0),
		cache:   c,
		headers: headers,
		retry:   httputil.DefaultPolicy,
	}
}

// SetHTTPClient replaces the underlying HTTP client.
func (c *Client) SetHTTPClient(h *http.Client) { c.http = h }

// SetRetry sets the number of attempts and the initial backoff delay.
func (c *Client) SetRetry(attempts int, delay time.Duration) {
	c.retry = httputil.Policy{Attempts: attempts, Delay: delay}
}

// SetHeader sets a default header, e.g. Authorization.
func (c *Client) SetHeader(key, value string) {
	if c.headers == nil {
		c.headers = make(map[string]string)
	}
	c.headers[key] = value
}

// envelope is the backend's response wrapper.
type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Do sends a JSON request and decodes the envelope's data into v.
// body and v may be nil. GET, PUT and DELETE are retried on transient
// failures; POST is sent once.
func (c *Client) Do(ctx context.Context, method, url string, body, v any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "encode request")
		}
	}

	policy := c.retry
	if method == http.MethodPost {
		policy = policy.Once()
	}
	err := policy.Do(ctx, func() error {
		return c.once(ctx, method, url, payload, v)
	})
	return httputil.Cause(err)
}

func (c *Client) once(ctx context.Context, method, url string, payload []byte, v any) error {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", buildinfo.UserAgent())
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, val := range c.headers {
		req.Header.Set(k, val)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return errors.Wrap(errors.ErrCodeTimeout, ctx.Err(), "%s %s", method, req.URL.Path)
		}
		return httputil.Retryable(errors.Wrap(errors.ErrCodeNetwork, err, "%s %s", method, req.URL.Path))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return httputil.Retryable(errors.Wrap(errors.ErrCodeNetwork, err, "read response"))
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if err := statusError(resp.StatusCode, env); err != nil {
		return err
	}
	if decodeErr != nil {
		return errors.Wrap(errors.ErrCodeInvalidFormat, decodeErr, "decode %s response", req.URL.Path)
	}
	if v == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode %s data", req.URL.Path)
	}
	return nil
}

// statusError maps a non-2xx status to a coded error carrying the
// backend's message.
func statusError(status int, env envelope) error {
	if status >= 200 && status < 300 {
		return nil
	}
	msg := http.StatusText(status)
	if env.Error != nil && env.Error.Message != "" {
		msg = env.Error.Message
	}
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return errors.New(errors.ErrCodeUnauthorized, "%s", msg)
	case status == http.StatusNotFound:
		return errors.New(errors.ErrCodeNotFound, "%s", msg)
	case status >= 500:
		return httputil.Retryable(errors.New(errors.ErrCodeNetwork, "status %d: %s", status, msg))
	default:
		return errors.New(errors.ErrCodeInvalidInput, "%s", msg)
	}
}

// Fallback runs fetch and stores v under key. When fetch fails with a
// network error and a previous copy is cached, that copy is decoded into
// v and stale is true.
func (c *Client) Fallback(ctx context.Context, key string, ttl time.Duration, v any, fetch func() error) (stale bool, err error) {
	fetchErr := fetch()
	if fetchErr == nil {
		if data, err := json.Marshal(v); err == nil {
			if c.cache.Set(ctx, key, data, ttl) == nil {
				observability.Cache().OnCacheSet(ctx, "hierarchy", len(data))
			}
		}
		return false, nil
	}
	if !errors.Is(fetchErr, errors.ErrCodeNetwork) && !errors.Is(fetchErr, errors.ErrCodeTimeout) {
		return false, fetchErr
	}

	data, hit, err := c.cache.Get(ctx, key)
	if err != nil || !hit {
		observability.Cache().OnCacheMiss(ctx, "hierarchy")
		return false, fetchErr
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("%w (cached copy unreadable: %v)", fetchErr, err)
	}
	observability.Cache().OnCacheHit(ctx, "hierarchy")
	return true, nil
}
