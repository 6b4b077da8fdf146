package httputil

import (
	"net/http"
	"time"

	"github.com/matzehuels/orgchart/pkg/observability"
)

// DefaultTimeout bounds a single backend request.
const DefaultTimeout = 10 * time.Second

// NewHTTPClient returns a client with the given timeout (DefaultTimeout if
// zero) whose requests are reported to the observability HTTP hooks.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: &hookTransport{next: http.DefaultTransport},
	}
}

// hookTransport emits OnRequest/OnResponse/OnError around each round trip.
type hookTransport struct {
	next http.RoundTripper
}

func (t *hookTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	hooks := observability.HTTP()
	ctx := req.Context()
	host, path := req.URL.Host, req.URL.Path

	hooks.OnRequest(ctx, req.Method, host, path)
	start := time.Now()
	resp, err := t.next.RoundTrip(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, host, path, err)
		return nil, err
	}
	hooks.OnResponse(ctx, req.Method, host, path, resp.StatusCode, time.Since(start))
	return resp, nil
}
