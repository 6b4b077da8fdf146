package httputil

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/orgchart/pkg/observability"
)

type recordingHTTPHooks struct {
	observability.NoopHTTPHooks
	mu        sync.Mutex
	requests  []string
	responses []int
}

func (h *recordingHTTPHooks) OnRequest(_ context.Context, method, _, path string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.requests = append(h.requests, method+" "+path)
}

func (h *recordingHTTPHooks) OnResponse(_ context.Context, _, _, _ string, status int, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.responses = append(h.responses, status)
}

func TestNewHTTPClientHooks(t *testing.T) {
	hooks := &recordingHTTPHooks{}
	observability.SetHTTPHooks(hooks)
	defer observability.Reset()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	defer srv.Close()

	client := NewHTTPClient(0)
	if client.Timeout != DefaultTimeout {
		t.Errorf("timeout = %v, want %v", client.Timeout, DefaultTimeout)
	}

	resp, err := client.Get(srv.URL + "/api/departments/hierarchy/all")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	resp.Body.Close()

	if len(hooks.requests) != 1 || hooks.requests[0] != "GET /api/departments/hierarchy/all" {
		t.Errorf("requests = %v", hooks.requests)
	}
	if len(hooks.responses) != 1 || hooks.responses[0] != http.StatusTeapot {
		t.Errorf("responses = %v", hooks.responses)
	}
}
