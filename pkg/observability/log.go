package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks writes every pipeline, cache, HTTP and edit event to a logger
// at debug level. Failures are logged at warn level.
type LogHooks struct {
	Logger *log.Logger
}

// NewLogHooks returns hooks that log to logger, or to log.Default if nil.
func NewLogHooks(logger *log.Logger) *LogHooks {
	if logger == nil {
		logger = log.Default()
	}
	return &LogHooks{Logger: logger}
}

// Register installs h as the pipeline, cache, HTTP and edit hooks.
func (h *LogHooks) Register() {
	SetPipelineHooks(h)
	SetCacheHooks(h)
	SetHTTPHooks(h)
	SetEditHooks(h)
}

func (h *LogHooks) OnFlattenStart(_ context.Context, records int) {
	h.Logger.Debug("flatten start", "records", records)
}

func (h *LogHooks) OnFlattenComplete(_ context.Context, nodes, edges int, d time.Duration, err error) {
	if err != nil {
		h.Logger.Warn("flatten failed", "err", err, "duration", d)
		return
	}
	h.Logger.Debug("flatten done", "nodes", nodes, "edges", edges, "duration", d)
}

func (h *LogHooks) OnLayoutStart(_ context.Context, nodeCount int) {
	h.Logger.Debug("layout start", "nodes", nodeCount)
}

func (h *LogHooks) OnLayoutComplete(_ context.Context, nodeCount int, d time.Duration, err error) {
	if err != nil {
		h.Logger.Warn("layout failed", "err", err, "duration", d)
		return
	}
	h.Logger.Debug("layout done", "nodes", nodeCount, "duration", d)
}

func (h *LogHooks) OnRenderStart(_ context.Context, format string) {
	h.Logger.Debug("render start", "format", format)
}

func (h *LogHooks) OnRenderComplete(_ context.Context, format string, size int, d time.Duration, err error) {
	if err != nil {
		h.Logger.Warn("render failed", "format", format, "err", err)
		return
	}
	h.Logger.Debug("render done", "format", format, "bytes", size, "duration", d)
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.Logger.Debug("cache hit", "type", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.Logger.Debug("cache miss", "type", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.Logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h *LogHooks) OnRequest(_ context.Context, method, host, path string) {
	h.Logger.Debug("http request", "method", method, "host", host, "path", path)
}

func (h *LogHooks) OnResponse(_ context.Context, method, host, path string, status int, d time.Duration) {
	h.Logger.Debug("http response", "method", method, "path", path, "status", status, "duration", d)
}

func (h *LogHooks) OnError(_ context.Context, method, host, path string, err error) {
	h.Logger.Warn("http error", "method", method, "host", host, "path", path, "err", err)
}

func (h *LogHooks) OnEdit(_ context.Context, op, id string, d time.Duration, err error) {
	if err != nil {
		h.Logger.Warn("department "+op+" failed", "id", id, "err", err)
		return
	}
	h.Logger.Debug("department "+op, "id", id, "duration", d)
}

var (
	_ EditHooks     = (*LogHooks)(nil)
	_ PipelineHooks = (*LogHooks)(nil)
	_ CacheHooks    = (*LogHooks)(nil)
	_ HTTPHooks     = (*LogHooks)(nil)
)
