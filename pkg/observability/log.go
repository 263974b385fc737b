package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks reports pipeline, cache and server events as log lines. Most are
// debug lines, so they only show up when the logger runs at debug level
// (--verbose); server responses are logged at info.
type LogHooks struct {
	logger *log.Logger
}

// NewLogHooks returns hooks that log to logger.
func NewLogHooks(logger *log.Logger) *LogHooks {
	return &LogHooks{logger: logger}
}

// HTTP returns hooks for outgoing planner calls that log to the same logger.
func (h *LogHooks) HTTP() HTTPHooks {
	return logHTTPHooks{logger: h.logger}
}

func (h *LogHooks) OnParseStart(ctx context.Context, source string) {
	h.logger.Debug("parse start", "source", source)
}

func (h *LogHooks) OnParseComplete(ctx context.Context, source string, nodes, edges int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("parse failed", "source", source, "duration", d, "err", err)
		return
	}
	h.logger.Debug("parse done", "source", source, "nodes", nodes, "edges", edges, "duration", d)
}

func (h *LogHooks) OnGenerateStart(ctx context.Context, target string, nodes int) {
	h.logger.Debug("generate start", "target", target, "nodes", nodes)
}

func (h *LogHooks) OnGenerateComplete(ctx context.Context, target string, skipped int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("generate failed", "target", target, "duration", d, "err", err)
		return
	}
	h.logger.Debug("generate done", "target", target, "skipped_edges", skipped, "duration", d)
}

func (h *LogHooks) OnCacheHit(ctx context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h *LogHooks) OnCacheMiss(ctx context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h *LogHooks) OnCacheSet(ctx context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h *LogHooks) OnRequest(ctx context.Context, requestID, method, path string) {
	h.logger.Debug("request", "id", requestID, "method", method, "path", path)
}

func (h *LogHooks) OnResponse(ctx context.Context, requestID, method, path string, status int, d time.Duration) {
	h.logger.Info("response", "id", requestID, "method", method, "path", path, "status", status, "duration", d)
}

// logHTTPHooks is separate from LogHooks because the server and HTTP hook
// methods share names.
type logHTTPHooks struct {
	logger *log.Logger
}

func (h logHTTPHooks) OnRequest(ctx context.Context, method, host, path string) {
	h.logger.Debug("upstream request", "method", method, "host", host, "path", path)
}

func (h logHTTPHooks) OnResponse(ctx context.Context, method, host, path string, status int, d time.Duration) {
	h.logger.Debug("upstream response", "method", method, "host", host, "path", path, "status", status, "duration", d)
}

func (h logHTTPHooks) OnError(ctx context.Context, method, host, path string, err error) {
	h.logger.Warn("upstream request failed", "method", method, "host", host, "path", path, "err", err)
}

var (
	_ HTTPHooks     = logHTTPHooks{}
	_ PipelineHooks = (*LogHooks)(nil)
	_ CacheHooks    = (*LogHooks)(nil)
	_ ServerHooks   = (*LogHooks)(nil)
)
