package planner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/matzehuels/cloudsketch/pkg/buildinfo"
	errs "github.com/matzehuels/cloudsketch/pkg/errors"
	"github.com/matzehuels/cloudsketch/pkg/graph"
	"github.com/matzehuels/cloudsketch/pkg/httputil"
	"github.com/matzehuels/cloudsketch/pkg/observability"
)

// MaxResponseSize limits the document a planner may return.
const MaxResponseSize = 4 << 20

// HTTPPlanner posts {"query": "..."} to a planning service and expects a
// graph document (JSON or YAML) in the response body.
type HTTPPlanner struct {
	endpoint *url.URL
	client   *http.Client
	attempts int
	backoff  time.Duration
}

// HTTPOption configures an HTTPPlanner.
type HTTPOption func(*HTTPPlanner)

// WithClient sets the HTTP client. The default has a 60 second timeout.
func WithClient(c *http.Client) HTTPOption {
	return func(p *HTTPPlanner) { p.client = c }
}

// WithRetry sets the number of attempts and the initial backoff.
func WithRetry(attempts int, backoff time.Duration) HTTPOption {
	return func(p *HTTPPlanner) {
		p.attempts = attempts
		p.backoff = backoff
	}
}

// NewHTTPPlanner returns a planner for the service at endpoint.
func NewHTTPPlanner(endpoint string, opts ...HTTPOption) (*HTTPPlanner, error) {
	u, err := url.Parse(endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, errs.New(errs.ErrCodeInvalidConfig, "planner endpoint must be an http(s) URL, got %q", endpoint)
	}
	p := &HTTPPlanner{
		endpoint: u,
		client:   &http.Client{Timeout: 60 * time.Second},
		attempts: 3,
		backoff:  time.Second,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

type planRequest struct {
	Query string `json:"query"`
}

// Plan sends query to the service, retrying 429, 5xx and network failures.
func (p *HTTPPlanner) Plan(ctx context.Context, query string) (*graph.Document, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errs.New(errs.ErrCodeInvalidInput, "query cannot be empty")
	}
	body, err := json.Marshal(planRequest{Query: query})
	if err != nil {
		return nil, err
	}

	var data []byte
	err = httputil.Retry(ctx, p.attempts, p.backoff, func() error {
		data, err = p.do(ctx, body)
		return err
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("plan query: %w", err)
		}
		return nil, errs.Wrap(errs.ErrCodeUpstream, err, "planner request failed")
	}

	doc, err := graph.Parse(data)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeUpstream, err, "planner returned an invalid document: %s", errs.UserMessage(err))
	}
	return doc, nil
}

func (p *HTTPPlanner) do(ctx context.Context, body []byte) ([]byte, error) {
	hooks := observability.HTTP()
	host, path := p.endpoint.Host, p.endpoint.Path

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, application/yaml")
	req.Header.Set("User-Agent", "cloudsketch/"+buildinfo.Version)

	hooks.OnRequest(ctx, req.Method, host, path)
	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, host, path, err)
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, httputil.Retryable(err)
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, req.Method, host, path, resp.StatusCode, time.Since(start))

	if err := httputil.StatusError(resp); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, httputil.Retryable(err)
	}
	if len(data) > MaxResponseSize {
		return nil, errs.New(errs.ErrCodeInvalidInput, "planner response exceeds %d bytes", MaxResponseSize)
	}
	return data, nil
}

var _ Planner = (*HTTPPlanner)(nil)
