package planner

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	errs "github.com/matzehuels/cloudsketch/pkg/errors"
	"github.com/matzehuels/cloudsketch/pkg/graph"
)

const planned = `{
  "diagram_name": "Web",
  "nodes": [{"id": "lb", "type": "ELB"}, {"id": "web", "type": "EC2"}],
  "edges": [{"source_id": "lb", "target_id": "web", "type": ">>"}]
}`

func TestHTTPPlanner(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		var req planRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		gotQuery = req.Query
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(planned))
	}))
	defer srv.Close()

	p, err := NewHTTPPlanner(srv.URL + "/plan")
	if err != nil {
		t.Fatal(err)
	}
	doc, err := p.Plan(context.Background(), "  a load balancer in front of a web server ")
	if err != nil {
		t.Fatalf("Plan() error: %v", err)
	}
	if gotQuery != "a load balancer in front of a web server" {
		t.Errorf("query = %q", gotQuery)
	}
	if doc.DiagramName != "Web" || len(doc.Nodes) != 2 || doc.Edges[0].Type != graph.Forward {
		t.Errorf("unexpected document: %+v", doc)
	}
}

func TestHTTPPlanner_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(planned))
	}))
	defer srv.Close()

	p, _ := NewHTTPPlanner(srv.URL, WithRetry(3, time.Millisecond))
	if _, err := p.Plan(context.Background(), "q"); err != nil {
		t.Fatalf("Plan() error: %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestHTTPPlanner_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad", http.StatusBadRequest)
	}))
	defer srv.Close()

	p, _ := NewHTTPPlanner(srv.URL, WithRetry(3, time.Millisecond))
	if _, err := p.Plan(context.Background(), "q"); !errs.Is(err, errs.ErrCodeUpstream) {
		t.Fatalf("err = %v, want UPSTREAM_ERROR", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestHTTPPlanner_MalformedResponse(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not an object", `["not", "a", "document"]`},
		{"duplicate ids", `{"nodes": [{"id": "a", "type": "EC2"}, {"id": "a", "type": "S3"}]}`},
		{"unknown edge type", `{"nodes": [], "edges": [{"source_id": "a", "target_id": "b", "type": "sideways"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			p, _ := NewHTTPPlanner(srv.URL)
			_, err := p.Plan(context.Background(), "q")
			if !errs.Is(err, errs.ErrCodeUpstream) {
				t.Fatalf("err = %v, want UPSTREAM_ERROR", err)
			}
			if !errs.Is(errors.Unwrap(err), errs.ErrCodeMalformedDocument) {
				t.Errorf("cause = %v, want MALFORMED_DOCUMENT", errors.Unwrap(err))
			}
		})
	}
}

func TestHTTPPlanner_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	p, _ := NewHTTPPlanner(url, WithRetry(1, time.Millisecond))
	_, err := p.Plan(context.Background(), "q")
	if !errs.Is(err, errs.ErrCodeUpstream) {
		t.Errorf("err = %v, want UPSTREAM_ERROR", err)
	}
}

func TestHTTPPlanner_EmptyQuery(t *testing.T) {
	p, _ := NewHTTPPlanner("http://planner.invalid")
	if _, err := p.Plan(context.Background(), "   "); !errs.Is(err, errs.ErrCodeInvalidInput) {
		t.Errorf("err = %v, want INVALID_INPUT", err)
	}
}

func TestNewHTTPPlanner_InvalidEndpoint(t *testing.T) {
	for _, endpoint := range []string{"", "ftp://x", "not a url", "http://"} {
		if _, err := NewHTTPPlanner(endpoint); !errs.Is(err, errs.ErrCodeInvalidConfig) {
			t.Errorf("NewHTTPPlanner(%q) error = %v, want INVALID_CONFIG", endpoint, err)
		}
	}
}

func TestFunc(t *testing.T) {
	var p Planner = Func(func(ctx context.Context, q string) (*graph.Document, error) {
		return &graph.Document{DiagramName: q}, nil
	})
	doc, err := p.Plan(context.Background(), "x")
	if err != nil || doc.DiagramName != "x" {
		t.Errorf("Func.Plan = %+v, %v", doc, err)
	}
}
