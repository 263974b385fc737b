package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/matzehuels/cloudsketch/pkg/buildinfo"
	errs "github.com/matzehuels/cloudsketch/pkg/errors"
	"github.com/matzehuels/cloudsketch/pkg/graph"
	"github.com/matzehuels/cloudsketch/pkg/pipeline"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, buildinfo.Get())
}

// handleGenerate accepts a serialized document as the request body.
// Options come from the query string: target, name, imports, detailed,
// refresh. With Accept: text/plain the bare code is returned.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, r, err)
		return
	}

	opts, err := s.optionsFromQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	res, err := s.runner.Execute(r.Context(), "request", data, opts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeResult(w, r, res)
}

// QueryRequest is the body of POST /v1/diagrams/query.
type QueryRequest struct {
	Query string `json:"query"`
	pipeline.Options
}

// QueryResponse pairs the planned document with the generated code.
type QueryResponse struct {
	Document     *graph.Document  `json:"document"`
	Result       *pipeline.Result `json:"result"`
	PlanCacheHit bool             `json:"plan_cache_hit"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	if s.planner == nil {
		writeError(w, r, errs.New(errs.ErrCodeUnsupported, "no planner configured"))
		return
	}

	var req QueryRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, r, decodeError(err))
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, r, errs.New(errs.ErrCodeInvalidInput, "query cannot be empty"))
		return
	}

	opts := s.withDefaults(req.Options)
	doc, hit, err := s.runner.Plan(r.Context(), s.planner, req.Query, opts.Refresh)
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := s.runner.Generate(r.Context(), doc, opts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, QueryResponse{Document: doc, Result: res, PlanCacheHit: hit})
}

func (s *Server) optionsFromQuery(r *http.Request) (pipeline.Options, error) {
	q := r.URL.Query()
	opts := pipeline.Options{
		Target: q.Get("target"),
		Name:   q.Get("name"),
	}
	for key, dst := range map[string]*bool{
		"imports":  &opts.Imports,
		"detailed": &opts.Detailed,
		"refresh":  &opts.Refresh,
	} {
		v := q.Get(key)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, errs.New(errs.ErrCodeInvalidInput, "%s must be a boolean, got %q", key, v)
		}
		*dst = b
	}
	if !q.Has("imports") {
		opts.Imports = s.render.Imports
	}
	return s.withDefaults(opts), nil
}

// withDefaults fills unset options from the render configuration.
func (s *Server) withDefaults(opts pipeline.Options) pipeline.Options {
	if opts.Target == "" {
		opts.Target = s.render.Target
	}
	if len(s.render.Modules) > 0 {
		mods := make(map[string]string, len(s.render.Modules)+len(opts.Modules))
		for k, v := range s.render.Modules {
			mods[k] = v
		}
		for k, v := range opts.Modules {
			mods[k] = v
		}
		opts.Modules = mods
	}
	opts.Logger = s.logger
	return opts
}

func writeResult(w http.ResponseWriter, r *http.Request, res *pipeline.Result) {
	if !strings.HasPrefix(r.Header.Get("Accept"), "text/plain") {
		writeJSON(w, http.StatusOK, res)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Skipped-Edges", strconv.Itoa(res.SkippedEdges))
	w.Header().Set("X-Document-Hash", res.DocumentHash)
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, res.Code)
}

func decodeError(err error) error {
	return errs.Wrap(errs.ErrCodeInvalidInput, err, "decode request body")
}
