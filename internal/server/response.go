package server

import (
	"encoding/json"
	"errors"
	"net/http"

	errs "github.com/matzehuels/cloudsketch/pkg/errors"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code      errs.Code `json:"code"`
	Message   string    `json:"message"`
	RequestID string    `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

// writeError maps err to a status via its code. Uncoded errors are reported
// as INTERNAL_ERROR without their message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{Error: errorDetail{
			Code:      errs.ErrCodeInvalidInput,
			Message:   "request body too large",
			RequestID: RequestIDFrom(r.Context()),
		}})
		return
	}

	status := errs.HTTPStatus(err)
	if s, ok := statusOverride(err); ok {
		status = s
	}

	detail := errorDetail{
		Code:      errs.GetCode(err),
		Message:   errs.UserMessage(err),
		RequestID: RequestIDFrom(r.Context()),
	}
	if detail.Code == "" {
		detail.Code = errs.ErrCodeInternal
		detail.Message = "internal error"
	}
	writeJSON(w, status, errorBody{Error: detail})
}

// statusError carries an explicit HTTP status for router-level failures.
type statusError struct {
	err    *errs.Error
	status int
}

func (e *statusError) Error() string { return e.err.Error() }
func (e *statusError) Unwrap() error { return e.err }

func statusOverride(err error) (int, bool) {
	var se *statusError
	if errors.As(err, &se) {
		return se.status, true
	}
	return 0, false
}

func notFound(r *http.Request) error {
	return &statusError{errs.New(errs.ErrCodeNotFound, "no route for %s %s", r.Method, r.URL.Path), http.StatusNotFound}
}

func methodNotAllowed(r *http.Request) error {
	return &statusError{errs.New(errs.ErrCodeInvalidInput, "method %s not allowed on %s", r.Method, r.URL.Path), http.StatusMethodNotAllowed}
}
