package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/TRIADBLUE/consoleblue/internal/errors"
)

type errorBody struct {
	Error   string            `json:"error"`
	Code    errors.Code       `json:"code"`
	Details map[string]string `json:"details,omitempty"`
}

// jsonResponse writes data with the given status
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Warn("encode response failed", "error", err)
	}
}

// errorResponse maps err to a status and the standard error body. Errors
// without a code are logged and reported as internal.
func (s *Server) errorResponse(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.HTTPStatus(err)
	body := errorBody{Code: errors.EInternal, Error: "internal server error"}

	if e, ok := errors.As(err); ok && e.Code != errors.EInternal {
		body = errorBody{Error: e.Msg, Code: e.Code, Details: e.Details}
	} else {
		s.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "request_id", requestIDFrom(r.Context()), "error", err)
	}

	s.jsonResponse(w, status, body)
}

// decodeJSON reads the request body into v. An empty body leaves v as is.
func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Validation("body", "invalid JSON: "+err.Error())
	}
	return nil
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.Validation(name, "must be a positive integer")
	}
	return id, nil
}

func queryInt(r *http.Request, name string) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, errors.Validation(name, "must be a non-negative integer")
	}
	return n, nil
}
