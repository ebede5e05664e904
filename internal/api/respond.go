package api

import (
	"encoding/json"
	"net/http"
	"runtime/debug"

	"github.com/kuitang/notes-api/internal/errs"
	"github.com/kuitang/notes-api/internal/obs"
)

// ErrorResponse is the uniform error body: {"error": ..., "details"?: ...}.
// Details is present only for validation failures or in development mode.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError resolves any failure to the uniform error shape. Coded errors
// keep their message and status; everything else is an unexpected failure:
// logged in full, returned as a generic 500 unless running in development
// mode.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := errs.CodeOf(err)
	status := errs.HTTPStatus(code)

	log := obs.From(r.Context()).With(
		"method", r.Method,
		"path", r.URL.Path,
		"code", string(code),
		"status", status,
	)
	if status >= http.StatusInternalServerError {
		log.Error("request failed", "err", err)
	} else {
		log.Warn("request rejected", "err", err)
	}

	resp := ErrorResponse{Error: errs.MessageOf(err)}
	if fields := errs.FieldsOf(err); len(fields) > 0 {
		resp.Details = map[string]any{"fields": fields}
	}
	if status >= http.StatusInternalServerError {
		if h.devMode {
			resp.Error = err.Error()
			resp.Details = map[string]any{"code": string(code)}
		} else {
			resp.Error = "Internal Server Error"
		}
	}

	writeJSON(w, status, resp)
}

// RecoverMiddleware converts panics into the uniform 500 response. The
// panic value and stack are always logged; the body stays generic outside
// development mode.
func (h *Handler) RecoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			obs.From(r.Context()).Error("panic in handler",
				"method", r.Method,
				"path", r.URL.Path,
				"panic", rec,
				"stack", string(debug.Stack()),
			)
			resp := ErrorResponse{Error: "Internal Server Error"}
			if h.devMode {
				resp.Error = "panic: " + toString(rec)
			}
			writeJSON(w, http.StatusInternalServerError, resp)
		}()
		next.ServeHTTP(w, r)
	})
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	if err, ok := v.(error); ok {
		return err.Error()
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "unprintable panic value"
	}
	return string(b)
}
