// Package middleware validates JSON request bodies in net/http handlers.
package middleware

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/goccy/go-json"

	goshape "github.com/reoring/goshape"
	"github.com/reoring/goshape/source"
)

// ctxKeyValue is the context key of the parsed request body.
type ctxKeyValue struct{}

// parsed boxes the value so that a JSON null body is still found.
type parsed struct{ v any }

// ContextWithValue attaches a parsed body to ctx.
func ContextWithValue(ctx context.Context, v any) context.Context {
	return context.WithValue(ctx, ctxKeyValue{}, parsed{v})
}

// ValueFromContext returns the body parsed by ValidateJSON.
func ValueFromContext(ctx context.Context) (any, bool) {
	p, ok := ctx.Value(ctxKeyValue{}).(parsed)
	return p.v, ok
}

// DefaultParseOpt returns a recommended default for HTTP JSON boundaries:
// duplicate keys are errors and all issues are collected.
func DefaultParseOpt() goshape.ParseOpt {
	return goshape.ParseOpt{Source: source.Options{Strict: true}}
}

// IssuePayload is one entry of an error response.
type IssuePayload struct {
	Path    string `json:"path"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorPayload shapes Issues for JSON responses.
func ErrorPayload(issues goshape.Issues) map[string]any {
	out := make([]IssuePayload, len(issues))
	for i, it := range issues {
		out[i] = IssuePayload{Path: it.Pointer(), Code: it.Code, Message: it.Message}
	}
	return map[string]any{"issues": out}
}

// Config tunes ValidateJSON.
type Config struct {
	Opt goshape.ParseOpt
	// MaxBytes limits the body size. Zero means 1 MiB.
	MaxBytes int64
}

// ValidateJSON returns middleware that parses the request body with s.
// Invalid bodies get 422 with ErrorPayload; fatal errors get 500. On success
// the parsed value is available through ValueFromContext and the body is
// re-readable.
func ValidateJSON(s goshape.Shape, cfg Config) func(http.Handler) http.Handler {
	limit := cfg.MaxBytes
	if limit <= 0 {
		limit = 1 << 20
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
			if err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					http.Error(w, http.StatusText(http.StatusRequestEntityTooLarge), http.StatusRequestEntityTooLarge)
					return
				}
				http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
				return
			}
			v, err := goshape.ParseJSON(r.Context(), s, body, cfg.Opt)
			if err != nil {
				if iss, ok := goshape.AsIssues(err); ok {
					writeJSON(w, http.StatusUnprocessableEntity, ErrorPayload(iss))
					return
				}
				cfg.Opt.Log().ErrorContext(r.Context(), "request validation failed", "path", r.URL.Path, "err", err)
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))
			next.ServeHTTP(w, r.WithContext(ContextWithValue(r.Context(), v)))
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
