package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/Simplici0/costdesk/internal/archive"
	"github.com/Simplici0/costdesk/internal/auth"
	"github.com/Simplici0/costdesk/internal/schedule"
)

const maxBodyBytes = 1 << 20

// requestError is a client mistake reported back verbatim with status 400.
type requestError struct {
	msg string
}

func (e requestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return requestError{msg: fmt.Sprintf(format, args...)}
}

var errEmptyBody = requestError{msg: "request body is empty"}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return badRequest("invalid JSON body: %v", err)
	}
	return nil
}

// writeJSON encodes v before writing any header, so an unencodable value becomes a 500
// instead of a 200 with a truncated body.
func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		body = []byte(`{"error":"could not encode response"}`)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

func writeFile(w http.ResponseWriter, contentType, filename string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// writeError maps err to a status code and a plain message.
func (s *server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	msg := "something went wrong, please try again"

	var reqErr requestError
	switch {
	case errors.As(err, &reqErr):
		status, msg = http.StatusBadRequest, reqErr.msg
	case errors.Is(err, archive.ErrUnknownType), errors.Is(err, schedule.ErrAllocationName):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, archive.ErrNotFound), errors.Is(err, schedule.ErrRowNotFound),
		errors.Is(err, schedule.ErrAllocationNotFound), errors.Is(err, auth.ErrTokenNotFound):
		status, msg = http.StatusNotFound, err.Error()
	case errors.Is(err, auth.ErrInvalidToken):
		status, msg = http.StatusUnauthorized, err.Error()
	case errors.Is(err, auth.ErrNotAllowed), errors.Is(err, errOperatorOnly):
		status, msg = http.StatusForbidden, err.Error()
	case errors.Is(err, auth.ErrRateLimited):
		status, msg = http.StatusTooManyRequests, err.Error()
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.Error(err),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

// requestLogger logs one line per request at a level chosen by the response status.
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			fields := []zap.Field{
				zap.Int("status", status),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("ip", r.RemoteAddr),
				zap.Duration("latency", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			}

			switch {
			case status >= 500:
				logger.Error("server error", fields...)
			case status >= 400:
				logger.Warn("client error", fields...)
			default:
				logger.Info("request", fields...)
			}
		})
	}
}
