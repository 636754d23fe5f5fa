package httpserver

import (
	"crypto/subtle"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/yndnr/gridwire-go/internal/core/domain"
	"github.com/yndnr/gridwire-go/internal/server/httpserver/handler"
	"github.com/yndnr/gridwire-go/internal/telemetry/logger"
	"github.com/yndnr/gridwire-go/internal/telemetry/metric"
)

// Middleware wraps an http.Handler with additional functionality.
type Middleware func(http.Handler) http.Handler

// Chain applies middlewares so the first one runs first.
func Chain(h http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// RequestID propagates X-Request-ID, generating one when absent, and
// attaches it to the request logger.
func RequestID(log logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" {
				requestID = "req-" + uuid.NewString()
			}
			w.Header().Set("X-Request-ID", requestID)

			ctx := logger.WithRequestID(r.Context(), requestID)
			ctx = logger.WithLogger(ctx, log)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Recover turns a handler panic into a 500 response.
func Recover(log logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.Error("panic recovered",
						"request_id", logger.RequestIDFromContext(r.Context()),
						"error", err,
						"path", r.URL.Path,
					)
					handler.WriteError(w, logger.RequestIDFromContext(r.Context()),
						http.StatusInternalServerError, domain.ErrInternal.Code, "internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// AccessLog logs every completed request.
func AccessLog() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(rec, r)

			attrs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.statusCode,
				"duration_ms", time.Since(start).Milliseconds(),
				"client_ip", getClientIP(r),
			}
			log := logger.L(r.Context())
			switch {
			case rec.statusCode >= 500:
				log.Error("request completed with error", attrs...)
			case rec.statusCode >= 400:
				log.Warn("request completed with client error", attrs...)
			default:
				log.Info("request completed", attrs...)
			}
		})
	}
}

// Instrument records request metrics under the matched route pattern.
func Instrument(m *metric.HTTPMetrics) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(rec, r)
			route := r.Pattern
			if route == "" {
				route = "unmatched"
			}
			m.Observe(route, rec.statusCode, time.Since(start))
		})
	}
}

// RateLimit rejects requests once limiter runs dry. A nil limiter
// allows everything.
func RateLimit(limiter *rate.Limiter) Middleware {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				w.Header().Set("Retry-After", "1")
				handler.WriteError(w, logger.RequestIDFromContext(r.Context()),
					http.StatusTooManyRequests, domain.ErrTooManyRequests.Code, domain.ErrTooManyRequests.Message)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// TokenAuth requires "Authorization: Bearer <token>". An empty token
// disables the check.
func TokenAuth(token string) Middleware {
	return func(next http.Handler) http.Handler {
		if token == "" {
			return next
		}
		want := []byte(token)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(got), want) != 1 {
				logger.L(r.Context()).Warn("admin token rejected", "path", r.URL.Path, "client_ip", getClientIP(r))
				handler.WriteError(w, logger.RequestIDFromContext(r.Context()),
					http.StatusUnauthorized, domain.ErrUnauthorized.Code, domain.ErrUnauthorized.Message)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// responseWriter captures the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWriter) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

// getClientIP extracts the client IP from the request.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
