package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/Ayushbunkar/Meditrack/internal/metrics"
)

// accessEntry collects values that inner middleware resolve after Logger has
// already started, such as the authenticated user.
type accessEntry struct {
	userID string
}

const accessEntryKey contextKey = "access_entry"

func setLoggedUserID(ctx context.Context, userID string) {
	if e, ok := ctx.Value(accessEntryKey).(*accessEntry); ok {
		e.userID = userID
	}
}

// statusLevel maps a response status to the access log level.
func statusLevel(status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// Logger writes one access record per request and feeds the request metrics.
// Request headers are never logged.
func Logger(logger *slog.Logger, recorder metrics.Recorder) func(http.Handler) http.Handler {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			entry := &accessEntry{}
			r = r.WithContext(context.WithValue(r.Context(), accessEntryKey, entry))
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			elapsed := time.Since(start)
			route := routePattern(r)
			recorder.ObserveHTTPRequest(r.Method, route, status, elapsed)

			attrs := make([]slog.Attr, 0, 10)
			attrs = append(attrs,
				slog.String("request_id", GetRequestID(r.Context())),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("route", route),
				slog.Int("status_code", status),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Float64("duration_ms", float64(elapsed.Microseconds())/1000),
				slog.String("remote_addr", r.RemoteAddr),
				slog.String("user_agent", r.UserAgent()),
			)
			if entry.userID != "" {
				attrs = append(attrs, slog.String("user_id", entry.userID))
			}
			logger.LogAttrs(r.Context(), statusLevel(status), "http request", attrs...)
		})
	}
}

// routePattern is the matched chi pattern. Unknown paths collapse into
// "unmatched" to keep metric label cardinality bounded.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
