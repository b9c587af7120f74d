package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/getsentry/sentry-go"
)

// Recoverer turns a handler panic into a 500 envelope. The panic is logged
// with its stack and reported on the request's Sentry hub. http.ErrAbortHandler
// is re-raised so net/http can abort the connection quietly.
func Recoverer(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				v := recover()
				if v == nil {
					return
				}
				if err, ok := v.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(v)
				}

				ctx := r.Context()
				logger.LogAttrs(ctx, slog.LevelError, "handler panic",
					slog.String("request_id", GetRequestID(ctx)),
					slog.String("route", routePattern(r)),
					slog.Any("panic", v),
					slog.String("stack", string(debug.Stack())),
				)

				hub := sentry.GetHubFromContext(ctx)
				if hub == nil {
					hub = sentry.CurrentHub()
				}
				hub.RecoverWithContext(ctx, v)

				writeJSONError(w, http.StatusInternalServerError, "Server error")
			}()

			next.ServeHTTP(w, r)
		})
	}
}
