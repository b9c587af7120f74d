package middleware

import (
	"net/http"

	"github.com/getsentry/sentry-go"
)

// Sentry gives each request its own hub so captured errors carry the
// request and its ID. When Sentry is not initialised the hub has no client
// and capturing is a no-op.
func Sentry(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub := sentry.CurrentHub().Clone()
		hub.Scope().SetRequest(r)
		if id := GetRequestID(r.Context()); id != "" {
			hub.Scope().SetTag("request_id", id)
		}
		ctx := sentry.SetHubOnContext(r.Context(), hub)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
