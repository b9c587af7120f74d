package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/getsentry/sentry-go"

	"github.com/Ayushbunkar/Meditrack/internal/auth"
	"github.com/Ayushbunkar/Meditrack/internal/model"
)

// TokenValidator resolves a bearer token to the caller's identity.
type TokenValidator interface {
	Validate(token string) (*model.Identity, error)
}

// AuthConfig wires the token validator used by Auth.
type AuthConfig struct {
	Logger *slog.Logger
	Tokens TokenValidator
}

// Auth requires "Authorization: Bearer <token>" and stores the resolved
// identity in the request context. Failures answer 401 without detail.
func Auth(cfg AuthConfig) func(http.Handler) http.Handler {
	reject := func(w http.ResponseWriter, r *http.Request, reason string) {
		cfg.Logger.LogAttrs(r.Context(), slog.LevelWarn, "request not authenticated",
			slog.String("reason", reason),
			slog.String("remote_addr", r.RemoteAddr),
			slog.String("route", r.Method+" "+r.URL.Path),
			slog.String("request_id", GetRequestID(r.Context())),
		)
		writeJSONError(w, http.StatusUnauthorized, "Unauthorized")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				reject(w, r, "missing_token")
				return
			}
			identity, err := cfg.Tokens.Validate(token)
			if err != nil {
				reject(w, r, "invalid_token")
				return
			}

			ctx := r.Context()
			setLoggedUserID(ctx, identity.UserID)
			if hub := sentry.GetHubFromContext(ctx); hub != nil {
				hub.Scope().SetUser(sentry.User{ID: identity.UserID})
			}
			next.ServeHTTP(w, r.WithContext(auth.ContextWithIdentity(ctx, identity)))
		})
	}
}

// bearerToken parses an Authorization header value. The scheme is matched
// case-insensitively.
func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	token = strings.TrimSpace(token)
	if !ok || token == "" || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	return token, true
}
