package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCORS(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		origins     []string
		credentials bool
		origin      string
		preflight   bool
		wantStatus  int
		wantAllow   string
	}{
		{"nothing configured", nil, false, "https://app.example", false, http.StatusOK, ""},
		{"exact match", []string{"https://app.example"}, false, "https://app.example", false, http.StatusOK, "https://app.example"},
		{"match ignores case", []string{"HTTPS://APP.EXAMPLE"}, false, "https://app.example", false, http.StatusOK, "https://app.example"},
		{"unknown origin passes untagged", []string{"https://app.example"}, false, "https://evil.example", false, http.StatusOK, ""},
		{"unknown origin preflight", []string{"https://app.example"}, false, "https://evil.example", true, http.StatusForbidden, ""},
		{"allowed preflight", []string{"https://app.example"}, false, "https://app.example", true, http.StatusNoContent, "https://app.example"},
		{"wildcard", []string{"*"}, false, "http://localhost:5173", false, http.StatusOK, "*"},
		{"wildcard ignored with credentials", []string{"*"}, true, "http://localhost:5173", false, http.StatusOK, ""},
		{"subdomain pattern", []string{"*.meditrack.app"}, false, "https://web.meditrack.app", false, http.StatusOK, "https://web.meditrack.app"},
		{"subdomain pattern skips apex", []string{"*.meditrack.app"}, false, "https://meditrack.app", false, http.StatusOK, ""},
		{"subdomain pattern skips lookalike", []string{"*.meditrack.app"}, false, "https://evilmeditrack.app", false, http.StatusOK, ""},
		{"same origin", []string{"https://app.example"}, false, "", false, http.StatusOK, ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := DefaultCORSConfig()
			cfg.AllowedOrigins = tt.origins
			cfg.AllowCredentials = tt.credentials
			h := CORS(cfg)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

			method := http.MethodGet
			if tt.preflight {
				method = http.MethodOptions
			}
			req := httptest.NewRequest(method, "/api/meds", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.wantAllow {
				t.Errorf("Allow-Origin = %q, want %q", got, tt.wantAllow)
			}
		})
	}
}

func TestCORS_PreflightHeaders(t *testing.T) {
	t.Parallel()

	cfg := DefaultCORSConfig()
	cfg.AllowedOrigins = []string{"https://app.example"}
	cfg.AllowCredentials = true

	req := httptest.NewRequest(http.MethodOptions, "/api/alerts/trigger", nil)
	req.Header.Set("Origin", "https://app.example")
	rec := httptest.NewRecorder()
	CORS(cfg)(http.NotFoundHandler()).ServeHTTP(rec, req)

	want := map[string]string{
		"Access-Control-Allow-Methods":     "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		"Access-Control-Allow-Headers":     "Accept, Authorization, Content-Type, X-Request-ID",
		"Access-Control-Max-Age":           "600",
		"Access-Control-Allow-Credentials": "true",
		"Vary":                             "Origin",
	}
	for k, v := range want {
		if got := rec.Header().Get(k); got != v {
			t.Errorf("%s = %q, want %q", k, got, v)
		}
	}
}
