package middleware

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// CORSConfig configures cross-origin access for browser clients.
type CORSConfig struct {
	// AllowedOrigins lists exact origins and "*.domain" subdomain patterns.
	// "*" allows any origin unless AllowCredentials is set.
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	// MaxAge is the preflight cache lifetime in seconds. Zero omits the header.
	MaxAge int
}

// DefaultCORSConfig allows no origins until some are configured.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader, "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		MaxAge:         600,
	}
}

// corsPolicy is CORSConfig compiled once per router.
type corsPolicy struct {
	wildcard    bool
	exact       map[string]struct{}
	suffixes    []string
	credentials bool
	preflight   http.Header
	exposed     string
}

func compileCORS(cfg CORSConfig) *corsPolicy {
	p := &corsPolicy{
		exact:       make(map[string]struct{}, len(cfg.AllowedOrigins)),
		credentials: cfg.AllowCredentials,
		exposed:     strings.Join(cfg.ExposedHeaders, ", "),
		preflight:   http.Header{},
	}
	for _, o := range cfg.AllowedOrigins {
		o = strings.ToLower(strings.TrimSpace(o))
		switch {
		case o == "*":
			p.wildcard = !cfg.AllowCredentials
		case strings.HasPrefix(o, "*."):
			p.suffixes = append(p.suffixes, o[1:])
		case o != "":
			p.exact[o] = struct{}{}
		}
	}

	p.preflight.Set("Access-Control-Allow-Methods", strings.Join(cfg.AllowedMethods, ", "))
	p.preflight.Set("Access-Control-Allow-Headers", strings.Join(cfg.AllowedHeaders, ", "))
	if cfg.MaxAge > 0 {
		p.preflight.Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
	}
	return p
}

// allows reports whether origin may read responses. A "*.domain" pattern
// matches subdomains only, never the bare domain or a lookalike.
func (p *corsPolicy) allows(origin string) bool {
	if p.wildcard {
		return true
	}
	origin = strings.ToLower(origin)
	if _, ok := p.exact[origin]; ok {
		return true
	}
	if len(p.suffixes) == 0 {
		return false
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	host := u.Hostname()
	for _, suffix := range p.suffixes {
		if len(host) > len(suffix) && strings.HasSuffix(host, suffix) {
			return true
		}
	}
	return false
}

func (p *corsPolicy) decorate(h http.Header, origin string) {
	if p.wildcard {
		h.Set("Access-Control-Allow-Origin", "*")
	} else {
		h.Set("Access-Control-Allow-Origin", origin)
		h.Add("Vary", "Origin")
	}
	if p.credentials {
		h.Set("Access-Control-Allow-Credentials", "true")
	}
	if p.exposed != "" {
		h.Set("Access-Control-Expose-Headers", p.exposed)
	}
}

// CORS answers preflight requests and tags allowed responses. Requests from
// unknown origins pass through untagged so the browser blocks them, except
// preflights, which get 403.
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	policy := compileCORS(cfg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			preflight := r.Method == http.MethodOptions

			switch {
			case origin == "":
				next.ServeHTTP(w, r)
			case !policy.allows(origin):
				if preflight {
					w.WriteHeader(http.StatusForbidden)
					return
				}
				next.ServeHTTP(w, r)
			case preflight:
				policy.decorate(w.Header(), origin)
				for k, v := range policy.preflight {
					w.Header()[k] = v
				}
				w.WriteHeader(http.StatusNoContent)
			default:
				policy.decorate(w.Header(), origin)
				next.ServeHTTP(w, r)
			}
		})
	}
}
