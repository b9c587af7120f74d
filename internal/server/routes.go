package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/Ayushbunkar/Meditrack/internal/cache"
	"github.com/Ayushbunkar/Meditrack/internal/handler"
	"github.com/Ayushbunkar/Meditrack/internal/metrics"
	"github.com/Ayushbunkar/Meditrack/internal/middleware"
	"github.com/Ayushbunkar/Meditrack/internal/service"
)

// RouterDeps are the collaborators the router needs. Optional fields may be
// left nil: a nil Cache is reported as not configured, a nil Limiter turns
// rate limiting off and a nil MetricsHandler leaves /metrics unrouted.
type RouterDeps struct {
	Logger    *slog.Logger
	Auth      *service.AuthService
	Medicines *service.MedicineService
	Alerts    *service.AlertService
	Tokens    middleware.TokenValidator

	Store   handler.HealthChecker
	Cache   handler.HealthChecker
	Limiter cache.RateLimiter

	Recorder       metrics.Recorder
	MetricsHandler http.Handler

	CORSOrigins        []string
	MaxRequestBodySize int64
	IsDevelopment      bool

	RateLimitAuthRPS      int
	RateLimitAuthBurst    int
	RateLimitAPIPerMinute int
	RateLimitAPIBurst     int
}

// NewRouter configures the chi router with all routes and middleware.
func NewRouter(deps RouterDeps) *chi.Mux {
	logger := deps.Logger
	r := chi.NewRouter()

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = deps.CORSOrigins

	maxBody := deps.MaxRequestBodySize
	if maxBody <= 0 {
		maxBody = 1 << 20
	}

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger, deps.Recorder))
	r.Use(middleware.Sentry)
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.Security(middleware.SecurityConfig{IsDevelopment: deps.IsDevelopment}))
	r.Use(middleware.CORS(corsCfg))
	r.Use(middleware.MaxBodySize(maxBody))

	h := handler.New()
	health := handler.NewHealthHandler(deps.Store, deps.Cache)
	authHandler := handler.NewAuthHandler(deps.Auth, logger)
	medicineHandler := handler.NewMedicineHandler(deps.Medicines, logger)
	alertHandler := handler.NewAlertHandler(deps.Alerts, logger)

	r.Get("/", h.Root)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	rateLimitCfg := middleware.RateLimitConfig{
		Logger:       logger,
		Limiter:      deps.Limiter,
		AuthRPS:      deps.RateLimitAuthRPS,
		AuthBurst:    deps.RateLimitAuthBurst,
		APIPerMinute: deps.RateLimitAPIPerMinute,
		APIBurst:     deps.RateLimitAPIBurst,
	}
	authenticate := middleware.Auth(middleware.AuthConfig{Logger: logger, Tokens: deps.Tokens})

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.RateLimitIP(rateLimitCfg)).Post("/register", authHandler.Register)
			r.With(middleware.RateLimitIP(rateLimitCfg)).Post("/login", authHandler.Login)
			r.With(authenticate, middleware.RateLimitUser(rateLimitCfg)).Get("/me", authHandler.Me)
		})

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(middleware.RateLimitUser(rateLimitCfg))

			r.Route("/meds", func(r chi.Router) {
				r.Get("/", medicineHandler.List)
				r.Post("/", medicineHandler.Create)
				r.Get("/{id}", medicineHandler.Get)
				r.Put("/{id}", medicineHandler.Update)
				r.Delete("/{id}", medicineHandler.Delete)
			})

			r.Route("/alerts", func(r chi.Router) {
				r.Post("/trigger", alertHandler.Trigger)
				r.Post("/taken", alertHandler.Taken)
				r.Post("/missed", alertHandler.Missed)
				r.Get("/history", alertHandler.History)
			})
		})
	})

	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	return r
}
