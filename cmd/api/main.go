// Package main is the entrypoint for the MediTrack API server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/getsentry/sentry-go"
	"github.com/lmittmann/tint"

	"github.com/Ayushbunkar/Meditrack/internal/auth"
	"github.com/Ayushbunkar/Meditrack/internal/cache"
	"github.com/Ayushbunkar/Meditrack/internal/config"
	"github.com/Ayushbunkar/Meditrack/internal/handler"
	"github.com/Ayushbunkar/Meditrack/internal/metrics"
	"github.com/Ayushbunkar/Meditrack/internal/repository"
	"github.com/Ayushbunkar/Meditrack/internal/repository/mongo"
	"github.com/Ayushbunkar/Meditrack/internal/repository/postgres"
	"github.com/Ayushbunkar/Meditrack/internal/repository/sqlite"
	"github.com/Ayushbunkar/Meditrack/internal/server"
	"github.com/Ayushbunkar/Meditrack/internal/service"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := initLogger(cfg.LogLevel, cfg.LogFormat)

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.SentryDSN,
			Environment: cfg.AppEnv,
			Release:     "meditrack@" + handler.Version,
		}); err != nil {
			logger.Warn("sentry disabled", slog.String("error", err.Error()))
		} else {
			logger.Info("sentry enabled")
		}
	}

	storeURL := cfg.StoreURL()
	store, err := repository.ConnectWithRetry(ctx, storeOpener(cfg), cfg.DBConnectAttempts, cfg.DBConnectDelay, logger)
	if err != nil {
		return fmt.Errorf("connect to %s store: %s", cfg.StoreDriver, sanitizeError(err, storeURL))
	}
	location := redactURL(storeURL)
	if cfg.StoreDriver == config.DriverSQLite {
		location = cfg.SQLitePath
	}
	logger.Info("connected to store",
		slog.String("driver", cfg.StoreDriver),
		slog.String("location", location),
	)

	var (
		redisCache *cache.Cache
		history    cache.HistoryCache = cache.NopHistory{}
		limiter    cache.RateLimiter
		cacheCheck handler.HealthChecker
	)
	if cfg.RedisURL != "" {
		redisCache, err = cache.New(ctx, cfg.RedisURL, cache.Options{})
		if err != nil {
			// Redis is optional: run without cache and rate limits.
			logger.Warn("redis unavailable, continuing without cache",
				slog.String("error", sanitizeError(err, cfg.RedisURL)),
				slog.String("redis_url", redactURL(cfg.RedisURL)),
			)
		} else {
			logger.Info("connected to Redis")
			history = cache.NewRedisHistory(redisCache, cfg.HistoryCacheTTL)
			cacheCheck = redisCache
			if cfg.RateLimitEnabled {
				limiter = redisCache
			}
		}
	}

	recorder, metricsHandler := initMetrics(cfg)

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)
	router := server.NewRouter(server.RouterDeps{
		Logger:                logger,
		Auth:                  service.NewAuthService(store, tokens, recorder, logger),
		Medicines:             service.NewMedicineService(store, history, recorder, logger),
		Alerts:                service.NewAlertService(store, store, history, recorder, logger),
		Tokens:                tokens,
		Store:                 store,
		Cache:                 cacheCheck,
		Limiter:               limiter,
		Recorder:              recorder,
		MetricsHandler:        metricsHandler,
		CORSOrigins:           cfg.CORSOrigins(),
		MaxRequestBodySize:    cfg.MaxRequestBodySize,
		IsDevelopment:         cfg.IsDevelopment(),
		RateLimitAuthRPS:      cfg.RateLimitAuthRPS,
		RateLimitAuthBurst:    cfg.RateLimitAuthBurst,
		RateLimitAPIPerMinute: cfg.RateLimitAPIPerMinute,
		RateLimitAPIBurst:     cfg.RateLimitAPIBurst,
	})

	srv := server.New(router, server.Options{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	// LIFO: sentry flushes first, the store closes last.
	srv.OnShutdown("store", func(ctx context.Context) error { return store.Close() })
	if redisCache != nil {
		srv.OnShutdown("redis", func(ctx context.Context) error { return redisCache.Close() })
	}
	if cfg.SentryDSN != "" {
		srv.OnShutdown("sentry", func(ctx context.Context) error {
			sentry.Flush(2 * time.Second)
			return nil
		})
	}

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"store", cfg.StoreDriver,
		"redis", redisCache != nil,
	)

	return srv.Run(ctx)
}

// storeOpener returns the connect function for the configured driver.
func storeOpener(cfg *config.Config) repository.OpenFunc {
	return func(ctx context.Context) (repository.Store, error) {
		var (
			store repository.Store
			err   error
		)
		switch cfg.StoreDriver {
		case config.DriverSQLite:
			store, err = sqlite.Open(ctx, cfg.SQLitePath)
		case config.DriverMongo:
			store, err = mongo.Open(ctx, cfg.StoreURL(), cfg.MongoDatabase)
		default:
			store, err = postgres.Open(ctx, cfg.DatabaseURL)
		}
		if err != nil {
			return nil, err
		}
		return store, nil
	}
}

// initMetrics picks the recorder and the /metrics handler, if any.
func initMetrics(cfg *config.Config) (metrics.Recorder, http.Handler) {
	if !cfg.MetricsEnabled {
		return metrics.NewNoop(), nil
	}
	if cfg.MetricsBackend == config.MetricsMemory {
		m := metrics.NewInMemory()
		return m, http.HandlerFunc(handler.NewMetricsHandler(m).Metrics)
	}
	p := metrics.NewPrometheus()
	return p, p.Handler()
}

// initLogger initializes the slog logger. "json" writes JSON lines, anything
// else writes colored text via tint.
func initLogger(level, format string) *slog.Logger {
	var h slog.Handler

	lvl := parseLogLevel(level)
	if format == "json" {
		h = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	} else {
		h = tint.NewHandler(os.Stdout, &tint.Options{Level: lvl, TimeFormat: time.Kitchen})
	}

	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
