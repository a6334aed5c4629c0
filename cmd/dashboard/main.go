// Package main is the entrypoint for the LeadReach dashboard server.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/leadreach/leadreach/internal/activity"
	"github.com/leadreach/leadreach/internal/backend"
	"github.com/leadreach/leadreach/internal/cache"
	"github.com/leadreach/leadreach/internal/config"
	"github.com/leadreach/leadreach/internal/handler"
	"github.com/leadreach/leadreach/internal/metrics"
	"github.com/leadreach/leadreach/internal/middleware"
	"github.com/leadreach/leadreach/internal/repository"
	"github.com/leadreach/leadreach/internal/server"
	"github.com/leadreach/leadreach/internal/service"
	"github.com/leadreach/leadreach/internal/session"
	"github.com/leadreach/leadreach/internal/view"
)

// store is what the dashboard needs from Redis or its in-process stand-in.
type store interface {
	session.Store
	service.GroupCache
	middleware.LoginLimiter
}

func main() {
	ctx := context.Background()

	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	srv, err := build(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to start", "error", err)
		os.Exit(1)
	}

	logger.Info("starting server",
		"port", cfg.AppPort,
		"backend_url", redactURL(cfg.BackendURL),
		"env", cfg.AppEnv,
	)

	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// build connects dependencies and wires the HTTP stack. Components are
// registered for shutdown as they come up.
func build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*server.Server, error) {
	var hooks []func(*server.Server)

	var (
		st          store
		cacheHealth handler.HealthChecker
		redisClient *redis.Client
	)
	if cfg.RedisURL != "" {
		cacheClient, err := cache.New(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error(
				"failed to connect to Redis",
				slog.String("error", sanitizeError(err, cfg.RedisURL)),
				slog.String("redis_url", redactURL(cfg.RedisURL)),
			)
			return nil, err
		}
		logger.Info("connected to Redis")
		st, cacheHealth, redisClient = cacheClient, cacheClient, cacheClient.Client()
		hooks = append(hooks, func(s *server.Server) {
			s.OnShutdown("redis", func(context.Context) error { return cacheClient.Close() })
		})
	} else {
		logger.Warn("REDIS_URL not set, using in-process session store")
		st = cache.NewMemory()
	}

	recorder := metrics.NewInMemory()

	var (
		activityLog service.ActivityRecorder = service.NoopActivity{}
		dbHealth    handler.HealthChecker
	)
	if cfg.DatabaseURL != "" {
		repo, err := repository.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error(
				"failed to connect to database",
				slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
				slog.String("database_url", redactURL(cfg.DatabaseURL)),
			)
			return nil, err
		}
		logger.Info("connected to database")
		activityLog, dbHealth = repo, repo
		hooks = append(hooks, func(s *server.Server) {
			s.OnShutdown("postgres", func(context.Context) error {
				repo.Close()
				return nil
			})
		})

		if redisClient != nil {
			// Requests publish to the stream; the worker writes to Postgres.
			activityLog = activity.NewPublisher(redisClient, logger, recorder)
			worker := activity.NewWorker(redisClient, repo, logger, activity.NewConsumerID(), recorder)
			if err := worker.Start(ctx); err != nil {
				return nil, err
			}
			hooks = append(hooks, func(s *server.Server) {
				s.OnShutdown("activity-worker", worker.Shutdown)
			})
		}
	} else {
		logger.Info("DATABASE_URL not set, activity log disabled")
	}

	client, err := backend.New(cfg.BackendURL, backend.NewHTTPClient(cfg.BackendTimeout))
	if err != nil {
		return nil, err
	}

	views, err := view.New()
	if err != nil {
		return nil, err
	}

	dashboard := service.NewDashboard(client, st, activityLog, recorder, logger, service.Config{
		GroupsStaleTime:      cfg.GroupsStaleTime,
		DefaultDiscoverLimit: cfg.DefaultDiscoverLimit,
	})
	sessions := session.NewManager(st, session.Config{
		CookieName: cfg.SessionCookieName,
		TTL:        cfg.SessionTTL,
		Secure:     !cfg.IsDevelopment(),
	}, logger)

	router := handler.NewRouter(handler.RouterConfig{
		Logger:             logger,
		Handler:            handler.New(dashboard, sessions, views, logger),
		Health:             handler.NewHealthHandler(dbHealth, cacheHealth),
		Metrics:            handler.NewMetricsHandler(recorder),
		Limiter:            st,
		IsDevelopment:      cfg.IsDevelopment(),
		MaxRequestBodySize: cfg.MaxRequestBodySize,
		LoginPerMinute:     cfg.LoginRateLimitPerMinute,
		LoginBurst:         cfg.LoginRateLimitBurst,
		TrustProxy:         cfg.TrustProxy,
	})

	srv := server.New(router, server.Config{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)
	for _, register := range hooks {
		register(srv)
	}
	return srv, nil
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	var h slog.Handler
	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s&]+`)

// redactURL drops the password from a connection URL.
func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}
	return parsed.String()
}

// sanitizeError replaces any secret URL that leaked into an error message.
func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}
	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
