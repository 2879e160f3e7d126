package app

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/scenariolabs/imagevault/internal/backoff"
	"github.com/scenariolabs/imagevault/internal/metrics"
	"github.com/scenariolabs/imagevault/internal/middleware"
	"github.com/scenariolabs/imagevault/internal/providers"
	"github.com/scenariolabs/imagevault/internal/ratelimit"
	"github.com/scenariolabs/imagevault/internal/repository"
	"github.com/scenariolabs/imagevault/internal/services"
	"github.com/scenariolabs/imagevault/internal/tracing"
	"github.com/scenariolabs/imagevault/pkg/config"
	"github.com/scenariolabs/imagevault/pkg/token"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

type Application struct {
	Config          *config.Config
	Engine          *gin.Engine
	Redis           *redis.Client
	Images          services.ImageService
	Sync            services.SyncService
	Issuer          *token.Issuer
	Validator       *token.Validator
	Logger          *slog.Logger
	RateLimiter     ratelimit.Limiter
	TracingShutdown func(context.Context) error

	now func() time.Time
}

// ApplicationOption configures the Application.
type ApplicationOption func(*Application) error

// WithClock overrides the clock used by the issuer, validator and services.
func WithClock(now func() time.Time) ApplicationOption {
	return func(app *Application) error {
		app.now = now
		return nil
	}
}

func NewApplication(cfg *config.Config, opts ...ApplicationOption) (*Application, error) {
	key, err := token.NewSigningKey(cfg.SigningSecret)
	if err != nil {
		return nil, err
	}

	level := new(slog.LevelVar)
	switch cfg.LogLevel {
	case "debug":
		level.Set(slog.LevelDebug)
	case "warn":
		level.Set(slog.LevelWarn)
	case "error":
		level.Set(slog.LevelError)
	default:
		level.Set(slog.LevelInfo)
	}
	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	if cfg.LogFormat == "text" {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}
	logger := slog.New(handler).With("service", "imagevault", "env", cfg.Env)
	slog.SetDefault(logger)

	redisClient := providers.NewRedisProvider(cfg.RedisAddr, cfg.RedisPass)
	limiter := ratelimit.NewTokenBucketLimiter(redisClient)
	metrics.RegisterRedisCollector(redisClient, logger)

	app := &Application{
		Config:      cfg,
		Redis:       redisClient,
		Logger:      logger,
		RateLimiter: limiter,
		now:         time.Now,
	}
	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	app.Issuer = token.NewIssuer(key,
		time.Duration(cfg.TokenTTLHours)*time.Hour,
		time.Duration(cfg.TempURLMaxTTLMinutes)*time.Minute,
		app.now,
	)
	app.Validator = token.NewValidator(key, app.now)

	repo := repository.NewImageRepository(redisClient, app.now)
	store := providers.NewLocalFileStore(cfg.ImagesDir)
	app.Images = services.NewImageService(repo, store, logger, app.now, cfg.MaxFileSizeBytes)
	app.Sync = services.NewSyncService(repo, store, logger, app.now)

	engine := gin.New()
	engine.Use(gin.Recovery(),
		middleware.RequestIDMiddleware(),
		middleware.LoggerMiddleware(logger),
		middleware.TracingMiddleware("imagevault"),
	)
	app.Engine = engine

	return app, nil
}

// Startup pings Redis with retry, optionally reconciles disk and records,
// and initializes tracing. It is separate from NewApplication so tests can
// build an Application without side effects.
func (app *Application) Startup(ctx context.Context) error {
	if err := app.waitForRedis(ctx); err != nil {
		return err
	}

	shutdown, err := tracing.Setup(ctx, tracing.Config{
		Enabled:      app.Config.Tracing.Enabled,
		ServiceName:  "imagevault",
		OTLPEndpoint: app.Config.Tracing.OTLPEndpoint,
		OTLPInsecure: app.Config.Tracing.OTLPInsecure,
		SampleRatio:  app.Config.Tracing.SampleRatio,
	}, app.Logger)
	if err != nil {
		return err
	}
	app.TracingShutdown = shutdown

	if app.Config.SyncOnStartup {
		if _, err := app.Sync.Run(ctx); err != nil {
			return fmt.Errorf("startup sync: %w", err)
		}
	}
	return nil
}

func (app *Application) waitForRedis(ctx context.Context) error {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	var lastErr error
	for attempt := 0; attempt < 5; attempt++ {
		if attempt > 0 {
			delay := backoff.Compute("exp_full_jitter", 1, 10, attempt, rng)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(delay) * time.Second):
			}
		}
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		lastErr = app.Redis.Ping(pingCtx).Err()
		cancel()
		if lastErr == nil {
			return nil
		}
		app.Logger.Warn("redis not reachable, retrying", "attempt", attempt+1, "err", lastErr)
	}
	return fmt.Errorf("redis unreachable: %w", lastErr)
}
