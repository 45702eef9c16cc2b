package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/replyforge/replyforge/modules/api"
	"github.com/replyforge/replyforge/pkg/auth"
	"github.com/replyforge/replyforge/pkg/billing"
	"github.com/replyforge/replyforge/pkg/config"
	"github.com/replyforge/replyforge/pkg/entitlement"
	"github.com/replyforge/replyforge/pkg/generation"
	"github.com/replyforge/replyforge/pkg/httpserver"
	"github.com/replyforge/replyforge/pkg/jwt"
	"github.com/replyforge/replyforge/pkg/logger"
	"github.com/replyforge/replyforge/pkg/pg"
	"github.com/replyforge/replyforge/pkg/plan"
	"github.com/replyforge/replyforge/pkg/profile"
	"github.com/replyforge/replyforge/pkg/ratelimit"
	"github.com/replyforge/replyforge/pkg/redis"
	"github.com/replyforge/replyforge/pkg/usage"
)

type appConfig struct {
	Environment string `env:"ENVIRONMENT" envDefault:"production"`
	JWTSecret   string `env:"JWT_SECRET,required"`
	JWTIssuer   string `env:"JWT_ISSUER" envDefault:"replyforge"`

	Logger  logger.Config
	PG      pg.Config
	Redis   redis.Config
	HTTP    httpserver.Config
	OpenAI  generation.OpenAIConfig
	Pricing generation.Pricing
	Billing billing.Config

	// Stripe or Paddle settings are loaded lazily based on Billing.Provider
	// so only the active provider's secrets are required.
}

func main() {
	if err := run(); err != nil {
		slog.Error("replyforge exited", logger.Error(err))
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Deployment environments set real variables; .env is local convenience.
	if err := config.LoadEnv(".env"); err != nil && !errors.Is(err, config.ErrFailedToLoadEnvFile) {
		return err
	}

	var cfg appConfig
	if err := config.Load(&cfg); err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	devMode := cfg.Environment == "development"

	log := logger.NewFromConfig(cfg.Logger, logger.WithService("replyforge"))
	slog.SetDefault(log)

	pool, err := pg.Connect(ctx, cfg.PG)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, cfg.PG, log); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	redisClient, err := redis.Connect(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer func() { _ = redisClient.Close() }()

	catalog := plan.DefaultCatalog()
	if cfg.Billing.PriceRefsPath != "" {
		catalog, err = catalog.ApplyPriceRefs(cfg.Billing.PriceRefsPath)
		if err != nil {
			return fmt.Errorf("load plan price refs: %w", err)
		}
	}

	tokens, err := jwt.New([]byte(cfg.JWTSecret))
	if err != nil {
		return fmt.Errorf("init token service: %w", err)
	}

	users := auth.NewPGStore(pool)
	periods := usage.NewPGStore(pool)
	generations := generation.NewPGStore(pool)
	templates := profile.NewPGStore(pool)

	authSvc := auth.NewService(users, catalog, auth.WithLogger(log))
	verifier := auth.NewVerifier(tokens, users, cfg.JWTIssuer)
	entitlements := entitlement.NewResolver(periods)

	completions, err := generation.NewOpenAIProvider(cfg.OpenAI)
	if err != nil {
		return fmt.Errorf("init completion provider: %w", err)
	}
	gateway := generation.NewGateway(completions, generations, cfg.Pricing,
		generation.WithLogger(log))

	provider, err := billingProvider(cfg.Billing.Provider)
	if err != nil {
		return err
	}
	billingSvc := billing.NewService(users, catalog, provider, cfg.Billing,
		billing.WithServiceLogger(log))

	profiles := profile.NewService(users, templates, profile.WithLogger(log))

	loginLimiter, err := ratelimit.New(
		ratelimit.NewRedisStore(redisClient, "rl:login"),
		ratelimit.Config{Limit: 10, Window: time.Minute},
	)
	if err != nil {
		return fmt.Errorf("init login limiter: %w", err)
	}
	generateLimiter, err := ratelimit.New(
		ratelimit.NewRedisStore(redisClient, "rl:generate"),
		ratelimit.Config{Limit: 30, Window: time.Minute},
	)
	if err != nil {
		return fmt.Errorf("init generate limiter: %w", err)
	}

	module := api.New(
		authSvc, verifier, entitlements, gateway, generations, billingSvc, profiles, catalog,
		api.WithLogger(log),
		api.WithDevMode(devMode),
		api.WithLoginLimiter(loginLimiter),
		api.WithGenerateLimiter(generateLimiter),
	)

	server := httpserver.New(cfg.HTTP, log)
	return server.Run(ctx, module.Router())
}

// billingProvider builds the configured payment provider, loading only its
// own secrets from the environment.
func billingProvider(name string) (billing.Provider, error) {
	switch name {
	case "stripe", "":
		var cfg billing.StripeConfig
		if err := config.Load(&cfg); err != nil {
			return nil, fmt.Errorf("load stripe config: %w", err)
		}
		return billing.NewStripeProvider(cfg)
	case "paddle":
		var cfg billing.PaddleConfig
		if err := config.Load(&cfg); err != nil {
			return nil, fmt.Errorf("load paddle config: %w", err)
		}
		return billing.NewPaddleProvider(cfg)
	default:
		return nil, fmt.Errorf("unknown billing provider: %s", name)
	}
}
