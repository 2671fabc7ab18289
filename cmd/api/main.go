// API entrypoint: loads configuration, initializes the stores and serves the
// voting and results endpoints.
package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rakibhasan/jonomot/internal/app/httpapi"
	"github.com/rakibhasan/jonomot/internal/app/voting"
	"github.com/rakibhasan/jonomot/internal/domain"
	"github.com/rakibhasan/jonomot/internal/platform/cache"
	"github.com/rakibhasan/jonomot/internal/platform/captcha"
	"github.com/rakibhasan/jonomot/internal/platform/clock"
	"github.com/rakibhasan/jonomot/internal/platform/config"
	"github.com/rakibhasan/jonomot/internal/platform/health"
	"github.com/rakibhasan/jonomot/internal/platform/ids"
	"github.com/rakibhasan/jonomot/internal/platform/logger"
	"github.com/rakibhasan/jonomot/internal/platform/migrations"
	"github.com/rakibhasan/jonomot/internal/platform/ratelimit"
	postgresstorage "github.com/rakibhasan/jonomot/internal/platform/storage/postgres"
	redisstorage "github.com/rakibhasan/jonomot/internal/platform/storage/redis"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("invalid configuration", "err", err)
	}

	// One shared connection for the whole lifecycle: pool reuse plus
	// readiness checks against the same handle.
	db, err := postgresstorage.Open(ctx, cfg.PostgresDSN())
	if err != nil {
		logger.Fatal("failed to connect to postgres", "err", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("failed to unwrap sql.DB", "err", err)
	}
	defer sqlDB.Close()

	if cfg.AutoMigrate {
		if err := migrations.Run(db); err != nil {
			logger.Fatal("automatic migration failed", "err", err)
		}
	}

	// This Redis instance holds the tallies and the rate-limit windows;
	// without it no vote can be counted.
	redisClient, err := redisstorage.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Fatal("failed to connect to redis", "err", err)
	}
	defer redisClient.Close()

	// The results cache may live elsewhere and is optional: if it cannot be
	// reached the service runs uncached, every results read recomputes.
	cacheClient := redisClient
	if cfg.CacheRedisAddr != "" && cfg.CacheRedisAddr != cfg.RedisAddr {
		cacheClient, err = redisstorage.NewClient(cfg.CacheRedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logger.Error("results cache unreachable, serving uncached", "err", err)
			cacheClient = nil
		} else {
			defer cacheClient.Close()
		}
	}

	constituencies := postgresstorage.NewConstituencyRepository(db)
	voters := postgresstorage.NewVoterRepository(db)
	ledger := postgresstorage.NewVoteRepository(db)
	tallies := redisstorage.NewTallyStore(redisClient, cfg.TallyKeyPrefix)
	resultsCache := cache.NewRedis(cacheClient, cfg.CacheKeyPrefix)
	clockSystem := clock.NewSystemClock()
	idGen := ids.NewGenerator()

	service := voting.NewService(
		constituencies,
		voters,
		tallies,
		ledger,
		resultsCache,
		clockSystem,
		idGen,
		time.Duration(cfg.ResultsCacheTTL)*time.Second,
	)

	var verifier domain.Verifier = captcha.NewNoop()
	switch cfg.CaptchaProvider {
	case "turnstile":
		verifier = captcha.NewTurnstile(cfg.CaptchaSecretKey)
	case "recaptcha":
		verifier = captcha.NewRecaptcha(cfg.CaptchaSecretKey)
	}

	var limiter domain.RateLimiter = ratelimit.NewNoop()
	if cfg.RateLimitEnabled {
		window := time.Duration(cfg.RateLimitWindowSeconds) * time.Second
		limiter = ratelimit.NewRedisRateLimiter(redisClient, cfg.RateLimitMaxActions, window, cfg.RateLimitKeyPrefix)
	}

	mux := http.NewServeMux()
	checker := health.NewChecker(sqlDB, redisClient)

	api := httpapi.New(service, verifier, limiter, httpapi.Options{
		ServerSalt:      cfg.ServerSalt,
		CaptchaProvider: cfg.CaptchaProvider,
		CaptchaSiteKey:  cfg.CaptchaSiteKey,
	}, logger.L())
	api.Register(mux)
	mux.HandleFunc("/readyz", checker.ReadyHandler())
	mux.Handle("/metrics", promhttp.Handler())

	logger.Info("api listening", "addr", cfg.HTTPAddress)
	if err := http.ListenAndServe(cfg.HTTPAddress, mux); err != nil {
		logger.Fatal("server error", "err", err)
	}
}
