package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/innovatehub/campaign-mailer/internal/api"
	"github.com/innovatehub/campaign-mailer/internal/config"
	"github.com/innovatehub/campaign-mailer/internal/mailing"
	"github.com/innovatehub/campaign-mailer/internal/pkg/logger"
	"github.com/innovatehub/campaign-mailer/internal/service/campaign"
	svcsuppression "github.com/innovatehub/campaign-mailer/internal/service/suppression"
	"github.com/innovatehub/campaign-mailer/internal/suppression"
	"github.com/innovatehub/campaign-mailer/internal/worker"
)

func fatal(msg string, kv ...interface{}) {
	logger.Error(msg, kv...)
	os.Exit(1)
}

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (environment overrides apply)")
	flag.Parse()

	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		fatal("failed to load config", "error", err)
	}
	if err := cfg.Validate(); err != nil {
		fatal("invalid config", "error", err)
	}

	level, err := logger.ParseLevel(cfg.Logging.Level)
	if err != nil {
		fatal("invalid log level", "error", err)
	}
	logger.SetLevel(level)
	logger.SetRedactPII(true)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	renderer, err := mailing.NewRenderer(cfg.Links.UnsubscribeURL)
	if err != nil {
		fatal("failed to load templates", "error", err)
	}
	personalizer := mailing.NewPersonalizer(cfg.Links.UnsubscribeURL)

	sender, err := worker.NewSender(ctx, cfg)
	if err != nil {
		fatal("failed to create sender", "provider", cfg.Delivery.Provider, "error", err)
	}

	opts := []campaign.Option{
		campaign.WithConcurrency(cfg.Delivery.Concurrency),
		campaign.WithSendTimeout(cfg.Delivery.SendTimeout()),
		campaign.WithSenderDefaults(cfg.Sender.Name, cfg.Sender.Email, cfg.Sender.ReplyTo),
	}

	// Redis is optional: it backs the suppression check, the send quota and rate limiting.
	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisOpts, err := cfg.Redis.Options()
		if err != nil {
			fatal("invalid redis config", "error", err)
		}
		redisClient = redis.NewClient(redisOpts)
		pingCtx, pingCancel := context.WithTimeout(ctx, 3*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			logger.Warn("redis unreachable at startup, continuing", "error", err)
		} else {
			logger.Info("redis connected")
		}
		pingCancel()
		defer redisClient.Close()

		suppressions := svcsuppression.NewService(suppression.NewRedisStore(redisClient))
		opts = append(opts, campaign.WithSuppression(suppressions))

		if cfg.Delivery.QuotaEnabled() {
			sender = worker.WithQuota(sender, worker.NewSendQuota(redisClient, cfg.Delivery.Provider, cfg.Delivery))
			logger.Info("provider send quota enabled",
				"per_second", cfg.Delivery.MaxPerSecond,
				"per_minute", cfg.Delivery.MaxPerMinute,
				"daily", cfg.Delivery.DailyLimit,
			)
		}
	}

	dispatcher := campaign.NewService(renderer, personalizer, sender, opts...)

	var limiter func(http.Handler) http.Handler
	if redisClient != nil && cfg.RateLimit.Requests > 0 {
		limiter = api.RateLimit(redisClient, cfg.RateLimit.Requests, cfg.RateLimit.Window())
		logger.Info("rate limiting enabled", "requests", cfg.RateLimit.Requests, "window", cfg.RateLimit.Window().String())
	}

	router := api.SetupRoutes(
		api.NewHandlers(dispatcher),
		api.NewHealthChecker(redisClient, cfg.Delivery.Provider),
		limiter,
	)
	server := api.NewServer(cfg.Server, router)

	// Setup graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("campaign API listening",
			"addr", cfg.Server.Addr(),
			"provider", cfg.Delivery.Provider,
			"concurrency", cfg.Delivery.Concurrency,
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fatal("server error", "error", err)
		}
	}()

	<-done
	logger.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
	logger.Info("server stopped")
}
