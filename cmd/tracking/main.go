package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/redis/go-redis/v9"

	"github.com/innovatehub/campaign-mailer/internal/config"
	"github.com/innovatehub/campaign-mailer/internal/pkg/logger"
	svcsuppression "github.com/innovatehub/campaign-mailer/internal/service/suppression"
	"github.com/innovatehub/campaign-mailer/internal/suppression"
	"github.com/innovatehub/campaign-mailer/internal/tracking"
)

func fatal(msg string, kv ...interface{}) {
	logger.Error(msg, kv...)
	os.Exit(1)
}

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (environment overrides apply)")
	consume := flag.Bool("consume", true, "drain the SQS queue into Redis counters when a queue is configured")
	flag.Parse()

	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		fatal("failed to load config", "error", err)
	}
	if level, err := logger.ParseLevel(cfg.Logging.Level); err == nil {
		logger.SetLevel(level)
	}
	logger.SetRedactPII(true)

	if !cfg.Redis.Enabled() {
		fatal("REDIS_URL is required for the tracking service")
	}
	redisOpts, err := cfg.Redis.Options()
	if err != nil {
		fatal("invalid redis config", "error", err)
	}
	rdb := redis.NewClient(redisOpts)
	defer rdb.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	recorder := tracking.NewRedisRecorder(rdb)
	suppressions := svcsuppression.NewService(suppression.NewRedisStore(rdb))

	var sink tracking.Sink = recorder
	var consumer *tracking.Consumer
	if cfg.Tracking.SQSQueueURL != "" {
		opts := []func(*awsconfig.LoadOptions) error{}
		if cfg.Tracking.SQSRegion != "" {
			opts = append(opts, awsconfig.WithRegion(cfg.Tracking.SQSRegion))
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			fatal("aws config", "error", err)
		}
		sqsClient := sqs.NewFromConfig(awsCfg)

		// Events go through the queue; the consumer (here or elsewhere)
		// applies them to the counters.
		sink = tracking.NewPublisher(sqsClient, cfg.Tracking.SQSQueueURL)
		if *consume {
			consumer = tracking.NewConsumer(sqsClient, cfg.Tracking.SQSQueueURL, recorder)
			consumer.Start(ctx)
		}
	}

	handler := tracking.NewHandler(sink, suppressions, recorder)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Tracking.Port),
		Handler:      handler.Routes(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("tracking service listening", "addr", srv.Addr, "sqs", cfg.Tracking.SQSQueueURL != "")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fatal("listen", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down tracking service")

	if consumer != nil {
		consumer.Stop()
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("tracking shutdown error", "error", err)
	}
}
