package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
	"github.com/thelyst/internal/config"
	"github.com/thelyst/internal/infrastructure/dynamo"
	"github.com/thelyst/internal/infrastructure/google"
	jwtinfra "github.com/thelyst/internal/infrastructure/jwt"
	redisinfra "github.com/thelyst/internal/infrastructure/redis"
	s3infra "github.com/thelyst/internal/infrastructure/s3"
	"github.com/thelyst/internal/infrastructure/smtp"
	"github.com/thelyst/internal/infrastructure/sns"
	"github.com/thelyst/internal/pkg/clock"
	"github.com/thelyst/internal/pkg/metrics"
	transporthttp "github.com/thelyst/internal/transport/http"
)

func main() {
	envErr := godotenv.Load()

	cfg := config.Load()
	slog.SetDefault(newLogger(cfg.LogLevel))
	if envErr != nil {
		slog.Info("no .env file found, reading from environment")
	}

	ctx := context.Background()

	awsCfg, err := dynamo.LoadAWSConfig(ctx, cfg, cfg.AWSRegion)
	if err != nil {
		slog.Error("failed to load aws config", "err", err)
		os.Exit(1)
	}

	// Creates tables and TTL settings if they don't exist.
	dynamoClient := dynamo.NewClient(awsCfg, cfg)
	dynamo.Bootstrap(ctx, dynamoClient, cfg.DynamoTables)

	jwtProvider, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		slog.Error("jwt provider not available", "err", err)
		os.Exit(1)
	}

	snsCfg := awsCfg.Copy()
	if cfg.SNSRegion != "" {
		snsCfg.Region = cfg.SNSRegion
	}

	var rdb *goredis.Client
	if cfg.RedisURL != "" {
		if c, err := redisinfra.NewClient(ctx, cfg.RedisURL); err == nil {
			rdb = c
			defer rdb.Close()
		} else {
			slog.Warn("redis not available, otp hourly limit disabled", "err", err)
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	deps := &transporthttp.Deps{
		UserRepo:    dynamo.NewUserRepo(dynamoClient, cfg.DynamoTables.Users),
		SessionRepo: dynamo.NewSessionRepo(dynamoClient, cfg.DynamoTables.Sessions),
		OTPRepo:     dynamo.NewOTPRepo(dynamoClient, cfg.DynamoTables.OTPs),
		PendingRepo: dynamo.NewPendingRegistrationRepo(dynamoClient, cfg.DynamoTables.PendingRegistrations),
		Avatars:     s3infra.NewStore(s3infra.NewClient(awsCfg, cfg), cfg),
		Mailer:      smtp.NewMailer(cfg),
		Events:      sns.NewPublisher(snsCfg, cfg.AWSEndpointURL, cfg.SNSTopicARN),
		Limiter:     redisinfra.NewLimiter(rdb, "otp:hourly:"),
		JWTProvider: jwtProvider,
		Google:      google.NewVerifier(cfg.GoogleClientID),
		Clock:       clock.New(),
		Metrics:     metrics.New(registry),
		Registry:    registry,
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      transporthttp.NewRouter(cfg, deps),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.AppPort, "env", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "err", err)
		return
	}
	slog.Info("server stopped")
}

// newLogger returns a JSON logger at level ("debug", "info", "warn", "error").
// Unknown levels fall back to info.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
