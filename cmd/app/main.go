package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gasdelivery/cmd"

	"github.com/joho/godotenv"
	"github.com/labstack/gommon/log"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

func main() {
	envFile := pflag.String("env-file", ".env", "path to a dotenv file; a missing file is ignored")
	pflag.Parse()

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("Error loading %s: %v", *envFile, err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel()}))
	configs := getConfigs()

	app, err := cmd.NewCompositionRoot(configs, logger)
	if err != nil {
		log.Fatalf("Failed to build application: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err = run(ctx, app, configs.HTTPPort, logger); err != nil {
		logger.Error("Service stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, app *cmd.CompositionRoot, port string, logger *slog.Logger) error {
	e, err := app.NewHTTPServer()
	if err != nil {
		return err
	}

	jobManager := app.NewJobManager()
	if err = jobManager.StartAll(); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("HTTP server listening", "port", port)
		if err := e.Start(fmt.Sprintf("0.0.0.0:%s", port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return app.Run(ctx)
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		jobManager.StopAll()
		err := e.Shutdown(shutdownCtx)
		app.Close(shutdownCtx)
		return err
	})

	return g.Wait()
}

func getConfigs() cmd.Config {
	return cmd.Config{
		HTTPPort:                    envOr("HTTP_PORT", "8080"),
		Storage:                     envOr("STORAGE", cmd.StoragePostgres),
		DBHost:                      os.Getenv("DB_HOST"),
		DBPort:                      envOr("DB_PORT", "5432"),
		DBUser:                      os.Getenv("DB_USER"),
		DBPassword:                  os.Getenv("DB_PASSWORD"),
		DBName:                      os.Getenv("DB_NAME"),
		DBSslMode:                   envOr("DB_SSLMODE", "disable"),
		KafkaHost:                   os.Getenv("KAFKA_HOST"),
		KafkaConsumerGroup:          os.Getenv("KAFKA_CONSUMER_GROUP"),
		KafkaCheckoutConfirmedTopic: os.Getenv("KAFKA_CHECKOUT_CONFIRMED_TOPIC"),
		KafkaOrderChangedTopic:      os.Getenv("KAFKA_ORDER_CHANGED_TOPIC"),
		KafkaNotificationsTopic:     os.Getenv("KAFKA_NOTIFICATIONS_TOPIC"),
		RoutingURL:                  os.Getenv("ROUTING_URL"),
		RoutingTimeout:              durationOr("ROUTING_TIMEOUT", 5*time.Second),
		RouteMaxAge:                 durationOr("ROUTE_MAX_AGE", 15*time.Minute),
		LLMURL:                      os.Getenv("LLM_URL"),
		LLMModel:                    os.Getenv("LLM_MODEL"),
		LLMAPIKey:                   os.Getenv("LLM_API_KEY"),
		LLMTimeout:                  durationOr("LLM_TIMEOUT", 10*time.Second),
		JWTSecret:                   os.Getenv("JWT_SECRET"),
		TokenTTL:                    durationOr("TOKEN_TTL", 12*time.Hour),
		AdminUser:                   os.Getenv("ADMIN_USER"),
		AdminPassword:               os.Getenv("ADMIN_PASSWORD"),
	}
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func durationOr(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Fatalf("Invalid duration in %s: %v", key, err)
	}
	return d
}

func logLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(envOr("LOG_LEVEL", "info"))); err != nil {
		return slog.LevelInfo
	}
	return level
}
