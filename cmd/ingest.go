package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"procodus.dev/aquamon/internal/ingest"
	"procodus.dev/aquamon/internal/store"
	"procodus.dev/aquamon/pkg/metrics"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Run the ingestion service",
	Long: `Run the ingestion service that:
- Ensures the database schema exists and is seeded
- Consumes sensor readings from RabbitMQ
- Persists readings to PostgreSQL
- Serves Prometheus metrics over HTTP`,
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)

	// Ingest-specific flags
	ingestCmd.Flags().String("database-url", "", "PostgreSQL connection string (or set AQUAMON_DATABASE_URL)")
	ingestCmd.Flags().String("db-host", "", "PostgreSQL host (alternative to --database-url)")
	ingestCmd.Flags().Int("db-port", 5432, "PostgreSQL port")
	ingestCmd.Flags().String("db-user", "postgres", "PostgreSQL user")
	ingestCmd.Flags().String("db-password", "", "PostgreSQL password")
	ingestCmd.Flags().String("db-name", "aquamon", "PostgreSQL database name")
	ingestCmd.Flags().String("db-sslmode", "disable", "PostgreSQL SSL mode")
	ingestCmd.Flags().String("rabbitmq-url", "amqp://localhost:5672", "RabbitMQ URL")
	ingestCmd.Flags().String("queue-name", "sensor-readings", "RabbitMQ queue name for sensor readings")
	ingestCmd.Flags().String("metrics-addr", ":9091", "listen address for the Prometheus metrics endpoint")

	// Bind flags to viper
	_ = viper.BindPFlag("database.url", ingestCmd.Flags().Lookup("database-url"))
	_ = viper.BindPFlag("database.host", ingestCmd.Flags().Lookup("db-host"))
	_ = viper.BindPFlag("database.port", ingestCmd.Flags().Lookup("db-port"))
	_ = viper.BindPFlag("database.user", ingestCmd.Flags().Lookup("db-user"))
	_ = viper.BindPFlag("database.password", ingestCmd.Flags().Lookup("db-password"))
	_ = viper.BindPFlag("database.name", ingestCmd.Flags().Lookup("db-name"))
	_ = viper.BindPFlag("database.sslmode", ingestCmd.Flags().Lookup("db-sslmode"))
	_ = viper.BindPFlag("ingest.rabbitmq.url", ingestCmd.Flags().Lookup("rabbitmq-url"))
	_ = viper.BindPFlag("ingest.rabbitmq.queue_name", ingestCmd.Flags().Lookup("queue-name"))
	_ = viper.BindPFlag("ingest.metrics.addr", ingestCmd.Flags().Lookup("metrics-addr"))
}

// storeConfigFromViper assembles the store configuration. The connection
// string is required before any dial attempt: its absence is a configuration
// error, not a connection error.
func storeConfigFromViper(logger *slog.Logger, m *metrics.StoreMetrics) (*store.Config, error) {
	cfg := &store.Config{
		Logger:   logger,
		Metrics:  m,
		URL:      viper.GetString("database.url"),
		Host:     viper.GetString("database.host"),
		Port:     viper.GetInt("database.port"),
		User:     viper.GetString("database.user"),
		Password: viper.GetString("database.password"),
		DBName:   viper.GetString("database.name"),
		SSLMode:  viper.GetString("database.sslmode"),
	}

	if cfg.URL == "" && cfg.Host == "" {
		return nil, errors.New("database connection string is required: set AQUAMON_DATABASE_URL or --database-url")
	}

	return cfg, nil
}

func runIngest(_ *cobra.Command, _ []string) error {
	logger := GetLogger("ingest")
	logger.Info("starting ingestion service")

	storeMetrics := metrics.NewStoreMetrics("aquamon")
	consumerMetrics := metrics.NewConsumerMetrics("aquamon")

	storeCfg, err := storeConfigFromViper(logger, storeMetrics)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		return err
	}

	db, err := store.Open(storeCfg)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("failed to close store", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Bootstrap is the only startup-fatal path: a store that cannot
	// guarantee its schema and singleton rows must not serve.
	if err := db.Initialize(ctx); err != nil {
		logger.Error("schema bootstrap failed", "error", err)
		return err
	}

	consumer, err := ingest.New(&ingest.Config{
		Logger:      logger,
		Store:       db,
		Metrics:     consumerMetrics,
		RabbitMQURL: viper.GetString("ingest.rabbitmq.url"),
		QueueName:   viper.GetString("ingest.rabbitmq.queue_name"),
	})
	if err != nil {
		logger.Error("failed to create consumer", "error", err)
		return err
	}

	if err := consumer.Start(ctx); err != nil {
		logger.Error("failed to start consumer", "error", err)
		return err
	}

	metricsAddr := viper.GetString("ingest.metrics.addr")
	metricsServer := &http.Server{
		Addr:              metricsAddr,
		Handler:           metrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("serving metrics", "addr", metricsAddr)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server error", "error", err)
		}
	}()

	logger.Info("ingestion service running",
		"queue", viper.GetString("ingest.rabbitmq.queue_name"),
		"metrics_addr", metricsAddr,
	)

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown error", "error", err)
	}

	if err := consumer.Stop(); err != nil {
		return fmt.Errorf("failed to stop consumer: %w", err)
	}

	logger.Info("ingestion service stopped")
	return nil
}
