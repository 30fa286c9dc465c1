package store

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"procodus.dev/aquamon/pkg/metrics"
)

// Pool sizing for the underlying database/sql pool. Statement execution
// blocks until a pooled connection frees up; the dial itself is bounded by
// connectTimeout via the DSN.
const (
	maxOpenConns    = 10
	maxIdleConns    = 10
	connMaxIdleTime = 30 * time.Second
	connectTimeout  = 2 * time.Second
)

// Config holds the connection configuration for a Store. Either URL or the
// discrete Host/Port/User/Password/DBName/SSLMode fields must be set; URL
// wins when both are present.
type Config struct {
	Logger   *slog.Logger
	Metrics  *metrics.StoreMetrics // optional
	URL      string
	Host     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	Port     int
}

// dsn builds the PostgreSQL connection string, carrying the connect timeout.
func (cfg *Config) dsn() string {
	if cfg.URL != "" {
		return cfg.URL
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s connect_timeout=%d",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode, int(connectTimeout.Seconds()))
}

// Store owns the database handle and implements the readings, status and
// alert-settings repositories. Construction is caller-driven: Open never
// exits the process, it returns errors for the owner to act on.
type Store struct {
	db      *gorm.DB
	logger  *slog.Logger
	metrics *metrics.StoreMetrics
}

// Open connects to PostgreSQL, configures the connection pool and verifies
// the connection with a ping. It does not touch the schema; call Initialize
// for that.
func Open(cfg *Config) (*Store, error) {
	if cfg == nil {
		return nil, errors.New("store config cannot be nil")
	}

	if cfg.Logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if cfg.URL == "" && (cfg.Host == "" || cfg.DBName == "") {
		return nil, errors.New("database connection string is not configured")
	}

	cfg.Logger.Info("connecting to database",
		"host", cfg.Host,
		"port", cfg.Port,
		"dbname", cfg.DBName,
	)

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent), // diagnostics go through slog
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	db, err := gorm.Open(postgres.Open(cfg.dsn()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	cfg.Logger.Info("database connection established")

	return &Store{
		db:      db,
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
	}, nil
}

// Close drains the connection pool, waiting for in-flight statements to
// finish. Operations issued after Close fail with a PersistenceError
// wrapping the driver's closed-pool error.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	s.logger.Info("closing database connection")
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	s.logger.Info("database connection closed")
	return nil
}

// observe records an operation outcome when metrics are configured and
// refreshes the pool gauges from the driver's stats.
func (s *Store) observe(op, table string, start time.Time, err error) {
	if s.metrics == nil {
		return
	}

	status := "success"
	if err != nil {
		status = "error"
	}
	s.metrics.OperationsTotal.WithLabelValues(op, table, status).Inc()
	s.metrics.OperationDuration.WithLabelValues(op, table).Observe(time.Since(start).Seconds())

	if sqlDB, dbErr := s.db.DB(); dbErr == nil {
		stats := sqlDB.Stats()
		s.metrics.ConnectionsInUse.Set(float64(stats.InUse))
		s.metrics.ConnectionsIdle.Set(float64(stats.Idle))
	}
}

// persistErr logs a storage failure with its operation and wraps it so the
// caller can decide retry/report policy.
func (s *Store) persistErr(op string, err error) error {
	s.logger.Error("storage operation failed", "op", op, "error", err)
	return &PersistenceError{Op: op, Err: err}
}
