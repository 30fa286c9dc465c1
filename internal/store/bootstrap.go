package store

import (
	"context"
	"fmt"
	"time"
)

// Defaults seeded by Initialize when the singleton tables are empty. The
// resource percentages are placeholders refreshed by the first real status
// update.
var (
	defaultStatus = SystemStatus{
		ConnectionStatus: ConnectionStatusConnected,
		DataPoints:       0,
		CPUUsage:         25,
		MemoryUsage:      40,
		StorageUsage:     15,
		Uptime:           "0s",
	}

	defaultAlertSettings = AlertSettings{
		TemperatureAlerts: true,
		PHAlerts:          true,
		TDSLevelAlerts:    false,
	}
)

// Initialize creates the three tables if absent, including column CHECK
// constraints and the descending timestamp index, then seeds exactly one
// default status row and one default alert-settings row when the respective
// table is empty. Idempotent: safe to call on every process start, never
// duplicates the defaults. Errors propagate; the owning process decides
// whether they are fatal.
func (s *Store) Initialize(ctx context.Context) error {
	s.logger.Info("initializing database schema")

	if err := s.db.WithContext(ctx).AutoMigrate(
		&SensorReading{},
		&SystemStatus{},
		&AlertSettings{},
	); err != nil {
		return fmt.Errorf("schema migration failed: %w", err)
	}

	if err := s.seedStatus(ctx); err != nil {
		return err
	}

	if err := s.seedAlertSettings(ctx); err != nil {
		return err
	}

	s.logger.Info("database schema initialized")
	return nil
}

func (s *Store) seedStatus(ctx context.Context) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&SystemStatus{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count status rows: %w", err)
	}
	if count > 0 {
		return nil
	}

	seed := defaultStatus
	seed.LastUpdate = time.Now().UTC()
	if err := s.db.WithContext(ctx).Create(&seed).Error; err != nil {
		return fmt.Errorf("failed to seed default status: %w", err)
	}

	s.logger.Info("seeded default system status")
	return nil
}

func (s *Store) seedAlertSettings(ctx context.Context) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&AlertSettings{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count alert settings rows: %w", err)
	}
	if count > 0 {
		return nil
	}

	seed := defaultAlertSettings
	if err := s.db.WithContext(ctx).Create(&seed).Error; err != nil {
		return fmt.Errorf("failed to seed default alert settings: %w", err)
	}

	s.logger.Info("seeded default alert settings")
	return nil
}
