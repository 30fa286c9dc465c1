package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultRecentLimit caps ListRecent when the caller does not supply a
// positive limit.
const DefaultRecentLimit = 50

// NewReading carries the caller-supplied fields for CreateReading.
// Timestamp is optional; insert time is used when nil.
type NewReading struct {
	Timestamp   *time.Time
	Temperature float64
	PH          float64
	TDSLevel    float64
}

// ValidateReading checks the three measurement ranges. Exported so callers
// ahead of the store (ingest pipeline, API layers) can reject bad samples
// without a database round trip.
func ValidateReading(temperature, ph, tdsLevel float64) error {
	if temperature < TemperatureMin || temperature > TemperatureMax {
		return newRangeError("temperature", temperature, TemperatureMin, TemperatureMax)
	}
	if ph < PHMin || ph > PHMax {
		return newRangeError("ph", ph, PHMin, PHMax)
	}
	if tdsLevel < TDSLevelMin || tdsLevel > TDSLevelMax {
		return newRangeError("tdsLevel", tdsLevel, TDSLevelMin, TDSLevelMax)
	}
	return nil
}

// CreateReading validates and inserts one sample, then recomputes the status
// row's data_points as count(*) over the readings table and refreshes its
// timestamps. Insert and recompute run in one transaction so a concurrent
// reader cannot observe a half-applied state. Returns the materialized row
// including the generated id and created_at.
func (s *Store) CreateReading(ctx context.Context, r NewReading) (*SensorReading, error) {
	start := time.Now()

	if err := ValidateReading(r.Temperature, r.PH, r.TDSLevel); err != nil {
		s.logger.Warn("rejected sensor reading", "error", err)
		return nil, err
	}

	reading := SensorReading{
		Timestamp:   time.Now().UTC(),
		Temperature: r.Temperature,
		PH:          r.PH,
		TDSLevel:    r.TDSLevel,
	}
	if r.Timestamp != nil {
		reading.Timestamp = r.Timestamp.UTC()
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Lock the status row before counting so concurrent inserts
		// serialize here and cannot commit a stale data_points value.
		var status SystemStatus
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Order("updated_at DESC").
			First(&status).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if err := tx.Create(&reading).Error; err != nil {
			return err
		}

		// The reading still persists when no status row exists; bootstrap
		// repairs the singleton on the next start.
		if status.ID == 0 {
			return nil
		}

		var count int64
		if err := tx.Model(&SensorReading{}).Count(&count).Error; err != nil {
			return err
		}

		now := time.Now().UTC()
		return tx.Model(&SystemStatus{}).
			Where("id = ?", status.ID).
			Updates(map[string]any{
				"data_points": count,
				"last_update": now,
				"updated_at":  now,
			}).Error
	})
	s.observe("insert", SensorReading{}.TableName(), start, err)
	if err != nil {
		return nil, s.persistErr("create reading", err)
	}

	s.logger.Debug("sensor reading stored",
		"id", reading.ID,
		"temperature", reading.Temperature,
		"ph", reading.PH,
		"tds_level", reading.TDSLevel,
	)
	return &reading, nil
}

// ListRecent returns at most limit readings, newest first by timestamp. A
// non-positive limit falls back to DefaultRecentLimit.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]SensorReading, error) {
	start := time.Now()

	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	var readings []SensorReading
	err := s.db.WithContext(ctx).
		Order("timestamp DESC").
		Limit(limit).
		Find(&readings).Error
	s.observe("select", SensorReading{}.TableName(), start, err)
	if err != nil {
		return nil, s.persistErr("list recent readings", err)
	}

	return readings, nil
}

// ListByTimeRange returns readings with from <= timestamp <= to, oldest
// first. The result is unbounded; callers own the size of the range they
// ask for.
func (s *Store) ListByTimeRange(ctx context.Context, from, to time.Time) ([]SensorReading, error) {
	start := time.Now()

	var readings []SensorReading
	err := s.db.WithContext(ctx).
		Where("timestamp >= ? AND timestamp <= ?", from, to).
		Order("timestamp ASC").
		Find(&readings).Error
	s.observe("select", SensorReading{}.TableName(), start, err)
	if err != nil {
		return nil, s.persistErr("list readings by time range", err)
	}

	return readings, nil
}
