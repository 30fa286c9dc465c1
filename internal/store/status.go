package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StatusUpdate is a sparse update of the status record; nil fields are left
// untouched. At least one field must be supplied.
type StatusUpdate struct {
	ConnectionStatus *string
	LastUpdate       *time.Time
	DataPoints       *int64
	CPUUsage         *float64
	MemoryUsage      *float64
	StorageUsage     *float64
	Uptime           *string
}

// changes maps the supplied fields to their columns, validating each value.
// An empty map means the caller supplied nothing.
func (u StatusUpdate) changes() (map[string]any, error) {
	m := make(map[string]any)

	if u.ConnectionStatus != nil {
		switch *u.ConnectionStatus {
		case ConnectionStatusConnected, ConnectionStatusDisconnected, ConnectionStatusError:
		default:
			return nil, &ValidationError{
				Field:   "connectionStatus",
				Message: fmt.Sprintf("value %q must be one of connected, disconnected, error", *u.ConnectionStatus),
			}
		}
		m["connection_status"] = *u.ConnectionStatus
	}

	if u.LastUpdate != nil {
		m["last_update"] = u.LastUpdate.UTC()
	}

	if u.DataPoints != nil {
		if *u.DataPoints < 0 {
			return nil, &ValidationError{Field: "dataPoints", Message: "value must not be negative"}
		}
		m["data_points"] = *u.DataPoints
	}

	if u.CPUUsage != nil {
		if *u.CPUUsage < 0 || *u.CPUUsage > 100 {
			return nil, newRangeError("cpuUsage", *u.CPUUsage, 0, 100)
		}
		m["cpu_usage"] = *u.CPUUsage
	}

	if u.MemoryUsage != nil {
		if *u.MemoryUsage < 0 || *u.MemoryUsage > 100 {
			return nil, newRangeError("memoryUsage", *u.MemoryUsage, 0, 100)
		}
		m["memory_usage"] = *u.MemoryUsage
	}

	if u.StorageUsage != nil {
		if *u.StorageUsage < 0 || *u.StorageUsage > 100 {
			return nil, newRangeError("storageUsage", *u.StorageUsage, 0, 100)
		}
		m["storage_usage"] = *u.StorageUsage
	}

	if u.Uptime != nil {
		m["uptime"] = *u.Uptime
	}

	return m, nil
}

// GetStatus returns the authoritative (most recently updated) status row.
// An empty table is an integrity violation: bootstrap seeds the row and
// updates never delete it.
func (s *Store) GetStatus(ctx context.Context) (*SystemStatus, error) {
	start := time.Now()

	var status SystemStatus
	err := s.db.WithContext(ctx).
		Order("updated_at DESC").
		First(&status).Error
	s.observe("select", SystemStatus{}.TableName(), start, err)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error("system status row missing, bootstrap should have seeded it")
			return nil, &NotFoundError{Entity: "system status"}
		}
		return nil, s.persistErr("get status", err)
	}

	return &status, nil
}

// UpdateStatus applies a sparse field set to the authoritative status row
// and touches updated_at. An update with no supplied fields is rejected
// rather than degraded to a timestamp-only touch. The lookup and update run
// in one transaction with the row locked, so concurrent updates serialize
// instead of losing writes. Returns the post-update row.
func (s *Store) UpdateStatus(ctx context.Context, update StatusUpdate) (*SystemStatus, error) {
	start := time.Now()

	changes, err := update.changes()
	if err != nil {
		s.logger.Warn("rejected status update", "error", err)
		return nil, err
	}
	if len(changes) == 0 {
		verr := &ValidationError{Field: "update", Message: "at least one field must be supplied"}
		s.logger.Warn("rejected status update", "error", verr)
		return nil, verr
	}
	changes["updated_at"] = time.Now().UTC()

	var status SystemStatus
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Order("updated_at DESC").
			First(&status).Error; err != nil {
			return err
		}

		if err := tx.Model(&SystemStatus{}).Where("id = ?", status.ID).Updates(changes).Error; err != nil {
			return err
		}

		return tx.First(&status, status.ID).Error
	})
	s.observe("update", SystemStatus{}.TableName(), start, err)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error("system status row missing, bootstrap should have seeded it")
			return nil, &NotFoundError{Entity: "system status"}
		}
		return nil, s.persistErr("update status", err)
	}

	return &status, nil
}
