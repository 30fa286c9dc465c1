// Package store implements the persistence layer for water-quality telemetry:
// an append-only time-series of sensor readings, a logical-singleton system
// status record and a logical-singleton alert-settings record, backed by
// PostgreSQL through GORM.
//
// The status and alert-settings tables follow a "most recently updated row
// wins" singleton pattern: the table may accumulate rows, but only the row
// with the newest updated_at is authoritative. All read-modify-write paths
// run inside transactions so concurrent writers serialize instead of
// overwriting each other.
package store

import "time"

// Measurement bounds, enforced twice: by the repository before any statement
// is issued (fail fast) and by CHECK constraints on the table (rejecting
// out-of-range writes from other clients of the same database).
const (
	TemperatureMin = -50.0
	TemperatureMax = 100.0
	PHMin          = 0.0
	PHMax          = 14.0
	TDSLevelMin    = 0.0
	TDSLevelMax    = 5000.0
)

// Connection status values accepted by SystemStatus.ConnectionStatus.
const (
	ConnectionStatusConnected    = "connected"
	ConnectionStatusDisconnected = "disconnected"
	ConnectionStatusError        = "error"
)

// SensorReading is one water-quality sample. Rows are append-only and
// immutable once created.
type SensorReading struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Timestamp   time.Time `gorm:"not null;index:idx_sensor_readings_timestamp,sort:desc" json:"timestamp"`
	Temperature float64   `gorm:"not null;check:temperature >= -50 AND temperature <= 100" json:"temperature"`
	PH          float64   `gorm:"column:ph;not null;check:ph >= 0 AND ph <= 14" json:"ph"`
	TDSLevel    float64   `gorm:"column:tds_level;not null;check:tds_level >= 0 AND tds_level <= 5000" json:"tdsLevel"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName specifies the table name for the SensorReading model.
func (SensorReading) TableName() string {
	return "sensor_readings"
}

// SystemStatus is the current-health snapshot read by the dashboard.
// DataPoints is recomputed from the readings table on every insert.
type SystemStatus struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	ConnectionStatus string    `gorm:"not null;default:'connected';check:connection_status = 'connected' OR connection_status = 'disconnected' OR connection_status = 'error'" json:"connectionStatus"`
	LastUpdate       time.Time `gorm:"not null" json:"lastUpdate"`
	DataPoints       int64     `gorm:"not null;default:0;check:data_points >= 0" json:"dataPoints"`
	CPUUsage         float64   `gorm:"column:cpu_usage;not null;default:0;check:cpu_usage >= 0 AND cpu_usage <= 100" json:"cpuUsage"`
	MemoryUsage      float64   `gorm:"not null;default:0;check:memory_usage >= 0 AND memory_usage <= 100" json:"memoryUsage"`
	StorageUsage     float64   `gorm:"not null;default:0;check:storage_usage >= 0 AND storage_usage <= 100" json:"storageUsage"`
	Uptime           string    `gorm:"not null;default:'0s'" json:"uptime"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName specifies the table name for the SystemStatus model.
func (SystemStatus) TableName() string {
	return "system_status"
}

// AlertSettings holds the user-facing alert toggles, same singleton pattern
// as SystemStatus.
type AlertSettings struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	TemperatureAlerts bool      `gorm:"not null;default:true" json:"temperatureAlerts"`
	PHAlerts          bool      `gorm:"column:ph_alerts;not null;default:true" json:"phAlerts"`
	TDSLevelAlerts    bool      `gorm:"column:tds_level_alerts;not null;default:false" json:"tdsLevelAlerts"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName specifies the table name for the AlertSettings model.
func (AlertSettings) TableName() string {
	return "alert_settings"
}
