package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// AlertToggles carries the full replacement value for the alert-settings
// record. Unlike status updates there is no partial form; all three toggles
// are written on every update.
type AlertToggles struct {
	TemperatureAlerts bool
	PHAlerts          bool
	TDSLevelAlerts    bool
}

// GetAlertSettings returns the authoritative alert-settings row. An empty
// table is tolerated: the hard-coded defaults are persisted and returned,
// covering a table that was created but never seeded. Two concurrent calls
// on an empty table can both miss and both insert; the duplicate seed is
// benign under most-recent-wins.
func (s *Store) GetAlertSettings(ctx context.Context) (*AlertSettings, error) {
	start := time.Now()

	var settings AlertSettings
	err := s.db.WithContext(ctx).
		Order("updated_at DESC").
		First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Info("alert settings missing, seeding defaults")
		settings = defaultAlertSettings
		err = s.db.WithContext(ctx).Create(&settings).Error
	}
	s.observe("select", AlertSettings{}.TableName(), start, err)
	if err != nil {
		return nil, s.persistErr("get alert settings", err)
	}

	return &settings, nil
}

// UpdateAlertSettings replaces the three toggles on the authoritative row,
// inserting a fresh row when no row matched (upsert-by-absence). The
// transaction makes update-then-insert atomic; it does not stop two
// concurrent first updates from both inserting, an accepted race since the
// extra row is absorbed by most-recent-wins.
func (s *Store) UpdateAlertSettings(ctx context.Context, toggles AlertToggles) (*AlertSettings, error) {
	start := time.Now()

	var settings AlertSettings
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&AlertSettings{}).
			Where("id = (?)", tx.Model(&AlertSettings{}).Select("id").Order("updated_at DESC").Limit(1)).
			Updates(map[string]any{
				"temperature_alerts": toggles.TemperatureAlerts,
				"ph_alerts":          toggles.PHAlerts,
				"tds_level_alerts":   toggles.TDSLevelAlerts,
				"updated_at":         time.Now().UTC(),
			})
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected == 0 {
			settings = AlertSettings{
				TemperatureAlerts: toggles.TemperatureAlerts,
				PHAlerts:          toggles.PHAlerts,
				TDSLevelAlerts:    toggles.TDSLevelAlerts,
			}
			return tx.Create(&settings).Error
		}

		return tx.Order("updated_at DESC").First(&settings).Error
	})
	s.observe("update", AlertSettings{}.TableName(), start, err)
	if err != nil {
		return nil, s.persistErr("update alert settings", err)
	}

	s.logger.Debug("alert settings updated",
		"temperature_alerts", settings.TemperatureAlerts,
		"ph_alerts", settings.PHAlerts,
		"tds_level_alerts", settings.TDSLevelAlerts,
	)
	return &settings, nil
}
