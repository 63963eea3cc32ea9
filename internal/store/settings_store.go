package store

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/matt-ortiz/PyScheduler/internal/model"
)

// GetSetting returns the stored value, or fallback if the key is
// absent (Settings rows are seeded at boot, but callers should never
// hard-fail on a missing one).
func (s *Store) GetSetting(ctx context.Context, key, fallback string) (string, error) {
	var row model.Settings
	err := s.db.WithContext(ctx).Where("key = ?", key).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fallback, nil
	}
	if err != nil {
		return fallback, err
	}
	return row.Value, nil
}

func (s *Store) SetSetting(ctx context.Context, key, value, description string) error {
	return WithRetry(ctx, func() error {
		row := model.Settings{Key: key, Value: value, Description: description}
		return s.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "description"}),
		}).Create(&row).Error
	})
}

// SeedSettingIfAbsent writes a default only the first time a key is
// seen, leaving any operator-edited value untouched on restart.
func (s *Store) SeedSettingIfAbsent(ctx context.Context, key, value, description string) error {
	return WithRetry(ctx, func() error {
		row := model.Settings{Key: key, Value: value, Description: description}
		return s.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoNothing: true,
		}).Create(&row).Error
	})
}

func (s *Store) ListSettings(ctx context.Context) ([]model.Settings, error) {
	var out []model.Settings
	err := s.db.WithContext(ctx).Order("key asc").Find(&out).Error
	return out, err
}
