package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/matt-ortiz/PyScheduler/internal/common"
	"github.com/matt-ortiz/PyScheduler/internal/model"
)

func (s *Store) CreateTrigger(ctx context.Context, t *model.Trigger) error {
	return WithRetry(ctx, func() error {
		return s.db.WithContext(ctx).Create(t).Error
	})
}

func (s *Store) GetTrigger(ctx context.Context, id uint) (*model.Trigger, error) {
	var t model.Trigger
	err := s.db.WithContext(ctx).First(&t, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.NewErrNo(common.KindNotFound, "trigger not found")
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Store) ListTriggersForScript(ctx context.Context, scriptID uint) ([]model.Trigger, error) {
	var out []model.Trigger
	err := s.db.WithContext(ctx).Where("script_id = ?", scriptID).Order("id asc").Find(&out).Error
	return out, err
}

// ListEnabledTriggers is read once at boot to arm every timer.
func (s *Store) ListEnabledTriggers(ctx context.Context) ([]model.Trigger, error) {
	var out []model.Trigger
	err := s.db.WithContext(ctx).
		Joins("JOIN scripts ON scripts.id = triggers.script_id").
		Where("triggers.enabled = ? AND scripts.enabled = ?", true, true).
		Find(&out).Error
	return out, err
}

func (s *Store) UpdateTrigger(ctx context.Context, t *model.Trigger) error {
	return WithRetry(ctx, func() error {
		return s.db.WithContext(ctx).Save(t).Error
	})
}

func (s *Store) DeleteTrigger(ctx context.Context, id uint) error {
	return WithRetry(ctx, func() error {
		res := s.db.WithContext(ctx).Delete(&model.Trigger{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return common.NewErrNo(common.KindNotFound, "trigger not found")
		}
		return nil
	})
}

// SetNextFire updates only next_fire_at, for (re)arming a timer
// without implying the trigger has fired.
func (s *Store) SetNextFire(ctx context.Context, triggerID uint, nextFireAt *time.Time) error {
	return WithRetry(ctx, func() error {
		return s.db.WithContext(ctx).Model(&model.Trigger{}).Where("id = ?", triggerID).Update("next_fire_at", nextFireAt).Error
	})
}

// AdvanceFire transactionally records that a trigger fired (or was
// skipped on overrun) at `firedAt`, rearming `nextFireAt`. Both are
// written together so a crash between them can never leave a trigger
// believing it fired without knowing when it fires next.
func (s *Store) AdvanceFire(ctx context.Context, triggerID uint, firedAt time.Time, nextFireAt *time.Time) error {
	return WithRetry(ctx, func() error {
		return s.db.WithContext(ctx).Model(&model.Trigger{}).Where("id = ?", triggerID).Updates(map[string]any{
			"last_fired_at": firedAt,
			"next_fire_at":  nextFireAt,
		}).Error
	})
}
