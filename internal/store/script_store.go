package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/matt-ortiz/PyScheduler/internal/common"
	"github.com/matt-ortiz/PyScheduler/internal/model"
)

// CreateScript inserts a Script. Slug/name collisions within the same
// folder surface as a conflict — the caller (Environment Manager) is
// expected to have already resolved the slug to something unique, but
// a race between two concurrent creates still lands here.
func (s *Store) CreateScript(ctx context.Context, sc *model.Script) error {
	return WithRetry(ctx, func() error {
		if sc.FolderID == nil {
			// SQLite treats NULL folder_ids as distinct in the unique
			// indexes, so root-level collisions are checked here.
			var n int64
			if err := s.db.WithContext(ctx).Model(&model.Script{}).
				Where("folder_id IS NULL AND (slug = ? OR name = ?)", sc.Slug, sc.Name).
				Count(&n).Error; err != nil {
				return err
			}
			if n > 0 {
				return common.NewErrNo(common.KindConflict, "a script with this name or slug already exists in this folder")
			}
		}
		err := s.db.WithContext(ctx).Create(sc).Error
		if isUniqueViolation(err) {
			return common.NewErrNo(common.KindConflict, "a script with this name or slug already exists in this folder")
		}
		return err
	})
}

func (s *Store) GetScript(ctx context.Context, id uint) (*model.Script, error) {
	var sc model.Script
	err := s.db.WithContext(ctx).First(&sc, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.NewErrNo(common.KindNotFound, "script not found")
	}
	if err != nil {
		return nil, err
	}
	return &sc, nil
}

func (s *Store) GetScriptBySlug(ctx context.Context, slug string) (*model.Script, error) {
	var sc model.Script
	err := s.db.WithContext(ctx).Where("slug = ?", slug).First(&sc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.NewErrNo(common.KindNotFound, "script not found")
	}
	if err != nil {
		return nil, err
	}
	return &sc, nil
}

// ListScripts returns scripts, optionally restricted to one folder
// (folderID == nil lists every folder).
func (s *Store) ListScripts(ctx context.Context, folderID *uint) ([]model.Script, error) {
	q := s.db.WithContext(ctx).Order("name asc")
	if folderID != nil {
		q = q.Where("folder_id = ?", *folderID)
	}
	var out []model.Script
	err := q.Find(&out).Error
	return out, err
}

// UpdateScript persists the full editable row (used by both the
// explicit save endpoint and the auto-save path).
func (s *Store) UpdateScript(ctx context.Context, sc *model.Script) error {
	return WithRetry(ctx, func() error {
		err := s.db.WithContext(ctx).Save(sc).Error
		if isUniqueViolation(err) {
			return common.NewErrNo(common.KindConflict, "a script with this name or slug already exists in this folder")
		}
		return err
	})
}

// SetEnabled flips the enabled flag. It only updates the row; it does
// not notify the Trigger Scheduler, so timers already armed for the
// script's triggers stay armed (onFire skips a disabled script).
func (s *Store) SetEnabled(ctx context.Context, scriptID uint, enabled bool) error {
	return WithRetry(ctx, func() error {
		res := s.db.WithContext(ctx).Model(&model.Script{}).Where("id = ?", scriptID).Update("enabled", enabled)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return common.NewErrNo(common.KindNotFound, "script not found")
		}
		return nil
	})
}

// DeleteScript removes a script and cascades into its Triggers and
// ExecutionRecords.
func (s *Store) DeleteScript(ctx context.Context, id uint) error {
	return WithRetry(ctx, func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return deleteScriptTx(tx, id)
		})
	})
}

func deleteScriptTx(tx *gorm.DB, scriptID uint) error {
	if err := tx.Where("script_id = ?", scriptID).Delete(&model.ExecutionRecord{}).Error; err != nil {
		return err
	}
	if err := tx.Where("script_id = ?", scriptID).Delete(&model.Trigger{}).Error; err != nil {
		return err
	}
	res := tx.Delete(&model.Script{}, scriptID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return common.NewErrNo(common.KindNotFound, "script not found")
	}
	return nil
}

// RecordRunOutcome bumps the run_total/run_success counters and
// last_run_at atomically, in the same transaction the caller uses to
// finalize the ExecutionRecord (spec §4.1's counter law: counters never
// drift from the ExecutionRecord history).
func (s *Store) RecordRunOutcome(tx *gorm.DB, scriptID uint, success bool, at time.Time) error {
	updates := map[string]any{
		"run_total":   gorm.Expr("run_total + 1"),
		"last_run_at": at,
	}
	if success {
		updates["run_success"] = gorm.Expr("run_success + 1")
	}
	return tx.Model(&model.Script{}).Where("id = ?", scriptID).Updates(updates).Error
}

// Transaction exposes a raw transaction to components (the Execution
// Engine) that must update a Script's counters and an ExecutionRecord
// atomically.
func (s *Store) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return WithRetry(ctx, func() error {
		return s.db.WithContext(ctx).Transaction(fn)
	})
}
