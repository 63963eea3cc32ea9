package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/matt-ortiz/PyScheduler/internal/common"
	"github.com/matt-ortiz/PyScheduler/internal/model"
)

// CreateFolder inserts a Folder, surfacing a conflict when the
// (name, parent_id) pair already exists.
func (s *Store) CreateFolder(ctx context.Context, f *model.Folder) error {
	return WithRetry(ctx, func() error {
		err := s.db.WithContext(ctx).Create(f).Error
		if isUniqueViolation(err) {
			return common.NewErrNo(common.KindConflict, "folder already exists in this location")
		}
		return err
	})
}

func (s *Store) GetFolder(ctx context.Context, id uint) (*model.Folder, error) {
	var f model.Folder
	err := s.db.WithContext(ctx).First(&f, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.NewErrNo(common.KindNotFound, "folder not found")
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (s *Store) ListFolders(ctx context.Context) ([]model.Folder, error) {
	var out []model.Folder
	err := s.db.WithContext(ctx).Order("name asc").Find(&out).Error
	return out, err
}

// DeleteFolder removes the folder and cascades into every Script it
// contains (and transitively their Triggers/ExecutionRecords). The
// schema declares no foreign keys, so every hop of the cascade is an
// explicit delete inside this transaction.
func (s *Store) DeleteFolder(ctx context.Context, id uint) error {
	return WithRetry(ctx, func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var scriptIDs []uint
			if err := tx.Model(&model.Script{}).Where("folder_id = ?", id).Pluck("id", &scriptIDs).Error; err != nil {
				return err
			}
			for _, sid := range scriptIDs {
				if err := deleteScriptTx(tx, sid); err != nil {
					return err
				}
			}
			res := tx.Delete(&model.Folder{}, id)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return common.NewErrNo(common.KindNotFound, "folder not found")
			}
			return nil
		})
	})
}
