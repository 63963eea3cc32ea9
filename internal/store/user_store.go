package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/matt-ortiz/PyScheduler/internal/common"
	"github.com/matt-ortiz/PyScheduler/internal/model"
)

func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	return WithRetry(ctx, func() error {
		err := s.db.WithContext(ctx).Create(u).Error
		if isUniqueViolation(err) {
			return common.NewErrNo(common.KindConflict, "username or email already in use")
		}
		return err
	})
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	var u model.User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.NewErrNo(common.KindNotFound, "user not found")
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) GetUser(ctx context.Context, id uint) (*model.User, error) {
	var u model.User
	err := s.db.WithContext(ctx).First(&u, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.NewErrNo(common.KindNotFound, "user not found")
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&model.User{}).Count(&n).Error
	return n, err
}

func (s *Store) TouchLastLogin(ctx context.Context, userID uint, at time.Time) error {
	return WithRetry(ctx, func() error {
		return s.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", userID).Update("last_login_at", at).Error
	})
}

func (s *Store) UpdateUserPreferences(ctx context.Context, userID uint, theme, timezone string) error {
	return WithRetry(ctx, func() error {
		return s.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", userID).Updates(map[string]any{
			"theme":    theme,
			"timezone": timezone,
		}).Error
	})
}
