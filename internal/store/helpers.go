package store

import (
	"errors"

	"gorm.io/gorm"
)

// isUniqueViolation recognizes gorm's normalized duplicate-key error.
func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
