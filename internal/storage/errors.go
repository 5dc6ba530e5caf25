package storage

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrNotFound           = errors.New("record not found")
	ErrUserNotFound       = errors.New("User not found")
	ErrRoleExists         = errors.New("User already has a role")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("Invalid login credentials")
)

// notFound maps gorm's missing-row error onto ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// updated reports a zero-row update as ErrNotFound only when the row is
// missing. MySQL counts changed rows, so rewriting the same value affects 0.
func updated(db *gorm.DB, model interface{}, id string, result *gorm.DB) error {
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := db.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}
	return nil
}
