package storage

import (
	"context"
	"errors"

	"github.com/s/trainingHub/internal/models"
	"gorm.io/gorm"
)

// HasRole reports whether userID holds role.
func HasRole(ctx context.Context, db *gorm.DB, userID, role string) (bool, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&models.UserRole{}).
		Where("user_id = ? AND role = ?", userID, role).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func GrantRole(ctx context.Context, db *gorm.DB, userID, role string) (models.UserRole, error) {
	exists, err := HasRole(ctx, db, userID, role)
	if err != nil {
		return models.UserRole{}, err
	}
	if exists {
		return models.UserRole{}, ErrRoleExists
	}

	row := models.UserRole{UserID: userID, Role: role}
	if err := db.WithContext(ctx).Omit("User").Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return models.UserRole{}, ErrRoleExists
		}
		return models.UserRole{}, err
	}
	return row, nil
}

// RevokeRole deletes a role row and returns what was deleted.
func RevokeRole(ctx context.Context, db *gorm.DB, id string) (models.UserRole, error) {
	var row models.UserRole
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&row, "id = ?", id).Error; err != nil {
			return notFound(err)
		}
		return tx.Delete(&models.UserRole{}, "id = ?", id).Error
	})
	return row, err
}

func ListRoles(ctx context.Context, db *gorm.DB) ([]models.UserRole, error) {
	var roles []models.UserRole
	err := db.WithContext(ctx).Preload("User").Order("role, user_id").Find(&roles).Error
	return roles, err
}
