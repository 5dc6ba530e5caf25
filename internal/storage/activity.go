package storage

import (
	"context"
	"encoding/json"

	"github.com/s/trainingHub/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// LogActivity appends an activity log entry. details is stored as JSON.
func LogActivity(ctx context.Context, db *gorm.DB, userID, locationID, action string, details map[string]interface{}) error {
	raw, err := json.Marshal(details)
	if err != nil {
		return err
	}
	entry := models.ActivityLog{
		UserID:     userID,
		LocationID: locationID,
		Action:     action,
		Details:    datatypes.JSON(raw),
	}
	return db.WithContext(ctx).Create(&entry).Error
}

// ListActivity returns the newest entries first.
func ListActivity(ctx context.Context, db *gorm.DB, limit int) ([]models.ActivityLog, error) {
	var entries []models.ActivityLog
	err := db.WithContext(ctx).Order("created_at desc").Order("id desc").Limit(limit).Find(&entries).Error
	return entries, err
}
