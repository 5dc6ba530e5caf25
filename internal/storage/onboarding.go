package storage

import (
	"context"
	"time"

	"github.com/s/trainingHub/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func ListActiveSteps(ctx context.Context, db *gorm.DB) ([]models.OnboardingStep, error) {
	var steps []models.OnboardingStep
	err := db.WithContext(ctx).Where("is_active = ?", true).Order("sort_order").Find(&steps).Error
	return steps, err
}

func ListSteps(ctx context.Context, db *gorm.DB) ([]models.OnboardingStep, error) {
	var steps []models.OnboardingStep
	err := db.WithContext(ctx).Order("sort_order").Find(&steps).Error
	return steps, err
}

func GetStep(ctx context.Context, db *gorm.DB, id string) (models.OnboardingStep, error) {
	var step models.OnboardingStep
	if err := db.WithContext(ctx).First(&step, "id = ?", id).Error; err != nil {
		return models.OnboardingStep{}, notFound(err)
	}
	return step, nil
}

// CreateStep appends a step after the current last one.
func CreateStep(ctx context.Context, db *gorm.DB, step *models.OnboardingStep) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		next, err := nextSortOrder(tx, &models.OnboardingStep{}, nil)
		if err != nil {
			return err
		}
		step.SortOrder = next
		return tx.Create(step).Error
	})
}

func UpdateStep(ctx context.Context, db *gorm.DB, id string, updates map[string]interface{}) error {
	result := db.WithContext(ctx).Model(&models.OnboardingStep{}).Where("id = ?", id).Updates(updates)
	return updated(db.WithContext(ctx), &models.OnboardingStep{}, id, result)
}

// DeleteStep removes a step and every location's progress on it.
func DeleteStep(ctx context.Context, db *gorm.DB, id string) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("step_id = ?", id).Delete(&models.OnboardingProgress{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.OnboardingStep{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func ListOnboardingProgress(ctx context.Context, db *gorm.DB, locationID string) ([]models.OnboardingProgress, error) {
	var progress []models.OnboardingProgress
	err := db.WithContext(ctx).Where("location_id = ?", locationID).Find(&progress).Error
	return progress, err
}

// CompleteStep upserts a completed progress row for (location, step).
func CompleteStep(ctx context.Context, db *gorm.DB, locationID, stepID string, at time.Time) (models.OnboardingProgress, error) {
	if _, err := GetStep(ctx, db, stepID); err != nil {
		return models.OnboardingProgress{}, err
	}

	row := models.OnboardingProgress{
		LocationID:  locationID,
		StepID:      stepID,
		Completed:   true,
		CompletedAt: &at,
	}
	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "location_id"}, {Name: "step_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"completed", "completed_at"}),
	}).Create(&row).Error
	return row, err
}
