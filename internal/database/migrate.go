package database

import (
	"github.com/s/trainingHub/internal/models"
	"gorm.io/gorm"
)

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.UserRole{},
		&models.TrainingSubject{},
		&models.TrainingVideo{},
		&models.TrainingProgress{},
		&models.OnboardingStep{},
		&models.OnboardingProgress{},
		&models.AutomationBoard{},
		&models.AutomationColumn{},
		&models.AutomationCard{},
		&models.ActivityLog{},
	)
}
