package models

import (
	"time"

	"gorm.io/gorm"
)

// OnboardingStep is a globally shared setup task.
type OnboardingStep struct {
	ID          string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	Title       string    `gorm:"not null" json:"title"`
	Icon        string    `json:"icon"`
	Description string    `json:"description"`
	SortOrder   int       `gorm:"not null;index" json:"sort_order"`
	IsActive    bool      `json:"is_active"`
}

func (OnboardingStep) TableName() string { return "onboarding_steps" }

func (s *OnboardingStep) BeforeCreate(tx *gorm.DB) error {
	assignID(&s.ID)
	return nil
}

// OnboardingProgress is keyed by (location_id, step_id).
type OnboardingProgress struct {
	ID          string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	LocationID  string     `gorm:"type:varchar(64);not null;uniqueIndex:idx_onboarding_progress_location_step" json:"location_id"`
	StepID      string     `gorm:"type:varchar(36);not null;uniqueIndex:idx_onboarding_progress_location_step;index" json:"step_id"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at"`
}

func (OnboardingProgress) TableName() string { return "onboarding_progress" }

func (p *OnboardingProgress) BeforeCreate(tx *gorm.DB) error {
	assignID(&p.ID)
	return nil
}
