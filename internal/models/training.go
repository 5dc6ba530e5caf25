package models

import (
	"time"

	"gorm.io/gorm"
)

// TrainingSubject (training module / category)
type TrainingSubject struct {
	ID          string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	Title       string    `gorm:"not null" json:"title"`
	Summary     string    `json:"summary"`
	AccentColor string    `json:"accent_color,omitempty"`
	SortOrder   int       `gorm:"index" json:"sort_order"`
	IsActive    bool      `json:"is_active"`
}

func (TrainingSubject) TableName() string { return "training_subjects" }

func (s *TrainingSubject) BeforeCreate(tx *gorm.DB) error {
	assignID(&s.ID)
	return nil
}

// TrainingVideo belongs to exactly one subject and is ordered within it.
type TrainingVideo struct {
	ID          string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	SubjectID   string    `gorm:"type:varchar(36);index" json:"subject_id"`
	Title       string    `gorm:"not null" json:"title"`
	Description string    `json:"description"`
	VideoURL    string    `gorm:"column:video_url;not null" json:"video_url"`
	SortOrder   int       `json:"sort_order"`
}

func (TrainingVideo) TableName() string { return "training_videos" }

func (v *TrainingVideo) BeforeCreate(tx *gorm.DB) error {
	assignID(&v.ID)
	return nil
}

// TrainingProgress is the per-location watched flag of a video.
// (location_id, video_id) is the upsert key.
type TrainingProgress struct {
	ID          string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	LocationID  string     `gorm:"type:varchar(64);not null;uniqueIndex:idx_training_progress_location_video" json:"location_id"`
	VideoID     string     `gorm:"type:varchar(36);not null;uniqueIndex:idx_training_progress_location_video;index" json:"video_id"`
	Watched     bool       `json:"watched"`
	CompletedAt *time.Time `json:"completed_at"`
}

func (TrainingProgress) TableName() string { return "training_progress" }

func (p *TrainingProgress) BeforeCreate(tx *gorm.DB) error {
	assignID(&p.ID)
	return nil
}
