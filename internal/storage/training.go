package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/s/trainingHub/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// nextSortOrder returns max(sort_order)+1 over the rows selected by scope.
func nextSortOrder(tx *gorm.DB, model interface{}, scope func(*gorm.DB) *gorm.DB) (int, error) {
	var max sql.NullInt64
	q := tx.Model(model).Select("MAX(sort_order)")
	if scope != nil {
		q = scope(q)
	}
	if err := q.Row().Scan(&max); err != nil {
		return 0, err
	}
	if !max.Valid {
		return 1, nil
	}
	return int(max.Int64) + 1, nil
}

// ListActiveSubjects returns active subjects in display order.
func ListActiveSubjects(ctx context.Context, db *gorm.DB) ([]models.TrainingSubject, error) {
	var subjects []models.TrainingSubject
	err := db.WithContext(ctx).Where("is_active = ?", true).Order("sort_order").Find(&subjects).Error
	return subjects, err
}

func ListSubjects(ctx context.Context, db *gorm.DB) ([]models.TrainingSubject, error) {
	var subjects []models.TrainingSubject
	err := db.WithContext(ctx).Order("sort_order").Find(&subjects).Error
	return subjects, err
}

func GetSubject(ctx context.Context, db *gorm.DB, id string) (models.TrainingSubject, error) {
	var subject models.TrainingSubject
	if err := db.WithContext(ctx).First(&subject, "id = ?", id).Error; err != nil {
		return models.TrainingSubject{}, notFound(err)
	}
	return subject, nil
}

// CreateSubject appends the subject after the current last one.
func CreateSubject(ctx context.Context, db *gorm.DB, subject *models.TrainingSubject) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		next, err := nextSortOrder(tx, &models.TrainingSubject{}, nil)
		if err != nil {
			return err
		}
		subject.SortOrder = next
		return tx.Create(subject).Error
	})
}

// UpdateSubjectField sets a single column. The caller whitelists column.
func UpdateSubjectField(ctx context.Context, db *gorm.DB, id, column string, value interface{}) error {
	result := db.WithContext(ctx).Model(&models.TrainingSubject{}).Where("id = ?", id).Update(column, value)
	return updated(db.WithContext(ctx), &models.TrainingSubject{}, id, result)
}

// DeleteSubject removes a subject with its videos and their progress rows.
func DeleteSubject(ctx context.Context, db *gorm.DB, id string) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var videoIDs []string
		if err := tx.Model(&models.TrainingVideo{}).Where("subject_id = ?", id).Pluck("id", &videoIDs).Error; err != nil {
			return err
		}
		if len(videoIDs) > 0 {
			if err := tx.Where("video_id IN ?", videoIDs).Delete(&models.TrainingProgress{}).Error; err != nil {
				return err
			}
			if err := tx.Where("subject_id = ?", id).Delete(&models.TrainingVideo{}).Error; err != nil {
				return err
			}
		}

		result := tx.Delete(&models.TrainingSubject{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// ListVideos returns every video ordered by subject, then sort order.
func ListVideos(ctx context.Context, db *gorm.DB) ([]models.TrainingVideo, error) {
	var videos []models.TrainingVideo
	err := db.WithContext(ctx).Order("subject_id").Order("sort_order").Find(&videos).Error
	return videos, err
}

func GetVideo(ctx context.Context, db *gorm.DB, id string) (models.TrainingVideo, error) {
	var video models.TrainingVideo
	if err := db.WithContext(ctx).First(&video, "id = ?", id).Error; err != nil {
		return models.TrainingVideo{}, notFound(err)
	}
	return video, nil
}

// CreateVideo appends the video at the end of its subject.
func CreateVideo(ctx context.Context, db *gorm.DB, video *models.TrainingVideo) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.TrainingSubject{}).Where("id = ?", video.SubjectID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrNotFound
		}

		next, err := nextSortOrder(tx, &models.TrainingVideo{}, func(q *gorm.DB) *gorm.DB {
			return q.Where("subject_id = ?", video.SubjectID)
		})
		if err != nil {
			return err
		}
		video.SortOrder = next
		return tx.Create(video).Error
	})
}

func UpdateVideoField(ctx context.Context, db *gorm.DB, id, column string, value interface{}) error {
	result := db.WithContext(ctx).Model(&models.TrainingVideo{}).Where("id = ?", id).Update(column, value)
	return updated(db.WithContext(ctx), &models.TrainingVideo{}, id, result)
}

// DeleteVideo removes a video and its progress rows.
func DeleteVideo(ctx context.Context, db *gorm.DB, id string) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("video_id = ?", id).Delete(&models.TrainingProgress{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.TrainingVideo{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func ListProgress(ctx context.Context, db *gorm.DB, locationID string) ([]models.TrainingProgress, error) {
	var progress []models.TrainingProgress
	err := db.WithContext(ctx).Where("location_id = ?", locationID).Find(&progress).Error
	return progress, err
}

// MarkWatched upserts the (location, video) progress row. A video that is
// already watched keeps its original completion time; changed reports
// whether anything was written.
func MarkWatched(ctx context.Context, db *gorm.DB, locationID, videoID string, at time.Time) (progress models.TrainingProgress, changed bool, err error) {
	tx := db.WithContext(ctx)

	err = tx.Where("location_id = ? AND video_id = ?", locationID, videoID).First(&progress).Error
	switch {
	case err == nil && progress.Watched:
		return progress, false, nil
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		return progress, false, err
	}

	var video int64
	if err := tx.Model(&models.TrainingVideo{}).Where("id = ?", videoID).Count(&video).Error; err != nil {
		return progress, false, err
	}
	if video == 0 {
		return progress, false, ErrNotFound
	}

	progress = models.TrainingProgress{
		LocationID:  locationID,
		VideoID:     videoID,
		Watched:     true,
		CompletedAt: &at,
	}
	err = tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "location_id"}, {Name: "video_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"watched", "completed_at"}),
	}).Create(&progress).Error
	if err != nil {
		return progress, false, err
	}
	return progress, true, nil
}
