// Package training serves subjects, videos and per-location progress.
//
// The three collections are cached independently; every mutation drops the
// collections it touched so the next read goes back to the store.
package training

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/s/trainingHub/internal/metrics"
	"github.com/s/trainingHub/internal/models"
	"github.com/s/trainingHub/internal/querycache"
	"github.com/s/trainingHub/internal/storage"
	"github.com/s/trainingHub/internal/validation"
	"gorm.io/gorm"
)

var (
	ErrSubjectNotFound = errors.New("Subject not found.")
	ErrVideoNotFound   = errors.New("Video not found.")
	ErrNoLocation      = errors.New("a location is required")
)

const (
	keySubjects       = "training-subjects"
	keyVideos         = "training-videos"
	keyProgressPrefix = "training-progress:"
)

type Service struct {
	db    *gorm.DB
	cache *querycache.Cache
	log   zerolog.Logger
	now   func() time.Time
}

func NewService(db *gorm.DB, qc *querycache.Cache, log zerolog.Logger) *Service {
	return &Service{
		db:    db,
		cache: qc,
		log:   log.With().Str("component", "training").Logger(),
		now:   time.Now,
	}
}

// Subjects returns active subjects in display order.
func (s *Service) Subjects(ctx context.Context) ([]models.TrainingSubject, error) {
	return querycache.Get(s.cache, keySubjects, func() ([]models.TrainingSubject, error) {
		return storage.ListActiveSubjects(ctx, s.db)
	})
}

// AllSubjects includes inactive subjects and bypasses the cache.
func (s *Service) AllSubjects(ctx context.Context) ([]models.TrainingSubject, error) {
	return storage.ListSubjects(ctx, s.db)
}

// Videos returns every video ordered by subject then sort order.
func (s *Service) Videos(ctx context.Context) ([]models.TrainingVideo, error) {
	return querycache.Get(s.cache, keyVideos, func() ([]models.TrainingVideo, error) {
		return storage.ListVideos(ctx, s.db)
	})
}

// Progress returns the location's progress rows; none without a location.
func (s *Service) Progress(ctx context.Context, locationID string) ([]models.TrainingProgress, error) {
	if locationID == "" {
		return nil, nil
	}
	return querycache.Get(s.cache, keyProgressPrefix+locationID, func() ([]models.TrainingProgress, error) {
		return storage.ListProgress(ctx, s.db, locationID)
	})
}

func (s *Service) load(ctx context.Context, locationID string) ([]models.TrainingSubject, []models.TrainingVideo, []models.TrainingProgress, error) {
	subjects, err := s.Subjects(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load subjects: %w", err)
	}
	videos, err := s.Videos(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load videos: %w", err)
	}
	progress, err := s.Progress(ctx, locationID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load progress: %w", err)
	}
	return subjects, videos, progress, nil
}

// Overview lists active subjects with their completion for the location.
func (s *Service) Overview(ctx context.Context, locationID string) ([]SubjectProgress, error) {
	subjects, videos, progress, err := s.load(ctx, locationID)
	if err != nil {
		return nil, err
	}
	return Summarize(subjects, videos, progress), nil
}

func (s *Service) Report(ctx context.Context, locationID string) (Report, error) {
	subjects, videos, progress, err := s.load(ctx, locationID)
	if err != nil {
		return Report{}, err
	}
	return BuildReport(subjects, videos, progress), nil
}

type VideoView struct {
	models.TrainingVideo
	Watched bool `json:"watched"`
}

type SubjectDetail struct {
	Progress SubjectProgress `json:"progress"`
	Videos   []VideoView     `json:"videos"`
}

// Subject returns one active subject with its videos and watched flags.
func (s *Service) Subject(ctx context.Context, locationID, subjectID string) (SubjectDetail, error) {
	subjects, videos, progress, err := s.load(ctx, locationID)
	if err != nil {
		return SubjectDetail{}, err
	}

	var subject *models.TrainingSubject
	for i := range subjects {
		if subjects[i].ID == subjectID {
			subject = &subjects[i]
			break
		}
	}
	if subject == nil {
		return SubjectDetail{}, ErrSubjectNotFound
	}

	watched := watchedSet(progress)
	detail := SubjectDetail{Videos: []VideoView{}}
	for _, v := range videos {
		if v.SubjectID == subjectID {
			detail.Videos = append(detail.Videos, VideoView{TrainingVideo: v, Watched: watched[v.ID]})
		}
	}
	detail.Progress = Summarize([]models.TrainingSubject{*subject}, videos, progress)[0]
	return detail, nil
}

// MarkWatched records that the location watched videoID. Marking a video
// twice keeps the first completion time.
func (s *Service) MarkWatched(ctx context.Context, locationID, videoID string) (models.TrainingProgress, bool, error) {
	if locationID == "" {
		return models.TrainingProgress{}, false, ErrNoLocation
	}

	row, changed, err := storage.MarkWatched(ctx, s.db, locationID, videoID, s.now().UTC())
	if errors.Is(err, storage.ErrNotFound) {
		return row, false, ErrVideoNotFound
	}
	if err != nil {
		return row, false, err
	}
	if changed {
		s.cache.Invalidate(keyProgressPrefix + locationID)
		metrics.VideosWatched.Inc()
	}
	return row, changed, nil
}

type NewSubject struct {
	Title       string `json:"title" validate:"required,max=200"`
	Summary     string `json:"summary" validate:"max=2000"`
	AccentColor string `json:"accent_color" validate:"omitempty,hexcolor"`
}

// CreateSubject appends an active subject after the current last one.
func (s *Service) CreateSubject(ctx context.Context, in NewSubject) (models.TrainingSubject, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Summary = strings.TrimSpace(in.Summary)
	if err := validation.Struct(in); err != nil {
		return models.TrainingSubject{}, err
	}

	subject := models.TrainingSubject{
		Title:       in.Title,
		Summary:     in.Summary,
		AccentColor: in.AccentColor,
		IsActive:    true,
	}
	if err := storage.CreateSubject(ctx, s.db, &subject); err != nil {
		return models.TrainingSubject{}, err
	}
	s.cache.Invalidate(keySubjects)
	return subject, nil
}

// editable columns per entity with the rules an inline edit must pass.
var (
	subjectFields = map[string]string{
		"title":        "required,max=200",
		"summary":      "max=2000",
		"accent_color": "omitempty,hexcolor",
	}
	videoFields = map[string]string{
		"title":       "required,max=200",
		"description": "max=2000",
		"video_url":   "required,url,max=2000",
	}
)

func checkField(allowed map[string]string, field, value string) error {
	tag, ok := allowed[field]
	if !ok {
		return validation.Field("field", "is not editable")
	}
	return validation.Var(field, value, tag)
}

// UpdateSubjectField edits one subject field inline.
func (s *Service) UpdateSubjectField(ctx context.Context, id, field, value string) error {
	value = strings.TrimSpace(value)
	if err := checkField(subjectFields, field, value); err != nil {
		return err
	}
	err := storage.UpdateSubjectField(ctx, s.db, id, field, value)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrSubjectNotFound
	}
	if err != nil {
		return err
	}
	s.cache.Invalidate(keySubjects)
	return nil
}

// SetSubjectActive shows or hides a subject on the hub.
func (s *Service) SetSubjectActive(ctx context.Context, id string, active bool) error {
	err := storage.UpdateSubjectField(ctx, s.db, id, "is_active", active)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrSubjectNotFound
	}
	if err != nil {
		return err
	}
	s.cache.Invalidate(keySubjects)
	return nil
}

// DeleteSubject removes the subject, its videos and their progress.
func (s *Service) DeleteSubject(ctx context.Context, id string) error {
	err := storage.DeleteSubject(ctx, s.db, id)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrSubjectNotFound
	}
	if err != nil {
		return err
	}
	s.cache.Invalidate(keySubjects, keyVideos)
	s.cache.InvalidatePrefix(keyProgressPrefix)
	return nil
}

type NewVideo struct {
	Title       string `json:"title" validate:"required,max=200"`
	VideoURL    string `json:"video_url" validate:"required,url,max=2000"`
	Description string `json:"description" validate:"max=2000"`
}

// CreateVideo appends a video to the end of subjectID.
func (s *Service) CreateVideo(ctx context.Context, subjectID string, in NewVideo) (models.TrainingVideo, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.VideoURL = strings.TrimSpace(in.VideoURL)
	in.Description = strings.TrimSpace(in.Description)
	if err := validation.Struct(in); err != nil {
		return models.TrainingVideo{}, err
	}

	video := models.TrainingVideo{
		SubjectID:   subjectID,
		Title:       in.Title,
		VideoURL:    in.VideoURL,
		Description: in.Description,
	}
	err := storage.CreateVideo(ctx, s.db, &video)
	if errors.Is(err, storage.ErrNotFound) {
		return models.TrainingVideo{}, ErrSubjectNotFound
	}
	if err != nil {
		return models.TrainingVideo{}, err
	}
	s.cache.Invalidate(keyVideos)
	return video, nil
}

// UpdateVideoField edits one video field inline.
func (s *Service) UpdateVideoField(ctx context.Context, id, field, value string) error {
	value = strings.TrimSpace(value)
	if err := checkField(videoFields, field, value); err != nil {
		return err
	}
	err := storage.UpdateVideoField(ctx, s.db, id, field, value)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrVideoNotFound
	}
	if err != nil {
		return err
	}
	s.cache.Invalidate(keyVideos)
	return nil
}

// DeleteVideo removes the video and its progress rows.
func (s *Service) DeleteVideo(ctx context.Context, id string) error {
	err := storage.DeleteVideo(ctx, s.db, id)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrVideoNotFound
	}
	if err != nil {
		return err
	}
	s.cache.Invalidate(keyVideos)
	s.cache.InvalidatePrefix(keyProgressPrefix)
	return nil
}
