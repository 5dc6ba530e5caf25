// Package onboarding tracks the per-location setup steps that stand between
// a location and the main training hub.
package onboarding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/s/trainingHub/internal/gate"
	"github.com/s/trainingHub/internal/metrics"
	"github.com/s/trainingHub/internal/models"
	"github.com/s/trainingHub/internal/querycache"
	"github.com/s/trainingHub/internal/storage"
	"github.com/s/trainingHub/internal/validation"
	"gorm.io/gorm"
)

var (
	ErrStepNotFound = errors.New("Step not found.")
	ErrNoLocation   = errors.New("a location is required")
	// ErrNothingToCheck is returned when the stepper shows the completion screen.
	ErrNothingToCheck = errors.New("no onboarding step to check")
)

const (
	keySteps          = "onboarding-steps"
	keyProgressPrefix = "onboarding-progress:"
)

type Service struct {
	db    *gorm.DB
	cache *querycache.Cache
	links map[int]string
	log   zerolog.Logger
	now   func() time.Time
}

// NewService builds the service. links maps 1-based step numbers to
// external scheduling URLs.
func NewService(db *gorm.DB, qc *querycache.Cache, links map[int]string, log zerolog.Logger) *Service {
	if links == nil {
		links = map[int]string{}
	}
	return &Service{
		db:    db,
		cache: qc,
		links: links,
		log:   log.With().Str("component", "onboarding").Logger(),
		now:   time.Now,
	}
}

// Steps returns the active steps in order.
func (s *Service) Steps(ctx context.Context) ([]models.OnboardingStep, error) {
	return querycache.Get(s.cache, keySteps, func() ([]models.OnboardingStep, error) {
		return storage.ListActiveSteps(ctx, s.db)
	})
}

// AllSteps includes inactive steps and bypasses the cache.
func (s *Service) AllSteps(ctx context.Context) ([]models.OnboardingStep, error) {
	return storage.ListSteps(ctx, s.db)
}

func (s *Service) Progress(ctx context.Context, locationID string) ([]models.OnboardingProgress, error) {
	if locationID == "" {
		return nil, nil
	}
	return querycache.Get(s.cache, keyProgressPrefix+locationID, func() ([]models.OnboardingProgress, error) {
		return storage.ListOnboardingProgress(ctx, s.db, locationID)
	})
}

// IsComplete reports whether every step has a completed progress row.
func IsComplete(steps []models.OnboardingStep, progress []models.OnboardingProgress) bool {
	done := completedSet(progress)
	for _, step := range steps {
		if !done[step.ID] {
			return false
		}
	}
	return true
}

// State is the onboarding input of the access gate. A failed read leaves
// the gate loading rather than letting the location through.
func (s *Service) State(ctx context.Context, locationID string) gate.OnboardingState {
	steps, err := s.Steps(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("load onboarding steps")
		return gate.OnboardingState{Loading: true}
	}
	progress, err := s.Progress(ctx, locationID)
	if err != nil {
		s.log.Error().Err(err).Str("location_id", locationID).Msg("load onboarding progress")
		return gate.OnboardingState{Loading: true}
	}
	return gate.OnboardingState{Complete: IsComplete(steps, progress)}
}

// SchedulingLink returns the external URL shown on step number n (1-based).
func (s *Service) SchedulingLink(n int) (string, bool) {
	url, ok := s.links[n]
	return url, ok
}

// Stepper builds a fresh stepper for the location.
func (s *Service) Stepper(ctx context.Context, locationID string) (*Stepper, error) {
	steps, progress, err := s.load(ctx, locationID)
	if err != nil {
		return nil, err
	}
	return NewStepper(steps, progress), nil
}

func (s *Service) load(ctx context.Context, locationID string) ([]models.OnboardingStep, []models.OnboardingProgress, error) {
	steps, err := s.Steps(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load steps: %w", err)
	}
	progress, err := s.Progress(ctx, locationID)
	if err != nil {
		return nil, nil, fmt.Errorf("load progress: %w", err)
	}
	return steps, progress, nil
}

// Check completes the step currently shown by st. The progress cache is
// left alone so the gate keeps the location in the flow until Finish.
func (s *Service) Check(ctx context.Context, locationID string, st *Stepper) error {
	if locationID == "" {
		return ErrNoLocation
	}
	step, ok := st.Current()
	if !ok {
		return ErrNothingToCheck
	}
	if st.Checked(step.ID) {
		return nil
	}

	if _, err := s.CompleteStep(ctx, locationID, step.ID); err != nil {
		return err
	}
	st.markChecked(step.ID)
	metrics.OnboardingStepsCompleted.Inc()
	return nil
}

// CompleteStep upserts the completed row for (location, step).
func (s *Service) CompleteStep(ctx context.Context, locationID, stepID string) (models.OnboardingProgress, error) {
	row, err := storage.CompleteStep(ctx, s.db, locationID, stepID, s.now().UTC())
	if errors.Is(err, storage.ErrNotFound) {
		return row, ErrStepNotFound
	}
	if err != nil {
		return row, err
	}
	s.log.Info().Str("location_id", locationID).Str("step_id", stepID).Msg("onboarding step completed")
	return row, nil
}

// Finish drops the cached progress so the gate re-reads it.
func (s *Service) Finish(locationID string) {
	s.cache.Invalidate(keyProgressPrefix + locationID)
}

type StepInput struct {
	Title       string `json:"title" validate:"required,max=200"`
	Icon        string `json:"icon" validate:"max=64"`
	Description string `json:"description" validate:"max=2000"`
}

func (in *StepInput) trim() {
	in.Title = strings.TrimSpace(in.Title)
	in.Icon = strings.TrimSpace(in.Icon)
	in.Description = strings.TrimSpace(in.Description)
}

// CreateStep appends an active step. Every location becomes incomplete
// until it checks the new step.
func (s *Service) CreateStep(ctx context.Context, in StepInput) (models.OnboardingStep, error) {
	in.trim()
	if err := validation.Struct(in); err != nil {
		return models.OnboardingStep{}, err
	}

	step := models.OnboardingStep{
		Title:       in.Title,
		Icon:        in.Icon,
		Description: in.Description,
		IsActive:    true,
	}
	if err := storage.CreateStep(ctx, s.db, &step); err != nil {
		return models.OnboardingStep{}, err
	}
	s.cache.Invalidate(keySteps)
	return step, nil
}

type StepUpdate struct {
	StepInput
	IsActive *bool `json:"is_active"`
}

func (s *Service) UpdateStep(ctx context.Context, id string, in StepUpdate) error {
	in.trim()
	if err := validation.Struct(in.StepInput); err != nil {
		return err
	}

	updates := map[string]interface{}{
		"title":       in.Title,
		"icon":        in.Icon,
		"description": in.Description,
	}
	if in.IsActive != nil {
		updates["is_active"] = *in.IsActive
	}
	err := storage.UpdateStep(ctx, s.db, id, updates)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrStepNotFound
	}
	if err != nil {
		return err
	}
	s.cache.Invalidate(keySteps)
	return nil
}

// DeleteStep removes the step and every location's progress on it.
func (s *Service) DeleteStep(ctx context.Context, id string) error {
	err := storage.DeleteStep(ctx, s.db, id)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrStepNotFound
	}
	if err != nil {
		return err
	}
	s.cache.Invalidate(keySteps)
	s.cache.InvalidatePrefix(keyProgressPrefix)
	return nil
}
