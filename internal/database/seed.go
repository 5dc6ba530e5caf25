package database

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/s/trainingHub/internal/models"
	"github.com/s/trainingHub/internal/storage"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

//go:embed seed.yaml
var defaultSeed []byte

type SeedStep struct {
	Title       string `yaml:"title"`
	Icon        string `yaml:"icon"`
	Description string `yaml:"description"`
}

type SeedBoard struct {
	Name    string   `yaml:"name"`
	Columns []string `yaml:"columns"`
}

type SeedSubject struct {
	Title   string `yaml:"title"`
	Summary string `yaml:"summary"`
}

// SeedData is the content placed into an empty database.
type SeedData struct {
	OnboardingSteps []SeedStep     `yaml:"onboarding_steps"`
	SchedulingLinks map[int]string `yaml:"scheduling_links"`
	StandardBoard   SeedBoard      `yaml:"standard_board"`
	Subjects        []SeedSubject  `yaml:"subjects"`
}

// LoadSeed reads path, or the embedded default when path is empty.
func LoadSeed(path string) (SeedData, error) {
	raw := defaultSeed
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return SeedData{}, fmt.Errorf("read seed file: %w", err)
		}
		raw = b
	}

	var data SeedData
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return SeedData{}, fmt.Errorf("parse seed file: %w", err)
	}
	return data, nil
}

// Seed fills every empty table group. Tables that already hold rows are left alone.
func Seed(ctx context.Context, db *gorm.DB, data SeedData, log zerolog.Logger) error {
	tx := db.WithContext(ctx)

	var count int64
	if err := tx.Model(&models.OnboardingStep{}).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		for i, s := range data.OnboardingSteps {
			step := models.OnboardingStep{
				Title:       s.Title,
				Icon:        s.Icon,
				Description: s.Description,
				SortOrder:   i + 1,
				IsActive:    true,
			}
			if err := tx.Create(&step).Error; err != nil {
				return fmt.Errorf("seed onboarding step %q: %w", s.Title, err)
			}
		}
		log.Info().Int("steps", len(data.OnboardingSteps)).Msg("seeded onboarding steps")
	}

	if err := tx.Model(&models.AutomationBoard{}).Where("is_standard = ?", true).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 && data.StandardBoard.Name != "" {
		board := models.AutomationBoard{Name: data.StandardBoard.Name, IsStandard: true}
		if err := tx.Create(&board).Error; err != nil {
			return fmt.Errorf("seed standard board: %w", err)
		}
		for i, title := range data.StandardBoard.Columns {
			col := models.AutomationColumn{BoardID: board.ID, Title: title, SortOrder: i + 1}
			if err := tx.Create(&col).Error; err != nil {
				return fmt.Errorf("seed column %q: %w", title, err)
			}
		}
		log.Info().Str("board", board.Name).Msg("seeded standard board")
	}

	if err := tx.Model(&models.TrainingSubject{}).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		for i, s := range data.Subjects {
			subject := models.TrainingSubject{Title: s.Title, Summary: s.Summary, SortOrder: i + 1, IsActive: true}
			if err := tx.Create(&subject).Error; err != nil {
				return fmt.Errorf("seed subject %q: %w", s.Title, err)
			}
		}
	}

	return nil
}

// EnsureAdmin creates the bootstrap admin account when it does not exist yet.
func EnsureAdmin(ctx context.Context, db *gorm.DB, email, password string, log zerolog.Logger) error {
	if email == "" || password == "" {
		return nil
	}

	user, err := storage.LookupUserByEmail(ctx, db, email)
	if errors.Is(err, storage.ErrUserNotFound) {
		user, err = storage.CreateUser(ctx, db, email, "Administrator", password)
	}
	if err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}

	if _, err := storage.GrantRole(ctx, db, user.ID, models.RoleAdmin); err != nil && !errors.Is(err, storage.ErrRoleExists) {
		return fmt.Errorf("bootstrap admin role: %w", err)
	}
	log.Info().Str("email", user.Email).Msg("bootstrap admin ready")
	return nil
}
