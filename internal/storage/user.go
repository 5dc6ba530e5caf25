package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/s/trainingHub/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// BcryptCost is the cost factor for password hashing.
const BcryptCost = 12

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateUser registers a password account.
func CreateUser(ctx context.Context, db *gorm.DB, email, name, password string) (models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		Email:        normalizeEmail(email),
		Name:         name,
		PasswordHash: string(hash),
	}
	if err := db.WithContext(ctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return models.User{}, ErrEmailTaken
		}
		return models.User{}, err
	}
	return user, nil
}

// SaveUser finds a user by Google ID or email; if found, it updates the
// profile, otherwise it creates the user. Roles are never touched here,
// they are managed by an admin.
func SaveUser(ctx context.Context, db *gorm.DB, info models.User) (models.User, error) {
	tx := db.WithContext(ctx)
	info.Email = normalizeEmail(info.Email)

	var existing models.User
	result := tx.Where("google_id = ? AND google_id <> ''", info.GoogleID).First(&existing)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		result = tx.Where("email = ?", info.Email).First(&existing)
	}

	switch {
	case result.Error == nil:
		updates := map[string]interface{}{
			"google_id": info.GoogleID,
			"name":      info.Name,
			"picture":   info.Picture,
		}
		if err := tx.Model(&existing).Updates(updates).Error; err != nil {
			return models.User{}, err
		}
		return existing, nil

	case errors.Is(result.Error, gorm.ErrRecordNotFound):
		info.ID = ""
		if err := tx.Create(&info).Error; err != nil {
			return models.User{}, err
		}
		return info, nil

	default:
		return models.User{}, result.Error
	}
}

func GetUser(ctx context.Context, db *gorm.DB, id string) (models.User, error) {
	var user models.User
	if err := db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return models.User{}, notFound(err)
	}
	return user, nil
}

// LookupUserByEmail resolves an email address to a user.
func LookupUserByEmail(ctx context.Context, db *gorm.DB, email string) (models.User, error) {
	var user models.User
	err := db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, ErrUserNotFound
	}
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

// Authenticate checks an email/password pair.
func Authenticate(ctx context.Context, db *gorm.DB, email, password string) (models.User, error) {
	user, err := LookupUserByEmail(ctx, db, email)
	if errors.Is(err, ErrUserNotFound) {
		return models.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.User{}, err
	}
	if user.PasswordHash == "" {
		return models.User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.User{}, ErrInvalidCredentials
	}
	return user, nil
}
