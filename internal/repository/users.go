// Package repository holds the GORM-backed persistence used by services.
// Every method takes the request context and works on an injected *gorm.DB.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/stocki/internal/models"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique constraint rejects an insert.
	ErrDuplicate = errors.New("duplicate record")
)

// UserRepository is the credential store.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	SetVerificationCode(ctx context.Context, id uuid.UUID, code string) error
	ConsumeVerificationCode(ctx context.Context, id uuid.UUID, code string) (bool, error)
	SetLoginCode(ctx context.Context, id uuid.UUID, code string, expires time.Time) error
	ConsumeLoginCode(ctx context.Context, id uuid.UUID, code string, now time.Time) (bool, error)
}

// GormUserRepository implements UserRepository with GORM.
type GormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository constructs a GormUserRepository.
func NewUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicate
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err, "find user by email")
	}
	return &user, nil
}

func (r *GormUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err, "find user by id")
	}
	return &user, nil
}

// SetVerificationCode overwrites the user's verification code.
func (r *GormUserRepository) SetVerificationCode(ctx context.Context, id uuid.UUID, code string) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Update("verification_code", code)
	if res.Error != nil {
		return fmt.Errorf("set verification code: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ConsumeVerificationCode marks the user verified and clears the code in a
// single conditional update. It reports false when the id/code pair does not
// match the current row.
func (r *GormUserRepository) ConsumeVerificationCode(ctx context.Context, id uuid.UUID, code string) (bool, error) {
	if code == "" {
		return false, nil
	}
	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND verification_code = ?", id, code).
		Updates(map[string]interface{}{
			"is_verified":       true,
			"verification_code": nil,
		})
	if res.Error != nil {
		return false, fmt.Errorf("consume verification code: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// SetLoginCode stores a new 2FA code. The previous code, if any, is lost.
func (r *GormUserRepository) SetLoginCode(ctx context.Context, id uuid.UUID, code string, expires time.Time) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"login_code":   code,
			"code_expires": expires,
		})
	if res.Error != nil {
		return fmt.Errorf("set login code: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ConsumeLoginCode clears the 2FA code if it matches and expires strictly
// after now. It reports false otherwise.
func (r *GormUserRepository) ConsumeLoginCode(ctx context.Context, id uuid.UUID, code string, now time.Time) (bool, error) {
	if code == "" {
		return false, nil
	}
	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND login_code = ? AND code_expires > ?", id, code, now).
		Updates(map[string]interface{}{
			"login_code":   nil,
			"code_expires": nil,
		})
	if res.Error != nil {
		return false, fmt.Errorf("consume login code: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func translate(err error, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
