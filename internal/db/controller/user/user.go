// Package user resolves and stores identities.
package user

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/runtime-config/runtime-config/internal/apperr"
	"github.com/runtime-config/runtime-config/internal/db/models"
)

var (
	// ErrUserNotFound is returned when no identity matches.
	ErrUserNotFound = fmt.Errorf("%w: user not found", apperr.ErrNotFound)
	// ErrUserNameOrEmailExists is returned when the username or email is taken.
	ErrUserNameOrEmailExists = fmt.Errorf("%w: user with username or email already exists", apperr.ErrConflict)
)

// New holds the fields of an identity to create. Password is plaintext.
type New struct {
	Username string
	FullName string
	Email    string
	Password string
	Role     models.Role
	Active   bool
}

// GetByUsername resolves a token subject to an identity.
func GetByUsername(ctx context.Context, db *gorm.DB, username string) (*models.User, error) {
	return first(ctx, db, "username = ?", username)
}

// GetByID returns the identity with the given id.
func GetByID(ctx context.Context, db *gorm.DB, id uint64) (*models.User, error) {
	return first(ctx, db, "id = ?", id)
}

func first(ctx context.Context, db *gorm.DB, query string, arg any) (*models.User, error) {
	var u models.User

	err := db.WithContext(ctx).Where(query, arg).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}

	if err != nil {
		return nil, apperr.Internal("get user", err)
	}

	return &u, nil
}

// Create hashes the password and stores a new identity.
func Create(ctx context.Context, db *gorm.DB, in New) (*models.User, error) {
	if !in.Role.Valid() {
		return nil, apperr.Validation("unknown role %q", in.Role)
	}

	hash, err := models.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Internal("hash password", err)
	}

	u := &models.User{
		Username: in.Username,
		FullName: in.FullName,
		Email:    in.Email,
		Password: hash,
		Role:     in.Role,
		Active:   in.Active,
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var taken int64

		if err := tx.Model(&models.User{}).
			Where("username = ? OR email = ?", in.Username, in.Email).
			Count(&taken).Error; err != nil {
			return apperr.Internal("check existing user", err)
		}

		if taken > 0 {
			return ErrUserNameOrEmailExists
		}

		if err := tx.Create(u).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrUserNameOrEmailExists
			}

			return apperr.Internal("create user", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return u, nil
}

// SetActive enables or disables an identity.
func SetActive(ctx context.Context, db *gorm.DB, id uint64, active bool) (*models.User, error) {
	u, err := GetByID(ctx, db, id)
	if err != nil {
		return nil, err
	}

	if err = db.WithContext(ctx).Model(u).Update("active", active).Error; err != nil {
		return nil, apperr.Internal("update user", err)
	}

	u.Active = active

	return u, nil
}

// List returns all identities ordered by username.
func List(ctx context.Context, db *gorm.DB) ([]models.User, error) {
	var users []models.User

	if err := db.WithContext(ctx).Order("username").Find(&users).Error; err != nil {
		return nil, apperr.Internal("list users", err)
	}

	return users, nil
}
