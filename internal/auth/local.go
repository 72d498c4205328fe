package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/runtime-config/runtime-config/internal/apperr"
	"github.com/runtime-config/runtime-config/internal/db/controller/user"
	"github.com/runtime-config/runtime-config/internal/db/models"
)

// NewUserForm holds the fields of a local identity to create.
type NewUserForm struct {
	Username string      `json:"username"  validate:"required,min=3,max=100"`
	Email    string      `json:"email"     validate:"required,email,max=255"`
	FullName string      `json:"full_name" validate:"max=255"`
	Password string      `json:"password"  validate:"required,min=3,max=40"`
	Role     models.Role `json:"role"      validate:"omitempty,oneof=admin user"`
}

// LocalProvider handles local database authentication.
type LocalProvider struct {
	db       *gorm.DB
	validate *validator.Validate
}

// NewLocalProvider creates a new local authentication provider.
func NewLocalProvider(db *gorm.DB) *LocalProvider {
	return &LocalProvider{
		db:       db,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Authenticate checks username and password. Unknown usernames and wrong
// passwords are indistinguishable for the caller.
func (p *LocalProvider) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	u, err := user.GetByUsername(ctx, p.db, username)
	if errors.Is(err, user.ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}

	if err != nil {
		return nil, err
	}

	if !u.VerifyPassword(password) {
		return nil, ErrInvalidCredentials
	}

	if !u.Active {
		return nil, ErrUserAccountDisabled
	}

	return u, nil
}

// CreateUser validates form and stores an active identity. Role defaults to user.
func (p *LocalProvider) CreateUser(ctx context.Context, form NewUserForm) (*models.User, error) {
	form.Username = strings.TrimSpace(form.Username)
	form.Email = strings.TrimSpace(form.Email)

	if err := p.validate.Struct(form); err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrValidation, err)
	}

	if form.Role == "" {
		form.Role = models.RoleUser
	}

	return user.Create(ctx, p.db, user.New{
		Username: form.Username,
		FullName: form.FullName,
		Email:    form.Email,
		Password: form.Password,
		Role:     form.Role,
		Active:   true,
	})
}

// ListUsers returns every identity ordered by username.
func (p *LocalProvider) ListUsers(ctx context.Context) ([]models.User, error) {
	return user.List(ctx, p.db)
}

// SetUserActive enables or disables the identity with the given id.
func (p *LocalProvider) SetUserActive(ctx context.Context, id uint64, active bool) (*models.User, error) {
	return user.SetActive(ctx, p.db, id, active)
}
