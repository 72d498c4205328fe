// Package token serves login, token refresh and logout.
package token

import (
	"github.com/gofiber/fiber/v2"

	"github.com/runtime-config/runtime-config/internal/auth"
	"github.com/runtime-config/runtime-config/internal/web/handler"
)

const (
	// LoginPath exchanges username and password for a token pair.
	LoginPath = "/token"
	// RefreshPath exchanges a refresh token for a new pair.
	RefreshPath = "/refresh-token"
	// LogoutPath revokes the stored refresh token of the caller.
	LogoutPath = "/logout"
)

type loginRequest struct {
	Username string `json:"username" form:"username" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" form:"refresh_token" validate:"required"`
}

// Service is the token handler service.
type Service struct {
	tokens *auth.TokenService
	local  *auth.LocalProvider
}

var _ handler.Service = (*Service)(nil)

// Handler is the token handler.
var Handler = Service{} //nolint:gochecknoglobals

// Init registers the token routes.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if app == nil || !deps.Valid() {
		return handler.ErrNilDeps
	}

	s.tokens = deps.Tokens
	s.local = deps.Local

	app.Post(LoginPath, s.Login)
	app.Post(RefreshPath, s.Refresh)
	app.Get(LogoutPath, auth.RequireAuthenticated(), s.Logout)

	return nil
}

// Login authenticates with username and password and returns a token pair.
func (s *Service) Login(c *fiber.Ctx) error {
	req := new(loginRequest)
	if err := handler.Bind(c, req); err != nil {
		return err
	}

	u, err := s.local.Authenticate(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}

	pair, err := s.tokens.IssuePair(c.UserContext(), u)
	if err != nil {
		return err
	}

	return c.JSON(pair)
}

// Refresh rotates a refresh token.
func (s *Service) Refresh(c *fiber.Ctx) error {
	req := new(refreshRequest)
	if err := handler.Bind(c, req); err != nil {
		return err
	}

	pair, err := s.tokens.RefreshPair(c.UserContext(), req.RefreshToken)
	if err != nil {
		return err
	}

	return c.JSON(pair)
}

// Logout revokes the refresh token of the caller.
func (s *Service) Logout(c *fiber.Ctx) error {
	if err := s.tokens.Revoke(c.UserContext(), auth.Identity(c)); err != nil {
		return err
	}

	return c.JSON(handler.OperationStatus{Status: handler.StatusSuccess})
}
