// Package user lets admins manage identities.
package user

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/runtime-config/runtime-config/internal/apperr"
	"github.com/runtime-config/runtime-config/internal/auth"
	"github.com/runtime-config/runtime-config/internal/db/models"
	"github.com/runtime-config/runtime-config/internal/web/handler"
)

// Path is the route group of the user handler.
const Path = "/user"

// View is the wire form of an identity. The password hash is never exposed.
type View struct {
	ID        uint64      `json:"id"`
	Username  string      `json:"username"`
	FullName  string      `json:"full_name"`
	Email     string      `json:"email"`
	Role      models.Role `json:"role"`
	Active    bool        `json:"active"`
	CreatedAt time.Time   `json:"created_at"`
}

// Service is the user handler service.
type Service struct {
	local  *auth.LocalProvider
	tokens *auth.TokenService
}

var _ handler.Service = (*Service)(nil)

// Handler is the user handler.
var Handler = Service{} //nolint:gochecknoglobals

// Init registers the user routes. They are restricted to admins.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if app == nil || !deps.Valid() {
		return handler.ErrNilDeps
	}

	s.local = deps.Local
	s.tokens = deps.Tokens

	app.Route(Path, func(router fiber.Router) {
		router.Use(auth.RequireRole(models.RoleAdmin))
		router.Get("/list", s.List)
		router.Post("/create", s.Create)
		router.Post("/activate/:id", s.Activate)
		router.Post("/deactivate/:id", s.Deactivate)
	})

	return nil
}

// Create stores a new active identity. The form is validated by the provider.
func (s *Service) Create(c *fiber.Ctx) error {
	form := new(auth.NewUserForm)
	if err := c.BodyParser(form); err != nil {
		return apperr.Validation("malformed request body: %v", err)
	}

	u, err := s.local.CreateUser(c.UserContext(), *form)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(toView(u))
}

// List returns every identity ordered by username.
func (s *Service) List(c *fiber.Ctx) error {
	users, err := s.local.ListUsers(c.UserContext())
	if err != nil {
		return err
	}

	views := make([]View, 0, len(users))
	for i := range users {
		views = append(views, toView(&users[i]))
	}

	return c.JSON(views)
}

// Activate re-enables a disabled identity.
func (s *Service) Activate(c *fiber.Ctx) error {
	id, err := handler.ParamID(c, "id")
	if err != nil {
		return err
	}

	u, err := s.local.SetUserActive(c.UserContext(), id, true)
	if err != nil {
		return err
	}

	return c.JSON(toView(u))
}

// Deactivate disables an identity and revokes its refresh token. Admins
// cannot disable themselves.
func (s *Service) Deactivate(c *fiber.Ctx) error {
	id, err := handler.ParamID(c, "id")
	if err != nil {
		return err
	}

	if actor := auth.Identity(c); actor != nil && actor.ID == id {
		return apperr.Validation("cannot deactivate the requesting user")
	}

	u, err := s.local.SetUserActive(c.UserContext(), id, false)
	if err != nil {
		return err
	}

	if err = s.tokens.Revoke(c.UserContext(), u); err != nil {
		return err
	}

	return c.JSON(toView(u))
}

func toView(u *models.User) View {
	return View{
		ID:        u.ID,
		Username:  u.Username,
		FullName:  u.FullName,
		Email:     u.Email,
		Role:      u.Role,
		Active:    u.Active,
		CreatedAt: u.CreatedAt,
	}
}
