// Package scope lists and archives setting scopes.
package scope

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/runtime-config/runtime-config/internal/auth"
	scopestore "github.com/runtime-config/runtime-config/internal/db/controller/scope"
	"github.com/runtime-config/runtime-config/internal/db/models"
	"github.com/runtime-config/runtime-config/internal/web/handler"
)

// Path is the route group of the scope handler.
const Path = "/scope"

// View is the wire form of a scope.
type View struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	Archived  bool      `json:"archived"`
	CreatedAt time.Time `json:"created_at"`
}

func newView(sc *models.Scope) View {
	return View{ID: sc.ID, Name: sc.Name, Archived: sc.Archived, CreatedAt: sc.CreatedAt}
}

// Service is the scope handler service.
type Service struct {
	db *gorm.DB
}

var _ handler.Service = (*Service)(nil)

// Handler is the scope handler.
var Handler = Service{} //nolint:gochecknoglobals

// Init registers the scope routes.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if app == nil || !deps.Valid() {
		return handler.ErrNilDeps
	}

	s.db = deps.DB

	app.Route(Path, func(router fiber.Router) {
		router.Get("/list", auth.RequireAuthenticated(), s.List)
		router.Post("/archive/:name", auth.RequireRole(models.RoleAdmin), s.Archive)
	})

	return nil
}

// List returns the scopes, archived ones only with include_archived.
func (s *Service) List(c *fiber.Ctx) error {
	includeArchived, err := handler.QueryBool(c, "include_archived")
	if err != nil {
		return err
	}

	scopes, err := scopestore.List(s.db.WithContext(c.UserContext()), includeArchived)
	if err != nil {
		return err
	}

	views := make([]View, 0, len(scopes))
	for i := range scopes {
		views = append(views, newView(&scopes[i]))
	}

	return c.JSON(views)
}

// Archive stops a scope from accepting settings.
func (s *Service) Archive(c *fiber.Ctx) error {
	sc, err := scopestore.Archive(s.db.WithContext(c.UserContext()), c.Params("name"))
	if err != nil {
		return err
	}

	return c.JSON(newView(sc))
}
