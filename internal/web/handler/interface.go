package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/runtime-config/runtime-config/internal/auth"
	"github.com/runtime-config/runtime-config/internal/config"
	"github.com/runtime-config/runtime-config/internal/db/controller/setting"
)

// ErrNilDeps is returned by Init when app or a dependency is missing.
var ErrNilDeps = errors.New(ErrNilDepsFatalLogMsg)

// Deps are the services shared by all handlers.
type Deps struct {
	Cfg      *config.Config
	DB       *gorm.DB
	Settings *setting.Store
	Tokens   *auth.TokenService
	Local    *auth.LocalProvider
}

// Valid reports whether every dependency is set.
func (d *Deps) Valid() bool {
	return d != nil && d.Cfg != nil && d.DB != nil && d.Settings != nil && d.Tokens != nil && d.Local != nil
}

// Service is the interface for a web handler service.
type Service interface {
	Init(app *fiber.App, deps *Deps) error
}

// OperationStatus is the body of operations without a payload.
type OperationStatus struct {
	Status string `json:"status"`
}
