// Package setting serves the settings store over HTTP.
package setting

import (
	"github.com/gofiber/fiber/v2"

	"github.com/runtime-config/runtime-config/internal/apperr"
	"github.com/runtime-config/runtime-config/internal/auth"
	settingstore "github.com/runtime-config/runtime-config/internal/db/controller/setting"
	"github.com/runtime-config/runtime-config/internal/db/models"
	"github.com/runtime-config/runtime-config/internal/web/handler"
)

const (
	// Path is the route group of the settings handler.
	Path = "/setting"

	paramID    = "id"
	paramScope = "scope"
)

type createRequest struct {
	Name      string           `json:"name"       validate:"required,max=255"`
	Value     *string          `json:"value"`
	ValueType models.ValueType `json:"value_type" validate:"required"`
	Disabled  bool             `json:"disabled"`
	Scope     string           `json:"scope"      validate:"required,max=255"`
}

type editRequest struct {
	ID        uint64            `json:"id"         validate:"required"`
	Name      *string           `json:"name"       validate:"omitempty,max=255"`
	Value     optionalValue     `json:"value"`
	ValueType *models.ValueType `json:"value_type"`
	Disabled  *bool             `json:"disabled"`
	Scope     *string           `json:"scope"      validate:"omitempty,max=255"`
}

// Service is the settings handler service.
type Service struct {
	store *settingstore.Store
}

var _ handler.Service = (*Service)(nil)

// Handler is the settings handler.
var Handler = Service{} //nolint:gochecknoglobals

// Init registers the settings routes. All of them require an authenticated caller.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if app == nil || !deps.Valid() {
		return handler.ErrNilDeps
	}

	s.store = deps.Settings

	app.Route(Path, func(router fiber.Router) {
		router.Use(auth.RequireAuthenticated())
		router.Post("/create", s.Create)
		router.Post("/edit", s.Edit)
		router.Get("/delete/:"+paramID, s.Delete)
		router.Get("/get/:"+paramID, s.Get)
		router.Get("/history/:"+paramID, s.History)
		router.Get("/search", s.Search)
		router.Get("/all/:"+paramScope, s.All)
	})

	return nil
}

// Create stores a new setting.
func (s *Service) Create(c *fiber.Ctx) error {
	req := new(createRequest)
	if err := handler.Bind(c, req); err != nil {
		return err
	}

	st, err := s.store.Create(c.UserContext(), settingstore.NewSetting{
		Name:      req.Name,
		Value:     req.Value,
		ValueType: req.ValueType,
		Disabled:  req.Disabled,
		Scope:     req.Scope,
	}, auth.Identity(c))
	if err != nil {
		return err
	}

	return c.JSON(newView(st))
}

// Edit applies a partial update. Fields missing from the body stay untouched.
func (s *Service) Edit(c *fiber.Ctx) error {
	req := new(editRequest)
	if err := handler.Bind(c, req); err != nil {
		return err
	}

	st, err := s.store.Edit(c.UserContext(), req.ID, settingstore.Changes{
		Name:      req.Name,
		Value:     req.Value.Value,
		ValueSet:  req.Value.Set,
		ValueType: req.ValueType,
		Disabled:  req.Disabled,
		Scope:     req.Scope,
	}, auth.Identity(c))
	if err != nil {
		return err
	}

	return c.JSON(newView(st))
}

// Delete removes a setting.
func (s *Service) Delete(c *fiber.Ctx) error {
	id, err := handler.ParamID(c, paramID)
	if err != nil {
		return err
	}

	deleted, err := s.store.Delete(c.UserContext(), id, auth.Identity(c))
	if err != nil {
		return err
	}

	if !deleted {
		return settingstore.ErrSettingNotFound
	}

	return c.JSON(handler.OperationStatus{Status: handler.StatusSuccess})
}

// Get returns one setting, with its history when include_history is set.
func (s *Service) Get(c *fiber.Ctx) error {
	id, err := handler.ParamID(c, paramID)
	if err != nil {
		return err
	}

	includeHistory, err := handler.QueryBool(c, "include_history")
	if err != nil {
		return err
	}

	st, entries, err := s.store.Get(c.UserContext(), id, includeHistory)
	if err != nil {
		return err
	}

	resp := GetResponse{Setting: newView(st)}
	if includeHistory {
		resp.ChangeHistory = newHistoryViews(entries)
	}

	return c.JSON(resp)
}

// History returns the history of a setting, also after it was deleted.
func (s *Service) History(c *fiber.Ctx) error {
	id, err := handler.ParamID(c, paramID)
	if err != nil {
		return err
	}

	entries, err := s.store.History(c.UserContext(), id)
	if err != nil {
		return err
	}

	return c.JSON(newHistoryViews(entries))
}

// Search filters live settings by name substring and scope.
func (s *Service) Search(c *fiber.Ctx) error {
	offset, limit, err := page(c)
	if err != nil {
		return err
	}

	seq, err := s.store.Search(c.UserContext(), settingstore.SearchParams{
		Name:   c.Query("name"),
		Scope:  c.Query(paramScope),
		Offset: offset,
		Limit:  limit,
	})
	if err != nil {
		return err
	}

	found, err := settingstore.Collect(seq)
	if err != nil {
		return err
	}

	return c.JSON(newViews(found))
}

// All lists the settings of one scope, at most settingstore.MaxLimit per page.
func (s *Service) All(c *fiber.Ctx) error {
	offset, limit, err := page(c)
	if err != nil {
		return err
	}

	seq, err := s.store.ListByScope(c.UserContext(), c.Params(paramScope), offset, limit)
	if err != nil {
		return err
	}

	found, err := settingstore.Collect(seq)
	if err != nil {
		return err
	}

	return c.JSON(newViews(found))
}

// page reads offset and limit. An explicit limit must lie in 1..MaxLimit,
// an absent one means DefaultLimit.
func page(c *fiber.Ctx) (int, int, error) {
	offset, err := handler.QueryInt(c, "offset", 0)
	if err != nil {
		return 0, 0, err
	}

	if offset < 0 {
		return 0, 0, apperr.Validation("offset must not be negative, got %d", offset)
	}

	limit, err := handler.QueryInt(c, "limit", settingstore.DefaultLimit)
	if err != nil {
		return 0, 0, err
	}

	if limit < 1 || limit > settingstore.MaxLimit {
		return 0, 0, apperr.Validation("limit must be between 1 and %d, got %d", settingstore.MaxLimit, limit)
	}

	return offset, limit, nil
}
