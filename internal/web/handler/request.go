package handler

import (
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/runtime-config/runtime-config/internal/apperr"
)

var validate = validator.New(validator.WithRequiredStructEnabled()) //nolint:gochecknoglobals

// Bind parses the request body into out and validates its struct tags.
func Bind(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperr.Validation("malformed request body: %v", err)
	}

	if err := validate.Struct(out); err != nil {
		return fmt.Errorf("%w: %w", apperr.ErrValidation, err)
	}

	return nil
}

// ParamID parses the route parameter name as a positive id.
func ParamID(c *fiber.Ctx, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.Validation("%s must be a positive integer", name)
	}

	return id, nil
}

// QueryInt parses the query parameter name, def when absent.
func QueryInt(c *fiber.Ctx, name string, def int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.Validation("%s must be an integer", name)
	}

	return v, nil
}

// QueryBool parses the query parameter name, false when absent.
func QueryBool(c *fiber.Ctx, name string) (bool, error) {
	raw := c.Query(name)
	if raw == "" {
		return false, nil
	}

	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, apperr.Validation("%s must be a boolean", name)
	}

	return v, nil
}
