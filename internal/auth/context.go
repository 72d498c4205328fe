package auth

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/runtime-config/runtime-config/internal/db/models"
)

// LocalsIdentity is the fiber locals key of the resolved identity.
const LocalsIdentity = "identity"

const localsAttributionErr = "attribution_error"

type identityKey struct{}

// ContextWithIdentity returns a copy of ctx carrying u.
func ContextWithIdentity(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, identityKey{}, u)
}

// IdentityFromContext returns the identity stored in ctx, if any.
func IdentityFromContext(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(identityKey{}).(*models.User)

	return u, ok && u != nil
}

// Identity returns the identity resolved for the request, nil when anonymous.
func Identity(c *fiber.Ctx) *models.User {
	u, _ := c.Locals(LocalsIdentity).(*models.User)

	return u
}

// Actor is the username of the request identity, empty when anonymous.
func Actor(c *fiber.Ctx) string {
	if u := Identity(c); u != nil {
		return u.Username
	}

	return ""
}

func attributionErr(c *fiber.Ctx) error {
	err, _ := c.Locals(localsAttributionErr).(error)

	return err
}
