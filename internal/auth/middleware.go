package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/runtime-config/runtime-config/internal/apperr"
	"github.com/runtime-config/runtime-config/internal/db/models"
)

const bearerScheme = "bearer"

// AccessVerifier resolves access tokens to identities.
type AccessVerifier interface {
	VerifyAccessToken(ctx context.Context, raw string) (*models.User, error)
}

// Attribution resolves the optional bearer token of a request. Requests
// without a valid token continue anonymously. A failure of the identity
// store is kept on the request and surfaced only by the guards, so routes
// that need no identity keep working.
func Attribution(verifier AccessVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw, ok := BearerToken(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return c.Next()
		}

		u, err := verifier.VerifyAccessToken(c.UserContext(), raw)

		switch {
		case err == nil:
			c.Locals(LocalsIdentity, u)
			c.SetUserContext(ContextWithIdentity(c.UserContext(), u))
		case errors.Is(err, apperr.ErrUnauthorized):
			log.Debug().Err(err).Str("path", c.Path()).Msg("ignoring invalid access token")
		default:
			log.Warn().Err(err).Str("path", c.Path()).Msg("identity lookup failed")
			c.Locals(localsAttributionErr, err)
		}

		return c.Next()
	}
}

// RequireAuthenticated rejects anonymous requests and disabled identities.
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := attributionErr(c); err != nil {
			return err
		}

		u := Identity(c)
		if u == nil || !u.Active {
			return ErrAuthenticationRequired
		}

		return c.Next()
	}
}

// RequireRole rejects requests whose identity lacks role.
func RequireRole(role models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := attributionErr(c); err != nil {
			return err
		}

		u := Identity(c)
		if u == nil || !u.Active {
			return ErrAuthenticationRequired
		}

		if u.Role != role {
			log.Warn().Str("username", u.Username).Str("role", string(role)).
				Msg("user lacks required role")

			return fmt.Errorf("%w: %s required", ErrInsufficientRole, role)
		}

		return c.Next()
	}
}

// BearerToken extracts the token of an Authorization header value.
func BearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, bearerScheme) {
		return "", false
	}

	token = strings.TrimSpace(token)

	return token, token != ""
}
