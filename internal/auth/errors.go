package auth

import (
	"errors"
	"fmt"

	"github.com/runtime-config/runtime-config/internal/apperr"
)

var (
	// ErrInvalidCredentials is returned for an unknown username or a wrong password.
	ErrInvalidCredentials = fmt.Errorf("%w: incorrect username or password", apperr.ErrUnauthorized)

	// ErrUserAccountDisabled is returned when an inactive identity authenticates.
	ErrUserAccountDisabled = fmt.Errorf("%w: user account is disabled", apperr.ErrUnauthorized)

	// ErrInvalidToken is returned when an access token fails signature, expiry or subject checks.
	ErrInvalidToken = fmt.Errorf("%w: could not validate credentials", apperr.ErrUnauthorized)

	// ErrInvalidRefreshToken is returned for any rejected refresh attempt.
	ErrInvalidRefreshToken = fmt.Errorf("%w: invalid refresh token", apperr.ErrUnauthorized)

	// ErrAuthenticationRequired is returned by guards on anonymous requests.
	ErrAuthenticationRequired = fmt.Errorf("%w: not authenticated", apperr.ErrUnauthorized)

	// ErrInsufficientRole is returned by RequireRole for identities of another role.
	ErrInsufficientRole = fmt.Errorf("%w: insufficient role", apperr.ErrForbidden)

	// ErrUnsupportedAlgorithm is returned for signing algorithms outside the HMAC family.
	ErrUnsupportedAlgorithm = errors.New("unsupported token signing algorithm")

	// ErrEmptySecret is returned when no signing secret is configured.
	ErrEmptySecret = errors.New("token signing secret is empty")
)
