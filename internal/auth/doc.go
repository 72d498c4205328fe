// Package auth establishes who is acting on a request.
//
// # Tokens
//
// Codec signs and verifies HMAC JWTs. Access tokens carry the username as
// subject and an expiry. Refresh tokens additionally carry type=refresh. Every
// token gets a random jti, so two tokens minted in the same second differ.
//
// TokenService issues, rotates, verifies and revokes tokens:
//   - IssuePair stores the new refresh token as the single credential of the
//     user, replacing any previous one.
//   - RefreshPair accepts only the currently stored refresh token. It is
//     consumed by one conditional delete, so of two concurrent refreshes with
//     the same token at most one succeeds.
//   - VerifyAccessToken is stateless. Revoke removes the stored refresh token
//     but access tokens stay valid until they expire.
//
// # Middleware
//
// Attribution resolves an optional bearer token on every request. A missing
// or invalid token leaves the request anonymous; only the guards reject it:
//
//	app.Use(auth.Attribution(tokens))
//	app.Post("/setting/create", auth.RequireAuthenticated(), handler)
//	app.Post("/user/create", auth.RequireRole(models.RoleAdmin), handler)
//
// LocalProvider checks username and password against the argon2id hash
// stored for the identity.
package auth
