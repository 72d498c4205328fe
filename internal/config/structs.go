package config

import (
	"time"

	"github.com/runtime-config/runtime-config/internal/logger"
)

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	DB        DB
	Log       logger.Log
	Title     string
	Webserver Webserver
	Token     Token
}

// Webserver implement webserver settings.
type Webserver struct {
	DisableRecover bool   // disable recover middleware
	Port           int    // listening port for the webserver
	ShutDownTime   int    // wait time for shutdown
	URL            string // base url for the webserver
	BodyLimit      int    // max request body size in bytes, 0 uses the fiber default
}

// Token holds the signing and lifetime settings for access and refresh tokens.
type Token struct {
	Secret                    string // HMAC signing secret
	Algorithm                 string // HS256, HS384 or HS512
	Issuer                    string // optional iss claim, checked on decode when set
	AccessTokenExpireMinutes  int
	RefreshTokenExpireMinutes int
}

// AccessTTL returns the lifetime of an access token.
func (t Token) AccessTTL() time.Duration {
	return time.Duration(t.AccessTokenExpireMinutes) * time.Minute
}

// RefreshTTL returns the lifetime of a refresh token.
func (t Token) RefreshTTL() time.Duration {
	return time.Duration(t.RefreshTokenExpireMinutes) * time.Minute
}
