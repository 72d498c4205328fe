package config

import (
	"errors"
)

var (
	// ErrEmptyURL error if config webserver.URL is empty.
	ErrEmptyURL = errors.New("toml config webserver.url can not be empty")

	// ErrWebServerPortCanNotBeZero error if config webserver listening port is 0.
	ErrWebServerPortCanNotBeZero = errors.New("toml config webserver.port listening port can not be 0")

	// ErrTokenSecretTooShort is returned if token.secret is shorter than MinSecretLength.
	ErrTokenSecretTooShort = errors.New("toml config token.secret is too short")

	// ErrUnsupportedAlgorithm is returned if token.algorithm is not an HMAC algorithm.
	ErrUnsupportedAlgorithm = errors.New("toml config token.algorithm is not supported")

	// ErrTokenTTL is returned if a token lifetime is not positive.
	ErrTokenTTL = errors.New("toml config token lifetimes must be greater than 0")

	// ErrUnsupportedGormEngine is returned for an unknown db.gormEngine.
	ErrUnsupportedGormEngine = errors.New("toml config db.gormEngine is not supported")
)
